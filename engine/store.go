/*
store.go - Persistence interfaces for the leave engine

PURPOSE:
  Defines the boundary between domain logic and the database. Services in
  this package depend only on these interfaces; store/sqlite provides the
  production implementation and engine/store an in-memory one for tests.

ATOMICITY:
  Compound operations (approve a request AND debit the balance, delete a
  team AND null out member team ids) run inside TxStore.WithTx so a failure
  partway never leaves the ledger inconsistent with the request status.

APPEND-ONLY LEDGER:
  LedgerStore has no update or delete. Balance corrections are recorded as
  new adjustment entries; history is never rewritten.
*/
package engine

import "context"

// UserStore persists users.
type UserStore interface {
	SaveUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListUsersByTeam(ctx context.Context, teamID string) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// TeamStore persists teams.
type TeamStore interface {
	SaveTeam(ctx context.Context, t Team) error
	GetTeam(ctx context.Context, id string) (*Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	DeleteTeam(ctx context.Context, id string) error
}

// RequestStore persists leave requests.
type RequestStore interface {
	SaveRequest(ctx context.Context, r LeaveRequest) error
	GetRequest(ctx context.Context, id string) (*LeaveRequest, error)
	// ListRequests returns requests matching filter, created_at descending.
	ListRequests(ctx context.Context, filter RequestFilter) ([]LeaveRequest, error)
}

// HolidayStore persists holidays.
type HolidayStore interface {
	SaveHoliday(ctx context.Context, h Holiday) error
	GetHoliday(ctx context.Context, id string) (*Holiday, error)
	// ListHolidays returns all holidays ordered by date ascending.
	ListHolidays(ctx context.Context) ([]Holiday, error)
	// FindHolidayByNameDate looks up by normalized name + exact date.
	// Returns nil when no match.
	FindHolidayByNameDate(ctx context.Context, normalizedName string, date Date) (*Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
}

// LedgerStore persists balance ledger entries. Append-only.
type LedgerStore interface {
	AppendLedgerEntry(ctx context.Context, e LedgerEntry) error
	// ListLedgerEntries returns a user's entries, created_at descending.
	ListLedgerEntries(ctx context.Context, userID string) ([]LedgerEntry, error)
}

// Store aggregates everything the engine persists.
type Store interface {
	UserStore
	TeamStore
	RequestStore
	HolidayStore
	LedgerStore
}

// TxStore adds transactional execution. fn receives a Store bound to the
// transaction; returning an error rolls everything back.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
