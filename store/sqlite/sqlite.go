/*
Package sqlite provides the SQLite-backed implementation of engine.TxStore.

PURPOSE:
  Durable storage for users, teams, leave requests, holidays and ledger
  entries. The same SQL shapes port to PostgreSQL with minor dialect
  changes.

KEY TABLES:
  users            roster, balances live on the row
  teams            team definitions
  leave_requests   request lifecycle records
  holidays         calendar entries, unique on (normalized_name, date)
  ledger_entries   append-only balance history (no UPDATE, no DELETE)

ATOMICITY:
  WithTx runs a function against a transaction-bound store; approve+debit
  and team-delete cascades use it so partial writes never land.

WAL MODE:
  Opened with WAL for better read concurrency and crash recovery, plus a
  sync.RWMutex as SQLite allows one writer at a time. Use ":memory:" for
  tests.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/engine"
)

const timeFormat = time.RFC3339Nano

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements engine.TxStore on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (creating if needed) the database at dbPath and migrates the
// schema. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time anyway; a single pooled connection also keeps
	// ":memory:" databases from splitting across connections.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		team_id TEXT,
		vacation_days_balance INTEGER NOT NULL DEFAULT 0,
		sick_days_balance INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_team ON users(team_id);

	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		manager_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days_count INTEGER NOT NULL,
		reason TEXT,
		status TEXT NOT NULL,
		reviewed_by TEXT,
		reviewed_at TEXT,
		review_comments TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user ON leave_requests(user_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON leave_requests(status);
	-- Overlap queries scan by range; keep dates indexed
	CREATE INDEX IF NOT EXISTS idx_requests_dates ON leave_requests(start_date, end_date);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		date TEXT NOT NULL,
		holiday_type TEXT NOT NULL,
		is_mandatory INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Duplicate rule: normalized name + exact date
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_name_date
		ON holidays(normalized_name, date);
	CREATE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);

	-- Append-only balance history
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		delta TEXT NOT NULL,
		balance TEXT NOT NULL,
		request_id TEXT,
		reason TEXT,
		created_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_user ON ledger_entries(user_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u engine.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveUser(ctx, s.db, u)
}

func saveUser(ctx context.Context, db dbtx, u engine.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, team_id,
			vacation_days_balance, sick_days_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			password_hash = excluded.password_hash,
			role = excluded.role,
			team_id = excluded.team_id,
			vacation_days_balance = excluded.vacation_days_balance,
			sick_days_balance = excluded.sick_days_balance`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), nullStringPtr(u.TeamID),
		u.VacationDaysBalance, u.SickDaysBalance, u.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

const userColumns = `id, email, name, password_hash, role, team_id,
	vacation_days_balance, sick_days_balance, created_at`

func (s *Store) GetUser(ctx context.Context, id string) (*engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUser(ctx, s.db, id)
}

func getUser(ctx context.Context, db dbtx, id string) (*engine.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	defer rows.Close()
	return oneUser(rows)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUserByEmail(ctx, s.db, email)
}

func getUserByEmail(ctx context.Context, db dbtx, email string) (*engine.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	defer rows.Close()
	return oneUser(rows)
}

func (s *Store) ListUsers(ctx context.Context) ([]engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listUsers(ctx, s.db)
}

func listUsers(ctx context.Context, db dbtx) ([]engine.User, error) {
	return queryUsers(ctx, db, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
}

func (s *Store) ListUsersByTeam(ctx context.Context, teamID string) ([]engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listUsersByTeam(ctx, s.db, teamID)
}

func listUsersByTeam(ctx context.Context, db dbtx, teamID string) ([]engine.User, error) {
	return queryUsers(ctx, db,
		`SELECT `+userColumns+` FROM users WHERE team_id = ? ORDER BY created_at ASC, id ASC`, teamID)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteUser(ctx, s.db, id)
}

func deleteUser(ctx context.Context, db dbtx, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func queryUsers(ctx context.Context, db dbtx, query string, args ...any) ([]engine.User, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []engine.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func oneUser(rows *sql.Rows) (*engine.User, error) {
	if !rows.Next() {
		return nil, rows.Err()
	}
	u, err := scanUser(rows)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanUser(rows *sql.Rows) (engine.User, error) {
	var (
		u         engine.User
		role      string
		teamID    sql.NullString
		createdAt string
	)
	if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &teamID,
		&u.VacationDaysBalance, &u.SickDaysBalance, &createdAt); err != nil {
		return engine.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Role = engine.Role(role)
	if teamID.Valid {
		u.TeamID = &teamID.String
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

// =============================================================================
// TEAMS
// =============================================================================

func (s *Store) SaveTeam(ctx context.Context, t engine.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveTeam(ctx, s.db, t)
}

func saveTeam(ctx context.Context, db dbtx, t engine.Team) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO teams (id, name, manager_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			manager_id = excluded.manager_id`,
		t.ID, t.Name, nullStringPtr(t.ManagerID), t.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save team: %w", err)
	}
	return nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (*engine.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTeam(ctx, s.db, id)
}

func getTeam(ctx context.Context, db dbtx, id string) (*engine.Team, error) {
	var (
		t         engine.Team
		managerID sql.NullString
		createdAt string
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, name, manager_id, created_at FROM teams WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &managerID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query team: %w", err)
	}
	if managerID.Valid {
		t.ManagerID = &managerID.String
	}
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

func (s *Store) ListTeams(ctx context.Context) ([]engine.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listTeams(ctx, s.db)
}

func listTeams(ctx context.Context, db dbtx) ([]engine.Team, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, manager_id, created_at FROM teams ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []engine.Team
	for rows.Next() {
		var (
			t         engine.Team
			managerID sql.NullString
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.Name, &managerID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		if managerID.Valid {
			t.ManagerID = &managerID.String
		}
		t.CreatedAt = parseTime(createdAt)
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *Store) DeleteTeam(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteTeam(ctx, s.db, id)
}

func deleteTeam(ctx context.Context, db dbtx, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

const requestColumns = `id, user_id, user_name, leave_type, start_date, end_date,
	days_count, reason, status, reviewed_by, reviewed_at, review_comments, created_at`

func (s *Store) SaveRequest(ctx context.Context, r engine.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRequest(ctx, s.db, r)
}

func saveRequest(ctx context.Context, db dbtx, r engine.LeaveRequest) error {
	var reviewedAt any
	if r.ReviewedAt != nil {
		reviewedAt = r.ReviewedAt.UTC().Format(timeFormat)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO leave_requests (id, user_id, user_name, leave_type, start_date, end_date,
			days_count, reason, status, reviewed_by, reviewed_at, review_comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			reviewed_by = excluded.reviewed_by,
			reviewed_at = excluded.reviewed_at,
			review_comments = excluded.review_comments`,
		r.ID, r.UserID, r.UserName, string(r.Type),
		r.StartDate.String(), r.EndDate.String(), r.DaysCount,
		r.Reason, string(r.Status),
		nullStringPtr(r.ReviewedBy), reviewedAt, nullStringPtr(r.ReviewComments),
		r.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (*engine.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, db dbtx, id string) (*engine.LeaveRequest, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query request: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanRequest(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListRequests(ctx context.Context, filter engine.RequestFilter) ([]engine.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequests(ctx, s.db, filter)
}

func listRequests(ctx context.Context, db dbtx, filter engine.RequestFilter) ([]engine.LeaveRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE 1=1`
	var args []any

	if filter.UserID != nil {
		query += ` AND user_id = ?`
		args = append(args, *filter.UserID)
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	if filter.TeamID != nil {
		query += ` AND user_id IN (SELECT id FROM users WHERE team_id = ?)`
		args = append(args, *filter.TeamID)
	}
	if filter.From != nil && filter.To != nil {
		// inclusive interval overlap
		query += ` AND start_date <= ? AND end_date >= ?`
		args = append(args, filter.To.String(), filter.From.String())
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []engine.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func scanRequest(rows *sql.Rows) (engine.LeaveRequest, error) {
	var (
		r              engine.LeaveRequest
		leaveType      string
		startDate      string
		endDate        string
		reason         sql.NullString
		status         string
		reviewedBy     sql.NullString
		reviewedAt     sql.NullString
		reviewComments sql.NullString
		createdAt      string
	)
	if err := rows.Scan(&r.ID, &r.UserID, &r.UserName, &leaveType, &startDate, &endDate,
		&r.DaysCount, &reason, &status, &reviewedBy, &reviewedAt, &reviewComments, &createdAt); err != nil {
		return engine.LeaveRequest{}, fmt.Errorf("failed to scan request: %w", err)
	}
	r.Type = engine.LeaveType(leaveType)
	r.Status = engine.RequestStatus(status)
	r.StartDate = parseDate(startDate)
	r.EndDate = parseDate(endDate)
	r.Reason = reason.String
	if reviewedBy.Valid {
		r.ReviewedBy = &reviewedBy.String
	}
	if reviewedAt.Valid {
		t := parseTime(reviewedAt.String)
		r.ReviewedAt = &t
	}
	if reviewComments.Valid {
		r.ReviewComments = &reviewComments.String
	}
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

const holidayColumns = `id, name, date, holiday_type, is_mandatory, created_by, created_at`

func (s *Store) SaveHoliday(ctx context.Context, h engine.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveHoliday(ctx, s.db, h)
}

func saveHoliday(ctx context.Context, db dbtx, h engine.Holiday) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO holidays (id, name, normalized_name, date, holiday_type, is_mandatory, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			normalized_name = excluded.normalized_name,
			date = excluded.date,
			holiday_type = excluded.holiday_type,
			is_mandatory = excluded.is_mandatory`,
		h.ID, h.Name, engine.NormalizeHolidayName(h.Name), h.Date.String(),
		string(h.Type), boolToInt(h.IsMandatory), h.CreatedBy,
		h.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			// The unique index backs the registry's duplicate rule
			return &engine.DuplicateHolidayError{Name: h.Name, Date: h.Date}
		}
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (s *Store) GetHoliday(ctx context.Context, id string) (*engine.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getHoliday(ctx, s.db, id)
}

func getHoliday(ctx context.Context, db dbtx, id string) (*engine.Holiday, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+holidayColumns+` FROM holidays WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query holiday: %w", err)
	}
	defer rows.Close()
	return oneHoliday(rows)
}

func (s *Store) ListHolidays(ctx context.Context) ([]engine.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listHolidays(ctx, s.db)
}

func listHolidays(ctx context.Context, db dbtx) ([]engine.Holiday, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+holidayColumns+` FROM holidays ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []engine.Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) FindHolidayByNameDate(ctx context.Context, normalizedName string, date engine.Date) (*engine.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findHolidayByNameDate(ctx, s.db, normalizedName, date)
}

func findHolidayByNameDate(ctx context.Context, db dbtx, normalizedName string, date engine.Date) (*engine.Holiday, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+holidayColumns+` FROM holidays WHERE normalized_name = ? AND date = ?`,
		normalizedName, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query holiday by name+date: %w", err)
	}
	defer rows.Close()
	return oneHoliday(rows)
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteHoliday(ctx, s.db, id)
}

func deleteHoliday(ctx context.Context, db dbtx, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return nil
}

func oneHoliday(rows *sql.Rows) (*engine.Holiday, error) {
	if !rows.Next() {
		return nil, rows.Err()
	}
	h, err := scanHoliday(rows)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanHoliday(rows *sql.Rows) (engine.Holiday, error) {
	var (
		h           engine.Holiday
		date        string
		holidayType string
		mandatory   int
		createdAt   string
	)
	if err := rows.Scan(&h.ID, &h.Name, &date, &holidayType, &mandatory, &h.CreatedBy, &createdAt); err != nil {
		return engine.Holiday{}, fmt.Errorf("failed to scan holiday: %w", err)
	}
	h.Date = parseDate(date)
	h.Type = engine.HolidayType(holidayType)
	h.IsMandatory = mandatory != 0
	h.CreatedAt = parseTime(createdAt)
	return h, nil
}

// =============================================================================
// LEDGER (append-only)
// =============================================================================

func (s *Store) AppendLedgerEntry(ctx context.Context, e engine.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLedgerEntry(ctx, s.db, e)
}

func appendLedgerEntry(ctx context.Context, db dbtx, e engine.LedgerEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, user_id, kind, delta, balance, request_id, reason, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, string(e.Kind), e.Delta.String(), e.Balance.String(),
		nullString(e.RequestID), e.Reason, e.CreatedBy,
		e.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, userID string) ([]engine.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listLedgerEntries(ctx, s.db, userID)
}

func listLedgerEntries(ctx context.Context, db dbtx, userID string) ([]engine.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, kind, delta, balance, request_id, reason, created_by, created_at
		FROM ledger_entries WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []engine.LedgerEntry
	for rows.Next() {
		var (
			e         engine.LedgerEntry
			kind      string
			delta     string
			balance   string
			requestID sql.NullString
			reason    sql.NullString
			createdBy sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &kind, &delta, &balance, &requestID, &reason, &createdBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Kind = engine.LedgerKind(kind)
		e.Delta = mustDecimal(delta)
		e.Balance = mustDecimal(balance)
		e.RequestID = requestID.String
		e.Reason = reason.String
		e.CreatedBy = createdBy.String
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// txStore binds every store method to one *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// WithTx executes fn within a database transaction. If fn returns an error
// the transaction is rolled back.
func (s *Store) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (ts *txStore) SaveUser(ctx context.Context, u engine.User) error { return saveUser(ctx, ts.tx, u) }
func (ts *txStore) GetUser(ctx context.Context, id string) (*engine.User, error) {
	return getUser(ctx, ts.tx, id)
}
func (ts *txStore) GetUserByEmail(ctx context.Context, email string) (*engine.User, error) {
	return getUserByEmail(ctx, ts.tx, email)
}
func (ts *txStore) ListUsers(ctx context.Context) ([]engine.User, error) {
	return listUsers(ctx, ts.tx)
}
func (ts *txStore) ListUsersByTeam(ctx context.Context, teamID string) ([]engine.User, error) {
	return listUsersByTeam(ctx, ts.tx, teamID)
}
func (ts *txStore) DeleteUser(ctx context.Context, id string) error {
	return deleteUser(ctx, ts.tx, id)
}
func (ts *txStore) SaveTeam(ctx context.Context, t engine.Team) error { return saveTeam(ctx, ts.tx, t) }
func (ts *txStore) GetTeam(ctx context.Context, id string) (*engine.Team, error) {
	return getTeam(ctx, ts.tx, id)
}
func (ts *txStore) ListTeams(ctx context.Context) ([]engine.Team, error) {
	return listTeams(ctx, ts.tx)
}
func (ts *txStore) DeleteTeam(ctx context.Context, id string) error {
	return deleteTeam(ctx, ts.tx, id)
}
func (ts *txStore) SaveRequest(ctx context.Context, r engine.LeaveRequest) error {
	return saveRequest(ctx, ts.tx, r)
}
func (ts *txStore) GetRequest(ctx context.Context, id string) (*engine.LeaveRequest, error) {
	return getRequest(ctx, ts.tx, id)
}
func (ts *txStore) ListRequests(ctx context.Context, filter engine.RequestFilter) ([]engine.LeaveRequest, error) {
	return listRequests(ctx, ts.tx, filter)
}
func (ts *txStore) SaveHoliday(ctx context.Context, h engine.Holiday) error {
	return saveHoliday(ctx, ts.tx, h)
}
func (ts *txStore) GetHoliday(ctx context.Context, id string) (*engine.Holiday, error) {
	return getHoliday(ctx, ts.tx, id)
}
func (ts *txStore) ListHolidays(ctx context.Context) ([]engine.Holiday, error) {
	return listHolidays(ctx, ts.tx)
}
func (ts *txStore) FindHolidayByNameDate(ctx context.Context, normalizedName string, date engine.Date) (*engine.Holiday, error) {
	return findHolidayByNameDate(ctx, ts.tx, normalizedName, date)
}
func (ts *txStore) DeleteHoliday(ctx context.Context, id string) error {
	return deleteHoliday(ctx, ts.tx, id)
}
func (ts *txStore) AppendLedgerEntry(ctx context.Context, e engine.LedgerEntry) error {
	return appendLedgerEntry(ctx, ts.tx, e)
}
func (ts *txStore) ListLedgerEntries(ctx context.Context, userID string) ([]engine.LedgerEntry, error) {
	return listLedgerEntries(ctx, ts.tx, userID)
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullStringPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		// Older rows may carry second precision
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

func parseDate(s string) engine.Date {
	d, _ := engine.ParseDate(s)
	return d
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Reset wipes all tables. Dev/test helper used by the seed endpoint.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, table := range []string{"ledger_entries", "leave_requests", "holidays", "users", "teams"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

var _ engine.TxStore = (*Store)(nil)
