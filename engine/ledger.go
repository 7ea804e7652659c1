/*
ledger.go - Vacation balance accounting

PURPOSE:
  The balance on the user row is the authoritative value the UI shows.
  Every change to it flows through here and leaves an immutable LedgerEntry
  behind, so "why is the balance 7?" is always answerable from history.

WHAT DEBITS:
  Only approved vacation requests debit the vacation balance. Sick,
  personal, maternity and paternity leave never touch a ledger. That
  asymmetry is deliberate and mirrors the upstream system; do not "fix" it
  without a product decision.

NEGATIVE BALANCES:
  No floor at zero is enforced. Approving a 5-day vacation against a
  3-day balance yields -2. The upstream behavior never blocked this and
  surfaced the negative number in the UI instead; we preserve that and
  document the choice in DESIGN.md. ErrInsufficientBalance exists for
  callers that want to pre-check, but the engine does not return it.
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER ENTRY - Immutable record of a balance change
// =============================================================================

type LedgerKind string

const (
	LedgerDebit      LedgerKind = "debit"      // vacation consumed on approval
	LedgerAdjustment LedgerKind = "adjustment" // manual HR correction
)

type LedgerEntry struct {
	ID        string
	UserID    string
	Kind      LedgerKind
	// Delta is negative for debits, either sign for adjustments.
	// Decimal avoids float drift if half-day policies ever appear.
	Delta     decimal.Decimal
	Balance   decimal.Decimal // vacation balance after applying Delta
	RequestID string          // set for debits
	Reason    string
	CreatedBy string
	CreatedAt time.Time
}

// =============================================================================
// BALANCE LEDGER
// =============================================================================

// BalanceLedger mutates user balances and records the trail.
type BalanceLedger struct {
	store Store
}

func NewBalanceLedger(store Store) *BalanceLedger {
	return &BalanceLedger{store: store}
}

// DebitVacation subtracts days from the user's vacation balance and appends
// a debit entry. Returns the new balance, which may be negative.
func (bl *BalanceLedger) DebitVacation(ctx context.Context, userID string, days int, requestID, actorID string) (int, error) {
	user, err := bl.store.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load user for debit: %w", err)
	}
	if user == nil {
		return 0, &NotFoundError{Kind: "user", ID: userID}
	}

	newBalance := user.VacationDaysBalance - days
	user.VacationDaysBalance = newBalance
	if err := bl.store.SaveUser(ctx, *user); err != nil {
		return 0, fmt.Errorf("save debited balance: %w", err)
	}

	entry := LedgerEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      LedgerDebit,
		Delta:     decimal.NewFromInt(int64(-days)),
		Balance:   decimal.NewFromInt(int64(newBalance)),
		RequestID: requestID,
		Reason:    "vacation approved",
		CreatedBy: actorID,
		CreatedAt: time.Now().UTC(),
	}
	if err := bl.store.AppendLedgerEntry(ctx, entry); err != nil {
		return 0, fmt.Errorf("append ledger entry: %w", err)
	}

	return newBalance, nil
}

// Adjust applies a manual correction to both balances and records an
// adjustment entry for the vacation component. Requires CanManageUsers.
func (bl *BalanceLedger) Adjust(ctx context.Context, session Session, userID string, vacationDelta, sickDelta int, reason string) (*User, error) {
	if !session.Caps.CanManageUsers {
		return nil, fmt.Errorf("adjust balance: %w", ErrForbidden)
	}
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "required for manual adjustments"}
	}

	user, err := bl.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user for adjustment: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Kind: "user", ID: userID}
	}

	user.VacationDaysBalance += vacationDelta
	user.SickDaysBalance += sickDelta
	if err := bl.store.SaveUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("save adjusted balances: %w", err)
	}

	if vacationDelta != 0 {
		entry := LedgerEntry{
			ID:        uuid.NewString(),
			UserID:    userID,
			Kind:      LedgerAdjustment,
			Delta:     decimal.NewFromInt(int64(vacationDelta)),
			Balance:   decimal.NewFromInt(int64(user.VacationDaysBalance)),
			Reason:    reason,
			CreatedBy: session.UserID,
			CreatedAt: time.Now().UTC(),
		}
		if err := bl.store.AppendLedgerEntry(ctx, entry); err != nil {
			return nil, fmt.Errorf("append adjustment entry: %w", err)
		}
	}

	return user, nil
}

// History returns a user's ledger entries, newest first.
func (bl *BalanceLedger) History(ctx context.Context, userID string) ([]LedgerEntry, error) {
	return bl.store.ListLedgerEntries(ctx, userID)
}
