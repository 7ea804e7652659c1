/*
request.go - Leave request lifecycle

PURPOSE:
  Creation, review and listing of leave requests.

REQUEST FLOW:

  employee submits ──▶ pending ──▶ approved (terminal, vacation debits ledger)
                           │
                           └─────▶ rejected (terminal)

  No other transitions exist. Re-opening a reviewed request is out of scope;
  SetStatus on a non-pending request fails with InvalidTransitionError.

ATOMICITY:
  Approving a vacation request writes the status change and the balance
  debit in one store transaction. If the ledger write fails the request
  stays pending.

OVERLAPS:
  An employee may submit overlapping requests; the engine does not prevent
  it. That matches the upstream system and is recorded in DESIGN.md.
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestService orchestrates the leave request lifecycle.
type RequestService struct {
	store  TxStore
	ledger *BalanceLedger
}

func NewRequestService(store TxStore) *RequestService {
	return &RequestService{store: store, ledger: NewBalanceLedger(store)}
}

// Create validates the input and stores a new pending request.
// The session owner becomes the requester; employees may only file for
// themselves (reviewers may file on behalf of others).
func (rs *RequestService) Create(ctx context.Context, session Session, in NewLeaveRequest) (*LeaveRequest, error) {
	if in.UserID == "" {
		in.UserID = session.UserID
	}
	if in.UserID != session.UserID && !session.Caps.CanReview {
		return nil, fmt.Errorf("create request for another user: %w", ErrForbidden)
	}
	if !in.Type.Valid() {
		return nil, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown leave type %q", in.Type)}
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, &ValidationError{Field: "start_date", Message: "start and end dates are required"}
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, &ValidationError{Field: "end_date", Message: "end date before start date"}
	}
	if in.DaysCount <= 0 {
		return nil, &ValidationError{Field: "days_count", Message: "must be positive"}
	}

	user, err := rs.store.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load requester: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Kind: "user", ID: in.UserID}
	}

	request := LeaveRequest{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserName:  user.Name,
		Type:      in.Type,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		DaysCount: in.DaysCount,
		Reason:    in.Reason,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := rs.store.SaveRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}
	return &request, nil
}

// SetStatus transitions a pending request to approved or rejected.
// Requires the CanReview capability. Approved vacation requests debit the
// requester's vacation balance atomically with the status write.
func (rs *RequestService) SetStatus(ctx context.Context, session Session, id string, status RequestStatus, comments string) (*LeaveRequest, error) {
	if !session.Caps.CanReview {
		return nil, fmt.Errorf("review request: %w", ErrForbidden)
	}
	if status != StatusApproved && status != StatusRejected {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("cannot set status to %q", status)}
	}

	request, err := rs.store.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if request == nil {
		return nil, &NotFoundError{Kind: "request", ID: id}
	}
	if request.Status != StatusPending {
		return nil, &InvalidTransitionError{RequestID: id, From: request.Status, To: status}
	}

	now := time.Now().UTC()
	reviewer := session.UserID
	request.Status = status
	request.ReviewedBy = &reviewer
	request.ReviewedAt = &now
	if comments != "" {
		request.ReviewComments = &comments
	}

	err = rs.store.WithTx(ctx, func(tx Store) error {
		if err := tx.SaveRequest(ctx, *request); err != nil {
			return fmt.Errorf("save reviewed request: %w", err)
		}
		// Only approved vacation consumes balance. Other leave types are
		// untracked by design.
		if status == StatusApproved && request.Type == LeaveVacation {
			ledger := NewBalanceLedger(tx)
			if _, err := ledger.DebitVacation(ctx, request.UserID, request.DaysCount, request.ID, reviewer); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

// List returns requests matching the filter, newest first. Sessions without
// the review capability are always scoped to their own requests.
func (rs *RequestService) List(ctx context.Context, session Session, filter RequestFilter) ([]LeaveRequest, error) {
	if !session.Caps.CanReview {
		own := session.UserID
		filter.UserID = &own
	}
	return rs.store.ListRequests(ctx, filter)
}

// Get returns a single request. Non-reviewers can only see their own.
func (rs *RequestService) Get(ctx context.Context, session Session, id string) (*LeaveRequest, error) {
	request, err := rs.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, &NotFoundError{Kind: "request", ID: id}
	}
	if request.UserID != session.UserID && !session.Caps.CanReview {
		return nil, fmt.Errorf("view request: %w", ErrForbidden)
	}
	return request, nil
}
