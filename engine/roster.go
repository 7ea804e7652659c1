/*
roster.go - User and team administration

PURPOSE:
  HR-facing management of the roster: creating and editing users, forming
  teams, and the dashboard summary. Password hashing happens in the auth
  layer; this service only stores the resulting hash.

TEAM DELETION:
  Deleting a team clears TeamID on its members inside one transaction
  (cascade-to-null). Users are never cascade-deleted.
*/
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RosterService administers users and teams.
type RosterService struct {
	store TxStore
}

func NewRosterService(store TxStore) *RosterService {
	return &RosterService{store: store}
}

// =============================================================================
// USERS
// =============================================================================

// NewUser is the creation input. PasswordHash is produced by the auth layer.
type NewUser struct {
	Email               string
	Name                string
	PasswordHash        string
	Role                Role
	TeamID              *string
	VacationDaysBalance int
	SickDaysBalance     int
}

// UserUpdate edits mutable fields. Nil pointers leave a field unchanged.
type UserUpdate struct {
	Name            *string
	Role            *Role
	TeamID          *string
	ClearTeam       bool
	VacationBalance *int
	SickBalance     *int
}

func (rs *RosterService) CreateUser(ctx context.Context, session Session, in NewUser) (*User, error) {
	if !session.Caps.CanManageUsers {
		return nil, fmt.Errorf("create user: %w", ErrForbidden)
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, &ValidationError{Field: "email", Message: "required"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}
	if !in.Role.Valid() {
		return nil, &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", in.Role)}
	}
	if in.TeamID != nil {
		team, err := rs.store.GetTeam(ctx, *in.TeamID)
		if err != nil {
			return nil, fmt.Errorf("load team: %w", err)
		}
		if team == nil {
			return nil, &NotFoundError{Kind: "team", ID: *in.TeamID}
		}
	}

	user := User{
		ID:                  uuid.NewString(),
		Email:               strings.ToLower(strings.TrimSpace(in.Email)),
		Name:                strings.TrimSpace(in.Name),
		PasswordHash:        in.PasswordHash,
		Role:                in.Role,
		TeamID:              in.TeamID,
		VacationDaysBalance: in.VacationDaysBalance,
		SickDaysBalance:     in.SickDaysBalance,
		CreatedAt:           time.Now().UTC(),
	}
	if err := rs.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return &user, nil
}

func (rs *RosterService) GetUser(ctx context.Context, session Session, id string) (*User, error) {
	if id != session.UserID && !session.Caps.CanManageUsers && !session.Caps.CanReview {
		return nil, fmt.Errorf("view user: %w", ErrForbidden)
	}
	user, err := rs.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Kind: "user", ID: id}
	}
	return user, nil
}

func (rs *RosterService) ListUsers(ctx context.Context, session Session) ([]User, error) {
	if !session.Caps.CanManageUsers && !session.Caps.CanReview {
		return nil, fmt.Errorf("list users: %w", ErrForbidden)
	}
	return rs.store.ListUsers(ctx)
}

func (rs *RosterService) UpdateUser(ctx context.Context, session Session, id string, in UserUpdate) (*User, error) {
	if !session.Caps.CanManageUsers {
		return nil, fmt.Errorf("update user: %w", ErrForbidden)
	}
	user, err := rs.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Kind: "user", ID: id}
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", *in.Role)}
		}
		user.Role = *in.Role
	}
	if in.ClearTeam {
		user.TeamID = nil
	} else if in.TeamID != nil {
		team, err := rs.store.GetTeam(ctx, *in.TeamID)
		if err != nil {
			return nil, fmt.Errorf("load team: %w", err)
		}
		if team == nil {
			return nil, &NotFoundError{Kind: "team", ID: *in.TeamID}
		}
		user.TeamID = in.TeamID
	}
	if in.VacationBalance != nil {
		user.VacationDaysBalance = *in.VacationBalance
	}
	if in.SickBalance != nil {
		user.SickDaysBalance = *in.SickBalance
	}

	if err := rs.store.SaveUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func (rs *RosterService) DeleteUser(ctx context.Context, session Session, id string) error {
	if !session.Caps.CanManageUsers {
		return fmt.Errorf("delete user: %w", ErrForbidden)
	}
	user, err := rs.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return &NotFoundError{Kind: "user", ID: id}
	}
	return rs.store.DeleteUser(ctx, id)
}

// =============================================================================
// TEAMS
// =============================================================================

type NewTeam struct {
	Name      string
	ManagerID *string
}

// TeamSummary pairs a team with its current member count.
type TeamSummary struct {
	Team
	MemberCount int
}

func (rs *RosterService) CreateTeam(ctx context.Context, session Session, in NewTeam) (*Team, error) {
	if !session.Caps.CanManageUsers {
		return nil, fmt.Errorf("create team: %w", ErrForbidden)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}
	if in.ManagerID != nil {
		manager, err := rs.store.GetUser(ctx, *in.ManagerID)
		if err != nil {
			return nil, fmt.Errorf("load manager: %w", err)
		}
		if manager == nil {
			return nil, &NotFoundError{Kind: "user", ID: *in.ManagerID}
		}
	}

	team := Team{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		ManagerID: in.ManagerID,
		CreatedAt: time.Now().UTC(),
	}
	if err := rs.store.SaveTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("save team: %w", err)
	}
	return &team, nil
}

func (rs *RosterService) GetTeam(ctx context.Context, id string) (*Team, error) {
	team, err := rs.store.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, &NotFoundError{Kind: "team", ID: id}
	}
	return team, nil
}

func (rs *RosterService) ListTeams(ctx context.Context) ([]TeamSummary, error) {
	teams, err := rs.store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]TeamSummary, 0, len(teams))
	for _, t := range teams {
		members, err := rs.store.ListUsersByTeam(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, TeamSummary{Team: t, MemberCount: len(members)})
	}
	return summaries, nil
}

func (rs *RosterService) UpdateTeam(ctx context.Context, session Session, id string, in NewTeam) (*Team, error) {
	if !session.Caps.CanManageUsers {
		return nil, fmt.Errorf("update team: %w", ErrForbidden)
	}
	team, err := rs.store.GetTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	if team == nil {
		return nil, &NotFoundError{Kind: "team", ID: id}
	}
	if strings.TrimSpace(in.Name) != "" {
		team.Name = strings.TrimSpace(in.Name)
	}
	if in.ManagerID != nil {
		manager, err := rs.store.GetUser(ctx, *in.ManagerID)
		if err != nil {
			return nil, fmt.Errorf("load manager: %w", err)
		}
		if manager == nil {
			return nil, &NotFoundError{Kind: "user", ID: *in.ManagerID}
		}
		team.ManagerID = in.ManagerID
	}
	if err := rs.store.SaveTeam(ctx, *team); err != nil {
		return nil, fmt.Errorf("save team: %w", err)
	}
	return team, nil
}

// DeleteTeam removes the team and nulls TeamID on its members atomically.
func (rs *RosterService) DeleteTeam(ctx context.Context, session Session, id string) error {
	if !session.Caps.CanManageUsers {
		return fmt.Errorf("delete team: %w", ErrForbidden)
	}
	team, err := rs.store.GetTeam(ctx, id)
	if err != nil {
		return err
	}
	if team == nil {
		return &NotFoundError{Kind: "team", ID: id}
	}

	return rs.store.WithTx(ctx, func(tx Store) error {
		members, err := tx.ListUsersByTeam(ctx, id)
		if err != nil {
			return fmt.Errorf("load team members: %w", err)
		}
		for _, m := range members {
			m.TeamID = nil
			if err := tx.SaveUser(ctx, m); err != nil {
				return fmt.Errorf("detach member %s: %w", m.ID, err)
			}
		}
		return tx.DeleteTeam(ctx, id)
	})
}

// TeamMembers returns the users currently on a team.
func (rs *RosterService) TeamMembers(ctx context.Context, teamID string) ([]User, error) {
	team, err := rs.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, &NotFoundError{Kind: "team", ID: teamID}
	}
	return rs.store.ListUsersByTeam(ctx, teamID)
}

// =============================================================================
// DASHBOARD
// =============================================================================

// DashboardStats is the landing-page summary.
type DashboardStats struct {
	PendingRequests   int
	ApprovedThisMonth int
	TeamMembersOut    int
	UpcomingHolidays  int
}

// Dashboard computes the summary counters as of a date. TeamMembersOut is
// scoped to the viewer's team when they have one, otherwise company-wide.
func (rs *RosterService) Dashboard(ctx context.Context, session Session, asOf Date) (*DashboardStats, error) {
	requests, err := rs.store.ListRequests(ctx, RequestFilter{})
	if err != nil {
		return nil, err
	}
	holidays, err := rs.store.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{}
	outToday := make(map[string]bool)
	for _, r := range requests {
		if r.Status == StatusPending {
			stats.PendingRequests++
		}
		if r.Status == StatusApproved {
			if r.ReviewedAt != nil &&
				r.ReviewedAt.Year() == asOf.Year() && r.ReviewedAt.Month() == asOf.Month() {
				stats.ApprovedThisMonth++
			}
			if r.CoversDate(asOf) {
				outToday[r.UserID] = true
			}
		}
	}

	viewer, err := rs.store.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if viewer != nil && viewer.TeamID != nil {
		members, err := rs.store.ListUsersByTeam(ctx, *viewer.TeamID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if outToday[m.ID] {
				stats.TeamMembersOut++
			}
		}
	} else {
		stats.TeamMembersOut = len(outToday)
	}

	horizon := asOf.AddDays(30)
	for _, h := range holidays {
		if h.Date.After(asOf) && h.Date.BeforeOrEqual(horizon) {
			stats.UpcomingHolidays++
		}
	}

	return stats, nil
}
