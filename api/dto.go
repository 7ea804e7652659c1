/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation happens in the engine, not in DTOs. DTOs are pure carriers.
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	User      UserDTO `json:"user"`
}

// =============================================================================
// USERS AND TEAMS
// =============================================================================

type UserDTO struct {
	ID                  string  `json:"id"`
	Email               string  `json:"email"`
	Name                string  `json:"name"`
	Role                string  `json:"role"`
	TeamID              *string `json:"team_id,omitempty"`
	VacationDaysBalance int     `json:"vacation_days_balance"`
	SickDaysBalance     int     `json:"sick_days_balance"`
	CreatedAt           string  `json:"created_at"`
}

func toUserDTO(u engine.User) UserDTO {
	return UserDTO{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		Role:                string(u.Role),
		TeamID:              u.TeamID,
		VacationDaysBalance: u.VacationDaysBalance,
		SickDaysBalance:     u.SickDaysBalance,
		CreatedAt:           u.CreatedAt.Format(time.RFC3339),
	}
}

type CreateUserRequest struct {
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	Password        string  `json:"password"`
	Role            string  `json:"role"`
	TeamID          *string `json:"team_id,omitempty"`
	VacationBalance int     `json:"vacation_days_balance"`
	SickBalance     int     `json:"sick_days_balance"`
}

type UpdateUserRequest struct {
	Name            *string `json:"name,omitempty"`
	Role            *string `json:"role,omitempty"`
	TeamID          *string `json:"team_id,omitempty"`
	ClearTeam       bool    `json:"clear_team,omitempty"`
	VacationBalance *int    `json:"vacation_days_balance,omitempty"`
	SickBalance     *int    `json:"sick_days_balance,omitempty"`
}

type TeamDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ManagerID   *string `json:"manager_id,omitempty"`
	MemberCount int     `json:"member_count"`
	CreatedAt   string  `json:"created_at"`
}

type CreateTeamRequest struct {
	Name      string  `json:"name"`
	ManagerID *string `json:"manager_id,omitempty"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type RequestDTO struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	UserName       string  `json:"user_name"`
	Type           string  `json:"type"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	DaysCount      int     `json:"days_count"`
	Reason         string  `json:"reason,omitempty"`
	Status         string  `json:"status"`
	ReviewedBy     *string `json:"reviewed_by,omitempty"`
	ReviewedAt     *string `json:"reviewed_at,omitempty"`
	ReviewComments *string `json:"review_comments,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func toRequestDTO(r engine.LeaveRequest) RequestDTO {
	dto := RequestDTO{
		ID:             r.ID,
		UserID:         r.UserID,
		UserName:       r.UserName,
		Type:           string(r.Type),
		StartDate:      r.StartDate.String(),
		EndDate:        r.EndDate.String(),
		DaysCount:      r.DaysCount,
		Reason:         r.Reason,
		Status:         string(r.Status),
		ReviewedBy:     r.ReviewedBy,
		ReviewComments: r.ReviewComments,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
	if r.ReviewedAt != nil {
		s := r.ReviewedAt.Format(time.RFC3339)
		dto.ReviewedAt = &s
	}
	return dto
}

func toRequestDTOs(requests []engine.LeaveRequest) []RequestDTO {
	dtos := make([]RequestDTO, 0, len(requests))
	for _, r := range requests {
		dtos = append(dtos, toRequestDTO(r))
	}
	return dtos
}

type CreateRequestRequest struct {
	UserID    string `json:"user_id,omitempty"` // defaults to the caller
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	DaysCount int    `json:"days_count"`
	Reason    string `json:"reason,omitempty"`
}

type ReviewRequest struct {
	Comments string `json:"comments,omitempty"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	IsMandatory bool   `json:"is_mandatory"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at"`
}

func toHolidayDTO(h engine.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:          h.ID,
		Name:        h.Name,
		Date:        h.Date.String(),
		Type:        string(h.Type),
		IsMandatory: h.IsMandatory,
		CreatedBy:   h.CreatedBy,
		CreatedAt:   h.CreatedAt.Format(time.RFC3339),
	}
}

type HolidayRequest struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	IsMandatory bool   `json:"is_mandatory"`
}

type ImportHolidaysRequest struct {
	Holidays []HolidayRequest `json:"holidays"`
}

type ImportDefaultsRequest struct {
	Year int `json:"year"`
}

type ImportSummaryDTO struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// =============================================================================
// AVAILABILITY
// =============================================================================

type CriticalDayDTO struct {
	Date      string       `json:"date"`
	Ratio     float64      `json:"ratio"`
	Absentees []RequestDTO `json:"absentees"`
}

type MemberStatusDTO struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type AvailabilityDTO struct {
	TeamID           string            `json:"team_id"`
	AsOf             string            `json:"as_of"`
	HorizonDays      int               `json:"horizon_days"`
	UpcomingAbsences []RequestDTO      `json:"upcoming_absences"`
	CriticalDays     []CriticalDayDTO  `json:"critical_days"`
	Members          []MemberStatusDTO `json:"members"`
}

// =============================================================================
// NOTIFICATIONS, DASHBOARD, LEDGER
// =============================================================================

type NotificationDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	IsRead      bool   `json:"is_read"`
	RelatedType string `json:"related_type,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type NotificationsResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
	UnreadCount   int               `json:"unread_count"`
}

type DashboardDTO struct {
	PendingRequests   int `json:"pending_requests"`
	ApprovedThisMonth int `json:"approved_this_month"`
	TeamMembersOut    int `json:"team_members_out"`
	UpcomingHolidays  int `json:"upcoming_holidays"`
}

type LedgerEntryDTO struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Delta     float64 `json:"delta"`
	Balance   float64 `json:"balance"`
	RequestID string  `json:"request_id,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	CreatedBy string  `json:"created_by,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type AdjustBalanceRequest struct {
	VacationDelta int    `json:"vacation_delta"`
	SickDelta     int    `json:"sick_delta"`
	Reason        string `json:"reason"`
}
