/*
Package engine implements the leave and availability domain.

PURPOSE:
  This package contains the core types and services for managing employee
  leave requests, vacation balances, company holidays, and team availability.
  It is backend-agnostic: persistence goes through the interfaces in store.go,
  and the read-side projections (availability.go, notify.go) are pure
  functions over in-memory slices.

KEY CONCEPTS IN THIS FILE (types.go):
  - Role/Capabilities: authorization derived once from the role, passed
    explicitly as a Session (no global auth state)
  - User/Team: the roster managed by HR
  - LeaveRequest: the request lifecycle entity (pending -> approved|rejected)
  - Holiday: company calendar entries with duplicate detection
  - Notification: ephemeral, derived, never persisted by this engine

DESIGN PRINCIPLES:
  1. Explicit sessions: every mutating call takes a Session, authorization
     is a capability check, not a role string comparison scattered around
  2. Terminal states: approved/rejected requests never transition again
  3. Pure projections: availability and notifications are computed on demand

SEE ALSO:
  - request.go: leave request lifecycle
  - ledger.go: vacation balance accounting
  - holiday.go: holiday registry
  - availability.go, notify.go: read-side projections
*/
package engine

import "time"

// =============================================================================
// ROLES AND CAPABILITIES
// =============================================================================

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleHR       Role = "hr"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleHR:
		return true
	}
	return false
}

// Capabilities is the authorization surface derived from a role. Engine
// calls check capabilities, never the role string itself, so widening a
// role is a one-line change here.
type Capabilities struct {
	CanReview         bool // approve/reject leave requests
	CanManageHolidays bool // create/update/delete/import holidays
	CanManageUsers    bool // create/edit users and teams, adjust balances
}

func (r Role) Capabilities() Capabilities {
	switch r {
	case RoleManager:
		return Capabilities{CanReview: true, CanManageHolidays: true}
	case RoleHR:
		return Capabilities{CanReview: true, CanManageHolidays: true, CanManageUsers: true}
	default:
		return Capabilities{}
	}
}

// Session identifies the caller of an engine operation. It is constructed
// by the auth layer from a verified token and passed explicitly; the engine
// trusts the role it carries.
type Session struct {
	UserID string
	Role   Role
	Caps   Capabilities
}

func NewSession(userID string, role Role) Session {
	return Session{UserID: userID, Role: role, Caps: role.Capabilities()}
}

// =============================================================================
// USERS AND TEAMS
// =============================================================================

type User struct {
	ID                  string
	Email               string
	Name                string
	PasswordHash        string
	Role                Role
	TeamID              *string
	VacationDaysBalance int
	SickDaysBalance     int
	CreatedAt           time.Time
}

// Team groups users under zero or one manager. Deleting a team nulls the
// TeamID of its members; users are never cascade-deleted.
type Team struct {
	ID        string
	Name      string
	ManagerID *string
	CreatedAt time.Time
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type LeaveType string

const (
	LeaveVacation  LeaveType = "vacation"
	LeaveSick      LeaveType = "sick"
	LeavePersonal  LeaveType = "personal"
	LeaveMaternity LeaveType = "maternity"
	LeavePaternity LeaveType = "paternity"
)

func (t LeaveType) Valid() bool {
	switch t {
	case LeaveVacation, LeaveSick, LeavePersonal, LeaveMaternity, LeavePaternity:
		return true
	}
	return false
}

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// LeaveRequest is the lifecycle entity. Created pending; transitions exactly
// once to approved or rejected. Both are terminal.
type LeaveRequest struct {
	ID             string
	UserID         string
	UserName       string
	Type           LeaveType
	StartDate      Date
	EndDate        Date
	DaysCount      int
	Reason         string
	Status         RequestStatus
	ReviewedBy     *string
	ReviewedAt     *time.Time
	ReviewComments *string
	CreatedAt      time.Time
}

// CoversDate reports whether the request's inclusive range contains day.
func (lr LeaveRequest) CoversDate(day Date) bool {
	return lr.StartDate.BeforeOrEqual(day) && day.BeforeOrEqual(lr.EndDate)
}

// NewLeaveRequest is the creation input. DaysCount is supplied by the
// caller (typically the inclusive span); the engine validates it is
// positive but does not recompute it, matching the upstream behavior.
type NewLeaveRequest struct {
	UserID    string
	Type      LeaveType
	StartDate Date
	EndDate   Date
	DaysCount int
	Reason    string
}

// RequestFilter narrows List results. Nil fields match everything.
type RequestFilter struct {
	UserID  *string
	Status  *RequestStatus
	TeamID  *string
	From    *Date // with To: keep requests overlapping [From, To]
	To      *Date
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayType string

const (
	HolidayNational HolidayType = "national"
	HolidayRegional HolidayType = "regional"
	HolidayLocal    HolidayType = "local"
	HolidayCompany  HolidayType = "company"
)

func (t HolidayType) Valid() bool {
	switch t {
	case HolidayNational, HolidayRegional, HolidayLocal, HolidayCompany:
		return true
	}
	return false
}

type Holiday struct {
	ID          string
	Name        string
	Date        Date
	Type        HolidayType
	IsMandatory bool
	CreatedBy   string
	CreatedAt   time.Time
}

type NewHoliday struct {
	Name        string
	Date        Date
	Type        HolidayType
	IsMandatory bool
}

// =============================================================================
// NOTIFICATIONS (derived, never persisted here)
// =============================================================================

type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifyWarning NotificationType = "warning"
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
)

type Notification struct {
	ID          string
	UserID      string
	Title       string
	Message     string
	Type        NotificationType
	IsRead      bool
	RelatedType string
	RelatedID   string
	CreatedAt   time.Time
}
