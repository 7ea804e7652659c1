/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the engine over REST. Handles HTTP request/response and JSON
  serialization, delegates all business rules to the engine package.

REQUEST FLOW:
  1. Pull the session the auth middleware attached
  2. Decode and lightly parse input (dates, enums stay strings here)
  3. Call the engine
  4. Serialize response / map domain errors to status codes

ERROR HANDLING:
  - 400: validation errors, bad request bodies
  - 401/403: authentication / capability failures
  - 404: missing records
  - 409: duplicate holiday, invalid status transition
  - 500: everything else

SEE ALSO:
  - dto.go: request/response structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    engine.TxStore
	Requests *engine.RequestService
	Registry *engine.HolidayRegistry
	Roster   *engine.RosterService
	Ledger   *engine.BalanceLedger
	Tokens   *auth.TokenManager
	Log      *zap.Logger

	BcryptCost  int
	SeedEnabled bool
}

// NewHandler wires the engine services around one store.
func NewHandler(store engine.TxStore, tokens *auth.TokenManager, log *zap.Logger, bcryptCost int) *Handler {
	return &Handler{
		Store:      store,
		Requests:   engine.NewRequestService(store),
		Registry:   engine.NewHolidayRegistry(store),
		Roster:     engine.NewRosterService(store),
		Ledger:     engine.NewBalanceLedger(store),
		Tokens:     tokens,
		Log:        log,
		BcryptCost: bcryptCost,
	}
}

// =============================================================================
// HEALTH AND AUTH
// =============================================================================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login verifies credentials and issues a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load user", err)
		return
	}
	if user == nil || auth.ComparePassword(user.PasswordHash, req.Password) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, expiresAt, err := h.Tokens.Generate(user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	h.Log.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		User:      toUserDTO(*user),
	})
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated", nil)
		return
	}
	user, err := h.Store.GetUser(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// ListRequests returns requests visible to the caller. Reviewers see
// everything (optionally filtered); employees see their own.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var filter engine.RequestFilter
	if v := r.URL.Query().Get("status"); v != "" {
		status := engine.RequestStatus(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		filter.UserID = &v
	}
	if v := r.URL.Query().Get("team_id"); v != "" {
		filter.TeamID = &v
	}
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from != "" && to != "" {
		fromDate, err := engine.ParseDate(from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date", err)
			return
		}
		toDate, err := engine.ParseDate(to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date", err)
			return
		}
		filter.From, filter.To = &fromDate, &toDate
	}

	requests, err := h.Requests.List(r.Context(), session, filter)
	if err != nil {
		h.writeDomainError(w, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// CreateRequest files a new leave request for the caller.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	startDate, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	endDate, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}

	days := req.DaysCount
	if days == 0 {
		days = engine.InclusiveDays(startDate, endDate)
	}

	created, err := h.Requests.Create(r.Context(), session, engine.NewLeaveRequest{
		UserID:    req.UserID,
		Type:      engine.LeaveType(req.Type),
		StartDate: startDate,
		EndDate:   endDate,
		DaysCount: days,
		Reason:    req.Reason,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create request", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRequestDTO(*created))
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	request, err := h.Requests.Get(r.Context(), session, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*request))
}

// ApproveRequest transitions a pending request to approved.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, engine.StatusApproved)
}

// RejectRequest transitions a pending request to rejected.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, engine.StatusRejected)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, status engine.RequestStatus) {
	session, _ := auth.SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req ReviewRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body is fine
	}

	updated, err := h.Requests.SetStatus(r.Context(), session, id, status, req.Comments)
	if err != nil {
		h.writeDomainError(w, "Failed to review request", err)
		return
	}

	h.Log.Info("request reviewed",
		zap.String("request_id", id),
		zap.String("status", string(status)),
		zap.String("reviewer", session.UserID))

	writeJSON(w, http.StatusOK, toRequestDTO(*updated))
}

// =============================================================================
// USERS
// =============================================================================

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	users, err := h.Roster.ListUsers(r.Context(), session)
	if err != nil {
		h.writeDomainError(w, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required", nil)
		return
	}
	hash, err := auth.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}

	user, err := h.Roster.CreateUser(r.Context(), session, engine.NewUser{
		Email:               req.Email,
		Name:                req.Name,
		PasswordHash:        hash,
		Role:                engine.Role(req.Role),
		TeamID:              req.TeamID,
		VacationDaysBalance: req.VacationBalance,
		SickDaysBalance:     req.SickBalance,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(*user))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	user, err := h.Roster.GetUser(r.Context(), session, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	update := engine.UserUpdate{
		Name:            req.Name,
		TeamID:          req.TeamID,
		ClearTeam:       req.ClearTeam,
		VacationBalance: req.VacationBalance,
		SickBalance:     req.SickBalance,
	}
	if req.Role != nil {
		role := engine.Role(*req.Role)
		update.Role = &role
	}

	user, err := h.Roster.UpdateUser(r.Context(), session, chi.URLParam(r, "id"), update)
	if err != nil {
		h.writeDomainError(w, "Failed to update user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	if err := h.Roster.DeleteUser(r.Context(), session, chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLedger returns a user's balance history, newest first.
// GET /api/users/{id}/ledger
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if id != session.UserID && !session.Caps.CanManageUsers {
		writeError(w, http.StatusForbidden, "Insufficient role", nil)
		return
	}

	entries, err := h.Ledger.History(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to load ledger", err)
		return
	}

	dtos := make([]LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		delta, _ := e.Delta.Float64()
		balance, _ := e.Balance.Float64()
		dtos = append(dtos, LedgerEntryDTO{
			ID:        e.ID,
			Kind:      string(e.Kind),
			Delta:     delta,
			Balance:   balance,
			RequestID: e.RequestID,
			Reason:    e.Reason,
			CreatedBy: e.CreatedBy,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AdjustBalance applies a manual HR correction.
// POST /api/users/{id}/adjustments
func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req AdjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Ledger.Adjust(r.Context(), session, chi.URLParam(r, "id"),
		req.VacationDelta, req.SickDelta, req.Reason)
	if err != nil {
		h.writeDomainError(w, "Failed to adjust balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// =============================================================================
// TEAMS
// =============================================================================

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Roster.ListTeams(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list teams", err)
		return
	}
	dtos := make([]TeamDTO, 0, len(summaries))
	for _, s := range summaries {
		dtos = append(dtos, TeamDTO{
			ID:          s.ID,
			Name:        s.Name,
			ManagerID:   s.ManagerID,
			MemberCount: s.MemberCount,
			CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	team, err := h.Roster.CreateTeam(r.Context(), session, engine.NewTeam{Name: req.Name, ManagerID: req.ManagerID})
	if err != nil {
		h.writeDomainError(w, "Failed to create team", err)
		return
	}
	writeJSON(w, http.StatusCreated, TeamDTO{
		ID:        team.ID,
		Name:      team.Name,
		ManagerID: team.ManagerID,
		CreatedAt: team.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	team, err := h.Roster.GetTeam(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get team", err)
		return
	}
	members, err := h.Roster.TeamMembers(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to load team members", err)
		return
	}
	writeJSON(w, http.StatusOK, TeamDTO{
		ID:          team.ID,
		Name:        team.Name,
		ManagerID:   team.ManagerID,
		MemberCount: len(members),
		CreatedAt:   team.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	team, err := h.Roster.UpdateTeam(r.Context(), session, chi.URLParam(r, "id"),
		engine.NewTeam{Name: req.Name, ManagerID: req.ManagerID})
	if err != nil {
		h.writeDomainError(w, "Failed to update team", err)
		return
	}
	writeJSON(w, http.StatusOK, TeamDTO{
		ID:        team.ID,
		Name:      team.Name,
		ManagerID: team.ManagerID,
		CreatedAt: team.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	if err := h.Roster.DeleteTeam(r.Context(), session, chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to delete team", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAvailability returns the availability projection for a team.
// GET /api/teams/{id}/availability?horizon_days=30
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "id")
	ctx := r.Context()

	horizonDays := 30
	if v := r.URL.Query().Get("horizon_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid horizon_days", nil)
			return
		}
		horizonDays = n
	}
	asOf := engine.Today()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := engine.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
			return
		}
		asOf = parsed
	}

	members, err := h.Roster.TeamMembers(ctx, teamID)
	if err != nil {
		h.writeDomainError(w, "Failed to load team members", err)
		return
	}
	requests, err := h.Store.ListRequests(ctx, engine.RequestFilter{TeamID: &teamID})
	if err != nil {
		h.writeDomainError(w, "Failed to load requests", err)
		return
	}

	avail := engine.Availability{Members: members, Requests: requests, AsOf: asOf}

	critical := avail.CriticalDays(engine.DefaultCriticalThreshold)
	criticalDTOs := make([]CriticalDayDTO, 0, len(critical))
	for _, c := range critical {
		ratio, _ := c.Ratio.Float64()
		criticalDTOs = append(criticalDTOs, CriticalDayDTO{
			Date:      c.Date.String(),
			Ratio:     ratio,
			Absentees: toRequestDTOs(c.Absentees),
		})
	}

	memberDTOs := make([]MemberStatusDTO, 0, len(members))
	for _, m := range members {
		status, reason := avail.StatusOf(m.ID, asOf)
		memberDTOs = append(memberDTOs, MemberStatusDTO{
			UserID: m.ID,
			Name:   m.Name,
			Status: status,
			Reason: string(reason),
		})
	}

	writeJSON(w, http.StatusOK, AvailabilityDTO{
		TeamID:           teamID,
		AsOf:             asOf.String(),
		HorizonDays:      horizonDays,
		UpcomingAbsences: toRequestDTOs(avail.UpcomingAbsences(horizonDays)),
		CriticalDays:     criticalDTOs,
		Members:          memberDTOs,
	})
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Registry.List(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, holiday := range holidays {
		dtos = append(dtos, toHolidayDTO(holiday))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	in, ok := h.decodeHoliday(w, r)
	if !ok {
		return
	}
	holiday, err := h.Registry.Create(r.Context(), session, in)
	if err != nil {
		h.writeDomainError(w, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(*holiday))
}

func (h *Handler) UpdateHoliday(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	in, ok := h.decodeHoliday(w, r)
	if !ok {
		return
	}
	holiday, err := h.Registry.Update(r.Context(), session, chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeDomainError(w, "Failed to update holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTO(*holiday))
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	if err := h.Registry.Delete(r.Context(), session, chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeHoliday(w http.ResponseWriter, r *http.Request) (engine.NewHoliday, bool) {
	var req HolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return engine.NewHoliday{}, false
	}
	date, err := engine.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return engine.NewHoliday{}, false
	}
	return engine.NewHoliday{
		Name:        req.Name,
		Date:        date,
		Type:        engine.HolidayType(req.Type),
		IsMandatory: req.IsMandatory,
	}, true
}

// ImportHolidays bulk-imports candidates, skipping duplicates.
// POST /api/holidays/import
func (h *Handler) ImportHolidays(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req ImportHolidaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	candidates := make([]engine.NewHoliday, 0, len(req.Holidays))
	for _, c := range req.Holidays {
		date, err := engine.ParseDate(c.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date in candidate "+c.Name, err)
			return
		}
		candidates = append(candidates, engine.NewHoliday{
			Name:        c.Name,
			Date:        date,
			Type:        engine.HolidayType(c.Type),
			IsMandatory: c.IsMandatory,
		})
	}

	summary, err := h.Registry.BulkImport(r.Context(), session, candidates)
	if err != nil {
		h.writeDomainError(w, "Import failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportSummaryDTO{Imported: summary.Imported, Skipped: summary.Skipped})
}

// ImportDefaultHolidays loads the built-in national set for a year.
// POST /api/holidays/defaults
func (h *Handler) ImportDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req ImportDefaultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	year := req.Year
	if year == 0 {
		year = engine.Today().Year()
	}

	summary, err := h.Registry.BulkImport(r.Context(), session, engine.DefaultHolidays(year))
	if err != nil {
		h.writeDomainError(w, "Import failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportSummaryDTO{Imported: summary.Imported, Skipped: summary.Skipped})
}

// =============================================================================
// NOTIFICATIONS AND DASHBOARD
// =============================================================================

// GetNotifications synthesizes the viewer's notifications from current state.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	ctx := r.Context()

	requests, err := h.Store.ListRequests(ctx, engine.RequestFilter{})
	if err != nil {
		h.writeDomainError(w, "Failed to load requests", err)
		return
	}
	holidays, err := h.Store.ListHolidays(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load holidays", err)
		return
	}

	notifications := engine.SynthesizeNotifications(session, requests, holidays, time.Now())
	dtos := make([]NotificationDTO, 0, len(notifications))
	for _, n := range notifications {
		dtos = append(dtos, NotificationDTO{
			ID:          n.ID,
			Title:       n.Title,
			Message:     n.Message,
			Type:        string(n.Type),
			IsRead:      n.IsRead,
			RelatedType: n.RelatedType,
			CreatedAt:   n.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, NotificationsResponse{
		Notifications: dtos,
		UnreadCount:   engine.UnreadCount(notifications),
	})
}

// GetDashboard returns the landing-page counters.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	stats, err := h.Roster.Dashboard(r.Context(), session, engine.Today())
	if err != nil {
		h.writeDomainError(w, "Failed to compute dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardDTO{
		PendingRequests:   stats.PendingRequests,
		ApprovedThisMonth: stats.ApprovedThisMonth,
		TeamMembersOut:    stats.TeamMembersOut,
		UpcomingHolidays:  stats.UpcomingHolidays,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsForbidden(err):
		writeError(w, http.StatusForbidden, message, err)
	default:
		h.Log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
