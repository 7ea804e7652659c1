package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testBcryptCost = 4 // minimum cost, tests hash a lot

type testServer struct {
	srv    *httptest.Server
	store  *store.Memory
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mem := store.NewMemory()
	tokens := auth.NewTokenManager("test-secret", 60)
	handler := api.NewHandler(mem, tokens, zap.NewNop(), testBcryptCost)

	srv := httptest.NewServer(api.NewRouter(handler, []string{"*"}))
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, store: mem, tokens: tokens}
}

// seedAccount stores a user with a working password and returns a token.
func (ts *testServer) seedAccount(t *testing.T, id string, role engine.Role, vacationBalance int) string {
	t.Helper()

	hash, err := auth.HashPassword("demo1234", testBcryptCost)
	require.NoError(t, err)

	require.NoError(t, ts.store.SaveUser(context.Background(), engine.User{
		ID:                  id,
		Email:               id + "@example.com",
		Name:                "User " + id,
		PasswordHash:        hash,
		Role:                role,
		VacationDaysBalance: vacationBalance,
		SickDaysBalance:     10,
		CreatedAt:           time.Now().UTC(),
	}))

	token, _, err := ts.tokens.Generate(id, role)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// =============================================================================
// AUTH
// =============================================================================

func TestAPI_Health_Public(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_Login(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAccount(t, "emp-1", engine.RoleEmployee, 15)

	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "emp-1@example.com", "password": "demo1234",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	login := decode[api.LoginResponse](t, resp)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "emp-1", login.User.ID)

	// The issued token works against a protected route.
	resp = ts.do(t, http.MethodGet, "/api/me", login.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_Login_BadCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAccount(t, "emp-1", engine.RoleEmployee, 15)

	for _, body := range []map[string]string{
		{"email": "emp-1@example.com", "password": "wrong"},
		{"email": "ghost@example.com", "password": "demo1234"},
	} {
		resp := ts.do(t, http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestAPI_ProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/me", "/api/requests", "/api/holidays", "/api/dashboard"} {
		resp := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

// =============================================================================
// REQUEST LIFECYCLE OVER HTTP
// =============================================================================

func TestAPI_RequestLifecycle(t *testing.T) {
	// GIVEN: An employee with balance 12 and a manager
	// WHEN: The employee files 5 vacation days and the manager approves
	// THEN: The request is approved and the balance drops to 7

	ts := newTestServer(t)
	empToken := ts.seedAccount(t, "emp-1", engine.RoleEmployee, 12)
	mgrToken := ts.seedAccount(t, "mgr-1", engine.RoleManager, 20)

	resp := ts.do(t, http.MethodPost, "/api/requests", empToken, api.CreateRequestRequest{
		Type:      "vacation",
		StartDate: "2026-07-15",
		EndDate:   "2026-07-19",
		Reason:    "Summer break",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.RequestDTO](t, resp)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 5, created.DaysCount, "days default to the inclusive span")

	// The employee cannot approve, not even their own.
	resp = ts.do(t, http.MethodPost, "/api/requests/"+created.ID+"/approve", empToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/requests/"+created.ID+"/approve", mgrToken, api.ReviewRequest{Comments: "enjoy"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approved := decode[api.RequestDTO](t, resp)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, "mgr-1", *approved.ReviewedBy)

	resp = ts.do(t, http.MethodGet, "/api/users/emp-1", mgrToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decode[api.UserDTO](t, resp)
	assert.Equal(t, 7, user.VacationDaysBalance)

	// Re-approving a terminal request is a conflict.
	resp = ts.do(t, http.MethodPost, "/api/requests/"+created.ID+"/approve", mgrToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The ledger shows the debit.
	resp = ts.do(t, http.MethodGet, "/api/users/emp-1/ledger", empToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decode[[]api.LedgerEntryDTO](t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, "debit", entries[0].Kind)
	assert.Equal(t, float64(-5), entries[0].Delta)
	assert.Equal(t, float64(7), entries[0].Balance)
}

func TestAPI_CreateRequest_Validation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.seedAccount(t, "emp-1", engine.RoleEmployee, 12)

	resp := ts.do(t, http.MethodPost, "/api/requests", token, api.CreateRequestRequest{
		Type: "vacation", StartDate: "2026-07-15", EndDate: "2026-07-10",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/requests", token, api.CreateRequestRequest{
		Type: "sabbatical", StartDate: "2026-07-15", EndDate: "2026-07-16",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ListRequests_ScopedByRole(t *testing.T) {
	ts := newTestServer(t)
	empToken := ts.seedAccount(t, "emp-1", engine.RoleEmployee, 12)
	otherToken := ts.seedAccount(t, "emp-2", engine.RoleEmployee, 12)
	mgrToken := ts.seedAccount(t, "mgr-1", engine.RoleManager, 20)

	for _, token := range []string{empToken, otherToken} {
		resp := ts.do(t, http.MethodPost, "/api/requests", token, api.CreateRequestRequest{
			Type: "personal", StartDate: "2026-07-15", EndDate: "2026-07-15",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := ts.do(t, http.MethodGet, "/api/requests", empToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]api.RequestDTO](t, resp), 1)

	resp = ts.do(t, http.MethodGet, "/api/requests?status=pending", mgrToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]api.RequestDTO](t, resp), 2)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestAPI_Holidays_DuplicateConflict(t *testing.T) {
	ts := newTestServer(t)
	mgrToken := ts.seedAccount(t, "mgr-1", engine.RoleManager, 20)
	empToken := ts.seedAccount(t, "emp-1", engine.RoleEmployee, 12)

	body := api.HolidayRequest{Name: "Año Nuevo", Date: "2026-01-01", Type: "national", IsMandatory: true}

	// Employees cannot write the calendar.
	resp := ts.do(t, http.MethodPost, "/api/holidays", empToken, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/holidays", mgrToken, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/holidays", mgrToken,
		api.HolidayRequest{Name: " año  nuevo ", Date: "2026-01-01", Type: "national"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Everyone can read.
	resp = ts.do(t, http.MethodGet, "/api/holidays", empToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]api.HolidayDTO](t, resp), 1)
}

func TestAPI_Holidays_BulkImport(t *testing.T) {
	ts := newTestServer(t)
	mgrToken := ts.seedAccount(t, "mgr-1", engine.RoleManager, 20)

	resp := ts.do(t, http.MethodPost, "/api/holidays/import", mgrToken, api.ImportHolidaysRequest{
		Holidays: []api.HolidayRequest{
			{Name: "Navidad", Date: "2026-12-25", Type: "national"},
			{Name: "NAVIDAD", Date: "2026-12-25", Type: "national"},
			{Name: "Fiesta Nacional", Date: "2026-10-12", Type: "national"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[api.ImportSummaryDTO](t, resp)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)

	resp = ts.do(t, http.MethodPost, "/api/holidays/defaults", mgrToken, api.ImportDefaultsRequest{Year: 2026})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary = decode[api.ImportSummaryDTO](t, resp)
	assert.Equal(t, 7, summary.Imported, "Navidad and Fiesta Nacional already present")
	assert.Equal(t, 2, summary.Skipped)
}

// =============================================================================
// USERS, TEAMS, AVAILABILITY
// =============================================================================

func TestAPI_UserManagement_HROnly(t *testing.T) {
	ts := newTestServer(t)
	hrToken := ts.seedAccount(t, "hr-1", engine.RoleHR, 22)
	mgrToken := ts.seedAccount(t, "mgr-1", engine.RoleManager, 20)

	body := api.CreateUserRequest{
		Email: "new@example.com", Name: "New Hire", Password: "changeme",
		Role: "employee", VacationBalance: 23,
	}

	resp := ts.do(t, http.MethodPost, "/api/users", mgrToken, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "managers cannot create users")

	resp = ts.do(t, http.MethodPost, "/api/users", hrToken, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.UserDTO](t, resp)
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, 23, created.VacationDaysBalance)

	// The new account can log in with the supplied password.
	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "new@example.com", "password": "changeme",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_AdjustBalance(t *testing.T) {
	ts := newTestServer(t)
	hrToken := ts.seedAccount(t, "hr-1", engine.RoleHR, 22)
	ts.seedAccount(t, "emp-1", engine.RoleEmployee, 10)

	resp := ts.do(t, http.MethodPost, "/api/users/emp-1/adjustments", hrToken, api.AdjustBalanceRequest{
		VacationDelta: 3, Reason: "carryover",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decode[api.UserDTO](t, resp)
	assert.Equal(t, 13, user.VacationDaysBalance)

	// Missing reason is a validation error.
	resp = ts.do(t, http.MethodPost, "/api/users/emp-1/adjustments", hrToken, api.AdjustBalanceRequest{
		VacationDelta: 1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_TeamAvailability(t *testing.T) {
	// GIVEN: A team of 2 with both members approved off today
	// WHEN: Availability is requested
	// THEN: Both absences appear, today is critical with ratio 1.0, and
	//       both members show as absent

	ts := newTestServer(t)
	hrToken := ts.seedAccount(t, "hr-1", engine.RoleHR, 22)
	mgrToken := ts.seedAccount(t, "mgr-1", engine.RoleManager, 20)

	resp := ts.do(t, http.MethodPost, "/api/teams", hrToken, api.CreateTeamRequest{Name: "Platform"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	team := decode[api.TeamDTO](t, resp)

	var memberIDs []string
	for i := 0; i < 2; i++ {
		resp = ts.do(t, http.MethodPost, "/api/users", hrToken, api.CreateUserRequest{
			Email: fmt.Sprintf("m%d@example.com", i), Name: fmt.Sprintf("Member %d", i),
			Password: "changeme", Role: "employee", TeamID: &team.ID, VacationBalance: 20,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		memberIDs = append(memberIDs, decode[api.UserDTO](t, resp).ID)
	}

	today := engine.Today()
	for _, id := range memberIDs {
		resp = ts.do(t, http.MethodPost, "/api/requests", mgrToken, api.CreateRequestRequest{
			UserID: id, Type: "vacation",
			StartDate: today.String(), EndDate: today.AddDays(1).String(),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		created := decode[api.RequestDTO](t, resp)

		resp = ts.do(t, http.MethodPost, "/api/requests/"+created.ID+"/approve", mgrToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = ts.do(t, http.MethodGet, "/api/teams/"+team.ID+"/availability", mgrToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avail := decode[api.AvailabilityDTO](t, resp)
	assert.Len(t, avail.UpcomingAbsences, 2)
	require.NotEmpty(t, avail.CriticalDays)
	assert.Equal(t, float64(1), avail.CriticalDays[0].Ratio)
	for _, m := range avail.Members {
		assert.Equal(t, "absent", m.Status)
	}
}

func TestAPI_DeleteTeam_DetachesMembers(t *testing.T) {
	ts := newTestServer(t)
	hrToken := ts.seedAccount(t, "hr-1", engine.RoleHR, 22)

	resp := ts.do(t, http.MethodPost, "/api/teams", hrToken, api.CreateTeamRequest{Name: "Doomed"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	team := decode[api.TeamDTO](t, resp)

	resp = ts.do(t, http.MethodPost, "/api/users", hrToken, api.CreateUserRequest{
		Email: "d@example.com", Name: "D", Password: "changeme", Role: "employee", TeamID: &team.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	member := decode[api.UserDTO](t, resp)

	resp = ts.do(t, http.MethodDelete, "/api/teams/"+team.ID, hrToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/users/"+member.ID, hrToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode[api.UserDTO](t, resp).TeamID)
}

// =============================================================================
// NOTIFICATIONS AND DASHBOARD
// =============================================================================

func TestAPI_Notifications(t *testing.T) {
	ts := newTestServer(t)
	empToken := ts.seedAccount(t, "emp-1", engine.RoleEmployee, 12)
	mgrToken := ts.seedAccount(t, "mgr-1", engine.RoleManager, 20)

	resp := ts.do(t, http.MethodPost, "/api/requests", empToken, api.CreateRequestRequest{
		Type: "vacation", StartDate: "2026-07-15", EndDate: "2026-07-19",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/notifications", mgrToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	forManager := decode[api.NotificationsResponse](t, resp)
	require.Len(t, forManager.Notifications, 1)
	assert.Equal(t, "pending-requests", forManager.Notifications[0].ID)
	assert.Equal(t, 1, forManager.UnreadCount)

	resp = ts.do(t, http.MethodGet, "/api/notifications", empToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	forEmployee := decode[api.NotificationsResponse](t, resp)
	assert.Empty(t, forEmployee.Notifications)
}

func TestAPI_Dashboard(t *testing.T) {
	ts := newTestServer(t)
	empToken := ts.seedAccount(t, "emp-1", engine.RoleEmployee, 12)

	resp := ts.do(t, http.MethodPost, "/api/requests", empToken, api.CreateRequestRequest{
		Type: "vacation", StartDate: "2026-07-15", EndDate: "2026-07-19",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/dashboard", empToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[api.DashboardDTO](t, resp)
	assert.Equal(t, 1, stats.PendingRequests)
}

// =============================================================================
// SEED
// =============================================================================

func TestAPI_Seed_DisabledByDefault(t *testing.T) {
	ts := newTestServer(t)
	token := ts.seedAccount(t, "hr-1", engine.RoleHR, 22)

	resp := ts.do(t, http.MethodPost, "/api/seed", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "seed route is off unless enabled")
}

func TestAPI_Seed_LoadsDemoData(t *testing.T) {
	mem := store.NewMemory()
	tokens := auth.NewTokenManager("test-secret", 60)
	handler := api.NewHandler(mem, tokens, zap.NewNop(), testBcryptCost)
	handler.SeedEnabled = true
	srv := httptest.NewServer(api.NewRouter(handler, []string{"*"}))
	t.Cleanup(srv.Close)
	ts := &testServer{srv: srv, store: mem, tokens: tokens}

	token := ts.seedAccount(t, "hr-1", engine.RoleHR, 22)
	resp := ts.do(t, http.MethodPost, "/api/seed", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The demo accounts can log in.
	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "maria@example.com", "password": "demo1234",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Seeding twice is harmless.
	resp = ts.do(t, http.MethodPost, "/api/seed", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
