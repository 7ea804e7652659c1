package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testUser(id string, teamID *string) engine.User {
	return engine.User{
		ID:                  id,
		Email:               id + "@example.com",
		Name:                "User " + id,
		PasswordHash:        "hash-" + id,
		Role:                engine.RoleEmployee,
		TeamID:              teamID,
		VacationDaysBalance: 15,
		SickDaysBalance:     10,
		CreatedAt:           time.Now().UTC(),
	}
}

func testDate(y int, m time.Month, d int) engine.Date { return engine.NewDate(y, m, d) }

// =============================================================================
// USERS
// =============================================================================

func TestStore_UserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := testUser("u-1", nil)
	require.NoError(t, s.SaveUser(ctx, u))

	got, err := s.GetUser(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.Equal(t, 15, got.VacationDaysBalance)
	assert.Nil(t, got.TeamID)

	// Upsert: saving again with a new balance overwrites in place.
	u.VacationDaysBalance = 7
	require.NoError(t, s.SaveUser(ctx, u))
	got, err = s.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.VacationDaysBalance)

	byEmail, err := s.GetUserByEmail(ctx, "u-1@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "u-1", byEmail.ID)

	missing, err := s.GetUser(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing, "missing rows are nil, not errors")
}

func TestStore_ListUsersByTeam(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	team := engine.Team{ID: "t-1", Name: "Platform", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.SaveTeam(ctx, team))

	teamID := "t-1"
	require.NoError(t, s.SaveUser(ctx, testUser("u-1", &teamID)))
	require.NoError(t, s.SaveUser(ctx, testUser("u-2", &teamID)))
	require.NoError(t, s.SaveUser(ctx, testUser("u-3", nil)))

	members, err := s.ListUsersByTeam(ctx, "t-1")
	require.NoError(t, err)
	assert.Len(t, members, 2)

	all, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// =============================================================================
// REQUESTS
// =============================================================================

func savedRequest(t *testing.T, s *sqlite.Store, id, userID string, status engine.RequestStatus, start, end engine.Date) engine.LeaveRequest {
	t.Helper()
	r := engine.LeaveRequest{
		ID:        id,
		UserID:    userID,
		UserName:  "User " + userID,
		Type:      engine.LeaveVacation,
		StartDate: start,
		EndDate:   end,
		DaysCount: engine.InclusiveDays(start, end),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveRequest(context.Background(), r))
	return r
}

func TestStore_RequestRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveUser(ctx, testUser("u-1", nil)))

	saved := savedRequest(t, s, "r-1", "u-1", engine.StatusPending,
		testDate(2026, time.July, 15), testDate(2026, time.July, 19))

	got, err := s.GetRequest(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.StartDate.String(), got.StartDate.String())
	assert.Equal(t, 5, got.DaysCount)
	assert.Nil(t, got.ReviewedBy)

	// Review fields survive the round trip.
	now := time.Now().UTC()
	reviewer, comments := "mgr-1", "ok"
	got.Status = engine.StatusApproved
	got.ReviewedBy = &reviewer
	got.ReviewedAt = &now
	got.ReviewComments = &comments
	require.NoError(t, s.SaveRequest(ctx, *got))

	reread, err := s.GetRequest(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, engine.StatusApproved, reread.Status)
	require.NotNil(t, reread.ReviewedBy)
	assert.Equal(t, "mgr-1", *reread.ReviewedBy)
	require.NotNil(t, reread.ReviewedAt)
	assert.WithinDuration(t, now, *reread.ReviewedAt, time.Second)
}

func TestStore_ListRequests_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	team := engine.Team{ID: "t-1", Name: "Platform", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.SaveTeam(ctx, team))
	teamID := "t-1"
	require.NoError(t, s.SaveUser(ctx, testUser("u-1", &teamID)))
	require.NoError(t, s.SaveUser(ctx, testUser("u-2", nil)))

	savedRequest(t, s, "r-1", "u-1", engine.StatusPending,
		testDate(2026, time.July, 1), testDate(2026, time.July, 3))
	savedRequest(t, s, "r-2", "u-1", engine.StatusApproved,
		testDate(2026, time.August, 10), testDate(2026, time.August, 12))
	savedRequest(t, s, "r-3", "u-2", engine.StatusPending,
		testDate(2026, time.July, 2), testDate(2026, time.July, 2))

	byUser := "u-1"
	got, err := s.ListRequests(ctx, engine.RequestFilter{UserID: &byUser})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	pending := engine.StatusPending
	got, err = s.ListRequests(ctx, engine.RequestFilter{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListRequests(ctx, engine.RequestFilter{TeamID: &teamID})
	require.NoError(t, err)
	assert.Len(t, got, 2, "team filter resolves members through users")

	from, to := testDate(2026, time.July, 3), testDate(2026, time.July, 31)
	got, err = s.ListRequests(ctx, engine.RequestFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, got, 1, "overlap includes ranges touching the window edge")
	assert.Equal(t, "r-1", got[0].ID)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestStore_Holiday_UniqueNameDate(t *testing.T) {
	// GIVEN: A stored holiday
	// WHEN: Another id is saved with the same normalized name and date
	// THEN: The unique index surfaces as DuplicateHolidayError

	s := newTestStore(t)
	ctx := context.Background()

	first := engine.Holiday{
		ID: "h-1", Name: "Año Nuevo", Date: testDate(2026, time.January, 1),
		Type: engine.HolidayNational, IsMandatory: true,
		CreatedBy: "hr-1", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveHoliday(ctx, first))

	dup := first
	dup.ID = "h-2"
	err := s.SaveHoliday(ctx, dup)
	var dupErr *engine.DuplicateHolidayError
	assert.ErrorAs(t, err, &dupErr)

	// Same id again is an upsert, not a duplicate.
	first.IsMandatory = false
	assert.NoError(t, s.SaveHoliday(ctx, first))

	found, err := s.FindHolidayByNameDate(ctx, "año nuevo", testDate(2026, time.January, 1))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "h-1", found.ID)

	missing, err := s.FindHolidayByNameDate(ctx, "año nuevo", testDate(2027, time.January, 1))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_ListHolidays_OrderedByDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, h := range []engine.Holiday{
		{ID: "h-1", Name: "Navidad", Date: testDate(2026, time.December, 25), Type: engine.HolidayNational},
		{ID: "h-2", Name: "Año Nuevo", Date: testDate(2026, time.January, 1), Type: engine.HolidayNational},
	} {
		h.CreatedBy = "hr-1"
		h.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Millisecond)
		require.NoError(t, s.SaveHoliday(ctx, h))
	}

	got, err := s.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Año Nuevo", got[0].Name)
	assert.Equal(t, "Navidad", got[1].Name)
}

// =============================================================================
// LEDGER
// =============================================================================

func TestStore_LedgerEntries_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveUser(ctx, testUser("u-1", nil)))

	base := time.Now().UTC()
	for i, id := range []string{"e-1", "e-2"} {
		require.NoError(t, s.AppendLedgerEntry(ctx, engine.LedgerEntry{
			ID:        id,
			UserID:    "u-1",
			Kind:      engine.LedgerDebit,
			Delta:     decimal.NewFromInt(-3),
			Balance:   decimal.NewFromInt(int64(12 - 3*(i+1))),
			RequestID: "r-" + id,
			Reason:    "vacation approved",
			CreatedBy: "mgr-1",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := s.ListLedgerEntries(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e-2", entries[0].ID)
	assert.Equal(t, "e-1", entries[1].ID)
	assert.True(t, entries[0].Balance.Equal(decimal.NewFromInt(6)))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A user with balance 15
	// WHEN: A transaction updates the balance, then fails
	// THEN: The update is rolled back

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveUser(ctx, testUser("u-1", nil)))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx engine.Store) error {
		u, err := tx.GetUser(ctx, "u-1")
		if err != nil {
			return err
		}
		u.VacationDaysBalance = 0
		if err := tx.SaveUser(ctx, *u); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, err := s.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 15, u.VacationDaysBalance)
}

func TestStore_WithTx_CommitsOnSuccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveUser(ctx, testUser("u-1", nil)))

	err := s.WithTx(ctx, func(tx engine.Store) error {
		u, err := tx.GetUser(ctx, "u-1")
		if err != nil {
			return err
		}
		u.VacationDaysBalance = 9
		return tx.SaveUser(ctx, *u)
	})
	require.NoError(t, err)

	u, err := s.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 9, u.VacationDaysBalance)
}

// The engine services run unchanged on the SQLite store; one end-to-end
// pass catches schema drift the unit tests miss.
func TestStore_EngineIntegration_ApproveDebits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	svc := engine.NewRequestService(s)

	require.NoError(t, s.SaveUser(ctx, testUser("u-1", nil)))
	mgr := testUser("mgr-1", nil)
	mgr.Role = engine.RoleManager
	require.NoError(t, s.SaveUser(ctx, mgr))

	req, err := svc.Create(ctx, engine.NewSession("u-1", engine.RoleEmployee), engine.NewLeaveRequest{
		Type:      engine.LeaveVacation,
		StartDate: testDate(2026, time.July, 15),
		EndDate:   testDate(2026, time.July, 19),
		DaysCount: 5,
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, engine.NewSession("mgr-1", engine.RoleManager), req.ID, engine.StatusApproved, "")
	require.NoError(t, err)

	u, err := s.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 10, u.VacationDaysBalance)

	entries, err := s.ListLedgerEntries(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, req.ID, entries[0].RequestID)
}
