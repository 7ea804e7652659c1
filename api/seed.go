/*
seed.go - Demo dataset loader

PURPOSE:
  Loads a small, deterministic demo company so the API can be explored
  without manual setup. Only routable when SEED_ENABLED is set.

DATASET:
  - One engineering team with a manager and three employees
  - An HR account
  - A pending vacation request, an approved sick leave, and a rejected
    personal day
  - The national holiday set for the current year

Fixed IDs make the loader idempotent: re-seeding upserts the same rows.
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/engine"
)

// Seed loads the demo dataset. POST /api/seed
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	if !h.SeedEnabled {
		writeError(w, http.StatusNotFound, "Not found", nil)
		return
	}
	if err := h.seedDemoData(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Seed failed", err)
		return
	}
	h.Log.Info("demo dataset loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "seeded"})
}

func (h *Handler) seedDemoData(ctx context.Context) error {
	now := time.Now()
	today := engine.Today()

	// One shared hash keeps seeding fast; every demo account logs in
	// with "demo1234".
	hash, err := auth.HashPassword("demo1234", h.BcryptCost)
	if err != nil {
		return err
	}

	teamID := "seed-team-platform"
	platform := engine.Team{
		ID:        teamID,
		Name:      "Platform",
		CreatedAt: now,
	}
	managerID := "seed-user-laura"
	platform.ManagerID = &managerID

	users := []engine.User{
		{
			ID: managerID, Email: "laura@example.com", Name: "Laura Sánchez",
			PasswordHash: hash, Role: engine.RoleManager, TeamID: &teamID,
			VacationDaysBalance: 20, SickDaysBalance: 10, CreatedAt: now,
		},
		{
			ID: "seed-user-maria", Email: "maria@example.com", Name: "María García",
			PasswordHash: hash, Role: engine.RoleEmployee, TeamID: &teamID,
			VacationDaysBalance: 15, SickDaysBalance: 10, CreatedAt: now,
		},
		{
			ID: "seed-user-carlos", Email: "carlos@example.com", Name: "Carlos López",
			PasswordHash: hash, Role: engine.RoleEmployee, TeamID: &teamID,
			VacationDaysBalance: 12, SickDaysBalance: 8, CreatedAt: now,
		},
		{
			ID: "seed-user-ana", Email: "ana@example.com", Name: "Ana Martín",
			PasswordHash: hash, Role: engine.RoleEmployee, TeamID: &teamID,
			VacationDaysBalance: 18, SickDaysBalance: 10, CreatedAt: now,
		},
		{
			ID: "seed-user-hr", Email: "hr@example.com", Name: "Pilar Ruiz",
			PasswordHash: hash, Role: engine.RoleHR,
			VacationDaysBalance: 22, SickDaysBalance: 10, CreatedAt: now,
		},
	}

	reviewedAt := now.Add(-48 * time.Hour)
	comments := "Get well soon"
	requests := []engine.LeaveRequest{
		{
			ID: "seed-req-maria-vacation", UserID: "seed-user-maria", UserName: "María García",
			Type: engine.LeaveVacation, Status: engine.StatusPending,
			StartDate: today.AddDays(14), EndDate: today.AddDays(18), DaysCount: 5,
			Reason: "Family trip", CreatedAt: now,
		},
		{
			ID: "seed-req-carlos-sick", UserID: "seed-user-carlos", UserName: "Carlos López",
			Type: engine.LeaveSick, Status: engine.StatusApproved,
			StartDate: today.AddDays(-3), EndDate: today.AddDays(-2), DaysCount: 2,
			Reason: "Flu", ReviewedBy: &managerID, ReviewedAt: &reviewedAt,
			ReviewComments: &comments, CreatedAt: now.Add(-72 * time.Hour),
		},
		{
			ID: "seed-req-ana-personal", UserID: "seed-user-ana", UserName: "Ana Martín",
			Type: engine.LeavePersonal, Status: engine.StatusRejected,
			StartDate: today.AddDays(7), EndDate: today.AddDays(7), DaysCount: 1,
			Reason: "Errand", ReviewedBy: &managerID, ReviewedAt: &reviewedAt,
			CreatedAt: now.Add(-96 * time.Hour),
		},
	}

	return h.Store.WithTx(ctx, func(tx engine.Store) error {
		if err := tx.SaveTeam(ctx, platform); err != nil {
			return err
		}
		for _, u := range users {
			if err := tx.SaveUser(ctx, u); err != nil {
				return err
			}
		}
		for _, req := range requests {
			if err := tx.SaveRequest(ctx, req); err != nil {
				return err
			}
		}
		for _, nh := range engine.DefaultHolidays(today.Year()) {
			existing, err := tx.FindHolidayByNameDate(ctx, engine.NormalizeHolidayName(nh.Name), nh.Date)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := tx.SaveHoliday(ctx, engine.Holiday{
				ID:          "seed-holiday-" + nh.Date.String(),
				Name:        nh.Name,
				Date:        nh.Date,
				Type:        nh.Type,
				IsMandatory: nh.IsMandatory,
				CreatedBy:   "seed-user-hr",
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
