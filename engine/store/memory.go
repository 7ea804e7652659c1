// Package store provides an in-memory engine.TxStore implementation
// for tests and local development.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	users    map[string]engine.User
	teams    map[string]engine.Team
	requests map[string]engine.LeaveRequest
	holidays map[string]engine.Holiday
	ledger   map[string][]engine.LedgerEntry // by user id, append order
	seq      int64                            // tiebreak for equal CreatedAt
	order    map[string]int64                 // record id -> insertion seq
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]engine.User),
		teams:    make(map[string]engine.Team),
		requests: make(map[string]engine.LeaveRequest),
		holidays: make(map[string]engine.Holiday),
		ledger:   make(map[string][]engine.LedgerEntry),
		order:    make(map[string]int64),
	}
}

func (m *Memory) touch(id string) {
	if _, ok := m.order[id]; !ok {
		m.seq++
		m.order[id] = m.seq
	}
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func (m *Memory) SaveUser(_ context.Context, u engine.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.touch(u.ID)
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*engine.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*engine.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]engine.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out, nil
}

func (m *Memory) ListUsersByTeam(_ context.Context, teamID string) ([]engine.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.User
	for _, u := range m.users {
		if u.TeamID != nil && *u.TeamID == teamID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

// -----------------------------------------------------------------------------
// Teams
// -----------------------------------------------------------------------------

func (m *Memory) SaveTeam(_ context.Context, t engine.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = t
	m.touch(t.ID)
	return nil
}

func (m *Memory) GetTeam(_ context.Context, id string) (*engine.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.teams[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *Memory) ListTeams(_ context.Context) ([]engine.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out, nil
}

func (m *Memory) DeleteTeam(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.teams, id)
	return nil
}

// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

func (m *Memory) SaveRequest(_ context.Context, r engine.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
	m.touch(r.ID)
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*engine.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.requests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *Memory) ListRequests(_ context.Context, filter engine.RequestFilter) ([]engine.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	teamMembers := map[string]bool{}
	if filter.TeamID != nil {
		for _, u := range m.users {
			if u.TeamID != nil && *u.TeamID == *filter.TeamID {
				teamMembers[u.ID] = true
			}
		}
	}

	var out []engine.LeaveRequest
	for _, r := range m.requests {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		if filter.TeamID != nil && !teamMembers[r.UserID] {
			continue
		}
		if filter.From != nil && filter.To != nil &&
			!engine.Overlaps(r.StartDate, r.EndDate, *filter.From, *filter.To) {
			continue
		}
		out = append(out, r)
	}

	// created_at descending, insertion order as tiebreak
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return m.order[out[i].ID] > m.order[out[j].ID]
	})
	return out, nil
}

// -----------------------------------------------------------------------------
// Holidays
// -----------------------------------------------------------------------------

func (m *Memory) SaveHoliday(_ context.Context, h engine.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.ID] = h
	m.touch(h.ID)
	return nil
}

func (m *Memory) GetHoliday(_ context.Context, id string) (*engine.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.holidays[id]; ok {
		return &h, nil
	}
	return nil, nil
}

func (m *Memory) ListHolidays(_ context.Context) ([]engine.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return m.order[out[i].ID] < m.order[out[j].ID]
	})
	return out, nil
}

func (m *Memory) FindHolidayByNameDate(_ context.Context, normalizedName string, date engine.Date) (*engine.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.holidays {
		if engine.NormalizeHolidayName(h.Name) == normalizedName && h.Date.Equal(date) {
			h := h
			return &h, nil
		}
	}
	return nil, nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holidays, id)
	return nil
}

// -----------------------------------------------------------------------------
// Ledger (append-only)
// -----------------------------------------------------------------------------

func (m *Memory) AppendLedgerEntry(_ context.Context, e engine.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger[e.UserID] = append(m.ledger[e.UserID], e)
	return nil
}

func (m *Memory) ListLedgerEntries(_ context.Context, userID string) ([]engine.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.ledger[userID]
	out := make([]engine.LedgerEntry, len(entries))
	// stored in append order; return newest first
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

// WithTx snapshots all maps and restores them if fn fails. Coarse, but it
// gives tests the same all-or-nothing semantics as the SQLite store.
func (m *Memory) WithTx(_ context.Context, fn func(engine.Store) error) error {
	m.mu.Lock()
	snapshot := m.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.users = snapshot.users
		m.teams = snapshot.teams
		m.requests = snapshot.requests
		m.holidays = snapshot.holidays
		m.ledger = snapshot.ledger
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) clone() *Memory {
	c := NewMemory()
	for k, v := range m.users {
		c.users[k] = v
	}
	for k, v := range m.teams {
		c.teams[k] = v
	}
	for k, v := range m.requests {
		c.requests[k] = v
	}
	for k, v := range m.holidays {
		c.holidays[k] = v
	}
	for k, v := range m.ledger {
		c.ledger[k] = append([]engine.LedgerEntry(nil), v...)
	}
	return c
}

// Compile-time interface checks.
var _ engine.TxStore = (*Memory)(nil)
