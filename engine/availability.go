/*
availability.go - Team availability projection

PURPOSE:
  Pure read-side computation over a team's members and the current request
  list: who is out, on which days, and which days are critically
  understaffed. No storage access, no side effects; callers fetch the
  inputs and may cache the output briefly, recomputing whenever the
  underlying requests change.

CRITICAL DAYS:
  A day is critical when the number of DISTINCT absent members strictly
  exceeds threshold * teamSize. With the default 0.5 threshold on a team
  of 4, three absentees (0.75) is critical, exactly two (0.50) is not.
  Ratios are decimal so 0.5 compares exactly.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultCriticalThreshold is the absence ratio above which a day is
// flagged. Strictly greater-than.
var DefaultCriticalThreshold = decimal.NewFromFloat(0.5)

// Availability computes projections for one team.
type Availability struct {
	Members  []User
	Requests []LeaveRequest // any status; non-approved are ignored
	AsOf     Date
}

// memberSet returns the ids of team members for fast lookups.
func (a Availability) memberSet() map[string]bool {
	ids := make(map[string]bool, len(a.Members))
	for _, m := range a.Members {
		ids[m.ID] = true
	}
	return ids
}

// approvedForTeam filters to approved requests belonging to team members,
// in a stable order: start date ascending, then id.
func (a Availability) approvedForTeam() []LeaveRequest {
	members := a.memberSet()
	var approved []LeaveRequest
	for _, r := range a.Requests {
		if r.Status == StatusApproved && members[r.UserID] {
			approved = append(approved, r)
		}
	}
	sort.Slice(approved, func(i, j int) bool {
		if !approved[i].StartDate.Equal(approved[j].StartDate) {
			return approved[i].StartDate.Before(approved[j].StartDate)
		}
		return approved[i].ID < approved[j].ID
	})
	return approved
}

// UpcomingAbsences returns approved requests whose inclusive range
// intersects [AsOf, AsOf+horizonDays], sorted by start date ascending.
func (a Availability) UpcomingAbsences(horizonDays int) []LeaveRequest {
	windowEnd := a.AsOf.AddDays(horizonDays)
	var out []LeaveRequest
	for _, r := range a.approvedForTeam() {
		if Overlaps(r.StartDate, r.EndDate, a.AsOf, windowEnd) {
			out = append(out, r)
		}
	}
	return out
}

// AbsencesByDate expands approved requests day by day into a map from
// calendar date to the requests covering it.
func (a Availability) AbsencesByDate() map[Date][]LeaveRequest {
	byDate := make(map[Date][]LeaveRequest)
	for _, r := range a.approvedForTeam() {
		EachDay(r.StartDate, r.EndDate, func(day Date) {
			byDate[day] = append(byDate[day], r)
		})
	}
	return byDate
}

// CriticalDay flags a date where too much of the team is out at once.
type CriticalDay struct {
	Date      Date
	Absentees []LeaveRequest
	Ratio     decimal.Decimal // distinct absent members / team size
}

// CriticalDays returns dates where distinct absent members strictly exceed
// threshold * teamSize, sorted by date. A zero-member team has no critical
// days.
func (a Availability) CriticalDays(threshold decimal.Decimal) []CriticalDay {
	teamSize := len(a.Members)
	if teamSize == 0 {
		return nil
	}
	size := decimal.NewFromInt(int64(teamSize))
	cutoff := threshold.Mul(size)

	var critical []CriticalDay
	for day, covering := range a.AbsencesByDate() {
		distinct := make(map[string]bool, len(covering))
		for _, r := range covering {
			distinct[r.UserID] = true
		}
		absent := decimal.NewFromInt(int64(len(distinct)))
		if absent.GreaterThan(cutoff) {
			critical = append(critical, CriticalDay{
				Date:      day,
				Absentees: covering,
				Ratio:     absent.Div(size),
			})
		}
	}

	sort.Slice(critical, func(i, j int) bool {
		return critical[i].Date.Before(critical[j].Date)
	})
	return critical
}

// MemberStatus values.
const (
	MemberAbsent    = "absent"
	MemberAvailable = "available"
)

// StatusOf reports whether a member is absent on a given day, and why.
// If several approved requests cover the day, the tie-break is stable:
// earliest start date, then id. Reason is the leave type of the winner.
func (a Availability) StatusOf(memberID string, day Date) (status string, reason LeaveType) {
	for _, r := range a.approvedForTeam() {
		if r.UserID == memberID && r.CoversDate(day) {
			return MemberAbsent, r.Type
		}
	}
	return MemberAvailable, ""
}
