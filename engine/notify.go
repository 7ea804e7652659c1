/*
notify.go - Derived notification synthesis

PURPOSE:
  Notifications here are projections of current state, recomputed on every
  read and never persisted. A pending-approval banner exists exactly as
  long as pending requests do; there is nothing to mark read or clean up.
  Read-state for separately stored real notifications is a concern of an
  outer persistence layer, not this engine.
*/
package engine

import (
	"fmt"
	"time"
)

// upcomingHolidayWindowDays is the lookahead for the holiday reminder,
// inclusive of the boundary day.
const upcomingHolidayWindowDays = 7

// SynthesizeNotifications derives the viewer's notification list from the
// current requests and holidays.
func SynthesizeNotifications(viewer Session, requests []LeaveRequest, holidays []Holiday, now time.Time) []Notification {
	var out []Notification
	today := DateOf(now)

	if viewer.Caps.CanReview {
		pending := 0
		for _, r := range requests {
			if r.Status == StatusPending {
				pending++
			}
		}
		if pending > 0 {
			out = append(out, Notification{
				ID:          "pending-requests",
				UserID:      viewer.UserID,
				Title:       "Pending requests",
				Message:     fmt.Sprintf("%d request(s) awaiting review", pending),
				Type:        NotifyWarning,
				RelatedType: "leave_request",
				CreatedAt:   now,
			})
		}
	}

	upcoming := 0
	windowEnd := today.AddDays(upcomingHolidayWindowDays)
	for _, h := range holidays {
		if h.Date.After(today) && h.Date.BeforeOrEqual(windowEnd) {
			upcoming++
		}
	}
	if upcoming > 0 {
		out = append(out, Notification{
			ID:          "upcoming-holidays",
			UserID:      viewer.UserID,
			Title:       "Upcoming holidays",
			Message:     fmt.Sprintf("%d holiday(s) in the next %d days", upcoming, upcomingHolidayWindowDays),
			Type:        NotifyInfo,
			RelatedType: "holiday",
			CreatedAt:   now,
		})
	}

	return out
}

// UnreadCount counts notifications not yet marked read. Synthesized
// notifications are always unread.
func UnreadCount(notifications []Notification) int {
	n := 0
	for _, notif := range notifications {
		if !notif.IsRead {
			n++
		}
	}
	return n
}
