package reminder

import (
	"time"

	"github.com/dukerupert/chistopro/internal/model"
)

const (
	reminderWindow = 24 * time.Hour
	reminderDelay  = time.Hour
	minDelay       = time.Second
)

// Input is everything the reminder policy looks at. Zero times mean never.
type Input struct {
	Enabled          bool
	LastNotification time.Time
	LastVisit        time.Time
	Last             *model.Checklist
	MaxMissedDays    int
}

type Decision struct {
	Send  bool
	Delay time.Duration
	// Suppress restarts the 24-hour window without sending.
	Suppress bool
	Reason   string
}

// Decide applies the reminder policy: at most one reminder per 24 hours, none
// once the latest checklist is done or after a long absence, otherwise one
// hour after the latest checklist was generated.
func Decide(now time.Time, in Input) Decision {
	if !in.Enabled {
		return Decision{Reason: "notifications disabled"}
	}
	if !in.LastNotification.IsZero() && now.Sub(in.LastNotification) < reminderWindow {
		return Decision{Reason: "reminded within 24 hours"}
	}
	if in.Last != nil && in.Last.Status == model.StatusDone {
		return Decision{Suppress: true, Reason: "latest checklist done"}
	}
	if !in.LastVisit.IsZero() && in.MaxMissedDays > 0 {
		if days := int(now.Sub(in.LastVisit) / (24 * time.Hour)); days > in.MaxMissedDays {
			return Decision{Reason: "absent too long"}
		}
	}

	delay := reminderDelay
	if in.Last != nil {
		delay = max(minDelay, reminderDelay-now.Sub(in.Last.CreatedAt))
	}
	return Decision{Send: true, Delay: delay}
}
