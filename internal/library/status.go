package library

import "time"

// Transition is the set of column changes a status update writes. Nil
// timestamps leave the stored value untouched.
type Transition struct {
	StatusID   int
	Status     string
	StartedAt  *time.Time
	FinishedAt *time.Time
	UpdatedAt  time.Time
}

// transitionTo derives the timestamps for moving to status at now. No
// transition graph is enforced: any known status may follow any other.
func transitionTo(status string, statusID int, now time.Time) Transition {
	t := Transition{StatusID: statusID, Status: status, UpdatedAt: now}
	switch status {
	case StatusReading:
		t.StartedAt = &now
	case StatusFinished:
		t.FinishedAt = &now
	}
	return t
}
