package domain

import "time"

// StatusLogEntry records one transition. Status holds the logged text, which
// is not always a persisted Status (see StatusProductionComplete and vendor
// closes).
type StatusLogEntry struct {
	ID        int64
	RequestID int64
	Status    string
	Timestamp time.Time
}

type User struct {
	ID       int64
	Username string
	Role     Role
}
