// Package store keeps kderelay's device history in SQLite.
//
// Only device identities and send counters are stored. Key content never
// reaches the database.
package store

import "time"

// DeviceRecord is the history of one device.
type DeviceRecord struct {
	ID          string
	Name        string
	FirstSeen   time.Time
	LastSeen    time.Time
	SendsOK     int64
	SendsFailed int64

	// LastSend is zero when nothing was ever sent.
	LastSend time.Time
}

// Label returns the name, or the id when no name was recorded.
func (d DeviceRecord) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}
