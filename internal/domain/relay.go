package domain

import "context"

// RelayRecord is the flat payload sent to the external spreadsheet relay.
type RelayRecord struct {
	ID         int64  `json:"id"`
	Identifier string `json:"identifier"`
	Phone      string `json:"phone"`
	ProjectID  string `json:"projectId"`
	Timestamp  string `json:"timestamp"`
	IP         string `json:"ip"`
	UserAgent  string `json:"userAgent"`
}

// RelayNotifier sends a registration record to the external relay.
// Failures are reported as errors wrapping ErrRelayUnavailable and must
// never affect the client-visible registration outcome.
type RelayNotifier interface {
	Send(ctx context.Context, rec RelayRecord) error
}
