package domain

import (
	"context"
	"time"
)

// Registration is one row per distinct person. A person is identified by
// identifier, email, or roll number; a match on any of the three merges
// into the existing row instead of creating a new one.
type Registration struct {
	ID           int64
	Identifier   string
	Email        string // empty when not provided
	RollNumber   string // empty when not provided
	Phone        string
	ProjectIDs   []string // set semantics: duplicates collapsed, union-only growth
	PasswordHash string
	Relayed      *bool // nil = relay never attempted
	RelayError   string
	CreatedAt    time.Time
	IP           string
	UserAgent    string
}

// Stats is the aggregate read projection over all registrations.
type Stats struct {
	Total          int            `json:"total"`
	WithProject    int            `json:"withProject"`
	WithoutProject int            `json:"withoutProject"`
	Last24h        int            `json:"last24Hours"`
	EmailUsers     int            `json:"emailUsers"`
	RollUsers      int            `json:"rollNumberUsers"`
	PerProject     map[string]int `json:"projectDistribution"`
}

// RegistrationRepository defines persistence operations for registrations.
type RegistrationRepository interface {
	// FindMatching returns the row whose identifier, email, or roll number
	// equals any of the non-empty arguments. Lookups are resolved in
	// precedence order identifier, email, roll number; if the lookups hit
	// different rows it returns ErrConflictingIdentity.
	FindMatching(ctx context.Context, identifier, email, rollNumber string) (*Registration, error)

	// Upsert inserts reg, or merges it into the row FindMatching resolves:
	// project IDs are unioned, phone is overwritten, email and roll number
	// are filled only when previously empty. Provenance and CreatedAt are
	// set once at insert and never changed by a merge. The returned row is
	// the stored state after the call.
	Upsert(ctx context.Context, reg *Registration) (*Registration, error)

	// List returns all registrations, newest first.
	List(ctx context.Context) ([]Registration, error)

	// Aggregate computes Stats over List.
	Aggregate(ctx context.Context) (Stats, error)

	// SetRelayOutcome records the result of a relay attempt for row id.
	SetRelayOutcome(ctx context.Context, id int64, ok bool, errMsg string) error

	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
