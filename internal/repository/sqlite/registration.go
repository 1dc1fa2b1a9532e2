package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusworks/winter-registry/internal/domain"
)

// RegistrationRepository implements domain.RegistrationRepository using SQLite.
type RegistrationRepository struct {
	db *sql.DB

	// beforeInsert, when set, runs inside the upsert transaction after the
	// match phase has missed and before the insert statement. Tests use it
	// to interleave a competing write at the point where the insert races
	// the unique identifier constraint.
	beforeInsert func(tx *sql.Tx) error
}

// NewRegistrationRepository creates a new SQLite-backed RegistrationRepository.
func NewRegistrationRepository(db *DB) *RegistrationRepository {
	return &RegistrationRepository{db: db.SqlDB}
}

const regColumns = `id, identifier, email, roll_number, phone, project_ids, password_hash, relayed, relay_error, created_at, ip, user_agent`

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *RegistrationRepository) FindMatching(ctx context.Context, identifier, email, rollNumber string) (*domain.Registration, error) {
	return findMatching(ctx, r.db, identifier, email, rollNumber)
}

// findMatching resolves the three lookups in precedence order identifier,
// email, roll number. Hits on different rows mean the request spans more
// than one existing person and cannot be merged safely.
func findMatching(ctx context.Context, q querier, identifier, email, rollNumber string) (*domain.Registration, error) {
	lookups := []struct {
		column string
		value  string
	}{
		{"identifier", identifier},
		{"email", email},
		{"roll_number", rollNumber},
	}

	var found *domain.Registration
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		reg, err := queryOne(ctx, q, "SELECT "+regColumns+" FROM registrations WHERE "+l.column+" = ?", l.value)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if found == nil {
			found = reg
			continue
		}
		if found.ID != reg.ID {
			return nil, domain.ErrConflictingIdentity
		}
	}

	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

func (r *RegistrationRepository) Upsert(ctx context.Context, reg *domain.Registration) (*domain.Registration, error) {
	// A losing race on the unique identifier constraint means the row now
	// exists, so one retry re-resolves the match and merges instead.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		stored, err := r.upsertOnce(ctx, reg)
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateIdentity) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return stored, nil
	}
	return nil, lastErr
}

func (r *RegistrationRepository) upsertOnce(ctx context.Context, reg *domain.Registration) (*domain.Registration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := findMatching(ctx, tx, reg.Identifier, reg.Email, reg.RollNumber)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var stored *domain.Registration
	if existing == nil {
		if r.beforeInsert != nil {
			if err := r.beforeInsert(tx); err != nil {
				return nil, err
			}
		}
		stored, err = insertRegistration(ctx, tx, reg)
	} else {
		stored, err = mergeRegistration(ctx, tx, existing, reg)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return stored, nil
}

func insertRegistration(ctx context.Context, tx *sql.Tx, reg *domain.Registration) (*domain.Registration, error) {
	now := time.Now().UTC()
	projects := dedupe(reg.ProjectIDs)
	projectsJSON, err := json.Marshal(projects)
	if err != nil {
		return nil, fmt.Errorf("encode project ids: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO registrations (identifier, email, roll_number, phone, project_ids, password_hash, created_at, ip, user_agent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reg.Identifier, nullable(reg.Email), nullable(reg.RollNumber), reg.Phone,
		string(projectsJSON), nullable(reg.PasswordHash), now, reg.IP, reg.UserAgent,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	stored := *reg
	stored.ID = id
	stored.ProjectIDs = projects
	stored.CreatedAt = now
	return &stored, nil
}

// mergeRegistration folds reg into existing: project IDs are unioned, phone
// is overwritten, email and roll number are filled only when previously
// empty. CreatedAt, IP, and user agent stay as recorded at first insert.
func mergeRegistration(ctx context.Context, tx *sql.Tx, existing, reg *domain.Registration) (*domain.Registration, error) {
	merged := *existing
	merged.ProjectIDs = union(existing.ProjectIDs, reg.ProjectIDs)
	merged.Phone = reg.Phone
	if merged.Email == "" {
		merged.Email = reg.Email
	}
	if merged.RollNumber == "" {
		merged.RollNumber = reg.RollNumber
	}

	projectsJSON, err := json.Marshal(merged.ProjectIDs)
	if err != nil {
		return nil, fmt.Errorf("encode project ids: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE registrations SET email = ?, roll_number = ?, phone = ?, project_ids = ? WHERE id = ?`,
		nullable(merged.Email), nullable(merged.RollNumber), merged.Phone, string(projectsJSON), merged.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	return &merged, nil
}

func (r *RegistrationRepository) List(ctx context.Context) ([]domain.Registration, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+regColumns+" FROM registrations ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var regs []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

func (r *RegistrationRepository) Aggregate(ctx context.Context) (domain.Stats, error) {
	regs, err := r.List(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	stats := domain.Stats{PerProject: make(map[string]int)}
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	for _, reg := range regs {
		stats.Total++
		if len(reg.ProjectIDs) > 0 {
			stats.WithProject++
		} else {
			stats.WithoutProject++
		}
		if reg.CreatedAt.After(cutoff) {
			stats.Last24h++
		}
		if reg.Email != "" {
			stats.EmailUsers++
		}
		if reg.RollNumber != "" {
			stats.RollUsers++
		}
		for _, p := range reg.ProjectIDs {
			stats.PerProject[p]++
		}
	}
	return stats, nil
}

func (r *RegistrationRepository) SetRelayOutcome(ctx context.Context, id int64, ok bool, errMsg string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE registrations SET relayed = ?, relay_error = ? WHERE id = ?",
		ok, nullable(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("set relay outcome: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registrations").Scan(&count); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

func (r *RegistrationRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM registrations"); err != nil {
		return fmt.Errorf("clear registrations: %w", err)
	}
	return nil
}

func queryOne(ctx context.Context, q querier, query string, args ...any) (*domain.Registration, error) {
	return scanRegistration(q.QueryRowContext(ctx, query, args...))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row scanner) (*domain.Registration, error) {
	var (
		reg                         domain.Registration
		email, roll, pwHash, relErr sql.NullString
		relayed                     sql.NullBool
		projectsJSON                string
	)
	err := row.Scan(&reg.ID, &reg.Identifier, &email, &roll, &reg.Phone, &projectsJSON,
		&pwHash, &relayed, &relErr, &reg.CreatedAt, &reg.IP, &reg.UserAgent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}

	reg.Email = email.String
	reg.RollNumber = roll.String
	reg.PasswordHash = pwHash.String
	reg.RelayError = relErr.String
	if relayed.Valid {
		reg.Relayed = &relayed.Bool
	}
	if err := json.Unmarshal([]byte(projectsJSON), &reg.ProjectIDs); err != nil {
		return nil, fmt.Errorf("decode project ids: %w", err)
	}
	return &reg, nil
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func union(existing, incoming []string) []string {
	out := dedupe(existing)
	seen := make(map[string]bool, len(out))
	for _, id := range out {
		seen[id] = true
	}
	for _, id := range incoming {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
