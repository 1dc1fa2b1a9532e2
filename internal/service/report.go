package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/campusworks/winter-registry/internal/domain"
)

// ReportService computes read-only projections over the registration store.
// It never mutates store state.
type ReportService struct {
	repo domain.RegistrationRepository
}

// NewReportService creates a new ReportService.
func NewReportService(repo domain.RegistrationRepository) *ReportService {
	return &ReportService{repo: repo}
}

// List returns all registrations, newest first.
func (s *ReportService) List(ctx context.Context) ([]domain.Registration, error) {
	return s.repo.List(ctx)
}

// Stats returns the aggregate counts. An empty store yields all zeros.
func (s *ReportService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.repo.Aggregate(ctx)
}

// Count returns the number of registrations.
func (s *ReportService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

var csvHeader = []string{"ID", "Identifier", "Email", "Roll Number", "Phone", "Project IDs", "Timestamp", "IP Address", "User Agent"}

// ExportCSV renders all registrations as CSV, one header row plus one row
// per registration, project IDs joined with ';'.
func (s *ReportService) ExportCSV(ctx context.Context) ([]byte, error) {
	regs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, reg := range regs {
		row := []string{
			strconv.FormatInt(reg.ID, 10),
			reg.Identifier,
			reg.Email,
			reg.RollNumber,
			reg.Phone,
			strings.Join(reg.ProjectIDs, ";"),
			reg.CreatedAt.Format(time.RFC3339),
			reg.IP,
			reg.UserAgent,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Clear wipes every registration. Callers gate this behind the admin key.
func (s *ReportService) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
