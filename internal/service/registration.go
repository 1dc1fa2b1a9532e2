package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/campusworks/winter-registry/internal/domain"
	"github.com/campusworks/winter-registry/internal/identity"
	"golang.org/x/crypto/bcrypt"
)

// RegistrationService orchestrates validation, upsert, and the best-effort
// relay notification for registration requests.
type RegistrationService struct {
	repo       domain.RegistrationRepository
	relay      domain.RelayNotifier // nil when no relay is configured
	idConfig   identity.Config
	bcryptCost int
}

// NewRegistrationService creates a new RegistrationService. relay may be
// nil, in which case no relay attempts are made.
func NewRegistrationService(repo domain.RegistrationRepository, relay domain.RelayNotifier, idConfig identity.Config, bcryptCost int) *RegistrationService {
	return &RegistrationService{
		repo:       repo,
		relay:      relay,
		idConfig:   idConfig,
		bcryptCost: bcryptCost,
	}
}

// RegisterRequest carries a registration attempt plus request provenance.
type RegisterRequest struct {
	Identifier string
	Email      string
	RollNumber string
	Phone      string
	ProjectID  string
	Password   string
	IP         string
	UserAgent  string
}

// Register validates req, upserts the registration, and returns the stored
// row carrying the full current project set. Registering the same identity
// for the same project twice leaves the project set unchanged.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (*domain.Registration, error) {
	id, err := identity.Normalize(identity.Input{
		Identifier: req.Identifier,
		Email:      req.Email,
		RollNumber: req.RollNumber,
		Phone:      req.Phone,
	}, s.idConfig)
	if err != nil {
		return nil, err
	}

	reg := &domain.Registration{
		Identifier: id.Identifier,
		Email:      id.Email,
		RollNumber: id.RollNumber,
		Phone:      id.Phone,
		IP:         req.IP,
		UserAgent:  req.UserAgent,
	}
	if req.ProjectID != "" {
		reg.ProjectIDs = []string{req.ProjectID}
	}
	if req.Password != "" {
		// Stored as an opaque credential; nothing verifies against it.
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		reg.PasswordHash = string(hash)
	}

	stored, err := s.repo.Upsert(ctx, reg)
	if err != nil {
		return nil, err
	}

	if s.relay != nil {
		go s.notifyRelay(stored, req.ProjectID)
	}

	return stored, nil
}

// notifyRelay sends the record to the external relay and stores the outcome
// flag on the row. It runs detached from the request and never surfaces a
// failure to the caller.
func (s *RegistrationService) notifyRelay(reg *domain.Registration, projectID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if projectID == "" {
		projectID = "none"
	}
	err := s.relay.Send(ctx, domain.RelayRecord{
		ID:         reg.ID,
		Identifier: reg.Identifier,
		Phone:      reg.Phone,
		ProjectID:  projectID,
		Timestamp:  reg.CreatedAt.Format(time.RFC3339),
		IP:         reg.IP,
		UserAgent:  reg.UserAgent,
	})

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		slog.Warn("relay send failed", "registration_id", reg.ID, "error", err)
	}
	if err := s.repo.SetRelayOutcome(ctx, reg.ID, err == nil, errMsg); err != nil {
		slog.Error("record relay outcome", "registration_id", reg.ID, "error", err)
	}
}

// Lookup finds a registration whose identifier, email, or roll number
// equals the supplied value.
func (s *RegistrationService) Lookup(ctx context.Context, value string) (*domain.Registration, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return nil, fmt.Errorf("%w: identifier is required", domain.ErrMissingField)
	}
	return s.repo.FindMatching(ctx, v, v, strings.ToUpper(v))
}
