package handler

import (
	"time"

	"github.com/campusworks/winter-registry/internal/domain"
)

// RegistrationDTO is the JSON representation of a registration.
type RegistrationDTO struct {
	Identifier   string   `json:"identifier"`
	Email        string   `json:"email,omitempty"`
	RollNumber   string   `json:"rollNumber,omitempty"`
	Phone        string   `json:"phone"`
	ProjectIDs   []string `json:"projectIds"`
	RegisteredAt string   `json:"registeredAt"`
}

// AdminRegistrationDTO extends RegistrationDTO with provenance and relay
// fields for the admin listing.
type AdminRegistrationDTO struct {
	ID int64 `json:"id"`
	RegistrationDTO
	IP         string `json:"ip"`
	UserAgent  string `json:"userAgent"`
	Relayed    *bool  `json:"relayed"`
	RelayError string `json:"relayError,omitempty"`
}

func toRegistrationDTO(reg *domain.Registration) RegistrationDTO {
	projects := reg.ProjectIDs
	if projects == nil {
		projects = []string{}
	}
	return RegistrationDTO{
		Identifier:   reg.Identifier,
		Email:        reg.Email,
		RollNumber:   reg.RollNumber,
		Phone:        reg.Phone,
		ProjectIDs:   projects,
		RegisteredAt: reg.CreatedAt.Format(time.RFC3339),
	}
}

func toAdminRegistrationDTO(reg *domain.Registration) AdminRegistrationDTO {
	return AdminRegistrationDTO{
		ID:              reg.ID,
		RegistrationDTO: toRegistrationDTO(reg),
		IP:              reg.IP,
		UserAgent:       reg.UserAgent,
		Relayed:         reg.Relayed,
		RelayError:      reg.RelayError,
	}
}
