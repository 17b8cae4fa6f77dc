// Package admin implements the superadmin panel-switching endpoints: listing
// the identities a superadmin can act as, and minting tokens that carry the
// acting-as claims.
package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vaisagh-mp/clinic-project/internal/domain/accounts"
	"github.com/vaisagh-mp/clinic-project/internal/domain/clinic"
	"github.com/vaisagh-mp/clinic-project/internal/platform/auth"
	"github.com/vaisagh-mp/clinic-project/pkg/pagination"
)

// SwitchableUser is one identity a superadmin can switch into.
type SwitchableUser struct {
	UserID   uuid.UUID  `json:"user_id"`
	Role     string     `json:"role"`
	Name     string     `json:"name"`
	ClinicID *uuid.UUID `json:"clinic_id,omitempty"`
	DoctorID *uuid.UUID `json:"doctor_id,omitempty"`
}

// SwitchResult is the response to a successful panel switch.
type SwitchResult struct {
	Access     string    `json:"access"`
	Refresh    string    `json:"refresh"`
	ActingAs   string    `json:"acting_as"`
	TargetName string    `json:"target_name"`
	TargetID   uuid.UUID `json:"target_id"`
	RedirectTo string    `json:"redirect_to"`
}

type Service struct {
	users   accounts.UserRepository
	clinics clinic.ClinicRepository
	doctors clinic.DoctorRepository
	issuer  *auth.TokenIssuer
}

func NewService(users accounts.UserRepository, clinics clinic.ClinicRepository,
	doctors clinic.DoctorRepository, issuer *auth.TokenIssuer) *Service {
	return &Service{users: users, clinics: clinics, doctors: doctors, issuer: issuer}
}

// SwitchableUsers lists the superadmin's own identity plus every active
// clinic and every doctor.
func (s *Service) SwitchableUsers(ctx context.Context, adminID uuid.UUID) ([]SwitchableUser, error) {
	self, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("load admin user: %w", err)
	}

	result := []SwitchableUser{{
		UserID: self.ID,
		Role:   self.Role,
		Name:   self.FullName(),
	}}

	clinics, err := s.clinics.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range clinics {
		clinicID := c.ID
		result = append(result, SwitchableUser{
			UserID:   c.UserID,
			Role:     auth.RoleClinic,
			Name:     c.Name,
			ClinicID: &clinicID,
		})
	}

	// Page through every doctor; the switch list must be complete.
	for offset := 0; ; offset += pagination.MaxLimit {
		doctors, total, err := s.doctors.ListAll(ctx, pagination.MaxLimit, offset)
		if err != nil {
			return nil, err
		}
		for _, d := range doctors {
			doctorID := d.ID
			clinicID := d.ClinicID
			result = append(result, SwitchableUser{
				UserID:   d.UserID,
				Role:     auth.RoleDoctor,
				Name:     d.Name,
				ClinicID: &clinicID,
				DoctorID: &doctorID,
			})
		}
		if len(doctors) == 0 || offset+pagination.MaxLimit >= total {
			break
		}
	}

	return result, nil
}

// SwitchPanel issues tokens for the superadmin acting as the target user.
// Switching to the superadmin's own id clears the acting-as claims.
func (s *Service) SwitchPanel(ctx context.Context, adminID, targetID uuid.UUID) (*SwitchResult, error) {
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("load admin user: %w", err)
	}

	if targetID == adminID {
		pair, err := s.issuer.IssuePair(admin.ID, admin.Role)
		if err != nil {
			return nil, err
		}
		return &SwitchResult{
			Access:     pair.Access,
			Refresh:    pair.Refresh,
			ActingAs:   admin.Role,
			TargetName: admin.FullName(),
			TargetID:   admin.ID,
			RedirectTo: accounts.RedirectPath(admin.Role),
		}, nil
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("target user not found")
	}
	if target.Role != auth.RoleClinic && target.Role != auth.RoleDoctor {
		return nil, fmt.Errorf("can only switch to clinic or doctor accounts")
	}
	if !target.IsActive {
		return nil, fmt.Errorf("target account is disabled")
	}

	pair, err := s.issuer.IssuePairActingAs(admin.ID, admin.Role, target.Role, target.ID.String())
	if err != nil {
		return nil, err
	}
	return &SwitchResult{
		Access:     pair.Access,
		Refresh:    pair.Refresh,
		ActingAs:   target.Role,
		TargetName: target.FullName(),
		TargetID:   target.ID,
		RedirectTo: accounts.RedirectPath(target.Role),
	}, nil
}
