package service

import (
	"errors"
	"fmt"

	"oyakatsu/internal/models"
	"oyakatsu/internal/repository"
	"oyakatsu/internal/security"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrFamilyNotFound    = errors.New("family not found")
	ErrAlreadyMember     = errors.New("already a family member")
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrFamilyFull        = errors.New("family is full")
	ErrNotMember         = errors.New("not a family member")
	ErrCannotLeave       = errors.New("family creator cannot leave")
)

// FamilyService manages families, invite codes and memberships
type FamilyService struct {
	families *repository.FamilyRepository
	baseURL  string
}

// NewFamilyService creates a new family service. baseURL is the public URL
// invite links are built on.
func NewFamilyService(families *repository.FamilyRepository, baseURL string) *FamilyService {
	return &FamilyService{
		families: families,
		baseURL:  baseURL,
	}
}

// InviteURL builds the shareable join link for an invite code
func (s *FamilyService) InviteURL(inviteCode string) string {
	return fmt.Sprintf("%s/join/%s", s.baseURL, inviteCode)
}

// Create creates a family with the caller as its first parent member. A user
// holding an active membership anywhere cannot create another family.
func (s *FamilyService) Create(userID int64, name string) (*models.Family, error) {
	existing, err := s.families.GetAnyActiveMembership(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	// One retry on the astronomically unlikely invite-code collision.
	for attempt := 0; attempt < 2; attempt++ {
		code, err := security.GenerateInviteCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invite code: %w", err)
		}

		family, err := s.families.CreateFamily(name, code, userID)
		if err != nil {
			if s.families.IsUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		return family, nil
	}

	return nil, errors.New("failed to allocate unique invite code")
}

// ListMine retrieves the caller's families with member counts
func (s *FamilyService) ListMine(userID int64) ([]models.FamilyWithCount, error) {
	return s.families.ListFamiliesForUser(userID)
}

// Detail retrieves a family the caller belongs to, with its member count
func (s *FamilyService) Detail(familyID, userID int64) (*models.FamilyWithCount, error) {
	membership, err := s.families.GetActiveMembership(familyID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if membership == nil {
		return nil, ErrForbidden
	}

	family, err := s.families.GetFamilyByID(familyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}

	count, err := s.families.CountActiveMembers(familyID)
	if err != nil {
		return nil, err
	}

	return &models.FamilyWithCount{Family: *family, MemberCount: count}, nil
}

// Members retrieves a family's active roster. Only members may see it.
func (s *FamilyService) Members(familyID, userID int64) ([]models.MemberWithUser, error) {
	membership, err := s.families.GetActiveMembership(familyID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if membership == nil {
		return nil, ErrForbidden
	}

	return s.families.ListActiveMembers(familyID)
}

// InviteCode retrieves a family's current invite code. Restricted to active
// parent members.
func (s *FamilyService) InviteCode(familyID, userID int64) (string, error) {
	if err := s.requireParent(familyID, userID); err != nil {
		return "", err
	}

	family, err := s.families.GetFamilyByID(familyID)
	if err != nil {
		return "", err
	}
	if family == nil {
		return "", ErrFamilyNotFound
	}

	return family.InviteCode, nil
}

// RegenerateInviteCode replaces a family's invite code, invalidating the old
// one. Restricted to active parent members.
func (s *FamilyService) RegenerateInviteCode(familyID, userID int64) (string, error) {
	if err := s.requireParent(familyID, userID); err != nil {
		return "", err
	}

	for attempt := 0; attempt < 2; attempt++ {
		code, err := security.GenerateInviteCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}

		if err := s.families.UpdateInviteCode(familyID, code); err != nil {
			if s.families.IsUniqueViolation(err) {
				continue
			}
			return "", err
		}
		return code, nil
	}

	return "", errors.New("failed to allocate unique invite code")
}

// Join enrolls the caller in the family behind an invite code
func (s *FamilyService) Join(userID int64, inviteCode string, role models.Role) (*models.Family, *models.FamilyMember, error) {
	family, err := s.families.GetFamilyByInviteCode(inviteCode)
	if err != nil {
		return nil, nil, err
	}
	if family == nil {
		return nil, nil, ErrInvalidInviteCode
	}

	member, err := s.families.JoinFamily(family.ID, userID, role, models.MaxFamilyMembers)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMembershipExists):
			return nil, nil, ErrAlreadyMember
		case errors.Is(err, repository.ErrFamilyAtCapacity):
			return nil, nil, ErrFamilyFull
		}
		return nil, nil, err
	}

	return family, member, nil
}

// Leave ends the caller's membership. The creator can never leave their own
// family. The row is kept with status left so history survives; the freed
// seat counts toward capacity again.
func (s *FamilyService) Leave(familyID, userID int64) error {
	membership, err := s.families.GetActiveMembership(familyID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if membership == nil {
		return ErrNotMember
	}

	family, err := s.families.GetFamilyByID(familyID)
	if err != nil {
		return err
	}
	if family != nil && family.CreatedBy == userID {
		return ErrCannotLeave
	}

	return s.families.MarkMemberLeft(membership.ID)
}

func (s *FamilyService) requireParent(familyID, userID int64) error {
	membership, err := s.families.GetActiveMembership(familyID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if membership == nil || membership.Role != models.RoleParent {
		return ErrForbidden
	}
	return nil
}
