package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wegovern/governance-api/internal/constants"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/repository"
	"github.com/wegovern/governance-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrNotOrganizationMember      = errors.New("user is not a member of the organization")
	ErrOrganizationNotFound       = errors.New("organization not found")
	ErrInvalidOrganizationName    = errors.New("organization name cannot be empty")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = errors.New("invalid invite code")
	ErrAlreadyOrganizationMember  = errors.New("user is already a member of this organization")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the organization")
	ErrCannotChangeOwnRole        = errors.New("cannot change your own role")
	ErrInvalidRole                = errors.New("role must be owner, admin or member")
	ErrOrganizationMemberNotFound = errors.New("organization member not found")
)

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	orgRepo repository.OrganizationRepository
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository) *OrganizationService {
	return &OrganizationService{
		orgRepo: orgRepo,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name                  string
	OwnerID               uint64
	MajorityVoteNumber    *int
	RequireMotionApproval bool
	RequireTaskApproval   bool
}

// UpdateOrganizationInput holds the settings that can change after creation.
type UpdateOrganizationInput struct {
	Name                  *string
	MajorityVoteNumber    *int
	RequireMotionApproval *bool
	RequireTaskApproval   *bool
}

// CreateOrganization creates a new organization with the creator as owner.
func (s *OrganizationService) CreateOrganization(input CreateOrganizationInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}

	threshold := constants.DefaultMajorityVoteNumber
	if input.MajorityVoteNumber != nil {
		if *input.MajorityVoteNumber < 1 {
			return nil, ErrInvalidThreshold
		}
		threshold = *input.MajorityVoteNumber
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	org := &models.Organization{
		Name:                  name,
		InviteCode:            inviteCode,
		MajorityVoteNumber:    threshold,
		RequireMotionApproval: input.RequireMotionApproval,
		RequireTaskApproval:   input.RequireTaskApproval,
	}
	owner := &models.OrganizationMember{
		UserID:   input.OwnerID,
		Role:     models.RoleOwner,
		JoinedAt: time.Now(),
	}

	if err := s.orgRepo.CreateWithOwner(org, owner); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return org, nil
}

// ListOrganizationsForUser returns organizations the user belongs to.
func (s *OrganizationService) ListOrganizationsForUser(userID uint64) ([]models.OrganizationMember, error) {
	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}

// Membership returns the user's membership in the organization
func (s *OrganizationService) Membership(orgID, userID uint64) (*models.OrganizationMember, error) {
	member, err := s.orgRepo.FindMember(orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotOrganizationMember
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}
	return member, nil
}

// GetOrganizationWithMembers returns an organization and all of its members.
func (s *OrganizationService) GetOrganizationWithMembers(orgID uint64) (*models.Organization, []models.OrganizationMember, error) {
	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.orgRepo.ListMembers(orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list organization members: %w", err)
	}

	return org, members, nil
}

// UpdateOrganization changes an organization's name, majority threshold
// or approval policy. The new threshold applies to the next evaluation
// of every pending motion.
func (s *OrganizationService) UpdateOrganization(orgID uint64, input UpdateOrganizationInput) (*models.Organization, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, ErrInvalidOrganizationName
	}
	if input.MajorityVoteNumber != nil && *input.MajorityVoteNumber < 1 {
		return nil, ErrInvalidThreshold
	}

	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		org.Name = strings.TrimSpace(*input.Name)
	}
	if input.MajorityVoteNumber != nil {
		org.MajorityVoteNumber = *input.MajorityVoteNumber
	}
	if input.RequireMotionApproval != nil {
		org.RequireMotionApproval = *input.RequireMotionApproval
	}
	if input.RequireTaskApproval != nil {
		org.RequireTaskApproval = *input.RequireTaskApproval
	}

	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return org, nil
}

// DeleteOrganization removes an organization.
func (s *OrganizationService) DeleteOrganization(orgID uint64) error {
	if _, err := s.findOrganization(orgID); err != nil {
		return err
	}

	if err := s.orgRepo.Delete(orgID); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	return nil
}

// JoinOrganizationByInvite adds a user to an organization via invite code.
func (s *OrganizationService) JoinOrganizationByInvite(userID uint64, inviteCode string) (*models.Organization, error) {
	org, err := s.orgRepo.FindByInviteCode(utils.NormalizeInviteCode(inviteCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find organization by invite code: %w", err)
	}

	if _, err := s.orgRepo.FindMember(org.ID, userID); err == nil {
		return nil, ErrAlreadyOrganizationMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           models.RoleMember,
		JoinedAt:       time.Now(),
	}

	if err := s.orgRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member to organization: %w", err)
	}

	return org, nil
}

// RegenerateInviteCode generates a new invite code for the organization.
func (s *OrganizationService) RegenerateInviteCode(orgID uint64) (*models.Organization, error) {
	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	org.InviteCode = code
	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}

	return org, nil
}

// RemoveMember removes a member from the organization.
func (s *OrganizationService) RemoveMember(orgID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if _, err := s.orgRepo.FindMember(orgID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationMemberNotFound
		}
		return fmt.Errorf("failed to find organization member: %w", err)
	}

	if err := s.orgRepo.RemoveMember(orgID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// ChangeMemberRole sets the role of another member.
func (s *OrganizationService) ChangeMemberRole(orgID, actorID, targetID uint64, role models.OrganizationRole) (*models.OrganizationMember, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if targetID == actorID {
		return nil, ErrCannotChangeOwnRole
	}

	if err := s.orgRepo.UpdateMemberRole(orgID, targetID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationMemberNotFound
		}
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	member, err := s.orgRepo.FindMember(orgID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload member: %w", err)
	}
	return member, nil
}

func (s *OrganizationService) findOrganization(orgID uint64) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}
