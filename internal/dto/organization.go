package dto

import (
	"time"

	"github.com/wegovern/governance-api/internal/models"
)

// OrganizationWithRoleDTO is an organization as seen by one of its members
type OrganizationWithRoleDTO struct {
	OrganizationDTO
	Role models.OrganizationRole `json:"role"`
}

// OrganizationMemberDTO represents a member in an organization
type OrganizationMemberDTO struct {
	User     UserDTO                 `json:"user"`
	Role     models.OrganizationRole `json:"role"`
	JoinedAt time.Time               `json:"joined_at"`
}

// OrganizationDetailDTO is the organization page: settings, members and
// what the caller may do there
type OrganizationDetailDTO struct {
	OrganizationDTO
	Members             []OrganizationMemberDTO `json:"members"`
	YourRole            models.OrganizationRole `json:"your_role"`
	CanProcessApprovals bool                    `json:"can_process_approvals"`
}

// ToOrganizationWithRoleDTOs converts the memberships of a user
func ToOrganizationWithRoleDTOs(memberships []models.OrganizationMember) []OrganizationWithRoleDTO {
	items := make([]OrganizationWithRoleDTO, len(memberships))
	for i, m := range memberships {
		items[i] = OrganizationWithRoleDTO{
			OrganizationDTO: ToOrganizationDTO(m.Organization, m.Role.CanProcessApprovals()),
			Role:            m.Role,
		}
	}
	return items
}

// ToOrganizationMemberDTO converts a member to DTO
func ToOrganizationMemberDTO(member models.OrganizationMember) OrganizationMemberDTO {
	return OrganizationMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToOrganizationDetailDTO builds the detail view for the member you. The
// invite code is only shown to owners and admins.
func ToOrganizationDetailDTO(org models.Organization, members []models.OrganizationMember, you models.OrganizationMember) OrganizationDetailDTO {
	memberDTOs := make([]OrganizationMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToOrganizationMemberDTO(member)
	}

	return OrganizationDetailDTO{
		OrganizationDTO:     ToOrganizationDTO(org, you.Role.CanProcessApprovals()),
		Members:             memberDTOs,
		YourRole:            you.Role,
		CanProcessApprovals: you.Role.CanProcessApprovals(),
	}
}
