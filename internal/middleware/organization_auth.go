package middleware

import (
	"errors"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wegovern/governance-api/internal/constants"
	apierrors "github.com/wegovern/governance-api/internal/errors"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/repository"
	"gorm.io/gorm"
)

// RequireOrganizationAccess checks if the user is a member of the organization
// named by the :id path parameter
func RequireOrganizationAccess(orgRepo repository.OrganizationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		org, err := orgRepo.FindByID(orgID)
		if err != nil {
			respondLookupError(c, err, "Organization not found")
			return
		}

		member, err := orgRepo.FindMember(orgID, userID)
		if err != nil {
			// 404 rather than 403 so non-members cannot tell which organizations exist
			respondLookupError(c, err, "Organization not found")
			return
		}

		c.Set(constants.ContextKeyOrganization, *org)
		c.Set(constants.ContextKeyOrganizationMember, *member)
		c.Next()
	}
}

// RequireOrganizationRole lets the request through only when the member
// loaded by RequireOrganizationAccess holds one of roles
func RequireOrganizationRole(roles ...models.OrganizationRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetOrganizationMember(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			c.Abort()
			return
		}

		if !slices.Contains(roles, member.Role) {
			apierrors.Forbidden(c, "Insufficient role for this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetOrganization returns the organization loaded by RequireOrganizationAccess
func GetOrganization(c *gin.Context) (models.Organization, bool) {
	value, exists := c.Get(constants.ContextKeyOrganization)
	if !exists {
		return models.Organization{}, false
	}
	org, ok := value.(models.Organization)
	return org, ok
}

// GetOrganizationMember returns the membership loaded by RequireOrganizationAccess
func GetOrganizationMember(c *gin.Context) (models.OrganizationMember, bool) {
	value, exists := c.Get(constants.ContextKeyOrganizationMember)
	if !exists {
		return models.OrganizationMember{}, false
	}
	member, ok := value.(models.OrganizationMember)
	return member, ok
}

func respondLookupError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierrors.NotFound(c, notFound)
	} else {
		apierrors.InternalError(c, "")
	}
	c.Abort()
}
