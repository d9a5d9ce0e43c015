package response

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/haleyhq/pulseboard/pkg/apperror"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// GetCompanyID retrieves the authenticated tenant company ID from the context
func GetCompanyID(c *gin.Context) (uuid.UUID, error) {
	companyIDStr, exists := c.Get("company_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	companyID, err := uuid.Parse(companyIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return companyID, nil
}

// GetRole retrieves the authenticated user's role from the context
func GetRole(c *gin.Context) (string, error) {
	role, exists := c.Get("role")
	if !exists {
		return "", apperror.ErrUnauthorized
	}
	roleStr, ok := role.(string)
	if !ok || roleStr == "" {
		return "", apperror.ErrUnauthorized
	}
	return roleStr, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
