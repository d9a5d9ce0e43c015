package reaction

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	companyRepo "github.com/haleyhq/pulseboard/internal/modules/company/repository"
	reactionDto "github.com/haleyhq/pulseboard/internal/modules/reaction/dto"
	reactionService "github.com/haleyhq/pulseboard/internal/modules/reaction/service"
	"github.com/haleyhq/pulseboard/pkg/response"
	"github.com/haleyhq/pulseboard/pkg/validator"
)

type ReactionHandler struct {
	service     reactionService.ReactionService
	companyRepo companyRepo.CompanyRepository
}

func NewReactionHandler(service reactionService.ReactionService, companyRepo companyRepo.CompanyRepository) *ReactionHandler {
	return &ReactionHandler{service: service, companyRepo: companyRepo}
}

// ToggleReaction handles POST /api/posts/:id/reactions
func (h *ReactionHandler) ToggleReaction(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	companyID, err := response.GetCompanyID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req reactionDto.ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	company, err := h.companyRepo.FindByID(c.Request.Context(), companyID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.Toggle(c.Request.Context(), company, postID, userID, req.Type)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
