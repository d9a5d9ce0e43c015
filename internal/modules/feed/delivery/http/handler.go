package feed

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	companyRepo "github.com/haleyhq/pulseboard/internal/modules/company/repository"
	feedDto "github.com/haleyhq/pulseboard/internal/modules/feed/dto"
	feedService "github.com/haleyhq/pulseboard/internal/modules/feed/service"
	"github.com/haleyhq/pulseboard/pkg/response"
)

type FeedHandler struct {
	service     feedService.FeedService
	companyRepo companyRepo.CompanyRepository
}

func NewFeedHandler(service feedService.FeedService, companyRepo companyRepo.CompanyRepository) *FeedHandler {
	return &FeedHandler{service: service, companyRepo: companyRepo}
}

// GetCompanyFeed handles GET /api/feed
func (h *FeedHandler) GetCompanyFeed(c *gin.Context) {
	h.serveFeed(c, feedService.ScopeCompany, nil)
}

// GetGroupFeed handles GET /api/groups/:group_id/feed
func (h *FeedHandler) GetGroupFeed(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}
	h.serveFeed(c, feedService.ScopeGroup, &groupID)
}

func (h *FeedHandler) serveFeed(c *gin.Context, scope string, groupID *uuid.UUID) {
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

	company, err := h.companyRepo.FindByID(c.Request.Context(), companyID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var filters feedDto.FeedFilters
	// Malformed filter values are normalized, never rejected; binding errors
	// only occur for type mismatches, which we treat the same way.
	_ = c.ShouldBindQuery(&filters)

	page, fromCache, err := h.service.RunFeedQuery(c.Request.Context(), feedService.FeedQuery{
		Company:     company,
		Scope:       scope,
		GroupID:     groupID,
		RequesterID: userID,
		Filters:     filters,
	})
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if fromCache {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, page)
}
