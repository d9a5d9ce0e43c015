package post

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haleyhq/pulseboard/internal/entity"
	companyRepo "github.com/haleyhq/pulseboard/internal/modules/company/repository"
	postDto "github.com/haleyhq/pulseboard/internal/modules/post/dto"
	postService "github.com/haleyhq/pulseboard/internal/modules/post/service"
	"github.com/haleyhq/pulseboard/pkg/response"
	"github.com/haleyhq/pulseboard/pkg/validator"
)

type PostHandler struct {
	service     postService.PostService
	companyRepo companyRepo.CompanyRepository
}

func NewPostHandler(service postService.PostService, companyRepo companyRepo.CompanyRepository) *PostHandler {
	return &PostHandler{service: service, companyRepo: companyRepo}
}

// CreatePost handles POST /api/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	ctxInfo, ok := h.requestContext(c)
	if !ok {
		return
	}

	var req postDto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	detail, err := h.service.Create(c.Request.Context(), ctxInfo.Company, ctxInfo.UserID, ctxInfo.Role, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// GetPost handles GET /api/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	ctxInfo, ok := h.requestContext(c)
	if !ok {
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	detail, fromCache, err := h.service.Get(c.Request.Context(), ctxInfo.Company, postID, ctxInfo.UserID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if fromCache {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, detail)
}

// GetQueue handles GET /api/posts/queue (moderators)
func (h *PostHandler) GetQueue(c *gin.Context) {
	ctxInfo, ok := h.requestContext(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "15"))

	queue, err := h.service.ListQueue(c.Request.Context(), ctxInfo.Company, page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, queue)
}

// ModeratePost handles POST /api/posts/:id/moderate (moderators)
func (h *PostHandler) ModeratePost(c *gin.Context) {
	ctxInfo, ok := h.requestContext(c)
	if !ok {
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var req postDto.ModeratePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	detail, err := h.service.Moderate(c.Request.Context(), ctxInfo.Company, postID, req.Action)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeletePost handles DELETE /api/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	ctxInfo, ok := h.requestContext(c)
	if !ok {
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	err := h.service.Delete(c.Request.Context(), ctxInfo.Company, postID, ctxInfo.UserID, ctxInfo.Role)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// VotePoll handles POST /api/posts/:id/votes
func (h *PostHandler) VotePoll(c *gin.Context) {
	ctxInfo, ok := h.requestContext(c)
	if !ok {
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var req postDto.VotePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	detail, err := h.service.VotePoll(c.Request.Context(), ctxInfo.Company, postID, ctxInfo.UserID, req.OptionID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ClosePoll handles POST /api/posts/:id/close-poll
func (h *PostHandler) ClosePoll(c *gin.Context) {
	ctxInfo, ok := h.requestContext(c)
	if !ok {
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	err := h.service.ClosePoll(c.Request.Context(), ctxInfo.Company, postID, ctxInfo.UserID, ctxInfo.Role)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "poll closed"})
}

// PinPost handles PUT /api/posts/:id/pin (moderators)
func (h *PostHandler) PinPost(c *gin.Context) {
	ctxInfo, ok := h.requestContext(c)
	if !ok {
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var req postDto.PinPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	err := h.service.SetPinned(c.Request.Context(), ctxInfo.Company, postID, req.Pinned)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post updated"})
}

type requestInfo struct {
	UserID  uuid.UUID
	Role    string
	Company *entity.Company
}

func (h *PostHandler) requestContext(c *gin.Context) (*requestInfo, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return nil, false
	}
	companyID, err := response.GetCompanyID(c)
	if err != nil {
		response.ResponseError(c, err)
		return nil, false
	}
	role, err := response.GetRole(c)
	if err != nil {
		response.ResponseError(c, err)
		return nil, false
	}

	company, err := h.companyRepo.FindByID(c.Request.Context(), companyID)
	if err != nil {
		response.ResponseError(c, err)
		return nil, false
	}

	return &requestInfo{UserID: userID, Role: role, Company: company}, true
}

func parsePostID(c *gin.Context) (uuid.UUID, bool) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return uuid.Nil, false
	}
	return postID, true
}
