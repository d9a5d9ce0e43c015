package attachment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	attachmentService "github.com/haleyhq/pulseboard/internal/modules/attachment/service"
	companyRepo "github.com/haleyhq/pulseboard/internal/modules/company/repository"
	"github.com/haleyhq/pulseboard/pkg/response"
)

type AttachmentHandler struct {
	service     attachmentService.AttachmentService
	companyRepo companyRepo.CompanyRepository
}

func NewAttachmentHandler(service attachmentService.AttachmentService, companyRepo companyRepo.CompanyRepository) *AttachmentHandler {
	return &AttachmentHandler{service: service, companyRepo: companyRepo}
}

// UploadAttachment handles POST /api/attachments (multipart form, field "file")
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
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

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	attachment, err := h.service.Upload(c.Request.Context(), company, header)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}
