package leaderboard

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	companyRepo "github.com/haleyhq/pulseboard/internal/modules/company/repository"
	leaderboardService "github.com/haleyhq/pulseboard/internal/modules/leaderboard/service"
	"github.com/haleyhq/pulseboard/pkg/response"
)

type LeaderboardHandler struct {
	service     leaderboardService.LeaderboardService
	companyRepo companyRepo.CompanyRepository
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService, companyRepo companyRepo.CompanyRepository) *LeaderboardHandler {
	return &LeaderboardHandler{service: service, companyRepo: companyRepo}
}

// GetLeaderboard handles GET /api/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
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

	period := strings.ToUpper(c.DefaultQuery("period", leaderboardService.PeriodAllTime))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	board, fromCache, err := h.service.Top(c.Request.Context(), company, period, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if fromCache {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, board)
}
