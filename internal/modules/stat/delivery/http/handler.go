package stat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haleyhq/pulseboard/internal/perf"
)

type StatHandler struct {
	recorder *perf.Recorder
}

func NewStatHandler(recorder *perf.Recorder) *StatHandler {
	return &StatHandler{recorder: recorder}
}

// GetPerfSnapshot handles GET /api/admin/perf (admins)
func (h *StatHandler) GetPerfSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.recorder.Snapshot())
}
