package adaptor

import (
	"net/http"

	"cinema-ticketing/internal/worker"
	"cinema-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type SweepStatsProvider interface {
	GetStats() []worker.SweepStats
}

type SweepHandler struct {
	sweeps SweepStatsProvider
	log    *zap.Logger
}

func NewSweepHandler(sweeps SweepStatsProvider, log *zap.Logger) *SweepHandler {
	return &SweepHandler{
		sweeps: sweeps,
		log:    log.With(zap.String("handler", "sweep")),
	}
}

// GetStats handles GET /api/admin/sweeps (admin)
func (h *SweepHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, "success", h.sweeps.GetStats())
}
