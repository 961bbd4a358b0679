package wire

import (
	"context"
	"net/http"
	"time"

	"cinema-ticketing/internal/adaptor"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/usecase"
	"cinema-ticketing/pkg/database"
	"cinema-ticketing/pkg/middleware"
	"cinema-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring menginisialisasi semua dependencies
func Wiring(
	repo *repository.Repository,
	service *usecase.Service,
	sweeps adaptor.SweepStatsProvider,
	pinger database.Pinger,
	config *utils.Config,
	logger *zap.Logger,
) (*App, error) {
	loc, err := config.App.Location()
	if err != nil {
		return nil, err
	}

	handler := adaptor.NewHandler(service, sweeps, loc, logger)
	router := setupRouter(handler, repo, pinger, logger)

	return &App{
		Router:  router,
		Service: service,
	}, nil
}

// setupRouter konfigurasi Chi router
func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	pinger database.Pinger,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wireSeat(r, handler.Seat, repo, logger)
	wireBooking(r, handler.Booking, repo, logger)
	wirePayment(r, handler.Payment, repo, logger)
	wireAdmin(r, handler, repo, logger)

	r.Get("/health", health(pinger, logger))

	return r
}

func health(pinger database.Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				logger.Error("Health check failed", zap.Error(err))
				utils.ResponseServiceUnavailable(w, "database unavailable")
				return
			}
		}
		utils.ResponseSuccess(w, "OK", nil)
	}
}
