package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rh "github.com/coreybb/readings/route-handlers"
	"github.com/coreybb/readings/scheduler"
	"github.com/coreybb/readings/webutil"
)

const (
	readingsPath    = "/"
	healthCheckPath = "/healthz"
	tickPath        = "/scheduler/tick"
	requestTimeout  = 60 * time.Second
)

func SetupRoutes(readingPageHandler *rh.ReadingPageHandler, cacheWarmer *scheduler.Scheduler) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(SetHeader("X-Content-Type-Options", "nosniff"))

	// The readings page answers every method.
	r.Handle(readingsPath, webutil.MakeHandler(readingPageHandler.HandleGetReadingPage))

	r.Get(healthCheckPath, handleHealthCheck)
	r.Post(tickPath, webutil.MakeHandler(cacheWarmer.HandleTick))

	return r
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	webutil.RespondWithText(w, http.StatusOK, "OK")
}
