// internal/httpapi/router.go
package httpapi

import (
	"net/http"

	"campusshuttle/internal/catalog"
	"campusshuttle/internal/eventstore"
	"campusshuttle/internal/membership"
	"campusshuttle/internal/reservation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options tunes the router. LoginRatePerMinute 0 disables login throttling.
// A nil Journal leaves the reservation history endpoint unmounted.
type Options struct {
	LoginRatePerMinute int
	LoginBurst         int
	Journal            *eventstore.Journal
}

// NewRouter assembles the public HTTP surface.
func NewRouter(bookings *reservation.Handler, routes *catalog.Handler, members *membership.Handler, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		login := api
		if opts.LoginRatePerMinute > 0 {
			login = api.With(NewRateLimiter(opts.LoginRatePerMinute, opts.LoginBurst).Middleware)
		}
		login.Post("/login", bookings.HandleLogin)
		api.Get("/routes", routes.HandleRoutes)
		api.Get("/members/{studentID}", members.HandleStanding)
		if opts.Journal != nil {
			api.Get("/journal/{ref}", eventstore.NewHandler(opts.Journal).HandleHistory)
		}
		bookings.Routes(api)
	})
	return r
}
