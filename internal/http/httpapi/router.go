package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"artshift/internal/http/handlers"
	"artshift/internal/middleware"
)

// Options configures the router's middleware stack.
type Options struct {
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxyHeaders bool
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
		middleware.Logger(app.Logger),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get(handlers.OpenAPIPath, app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Get("/v1/styles", app.Styles)
	r.Get("/v1/aspect-ratios", app.AspectRatios)

	r.Route("/v1/workspace", func(r chi.Router) {
		r.Get("/", app.Workspace)
		r.Delete("/", app.ResetWorkspace)
		r.Put("/style", app.SelectStyle)
		r.Put("/aspect-ratio", app.SetAspectRatio)
		r.Put("/texts/{index}", app.EditText)
		r.Put("/entities/{index}", app.EditEntity)
		r.Get("/prompt", app.Prompt)
		r.Get("/result", app.Result)

		// Remote model calls.
		r.Group(func(r chi.Router) {
			if opts.RateLimitPerMin > 0 {
				r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute, app.RateLimited))
			}
			r.Post("/image", app.UploadImage)
			r.Post("/transform", app.Transform)
		})
	})

	r.Route("/v1/history", func(r chi.Router) {
		r.Get("/", app.ListHistory)
		r.Delete("/", app.ClearHistory)
		r.Get("/archive", app.HistoryArchive)
		r.Get("/{id}", app.GetHistoryItem)
	})

	r.Route("/v1/preferences", func(r chi.Router) {
		r.Get("/tutorial", app.GetTutorial)
		r.Put("/tutorial", app.SetTutorial)
	})

	return r
}
