package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docportal/internal/http/middleware"
	"docportal/internal/service"
)

// Services bundles the use cases served over HTTP.
type Services struct {
	Documents service.DocumentService
	Sign      service.SignService
	Auth      service.AuthService
	Images    service.SignatureImageService
}

// RouteOptions configure RegisterRoutes.
type RouteOptions struct {
	// SessionCookie is the cookie accepted as an alternative to a bearer token.
	SessionCookie string
	// Metrics, when set, is exposed on /metrics.
	Metrics prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Infrastructure endpoints
// are public; everything else requires a session.
func RegisterRoutes(app *fiber.App, db *sql.DB, svcs Services, opts RouteOptions) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{})))
	}

	auth := middleware.Auth(svcs.Auth, opts.SessionCookie)

	app.Post("/auth/login", Login(svcs.Auth, opts.SessionCookie))
	app.Post("/auth/logout", auth, Logout(svcs.Auth, opts.SessionCookie))

	me := app.Group("/me", auth)
	me.Get("/", Me())
	me.Put("/impersonation-mode", SetImpersonationMode(svcs.Auth))
	me.Get("/signature-image", GetSignatureImage(svcs.Images))
	me.Put("/signature-image", PutSignatureImage(svcs.Images))
	me.Delete("/signature-image", DeleteSignatureImage(svcs.Images))

	docs := app.Group("/documents", auth)
	docs.Get("/", ListDocuments(svcs.Documents))
	docs.Post("/", UploadDocument(svcs.Documents))
	docs.Get("/:id", GetDocument(svcs.Documents))
	docs.Put("/:id", UpdateDocument(svcs.Documents))
	docs.Delete("/:id", DeleteDocument(svcs.Documents))
	docs.Get("/:id/viewer-url", ViewerURL(svcs.Documents))
	docs.Post("/:id/sign", SignDocument(svcs.Sign))

	app.Get("/document-engine/health", auth, EngineHealth(svcs.Documents))
}
