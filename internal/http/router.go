package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatkanban/internal/blob"
	"chatkanban/internal/handlers"
	"chatkanban/internal/images"
	"chatkanban/internal/importer"
	"chatkanban/internal/service"
	"chatkanban/internal/share"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Importer    importer.Importer
	Threads     service.ThreadService
	Maintenance service.MaintenanceService
	Uploader    *images.Uploader
	ImageStorer handlers.ImageStorer
	Fetcher     *images.Fetcher
	IsLocal     func(string) bool
	Signer      *share.Signer
	Store       handlers.Pinger
	Blobs       handlers.BlobHealth
	// Uploads backs /uploads/* when set.
	Uploads handlers.BlobOpener
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(Metrics)
	r.Use(CORS)

	threadsHandler := handlers.NewThreadsHandler(deps.Threads)
	maintenanceHandler := handlers.NewMaintenanceHandler(deps.Maintenance)
	uploadHandler := handlers.NewUploadHandler(deps.Uploader)
	shareHandler := handlers.NewShareHandler(deps.Threads, deps.Signer, deps.IsLocal)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/import", handlers.NewImportHandler(deps.Importer))

		r.Get("/topics", threadsHandler.ListTopics)
		r.Get("/topics/{topicId}", threadsHandler.GetTopic)
		r.Patch("/topics/{topicId}", threadsHandler.UpdateTopic)
		r.Get("/rallies", threadsHandler.ListRallies)
		r.Get("/messages", threadsHandler.ListMessages)
		r.Get("/export", threadsHandler.Export)
		r.Get("/search", threadsHandler.Search)

		r.Post("/resolve-images", maintenanceHandler.ResolveImages)
		r.Route("/maintenance", func(r chi.Router) {
			r.Post("/migrate-all-images", maintenanceHandler.MigrateAllImages)
			r.Post("/migrate-topic-images", maintenanceHandler.MigrateTopicImages)
			r.Post("/replace-image-urls", maintenanceHandler.ReplaceImageURLs)
			r.Post("/assign-by-filename", maintenanceHandler.AssignByFilename)
		})

		r.Post("/upload", uploadHandler.Upload)
		r.Post("/upload-dataurl", uploadHandler.UploadDataURL)
		r.Method(http.MethodPost, "/fetch-upload", handlers.NewFetchUploadHandler(deps.ImageStorer))
		r.Method(http.MethodGet, "/image-proxy", handlers.NewImageProxyHandler(deps.Fetcher))

		r.Post("/share/{topicId}", shareHandler.Create)

		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Store, deps.Blobs))
	})

	r.Get("/share/{topicId}", shareHandler.Page)

	if deps.Uploads != nil {
		r.Handle(blob.DefaultLocalURLPrefix+"*", handlers.NewBlobHandler(deps.Uploads))
	}

	r.Handle("/metrics", promhttp.Handler())

	return r
}
