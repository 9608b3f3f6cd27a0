// Package httpapi is the transport layer: handlers translate between HTTP
// and the domain services, and nothing below this package knows about
// requests or status codes.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"linkbin.local/internal/app/linkbin"
	"linkbin.local/internal/app/linkbin/stats"
	"linkbin.local/internal/platform/auth"
	"linkbin.local/internal/platform/httpmiddleware"
)

// Deps bundles what the routes need; cmd/api assembles it.
type Deps struct {
	Links   *linkbin.Service
	Folders *linkbin.FolderService
	Users   *linkbin.Directory
	Tokens  auth.TokenService
	Visits  stats.Collector
}

// RegisterAPIRoutes mounts the JSON API under the given router, typically
// at /api/v1. Everything except register and login requires a bearer token.
func RegisterAPIRoutes(r chi.Router, d Deps) {
	r.Post("/register", NewRegisterHandler(d.Users))
	r.Post("/login", NewLoginHandler(d.Users, d.Tokens))

	r.Group(func(r chi.Router) {
		r.Use(httpmiddleware.AuthRequired(d.Tokens))

		r.Get("/me", NewMeHandler())
		r.Patch("/me", NewUpdateProfileHandler(d.Users))

		r.Route("/links", func(r chi.Router) {
			r.Post("/", NewCreateLinkHandler(d.Links))
			r.Get("/", NewListLinksHandler(d.Links))
			r.Post("/bulk-delete", NewBulkDeleteLinksHandler(d.Links))
			r.Post("/move", NewMoveLinksHandler(d.Links))
			r.Delete("/{code}", NewDeleteLinkHandler(d.Links))
			r.Post("/{code}/rename", NewRenameLinkHandler(d.Links))
			r.Get("/{code}/download", NewDownloadHandler(d.Links))
		})

		r.Route("/folders", func(r chi.Router) {
			r.Post("/", NewCreateFolderHandler(d.Folders))
			r.Get("/", NewListFoldersHandler(d.Folders))
			r.Post("/bulk-delete", NewBulkDeleteFoldersHandler(d.Folders))
			r.Delete("/{id}", NewDeleteFolderHandler(d.Folders))
		})
	})
}

// RegisterPublicRoutes mounts the browser-facing routes on the root router.
// Short codes resolve at /{code} so users can type them directly; the route
// is registered last so fixed paths win.
func RegisterPublicRoutes(r chi.Router, d Deps) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/d/{code}", NewDownloadHandler(d.Links))
	r.Get("/qr/{code}", NewQRHandler(d.Links))
	r.Get("/{code}", NewResolveHandler(d.Links, d.Visits))
}
