package httpapi

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"linkbin.local/internal/app/linkbin"
	"linkbin.local/internal/app/linkbin/stats"
	"linkbin.local/internal/platform/httpmiddleware"
	"linkbin.local/internal/platform/metrics"
)

type fileUploadRequest struct {
	Name string `json:"name"`
	// Data is base64; multipart stays out of the JSON API.
	Data string `json:"data"`
}

type createLinkRequest struct {
	ContentType string             `json:"content_type"`
	Content     string             `json:"content,omitempty"`
	File        *fileUploadRequest `json:"file,omitempty"`
	CustomCode  string             `json:"custom_code,omitempty"`
	FolderID    *int64             `json:"folder_id,omitempty"`
}

type createLinkResponse struct {
	linkbin.Link
	ShortURL string `json:"short_url"`
}

func NewCreateLinkHandler(svc *linkbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var req createLinkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		in := linkbin.CreateInput{
			Kind:       linkbin.ContentKind(req.ContentType),
			OwnerID:    userID,
			Payload:    req.Content,
			CustomCode: req.CustomCode,
			FolderID:   req.FolderID,
		}
		if req.File != nil {
			data, err := base64.StdEncoding.DecodeString(req.File.Data)
			if err != nil {
				writeError(w, http.StatusBadRequest, "file data is not valid base64")
				return
			}
			in.File = &linkbin.FileUpload{Name: req.File.Name, Data: data}
		}
		if !in.Kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown content type")
			return
		}

		link, err := svc.CreateLink(r.Context(), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		metrics.LinksCreatedTotal.WithLabelValues(string(link.Kind)).Inc()
		writeJSON(w, http.StatusCreated, createLinkResponse{
			Link:     link,
			ShortURL: shortURL(r, link.ShortCode),
		})
	}
}

type listLinksResponse struct {
	Links   []linkbin.Link `json:"links"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

func NewListLinksHandler(svc *linkbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var f linkbin.ListFilter
		q := r.URL.Query()
		if v := q.Get("folder_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid folder_id")
				return
			}
			f.FolderID = &id
		}
		if v := q.Get("type"); v != "" {
			kind := linkbin.ContentKind(v)
			if !kind.Valid() {
				writeError(w, http.StatusBadRequest, "unknown content type")
				return
			}
			f.Kind = kind
		}
		f.Page, _ = strconv.Atoi(q.Get("page"))
		f.PerPage, _ = strconv.Atoi(q.Get("per_page"))
		f = f.Normalize()

		links, total, err := svc.ListLinks(r.Context(), userID, f)
		if err != nil {
			slog.Error("list links failed", "user_id", userID, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if links == nil {
			links = []linkbin.Link{}
		}
		writeJSON(w, http.StatusOK, listLinksResponse{
			Links:   links,
			Total:   total,
			Page:    f.Page,
			PerPage: f.PerPage,
		})
	}
}

func NewDeleteLinkHandler(svc *linkbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		code := chi.URLParam(r, "code")
		deleted, err := svc.DeleteLink(r.Context(), code, userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, linkbin.ErrNotFound.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

type bulkCodesRequest struct {
	Codes []string `json:"codes"`
}

func NewBulkDeleteLinksHandler(svc *linkbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var req bulkCodesRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := svc.BulkDeleteLinks(r.Context(), req.Codes, userID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"deleted": len(req.Codes)})
	}
}

type renameLinkRequest struct {
	NewCode string `json:"new_code"`
}

func NewRenameLinkHandler(svc *linkbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var req renameLinkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		oldCode := chi.URLParam(r, "code")
		if err := svc.RenameLink(r.Context(), oldCode, req.NewCode, userID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"short_code": req.NewCode,
			"short_url":  shortURL(r, req.NewCode),
		})
	}
}

type moveLinksRequest struct {
	Codes    []string `json:"codes"`
	FolderID *int64   `json:"folder_id"` // null detaches
}

func NewMoveLinksHandler(svc *linkbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var req moveLinksRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := svc.MoveToFolder(r.Context(), req.Codes, req.FolderID, userID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"moved": len(req.Codes)})
	}
}

// NewResolveHandler serves the public short URL. URL links redirect; stored
// kinds redirect to the blob's public URL; text is served inline.
func NewResolveHandler(svc *linkbin.Service, collector stats.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		link, err := svc.Resolve(r.Context(), code)
		if err != nil {
			if errors.Is(err, linkbin.ErrNotFound) {
				metrics.ResolvesTotal.WithLabelValues("miss").Inc()
				writeError(w, http.StatusNotFound, "short code not found")
				return
			}
			slog.Error("resolve failed", "code", code, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		metrics.ResolvesTotal.WithLabelValues("hit").Inc()

		collector.Collect(stats.VisitEvent{
			Code:      code,
			VisitedAt: time.Now(),
			IP:        httpmiddleware.ClientIP(r),
			UserAgent: r.UserAgent(),
			Referer:   r.Referer(),
		})

		switch link.Kind {
		case linkbin.KindText:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(link.Content))
		default:
			http.Redirect(w, r, link.Content, http.StatusFound)
		}
	}
}

func NewDownloadHandler(svc *linkbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		dl, err := svc.DownloadLink(r.Context(), code)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.Header().Set("Content-Type", dl.MIME)
		w.Header().Set("Content-Disposition", `attachment; filename="`+dl.Filename+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(dl.Data)
	}
}
