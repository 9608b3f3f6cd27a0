package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"linkbin.local/internal/app/linkbin"
	"linkbin.local/internal/platform/auth"
)

type errorResponse struct {
	Error string   `json:"error"`
	Items []string `json:"items,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError translates domain errors into HTTP statuses. Anything not
// listed here is an internal error; the caller logs it first.
func writeDomainError(w http.ResponseWriter, err error) {
	var partial *linkbin.PartialOwnershipError
	if errors.As(err, &partial) {
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: "some items were not found or are not yours",
			Items: partial.Items,
		})
		return
	}
	var bulk *linkbin.BulkDeleteError
	if errors.As(err, &bulk) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "some items could not be deleted",
			Items: bulk.Failed,
		})
		return
	}

	switch {
	case errors.Is(err, linkbin.ErrInvalidCode),
		errors.Is(err, linkbin.ErrEmptyContent),
		errors.Is(err, linkbin.ErrEmptyName),
		errors.Is(err, linkbin.ErrFileTooLarge),
		errors.Is(err, linkbin.ErrInvalidFileType),
		errors.Is(err, linkbin.ErrNotDownloadable),
		errors.Is(err, linkbin.ErrInvalidAccount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, linkbin.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, linkbin.ErrNotFound),
		errors.Is(err, linkbin.ErrFolderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, linkbin.ErrCodeTaken),
		errors.Is(err, linkbin.ErrDuplicateName),
		errors.Is(err, linkbin.ErrDuplicateEmail),
		errors.Is(err, linkbin.ErrNoChange):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, linkbin.ErrStorage):
		writeError(w, http.StatusBadGateway, "storage unavailable")
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// mustGetUserID reads the authenticated identity; AuthRequired puts it there,
// so a miss is a wiring bug, not a client error.
func mustGetUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	identity, ok := auth.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return 0, false
	}
	return identity.UserID, true
}

// shortURL rebuilds the absolute short URL from the request the way a reverse
// proxy saw it.
func shortURL(r *http.Request, code string) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
	}
	if r.Host == "" {
		return "/" + code
	}
	return scheme + "://" + r.Host + "/" + code
}
