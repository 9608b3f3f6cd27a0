package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"linkbin.local/internal/app/linkbin"
)

type createFolderRequest struct {
	Name string `json:"name"`
}

func NewCreateFolderHandler(svc *linkbin.FolderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var req createFolderRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		folder, err := svc.CreateFolder(r.Context(), req.Name, userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, folder)
	}
}

func NewListFoldersHandler(svc *linkbin.FolderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		folders, err := svc.ListFolders(r.Context(), userID)
		if err != nil {
			slog.Error("list folders failed", "user_id", userID, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if folders == nil {
			folders = []linkbin.Folder{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
	}
}

func NewDeleteFolderHandler(svc *linkbin.FolderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid folder id")
			return
		}
		if err := svc.DeleteFolder(r.Context(), id, userID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

type bulkFolderRequest struct {
	IDs []int64 `json:"ids"`
}

func NewBulkDeleteFoldersHandler(svc *linkbin.FolderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var req bulkFolderRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := svc.BulkDeleteFolders(r.Context(), req.IDs, userID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"deleted": len(req.IDs)})
	}
}
