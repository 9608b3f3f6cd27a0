package httpapi

import (
	"net/http"

	"linkbin.local/internal/app/linkbin"
	"linkbin.local/internal/platform/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func NewRegisterHandler(dir *linkbin.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		user, err := dir.Register(r.Context(), req.Email, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email})
	}
}

func NewLoginHandler(dir *linkbin.Directory, ts auth.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		user, err := dir.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		token, err := ts.Sign(user.ID, user.Email)
		if err != nil {
			writeError(w, http.StatusBadGateway, "token signing failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func NewMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.GetIdentity(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		writeJSON(w, http.StatusOK, userResponse{ID: identity.UserID, Email: identity.Email})
	}
}

type updateProfileRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

func NewUpdateProfileHandler(dir *linkbin.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var req updateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		user, err := dir.UpdateProfile(r.Context(), userID, req.Email, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
	}
}
