package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"linkbin.local/internal/app/linkbin"
)

// NewQRHandler renders the short URL as a PNG QR code. The code must exist;
// a QR pointing at a 404 helps nobody.
func NewQRHandler(svc *linkbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if _, err := svc.Resolve(r.Context(), code); err != nil {
			if errors.Is(err, linkbin.ErrNotFound) {
				writeError(w, http.StatusNotFound, "short code not found")
				return
			}
			slog.Error("qr lookup failed", "code", code, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		png, err := qrcode.Encode(shortURL(r, code), qrcode.Medium, 256)
		if err != nil {
			slog.Error("qr encode failed", "code", code, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}
