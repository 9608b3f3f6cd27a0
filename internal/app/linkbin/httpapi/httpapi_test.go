package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"linkbin.local/internal/app/linkbin"
	"linkbin.local/internal/app/linkbin/stats"
	"linkbin.local/internal/app/linkbin/storage"
	"linkbin.local/internal/platform/auth"
)

// Minimal in-memory backends; enough for routing, auth and error-mapping
// coverage. Service behavior has its own tests.

type memLinks struct{ rows map[string]linkbin.Link }

func (m *memLinks) Insert(_ context.Context, link linkbin.Link) error {
	if _, ok := m.rows[link.ShortCode]; ok {
		return linkbin.ErrCodeTaken
	}
	m.rows[link.ShortCode] = link
	return nil
}

func (m *memLinks) Exists(_ context.Context, code string) (bool, error) {
	_, ok := m.rows[code]
	return ok, nil
}

func (m *memLinks) FindByCode(_ context.Context, code string) (linkbin.Link, error) {
	link, ok := m.rows[code]
	if !ok {
		return linkbin.Link{}, linkbin.ErrNotFound
	}
	return link, nil
}

func (m *memLinks) FindOwned(_ context.Context, code string, ownerID int64) (linkbin.Link, error) {
	link, ok := m.rows[code]
	if !ok || link.OwnerID != ownerID {
		return linkbin.Link{}, linkbin.ErrNotFound
	}
	return link, nil
}

func (m *memLinks) Delete(_ context.Context, code string, ownerID int64) (bool, error) {
	link, ok := m.rows[code]
	if !ok || link.OwnerID != ownerID {
		return false, nil
	}
	delete(m.rows, code)
	return true, nil
}

func (m *memLinks) Rename(_ context.Context, oldCode, newCode string, ownerID int64) (bool, error) {
	link, ok := m.rows[oldCode]
	if !ok || link.OwnerID != ownerID {
		return false, nil
	}
	if _, taken := m.rows[newCode]; taken {
		return false, linkbin.ErrCodeTaken
	}
	delete(m.rows, oldCode)
	link.ShortCode = newCode
	m.rows[newCode] = link
	return true, nil
}

func (m *memLinks) FilterOwned(_ context.Context, ownerID int64, codes []string) ([]string, error) {
	var owned []string
	for _, code := range codes {
		if link, ok := m.rows[code]; ok && link.OwnerID == ownerID {
			owned = append(owned, code)
		}
	}
	return owned, nil
}

func (m *memLinks) SetFolder(_ context.Context, ownerID int64, codes []string, folderID *int64) error {
	for _, code := range codes {
		if link, ok := m.rows[code]; ok && link.OwnerID == ownerID {
			link.FolderID = folderID
			m.rows[code] = link
		}
	}
	return nil
}

func (m *memLinks) ListByOwner(_ context.Context, ownerID int64, _ linkbin.ListFilter) ([]linkbin.Link, int, error) {
	var out []linkbin.Link
	for _, link := range m.rows {
		if link.OwnerID == ownerID {
			out = append(out, link)
		}
	}
	return out, len(out), nil
}

func (m *memLinks) ExistsContent(_ context.Context, content string) (bool, error) {
	for _, link := range m.rows {
		if link.Content == content {
			return true, nil
		}
	}
	return false, nil
}

type memFolders struct{}

func (memFolders) Insert(_ context.Context, name string, ownerID int64) (linkbin.Folder, error) {
	return linkbin.Folder{ID: 1, Name: name, OwnerID: ownerID}, nil
}
func (memFolders) ListByOwner(context.Context, int64) ([]linkbin.Folder, error) { return nil, nil }
func (memFolders) Owned(_ context.Context, _ int64, ids []int64) ([]int64, error) {
	return ids, nil
}
func (memFolders) Delete(context.Context, int64, int64) (bool, error) { return true, nil }
func (memFolders) DeleteAll(context.Context, int64, []int64) error    { return nil }

type memBlobs struct{ objects map[string][]byte }

func (m *memBlobs) Upload(_ context.Context, key string, data []byte, _ string) error {
	m.objects[key] = data
	return nil
}

func (m *memBlobs) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (m *memBlobs) Remove(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memBlobs) PublicURL(key string) string { return "http://blobs.test/content/" + key }

func (m *memBlobs) KeyFromURL(u string) (string, bool) {
	const base = "http://blobs.test/content/"
	if !strings.HasPrefix(u, base) {
		return "", false
	}
	return strings.TrimPrefix(u, base), true
}

func (m *memBlobs) List(context.Context, string) ([]storage.ObjectInfo, error) { return nil, nil }

type memUsers struct {
	rows   map[int64]linkbin.User
	nextID int64
}

func (m *memUsers) Insert(_ context.Context, email, hash string) (linkbin.User, error) {
	for _, u := range m.rows {
		if u.Email == email {
			return linkbin.User{}, linkbin.ErrDuplicateEmail
		}
	}
	m.nextID++
	user := linkbin.User{ID: m.nextID, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	m.rows[user.ID] = user
	return user, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (linkbin.User, error) {
	for _, u := range m.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return linkbin.User{}, linkbin.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id int64) (linkbin.User, error) {
	u, ok := m.rows[id]
	if !ok {
		return linkbin.User{}, linkbin.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Update(_ context.Context, id int64, email, hash *string) error {
	u, ok := m.rows[id]
	if !ok {
		return linkbin.ErrNotFound
	}
	if email != nil {
		u.Email = *email
	}
	if hash != nil {
		u.PasswordHash = *hash
	}
	m.rows[id] = u
	return nil
}

type nopCollector struct{}

func (nopCollector) Collect(stats.VisitEvent) {}
func (nopCollector) Close()                   {}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ts, err := auth.NewHS256Service("secret", "issuer", time.Hour)
	if err != nil {
		t.Fatalf("NewHS256Service: %v", err)
	}

	links := &memLinks{rows: make(map[string]linkbin.Link)}
	blobs := &memBlobs{objects: make(map[string][]byte)}
	deps := Deps{
		Links:   linkbin.NewService(links, memFolders{}, blobs, nil),
		Folders: linkbin.NewFolderService(memFolders{}),
		Users:   linkbin.NewDirectory(&memUsers{rows: make(map[int64]linkbin.User)}),
		Tokens:  ts,
		Visits:  nopCollector{},
	}

	r := chi.NewRouter()
	r.Route("/api/v1", func(api chi.Router) {
		RegisterAPIRoutes(api, deps)
	})
	RegisterPublicRoutes(r, deps)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/register", "", map[string]string{
		"email":    "a@example.com",
		"password": "password1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status: got %d, body=%q", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email":    "a@example.com",
		"password": "password1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status: got %d, body=%q", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatal("login returned empty token")
	}
	return resp["token"]
}

func TestAuthFlow(t *testing.T) {
	h := newTestRouter(t)

	// Protected routes reject anonymous callers.
	rec := doJSON(t, h, http.MethodGet, "/api/v1/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /me: got %d, want 401", rec.Code)
	}

	token := login(t, h)
	rec = doJSON(t, h, http.MethodGet, "/api/v1/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/me: got %d, body=%q", rec.Code, rec.Body.String())
	}
	var me map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&me); err != nil {
		t.Fatalf("decode /me: %v", err)
	}
	if me["email"] != "a@example.com" {
		t.Errorf("/me email: got %v", me["email"])
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email":    "a@example.com",
		"password": "wrong-pass",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: got %d, want 401", rec.Code)
	}
}

func TestCreateAndResolveLink(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/links", token, map[string]any{
		"content_type": "url",
		"content":      "example.com/page",
		"custom_code":  "my-link",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, body=%q", rec.Code, rec.Body.String())
	}
	var created map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created["short_code"] != "my-link" {
		t.Errorf("short_code: got %v", created["short_code"])
	}

	req := httptest.NewRequest(http.MethodGet, "/my-link", nil)
	resolveRec := httptest.NewRecorder()
	h.ServeHTTP(resolveRec, req)
	if resolveRec.Code != http.StatusFound {
		t.Fatalf("resolve status: got %d, want 302", resolveRec.Code)
	}
	if loc := resolveRec.Header().Get("Location"); loc != "http://example.com/page" {
		t.Errorf("location: got %q", loc)
	}

	// Duplicate custom code maps to 409.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/links", token, map[string]any{
		"content_type": "url",
		"content":      "example.org",
		"custom_code":  "my-link",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create: got %d, want 409", rec.Code)
	}

	// Unknown codes resolve to 404.
	req = httptest.NewRequest(http.MethodGet, "/nosuch", nil)
	missRec := httptest.NewRecorder()
	h.ServeHTTP(missRec, req)
	if missRec.Code != http.StatusNotFound {
		t.Fatalf("miss status: got %d, want 404", missRec.Code)
	}
}

func TestResolveTextServesInline(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/links", token, map[string]any{
		"content_type": "text",
		"content":      "hello world",
		"custom_code":  "note-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, body=%q", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/note-1", nil)
	resolveRec := httptest.NewRecorder()
	h.ServeHTTP(resolveRec, req)
	if resolveRec.Code != http.StatusOK {
		t.Fatalf("resolve status: got %d, want 200", resolveRec.Code)
	}
	if ct := resolveRec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type: got %q", ct)
	}
	if resolveRec.Body.String() != "hello world" {
		t.Errorf("body: got %q", resolveRec.Body.String())
	}
}

func TestBulkDeleteMapsPartialOwnershipTo409(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/links", token, map[string]any{
		"content_type": "url",
		"content":      "example.com",
		"custom_code":  "mine-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/links/bulk-delete", token, map[string]any{
		"codes": []string{"mine-1", "nosuch"},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("mixed bulk delete: got %d, want 409", rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0] != "nosuch" {
		t.Errorf("items: got %v, want [nosuch]", resp.Items)
	}
}

func TestQRCode(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/links", token, map[string]any{
		"content_type": "url",
		"content":      "example.com",
		"custom_code":  "qr-me",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/qr/qr-me", nil)
	qrRec := httptest.NewRecorder()
	h.ServeHTTP(qrRec, req)
	if qrRec.Code != http.StatusOK {
		t.Fatalf("qr status: got %d, body=%q", qrRec.Code, qrRec.Body.String())
	}
	if ct := qrRec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type: got %q, want image/png", ct)
	}
	if qrRec.Body.Len() == 0 {
		t.Error("qr body is empty")
	}

	req = httptest.NewRequest(http.MethodGet, "/qr/nosuch", nil)
	missRec := httptest.NewRecorder()
	h.ServeHTTP(missRec, req)
	if missRec.Code != http.StatusNotFound {
		t.Fatalf("qr miss: got %d, want 404", missRec.Code)
	}
}
