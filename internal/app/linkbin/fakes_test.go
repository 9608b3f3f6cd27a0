package linkbin

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"linkbin.local/internal/app/linkbin/storage"
)

// In-memory registries and blob store for service tests.

type fakeLinks struct {
	mu        sync.Mutex
	rows      map[string]Link
	insertErr error
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{rows: make(map[string]Link)}
}

func (f *fakeLinks) Insert(_ context.Context, link Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.rows[link.ShortCode]; ok {
		return ErrCodeTaken
	}
	f.rows[link.ShortCode] = link
	return nil
}

func (f *fakeLinks) Exists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[code]
	return ok, nil
}

func (f *fakeLinks) FindByCode(_ context.Context, code string) (Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.rows[code]
	if !ok {
		return Link{}, ErrNotFound
	}
	return link, nil
}

func (f *fakeLinks) FindOwned(_ context.Context, code string, ownerID int64) (Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.rows[code]
	if !ok || link.OwnerID != ownerID {
		return Link{}, ErrNotFound
	}
	return link, nil
}

func (f *fakeLinks) Delete(_ context.Context, code string, ownerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.rows[code]
	if !ok || link.OwnerID != ownerID {
		return false, nil
	}
	delete(f.rows, code)
	return true, nil
}

func (f *fakeLinks) Rename(_ context.Context, oldCode, newCode string, ownerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.rows[oldCode]
	if !ok || link.OwnerID != ownerID {
		return false, nil
	}
	if _, taken := f.rows[newCode]; taken {
		return false, ErrCodeTaken
	}
	delete(f.rows, oldCode)
	link.ShortCode = newCode
	f.rows[newCode] = link
	return true, nil
}

func (f *fakeLinks) FilterOwned(_ context.Context, ownerID int64, codes []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var owned []string
	for _, code := range codes {
		if link, ok := f.rows[code]; ok && link.OwnerID == ownerID {
			owned = append(owned, code)
		}
	}
	return owned, nil
}

func (f *fakeLinks) SetFolder(_ context.Context, ownerID int64, codes []string, folderID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, code := range codes {
		link, ok := f.rows[code]
		if !ok || link.OwnerID != ownerID {
			continue
		}
		link.FolderID = folderID
		f.rows[code] = link
	}
	return nil
}

func (f *fakeLinks) ListByOwner(_ context.Context, ownerID int64, filter ListFilter) ([]Link, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []Link
	for _, link := range f.rows {
		if link.OwnerID != ownerID {
			continue
		}
		if filter.Kind != "" && link.Kind != filter.Kind {
			continue
		}
		if filter.FolderID != nil {
			if link.FolderID == nil || *link.FolderID != *filter.FolderID {
				continue
			}
		}
		matched = append(matched, link)
	}
	total := len(matched)
	start := (filter.Page - 1) * filter.PerPage
	if start >= total {
		return nil, total, nil
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeLinks) ExistsContent(_ context.Context, content string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, link := range f.rows {
		if link.Content == content {
			return true, nil
		}
	}
	return false, nil
}

type fakeFolders struct {
	mu     sync.Mutex
	rows   map[int64]Folder
	nextID int64

	// links mirrors the store's ON DELETE SET NULL rule when set: deleting
	// a folder detaches its links instead of removing them.
	links *fakeLinks
}

func newFakeFolders() *fakeFolders {
	return &fakeFolders{rows: make(map[int64]Folder), nextID: 1}
}

func (f *fakeFolders) Insert(_ context.Context, name string, ownerID int64) (Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, folder := range f.rows {
		if folder.OwnerID == ownerID && folder.Name == name {
			return Folder{}, ErrDuplicateName
		}
	}
	folder := Folder{ID: f.nextID, Name: name, OwnerID: ownerID}
	f.rows[folder.ID] = folder
	f.nextID++
	return folder, nil
}

func (f *fakeFolders) ListByOwner(_ context.Context, ownerID int64) ([]Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Folder
	for _, folder := range f.rows {
		if folder.OwnerID == ownerID {
			out = append(out, folder)
		}
	}
	return out, nil
}

func (f *fakeFolders) Owned(_ context.Context, ownerID int64, ids []int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var owned []int64
	for _, id := range ids {
		if folder, ok := f.rows[id]; ok && folder.OwnerID == ownerID {
			owned = append(owned, id)
		}
	}
	return owned, nil
}

func (f *fakeFolders) Delete(_ context.Context, id, ownerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	folder, ok := f.rows[id]
	if !ok || folder.OwnerID != ownerID {
		return false, nil
	}
	delete(f.rows, id)
	f.detachLinks(id)
	return true, nil
}

func (f *fakeFolders) DeleteAll(_ context.Context, ownerID int64, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if folder, ok := f.rows[id]; ok && folder.OwnerID == ownerID {
			delete(f.rows, id)
			f.detachLinks(id)
		}
	}
	return nil
}

func (f *fakeFolders) detachLinks(folderID int64) {
	if f.links == nil {
		return
	}
	f.links.mu.Lock()
	defer f.links.mu.Unlock()
	for code, link := range f.links.rows {
		if link.FolderID != nil && *link.FolderID == folderID {
			link.FolderID = nil
			f.links.rows[code] = link
		}
	}
}

type fakeBlobs struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
	base     string

	uploadErr error
	removeErr error
	removed   []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{
		objects:  make(map[string][]byte),
		modified: make(map[string]time.Time),
		base:     "http://blobs.test/content",
	}
}

func (f *fakeBlobs) Upload(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[key] = data
	f.modified[key] = time.Now()
	return nil
}

func (f *fakeBlobs) Download(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (f *fakeBlobs) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, key)
	delete(f.modified, key)
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeBlobs) PublicURL(key string) string {
	return f.base + "/" + key
}

func (f *fakeBlobs) KeyFromURL(u string) (string, bool) {
	if !strings.HasPrefix(u, f.base+"/") {
		return "", false
	}
	return strings.TrimPrefix(u, f.base+"/"), true
}

func (f *fakeBlobs) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ObjectInfo
	for key, data := range f.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, storage.ObjectInfo{
			Key:          key,
			Size:         int64(len(data)),
			LastModified: f.modified[key],
		})
	}
	return out, nil
}

type fakeUsers struct {
	mu     sync.Mutex
	rows   map[int64]User
	nextID int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: make(map[int64]User), nextID: 1}
}

func (f *fakeUsers) Insert(_ context.Context, email, passwordHash string) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			return User{}, ErrDuplicateEmail
		}
	}
	user := User{ID: f.nextID, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	f.rows[user.ID] = user
	f.nextID++
	return user, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id int64) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Update(_ context.Context, id int64, email, passwordHash *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return ErrNotFound
	}
	if email != nil {
		for _, other := range f.rows {
			if other.ID != id && other.Email == *email {
				return ErrDuplicateEmail
			}
		}
		u.Email = *email
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	f.rows[id] = u
	return nil
}
