package linkbin

import (
	"context"
	"time"
)

type Link struct {
	ShortCode  string      `json:"short_code"`
	Kind       ContentKind `json:"content_type"`
	Content    string      `json:"content"`
	OwnerID    int64       `json:"-"`
	FolderID   *int64      `json:"folder_id,omitempty"`
	VisitCount int64       `json:"visit_count"`
	CreatedAt  time.Time   `json:"created_at"`
}

type Folder struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"-"`
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// ListFilter narrows an owner's link listing. Page is 1-based.
type ListFilter struct {
	FolderID *int64
	Kind     ContentKind
	Page     int
	PerPage  int
}

// Normalize clamps paging to served values: pages start at 1, default page
// size 10, cap 100. Callers echo the normalized values back to clients.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 10
	}
	return f
}

// LinkRegistry is the relational view of links. Implementations map unique
// violations on short_code to ErrCodeTaken; that signal, not the caller's
// pre-check, is authoritative.
type LinkRegistry interface {
	Insert(ctx context.Context, link Link) error
	Exists(ctx context.Context, code string) (bool, error)
	FindByCode(ctx context.Context, code string) (Link, error)
	FindOwned(ctx context.Context, code string, ownerID int64) (Link, error)
	Delete(ctx context.Context, code string, ownerID int64) (bool, error)
	// Rename updates the code on the row scoped by (oldCode, ownerID).
	// Returns false when no such row exists; ErrCodeTaken when newCode is used.
	Rename(ctx context.Context, oldCode, newCode string, ownerID int64) (bool, error)
	// FilterOwned returns the subset of codes that exist and belong to ownerID.
	FilterOwned(ctx context.Context, ownerID int64, codes []string) ([]string, error)
	SetFolder(ctx context.Context, ownerID int64, codes []string, folderID *int64) error
	ListByOwner(ctx context.Context, ownerID int64, f ListFilter) ([]Link, int, error)
	// ExistsContent reports whether any link row carries this content locator.
	// The sweeper uses it to tell live blobs from orphans.
	ExistsContent(ctx context.Context, content string) (bool, error)
}

// FolderRegistry stores per-user link groupings. Folder deletion detaches
// links through the store's ON DELETE SET NULL rule; implementations never
// touch link rows. Unique violations on (owner, name) map to ErrDuplicateName.
type FolderRegistry interface {
	Insert(ctx context.Context, name string, ownerID int64) (Folder, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Folder, error)
	// Owned returns the subset of ids that exist and belong to ownerID.
	Owned(ctx context.Context, ownerID int64, ids []int64) ([]int64, error)
	Delete(ctx context.Context, id, ownerID int64) (bool, error)
	DeleteAll(ctx context.Context, ownerID int64, ids []int64) error
}

// UserRegistry holds account records. Unique violations on email map to
// ErrDuplicateEmail.
type UserRegistry interface {
	Insert(ctx context.Context, email, passwordHash string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	Update(ctx context.Context, id int64, email, passwordHash *string) error
}
