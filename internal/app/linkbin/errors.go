package linkbin

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors. Handlers map these to HTTP statuses; nothing below this
// layer returns transport-shaped values.
var (
	ErrInvalidCode        = errors.New("invalid code")
	ErrCodeTaken          = errors.New("code already taken")
	ErrNotFound           = errors.New("link not found")
	ErrEmptyContent       = errors.New("content is empty")
	ErrFileTooLarge       = errors.New("file too large")
	ErrInvalidFileType    = errors.New("invalid file type")
	ErrNotDownloadable    = errors.New("content is not downloadable")
	ErrStorage            = errors.New("blob storage error")
	ErrFolderNotFound     = errors.New("folder not found")
	ErrEmptyName          = errors.New("folder name is empty")
	ErrDuplicateName      = errors.New("folder name already used")
	ErrDuplicateEmail     = errors.New("email already used")
	ErrInvalidAccount     = errors.New("invalid email or password format")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoChange           = errors.New("nothing to update")
)

// PartialOwnershipError rejects a whole batch when any item is missing or
// owned by someone else. Items carries the offending codes/ids so the web
// layer can name them.
type PartialOwnershipError struct {
	Items []string
}

func (e *PartialOwnershipError) Error() string {
	return fmt.Sprintf("not found or not owned: %s", strings.Join(e.Items, ", "))
}

// BulkDeleteError reports items that failed after the ownership check passed
// (blob or row removal failed). The remaining items were still deleted.
type BulkDeleteError struct {
	Failed []string
}

func (e *BulkDeleteError) Error() string {
	return fmt.Sprintf("delete failed for: %s", strings.Join(e.Failed, ", "))
}
