package linkbin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"linkbin.local/internal/app/linkbin/storage"
)

// Service orchestrates code allocation, content dispatch and ownership-scoped
// mutation over the registries and the blob store. Reads (Resolve, Download)
// are public; every mutation is scoped to the calling owner.
type Service struct {
	links   LinkRegistry
	folders FolderRegistry
	blobs   storage.BlobStore
	taken   *TakenFilter

	generate func() string
}

func NewService(links LinkRegistry, folders FolderRegistry, blobs storage.BlobStore, taken *TakenFilter) *Service {
	return &Service{
		links:    links,
		folders:  folders,
		blobs:    blobs,
		taken:    taken,
		generate: GenerateCode,
	}
}

// FileUpload is an already-parsed upload: the caller has the bytes and the
// declared filename; multipart mechanics stay in the web layer.
type FileUpload struct {
	Name string
	Data []byte
}

type CreateInput struct {
	Kind       ContentKind
	OwnerID    int64
	Payload    string // url or inline text
	File       *FileUpload
	CustomCode string
	FolderID   *int64
}

// CreateLink allocates a short code, stores the content, and writes the row.
// Custom codes fail with ErrInvalidCode/ErrCodeTaken; random codes are drawn
// until one is free. Blob upload happens before the insert; a failed insert
// triggers a compensating blob delete, and the sweeper covers crashes in
// between.
func (s *Service) CreateLink(ctx context.Context, in CreateInput) (Link, error) {
	if !in.Kind.Valid() {
		return Link{}, fmt.Errorf("unknown content kind %q", in.Kind)
	}

	custom := in.CustomCode != ""
	var code string
	if custom {
		if err := ValidateCustomCode(in.CustomCode); err != nil {
			return Link{}, err
		}
		taken, err := s.codeTaken(ctx, in.CustomCode)
		if err != nil {
			return Link{}, err
		}
		if taken {
			return Link{}, ErrCodeTaken
		}
		code = in.CustomCode
	} else {
		var err error
		code, err = s.allocateCode(ctx)
		if err != nil {
			return Link{}, err
		}
	}

	if in.FolderID != nil {
		owned, err := s.folders.Owned(ctx, in.OwnerID, []int64{*in.FolderID})
		if err != nil {
			return Link{}, fmt.Errorf("check folder: %w", err)
		}
		if len(owned) == 0 {
			return Link{}, ErrFolderNotFound
		}
	}

	for {
		// The blob key embeds the code, so a retry with a fresh code
		// re-uploads under the new key.
		content, blobKey, err := s.buildContent(ctx, in, code)
		if err != nil {
			return Link{}, err
		}

		link := Link{
			ShortCode: code,
			Kind:      in.Kind,
			Content:   content,
			OwnerID:   in.OwnerID,
			FolderID:  in.FolderID,
			CreatedAt: time.Now().UTC(),
		}
		err = s.links.Insert(ctx, link)
		if err == nil {
			if s.taken != nil {
				s.taken.Add(code)
			}
			return link, nil
		}

		if blobKey != "" {
			if rmErr := s.blobs.Remove(ctx, blobKey); rmErr != nil {
				slog.Error("orphan blob left for sweeper", "key", blobKey, "err", rmErr)
			}
		}

		if errors.Is(err, ErrCodeTaken) {
			if s.taken != nil {
				s.taken.Add(code)
			}
			if custom {
				// Lost the race on the unique constraint.
				return Link{}, ErrCodeTaken
			}
			code, err = s.allocateCode(ctx)
			if err != nil {
				return Link{}, err
			}
			continue
		}
		return Link{}, fmt.Errorf("insert link: %w", err)
	}
}

func (s *Service) buildContent(ctx context.Context, in CreateInput, code string) (content, blobKey string, err error) {
	switch in.Kind {
	case KindURL:
		content = NormalizeURL(in.Payload)
	case KindText:
		content = in.Payload
	case KindImage, KindDocument:
		if in.File == nil || len(in.File.Data) == 0 {
			return "", "", ErrEmptyContent
		}
		ext := fileExtension(in.File.Name)
		if !extensionAllowed(in.Kind, ext) {
			return "", "", ErrInvalidFileType
		}
		if len(in.File.Data) > MaxFileSize {
			return "", "", ErrFileTooLarge
		}
		key := BlobKey(in.OwnerID, code, in.File.Name)
		if err := s.blobs.Upload(ctx, key, in.File.Data, mimeByExtension[ext]); err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrStorage, err)
		}
		content = s.blobs.PublicURL(key)
		blobKey = key
	}
	if content == "" {
		return "", "", ErrEmptyContent
	}
	return content, blobKey, nil
}

// allocateCode draws random codes until one is unused. Unbounded per the
// check-and-retry contract; at 62^6 keys a second pass is already rare.
func (s *Service) allocateCode(ctx context.Context) (string, error) {
	for {
		code := s.generate()
		taken, err := s.codeTaken(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
}

func (s *Service) codeTaken(ctx context.Context, code string) (bool, error) {
	if s.taken != nil && !s.taken.MightExist(code) {
		return false, nil
	}
	return s.links.Exists(ctx, code)
}

// Resolve looks a code up without any ownership check; reads are public.
func (s *Service) Resolve(ctx context.Context, code string) (Link, error) {
	return s.links.FindByCode(ctx, code)
}

// DeleteLink removes the row and, for stored kinds, the blob first.
// Returns (false, nil) when the link is missing or owned by someone else.
func (s *Service) DeleteLink(ctx context.Context, code string, ownerID int64) (bool, error) {
	link, err := s.links.FindOwned(ctx, code, ownerID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if link.Kind.Stored() {
		if key, ok := s.blobs.KeyFromURL(link.Content); ok {
			if err := s.blobs.Remove(ctx, key); err != nil {
				return false, fmt.Errorf("%w: %v", ErrStorage, err)
			}
		}
	}
	return s.links.Delete(ctx, code, ownerID)
}

// BulkDeleteLinks validates ownership of the whole batch before deleting
// anything; one foreign or missing code rejects the batch. Failures after
// validation are reported, not swallowed.
func (s *Service) BulkDeleteLinks(ctx context.Context, codes []string, ownerID int64) error {
	if len(codes) == 0 {
		return nil
	}
	owned, err := s.links.FilterOwned(ctx, ownerID, codes)
	if err != nil {
		return fmt.Errorf("check ownership: %w", err)
	}
	if missing := missingStrings(codes, owned); len(missing) > 0 {
		return &PartialOwnershipError{Items: missing}
	}

	var failed []string
	for _, code := range codes {
		if _, err := s.DeleteLink(ctx, code, ownerID); err != nil {
			slog.Error("bulk delete item failed", "code", code, "err", err)
			failed = append(failed, code)
		}
	}
	if len(failed) > 0 {
		return &BulkDeleteError{Failed: failed}
	}
	return nil
}

// RenameLink changes a link's code. A nonexistent or foreign oldCode is
// ErrNotFound, not a silent success.
func (s *Service) RenameLink(ctx context.Context, oldCode, newCode string, ownerID int64) error {
	if err := ValidateCustomCode(newCode); err != nil {
		return err
	}
	taken, err := s.codeTaken(ctx, newCode)
	if err != nil {
		return err
	}
	if taken {
		return ErrCodeTaken
	}

	ok, err := s.links.Rename(ctx, oldCode, newCode, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if s.taken != nil {
		s.taken.Add(newCode)
	}
	return nil
}

// MoveToFolder sets (or clears, folderID nil) the folder on a batch of codes.
// The batch is all-or-nothing: every code must belong to ownerID, and the
// target folder must too.
func (s *Service) MoveToFolder(ctx context.Context, codes []string, folderID *int64, ownerID int64) error {
	if len(codes) == 0 {
		return nil
	}
	if folderID != nil {
		owned, err := s.folders.Owned(ctx, ownerID, []int64{*folderID})
		if err != nil {
			return fmt.Errorf("check folder: %w", err)
		}
		if len(owned) == 0 {
			return ErrFolderNotFound
		}
	}
	owned, err := s.links.FilterOwned(ctx, ownerID, codes)
	if err != nil {
		return fmt.Errorf("check ownership: %w", err)
	}
	if missing := missingStrings(codes, owned); len(missing) > 0 {
		return &PartialOwnershipError{Items: missing}
	}
	return s.links.SetFolder(ctx, ownerID, codes, folderID)
}

type Download struct {
	Data     []byte
	MIME     string
	Filename string
}

// DownloadLink materializes a link as bytes. URLs are not downloadable; text
// downloads as {code}.txt; stored kinds fetch the blob and recover the
// original filename from the key.
func (s *Service) DownloadLink(ctx context.Context, code string) (Download, error) {
	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		return Download{}, err
	}

	switch link.Kind {
	case KindURL:
		return Download{}, ErrNotDownloadable
	case KindText:
		return Download{
			Data:     []byte(link.Content),
			MIME:     "text/plain; charset=utf-8",
			Filename: link.ShortCode + ".txt",
		}, nil
	default:
		key, ok := s.blobs.KeyFromURL(link.Content)
		if !ok {
			return Download{}, fmt.Errorf("%w: locator outside store: %s", ErrStorage, link.Content)
		}
		data, err := s.blobs.Download(ctx, key)
		if err != nil {
			return Download{}, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		name := OriginalFilename(key, link.ShortCode)
		return Download{Data: data, MIME: MimeForFilename(name), Filename: name}, nil
	}
}

// ListLinks returns one dashboard page of the owner's links plus the total
// matching count.
func (s *Service) ListLinks(ctx context.Context, ownerID int64, f ListFilter) ([]Link, int, error) {
	return s.links.ListByOwner(ctx, ownerID, f.Normalize())
}

func missingStrings(want, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[s] = struct{}{}
	}
	var missing []string
	for _, s := range want {
		if _, ok := set[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}
