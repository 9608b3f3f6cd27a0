package linkbin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// FolderService manages per-user link groupings. Deleting a folder detaches
// its links through the store's ON DELETE SET NULL rule; folder operations
// never touch link rows.
type FolderService struct {
	folders FolderRegistry
}

func NewFolderService(folders FolderRegistry) *FolderService {
	return &FolderService{folders: folders}
}

// CreateFolder adds a folder. Names are unique per owner, case-sensitive.
func (s *FolderService) CreateFolder(ctx context.Context, name string, ownerID int64) (Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, ErrEmptyName
	}
	return s.folders.Insert(ctx, name, ownerID)
}

func (s *FolderService) ListFolders(ctx context.Context, ownerID int64) ([]Folder, error) {
	return s.folders.ListByOwner(ctx, ownerID)
}

// DeleteFolder removes one folder. Missing and foreign folders both come
// back as ErrNotFound; existence of other users' folders is not revealed.
func (s *FolderService) DeleteFolder(ctx context.Context, id, ownerID int64) error {
	ok, err := s.folders.Delete(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// BulkDeleteFolders rejects the whole batch when any id is missing or
// foreign, mirroring MoveToFolder's all-or-nothing contract.
func (s *FolderService) BulkDeleteFolders(ctx context.Context, ids []int64, ownerID int64) error {
	if len(ids) == 0 {
		return nil
	}
	owned, err := s.folders.Owned(ctx, ownerID, ids)
	if err != nil {
		return fmt.Errorf("check ownership: %w", err)
	}
	ownedSet := make(map[int64]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := ownedSet[id]; !ok {
			missing = append(missing, strconv.FormatInt(id, 10))
		}
	}
	if len(missing) > 0 {
		return &PartialOwnershipError{Items: missing}
	}
	return s.folders.DeleteAll(ctx, ownerID, ids)
}
