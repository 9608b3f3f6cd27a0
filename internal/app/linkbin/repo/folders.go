package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"linkbin.local/internal/app/linkbin"
)

type FoldersRepo struct {
	db *pgxpool.Pool
}

func NewFoldersRepo(db *pgxpool.Pool) *FoldersRepo {
	return &FoldersRepo{db: db}
}

func (r *FoldersRepo) Insert(ctx context.Context, name string, ownerID int64) (linkbin.Folder, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	folder := linkbin.Folder{Name: name, OwnerID: ownerID}
	err := r.db.QueryRow(dbctx,
		"INSERT INTO folders (name, user_id) VALUES ($1,$2) RETURNING id", name, ownerID).
		Scan(&folder.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return linkbin.Folder{}, linkbin.ErrDuplicateName
		}
		slog.Error(err.Error())
		return linkbin.Folder{}, err
	}
	return folder, nil
}

func (r *FoldersRepo) ListByOwner(ctx context.Context, ownerID int64) ([]linkbin.Folder, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(dbctx,
		"SELECT id, name, user_id FROM folders WHERE user_id=$1 ORDER BY name", ownerID)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var folders []linkbin.Folder
	for rows.Next() {
		var f linkbin.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.OwnerID); err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	return folders, nil
}

func (r *FoldersRepo) Owned(ctx context.Context, ownerID int64, ids []int64) ([]int64, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	rows, err := r.db.Query(dbctx,
		"SELECT id FROM folders WHERE user_id=$1 AND id = ANY($2)", ownerID, ids)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var owned []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		owned = append(owned, id)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	return owned, nil
}

// Delete removes a folder row; the links.folder_id FK is declared
// ON DELETE SET NULL, so its links are detached by the database.
func (r *FoldersRepo) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	tag, err := r.db.Exec(dbctx,
		"DELETE FROM folders WHERE id=$1 AND user_id=$2", id, ownerID)
	if err != nil {
		slog.Error(err.Error())
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *FoldersRepo) DeleteAll(ctx context.Context, ownerID int64, ids []int64) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := r.db.Exec(dbctx,
		"DELETE FROM folders WHERE user_id=$1 AND id = ANY($2)", ownerID, ids); err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}
