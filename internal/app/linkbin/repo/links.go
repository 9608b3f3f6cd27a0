package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"linkbin.local/internal/app/linkbin"
)

const (
	uniqueViolation = "23505"
	fkViolation     = "23503"
)

type LinksRepo struct {
	db *pgxpool.Pool
}

func NewLinksRepo(db *pgxpool.Pool) *LinksRepo {
	return &LinksRepo{db: db}
}

const linkColumns = "short_code, content_type, content, user_id, folder_id, visit_count, created_at"

func scanLink(row pgx.Row) (linkbin.Link, error) {
	var l linkbin.Link
	err := row.Scan(&l.ShortCode, &l.Kind, &l.Content, &l.OwnerID, &l.FolderID, &l.VisitCount, &l.CreatedAt)
	return l, err
}

func (r *LinksRepo) Insert(ctx context.Context, link linkbin.Link) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.Exec(dbctx,
		"INSERT INTO links (short_code, content_type, content, user_id, folder_id, created_at) VALUES ($1,$2,$3,$4,$5,$6)",
		link.ShortCode, string(link.Kind), link.Content, link.OwnerID, link.FolderID, link.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return linkbin.ErrCodeTaken
			case fkViolation:
				// folder vanished between the ownership check and the insert
				return linkbin.ErrFolderNotFound
			}
		}
		slog.Error(err.Error())
		return err
	}
	return nil
}

func (r *LinksRepo) Exists(ctx context.Context, code string) (bool, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var exists bool
	if err := r.db.QueryRow(dbctx,
		"SELECT EXISTS(SELECT 1 FROM links WHERE short_code=$1)", code).Scan(&exists); err != nil {
		slog.Error(err.Error())
		return false, err
	}
	return exists, nil
}

func (r *LinksRepo) FindByCode(ctx context.Context, code string) (linkbin.Link, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	link, err := scanLink(r.db.QueryRow(dbctx,
		"SELECT "+linkColumns+" FROM links WHERE short_code=$1", code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return linkbin.Link{}, linkbin.ErrNotFound
		}
		slog.Error(err.Error())
		return linkbin.Link{}, err
	}
	return link, nil
}

func (r *LinksRepo) FindOwned(ctx context.Context, code string, ownerID int64) (linkbin.Link, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	link, err := scanLink(r.db.QueryRow(dbctx,
		"SELECT "+linkColumns+" FROM links WHERE short_code=$1 AND user_id=$2", code, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return linkbin.Link{}, linkbin.ErrNotFound
		}
		slog.Error(err.Error())
		return linkbin.Link{}, err
	}
	return link, nil
}

func (r *LinksRepo) Delete(ctx context.Context, code string, ownerID int64) (bool, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	tag, err := r.db.Exec(dbctx,
		"DELETE FROM links WHERE short_code=$1 AND user_id=$2", code, ownerID)
	if err != nil {
		slog.Error(err.Error())
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LinksRepo) Rename(ctx context.Context, oldCode, newCode string, ownerID int64) (bool, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	tag, err := r.db.Exec(dbctx,
		"UPDATE links SET short_code=$1 WHERE short_code=$2 AND user_id=$3", newCode, oldCode, ownerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return false, linkbin.ErrCodeTaken
		}
		slog.Error(err.Error())
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LinksRepo) FilterOwned(ctx context.Context, ownerID int64, codes []string) ([]string, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(dbctx,
		"SELECT short_code FROM links WHERE user_id=$1 AND short_code = ANY($2)", ownerID, codes)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var owned []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		owned = append(owned, code)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	return owned, nil
}

func (r *LinksRepo) SetFolder(ctx context.Context, ownerID int64, codes []string, folderID *int64) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.Exec(dbctx,
		"UPDATE links SET folder_id=$1 WHERE user_id=$2 AND short_code = ANY($3)", folderID, ownerID, codes)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			return linkbin.ErrFolderNotFound
		}
		slog.Error(err.Error())
		return err
	}
	return nil
}

func (r *LinksRepo) ListByOwner(ctx context.Context, ownerID int64, f linkbin.ListFilter) ([]linkbin.Link, int, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	where := "user_id = $1"
	args := []any{ownerID}
	if f.FolderID != nil {
		args = append(args, *f.FolderID)
		where += fmt.Sprintf(" AND folder_id = $%d", len(args))
	}
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		where += fmt.Sprintf(" AND content_type = $%d", len(args))
	}

	var total int
	if err := r.db.QueryRow(dbctx, "SELECT COUNT(*) FROM links WHERE "+where, args...).Scan(&total); err != nil {
		slog.Error(err.Error())
		return nil, 0, err
	}

	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	query := fmt.Sprintf("SELECT %s FROM links WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		linkColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(dbctx, query, args...)
	if err != nil {
		slog.Error(err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	var links []linkbin.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			slog.Error(err.Error())
			return nil, 0, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, 0, err
	}
	return links, total, nil
}

func (r *LinksRepo) ExistsContent(ctx context.Context, content string) (bool, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var exists bool
	if err := r.db.QueryRow(dbctx,
		"SELECT EXISTS(SELECT 1 FROM links WHERE content=$1)", content).Scan(&exists); err != nil {
		slog.Error(err.Error())
		return false, err
	}
	return exists, nil
}
