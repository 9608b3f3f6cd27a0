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

type UsersRepo struct {
	db *pgxpool.Pool
}

func NewUsersRepo(db *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Insert(ctx context.Context, email, passwordHash string) (linkbin.User, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	user := linkbin.User{Email: email, PasswordHash: passwordHash}
	err := r.db.QueryRow(dbctx,
		"INSERT INTO users (email, password_hash) VALUES ($1,$2) RETURNING id, created_at",
		email, passwordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return linkbin.User{}, linkbin.ErrDuplicateEmail
		}
		slog.Error(err.Error())
		return linkbin.User{}, err
	}
	return user, nil
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (linkbin.User, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var user linkbin.User
	err := r.db.QueryRow(dbctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE email=$1", email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return linkbin.User{}, linkbin.ErrNotFound
		}
		slog.Error(err.Error())
		return linkbin.User{}, err
	}
	return user, nil
}

func (r *UsersRepo) FindByID(ctx context.Context, id int64) (linkbin.User, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var user linkbin.User
	err := r.db.QueryRow(dbctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE id=$1", id).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return linkbin.User{}, linkbin.ErrNotFound
		}
		slog.Error(err.Error())
		return linkbin.User{}, err
	}
	return user, nil
}

func (r *UsersRepo) Update(ctx context.Context, id int64, email, passwordHash *string) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	set := ""
	args := []any{id}
	if email != nil {
		args = append(args, *email)
		set = fmt.Sprintf("email = $%d", len(args))
	}
	if passwordHash != nil {
		args = append(args, *passwordHash)
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("password_hash = $%d", len(args))
	}
	if set == "" {
		return nil
	}

	if _, err := r.db.Exec(dbctx, "UPDATE users SET "+set+" WHERE id = $1", args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return linkbin.ErrDuplicateEmail
		}
		slog.Error(err.Error())
		return err
	}
	return nil
}
