package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatmali/trollr/internal/model"
)

// UserRepository stores the anonymous local user profiles. There are no
// credentials; a profile is just an id plus display preferences.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO users (id, display_name, troll_intensity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.DisplayName,
		user.TrollIntensity,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, display_name, troll_intensity, created_at, updated_at
		 FROM users
		 WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

// First returns the earliest created profile, or ErrNotFound when the
// installation has none yet.
func (r *UserRepository) First(ctx context.Context) (*model.User, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, display_name, troll_intensity, created_at, updated_at
		 FROM users
		 ORDER BY rowid
		 LIMIT 1`,
	)
	return scanUser(row)
}

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	var createdAt, updatedAt string
	if err := s.Scan(&user.ID, &user.DisplayName, &user.TrollIntensity, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse user created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse user updated_at: %w", err)
	}
	return &user, nil
}
