package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomodoro/timer/internal/model"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithState inserts the user and their initial timer row atomically.
func (r *UserRepository) CreateWithState(ctx context.Context, user *model.User, cfg model.TimerConfig) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO users (id, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt.UTC().Format(time.RFC3339Nano),
		user.UpdatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO pomodoro_states (
			user_id, session_type, run_state, remaining_seconds, session_count,
			completed_pomodoros, work_minutes, short_break_minutes, long_break_minutes,
			sessions_until_long_break, auto_start_breaks, auto_start_pomodoros,
			version, updated_at
		) VALUES (?, ?, ?, ?, 0, 0, ?, ?, ?, ?, ?, ?, 1, ?)`,
		user.ID,
		model.SessionWork,
		model.RunIdle,
		cfg.WorkMinutes*60,
		cfg.WorkMinutes,
		cfg.ShortBreakMinutes,
		cfg.LongBreakMinutes,
		cfg.SessionsUntilLongBreak,
		cfg.AutoStartBreaks,
		cfg.AutoStartPomodoros,
		user.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("create initial state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, created_at, updated_at
		 FROM users
		 WHERE email = ?`,
		email,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, created_at, updated_at
		 FROM users
		 WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	var createdAt string
	var updatedAt string
	if err := s.Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse user created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse user updated_at: %w", err)
	}
	user.CreatedAt = parsedCreatedAt
	user.UpdatedAt = parsedUpdatedAt

	return &user, nil
}
