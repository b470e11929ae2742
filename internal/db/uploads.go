package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Upload outcomes
const (
	UploadSucceeded = "succeeded"
	UploadFailed    = "failed"
	UploadSkipped   = "skipped"
)

// Upload is one attempt to send a transcript to the archive server.
type Upload struct {
	ID           int       `json:"id"`
	RunID        string    `json:"run_id"`
	TranscriptID string    `json:"transcript_id"`
	Filename     string    `json:"filename"`
	Streamer     string    `json:"streamer"`
	Status       string    `json:"status"`
	HTTPStatus   *int      `json:"http_status,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// RecordUpload stores an upload attempt and sets its ID.
func (db *DB) RecordUpload(ctx context.Context, u *Upload) error {
	if u.UploadedAt.IsZero() {
		u.UploadedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO uploads (
			run_id, transcript_id, filename, streamer, status,
			http_status, error_message, uploaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := db.ExecContext(ctx, query,
		u.RunID, u.TranscriptID, u.Filename, u.Streamer, u.Status,
		nullInt(u.HTTPStatus), nullString(u.ErrorMessage), u.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get upload ID: %w", err)
	}
	u.ID = int(id)
	return nil
}

const uploadColumns = `id, run_id, transcript_id, filename, streamer, status,
	http_status, error_message, uploaded_at`

func scanUpload(s scanner) (*Upload, error) {
	var u Upload
	var httpStatus sql.NullInt64
	var errorMessage sql.NullString
	err := s.Scan(&u.ID, &u.RunID, &u.TranscriptID, &u.Filename, &u.Streamer, &u.Status,
		&httpStatus, &errorMessage, &u.UploadedAt)
	if err != nil {
		return nil, err
	}
	u.HTTPStatus = intPtr(httpStatus)
	u.ErrorMessage = stringPtr(errorMessage)
	return &u, nil
}

func (db *DB) queryUploads(ctx context.Context, query string, args ...any) ([]*Upload, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating uploads: %w", err)
	}
	return uploads, nil
}

// ListUploads returns the attempts made by one run, in insertion order.
func (db *DB) ListUploads(ctx context.Context, runID string) ([]*Upload, error) {
	return db.queryUploads(ctx, "SELECT "+uploadColumns+" FROM uploads WHERE run_id = ? ORDER BY id", runID)
}

// FailedUploads returns failed attempts across all runs, newest first.
func (db *DB) FailedUploads(ctx context.Context, limit int) ([]*Upload, error) {
	query := "SELECT " + uploadColumns + " FROM uploads WHERE status = ? ORDER BY id DESC"
	args := []any{UploadFailed}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return db.queryUploads(ctx, query, args...)
}

// LastUpload returns the most recent attempt for a transcript ID.
func (db *DB) LastUpload(ctx context.Context, transcriptID string) (*Upload, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+uploadColumns+" FROM uploads WHERE transcript_id = ? ORDER BY id DESC LIMIT 1", transcriptID)
	u, err := scanUpload(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("upload for %s: %w", transcriptID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	return u, nil
}
