package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-studio/internal/curriculum"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store. Each course is one JSONB document; the
// version and timestamps live in their own columns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed course store. The schema must already exist.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]curriculum.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT document, version, created_at, updated_at
		 FROM courses
		 ORDER BY position ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var courses []curriculum.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (curriculum.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c, err := scanCourse(s.pool.QueryRow(ctx,
		`SELECT document, version, created_at, updated_at
		 FROM courses
		 WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return curriculum.Course{}, curriculum.NotFound(curriculum.KindCourse, id)
	}
	return c, err
}

func (s *PostgresStore) Create(ctx context.Context, c curriculum.Course) (curriculum.Course, error) {
	if err := curriculum.CheckCourse(c); err != nil {
		return curriculum.Course{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.Version = 1

	doc, err := json.Marshal(c)
	if err != nil {
		return curriculum.Course{}, fmt.Errorf("marshal course: %w", err)
	}

	cmd, err := s.pool.Exec(ctx,
		`INSERT INTO courses (id, document, version, created_at, updated_at)
		 VALUES ($1, $2::jsonb, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		c.ID, string(doc), c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return curriculum.Course{}, fmt.Errorf("insert course: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return curriculum.Course{}, exists(c.ID)
	}
	return c, nil
}

func (s *PostgresStore) Save(ctx context.Context, c curriculum.Course) (curriculum.Course, error) {
	if err := curriculum.CheckCourse(c); err != nil {
		return curriculum.Course{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	base := c.Version
	c.Version = base + 1
	c.UpdatedAt = time.Now().UTC()

	doc, err := json.Marshal(c)
	if err != nil {
		return curriculum.Course{}, fmt.Errorf("marshal course: %w", err)
	}

	var createdAt time.Time
	err = s.pool.QueryRow(ctx,
		`UPDATE courses
		 SET document = $2::jsonb, version = $3, updated_at = $4
		 WHERE id = $1 AND version = $5
		 RETURNING created_at`,
		c.ID, string(doc), c.Version, c.UpdatedAt, base,
	).Scan(&createdAt)
	if err == nil {
		c.CreatedAt = createdAt
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return curriculum.Course{}, fmt.Errorf("update course: %w", err)
	}

	// Nothing matched: either the course is gone or someone saved first.
	var current int64
	err = s.pool.QueryRow(ctx, `SELECT version FROM courses WHERE id = $1`, c.ID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return curriculum.Course{}, curriculum.NotFound(curriculum.KindCourse, c.ID)
	}
	if err != nil {
		return curriculum.Course{}, fmt.Errorf("read course version: %w", err)
	}
	return curriculum.Course{}, conflict(c.ID, current, base)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return curriculum.NotFound(curriculum.KindCourse, id)
	}
	return nil
}

func scanCourse(row pgx.Row) (curriculum.Course, error) {
	var (
		doc       []byte
		c         curriculum.Course
		version   int64
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&doc, &version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, pgx.ErrNoRows
		}
		return c, fmt.Errorf("scan course: %w", err)
	}
	if err := json.Unmarshal(doc, &c); err != nil {
		return c, fmt.Errorf("decode course document: %w", err)
	}
	c.Version = version
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt
	return c, nil
}
