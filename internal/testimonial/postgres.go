package testimonial

import (
	"context"
	"fmt"
	"time"

	"github.com/maymar/testimonials/internal/database"
	"github.com/maymar/testimonials/internal/validate"
)

type PostgresStore struct {
	db database.DBTX
}

func NewPostgresStore(db database.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, videoURL string, createdAt time.Time) (Testimonial, error) {
	row := Testimonial{VideoURL: videoURL, CreatedAt: createdAt.UTC()}
	if err := validate.Struct(row); err != nil {
		return Testimonial{}, fmt.Errorf("invalid testimonial: %w", err)
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO testimonials (video_url, created_at) VALUES ($1, $2)
		 RETURNING id, video_url, created_at`,
		row.VideoURL, row.CreatedAt,
	).Scan(&row.ID, &row.VideoURL, &row.CreatedAt)
	if err != nil {
		return Testimonial{}, fmt.Errorf("insert testimonial: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) ListNewestFirst(ctx context.Context) ([]Testimonial, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, video_url, created_at FROM testimonials ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	defer rows.Close()

	items := make([]Testimonial, 0)
	for rows.Next() {
		var t Testimonial
		if err := rows.Scan(&t.ID, &t.VideoURL, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan testimonial: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate testimonials: %w", err)
	}
	return items, nil
}
