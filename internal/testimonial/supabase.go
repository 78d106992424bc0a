package testimonial

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maymar/testimonials/internal/validate"
)

const maxErrorBodyBytes = 1024

// SupabaseStore talks to the hosted table through Supabase's PostgREST API
// using the project's anon key.
type SupabaseStore struct {
	baseURL string
	apiKey  string
	table   string
	http    *http.Client
}

func NewSupabaseStore(baseURL, apiKey string) *SupabaseStore {
	return &SupabaseStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		table:   "testimonials",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type insertRow struct {
	VideoURL  string `json:"video_url"`
	CreatedAt string `json:"created_at"`
}

// apiRow is a row as PostgREST returns it. Tables created from the Supabase
// dashboard default to bigint ids and may use timestamp without time zone.
type apiRow struct {
	ID        json.RawMessage `json:"id"`
	VideoURL  string          `json:"video_url"`
	CreatedAt string          `json:"created_at"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

func (r apiRow) toTestimonial() (Testimonial, error) {
	t := Testimonial{ID: rawID(r.ID), VideoURL: r.VideoURL}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, r.CreatedAt); err == nil {
			t.CreatedAt = parsed.UTC()
			return t, nil
		}
	}
	return Testimonial{}, fmt.Errorf("parse created_at %q", r.CreatedAt)
}

func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func toTestimonials(rows []apiRow) ([]Testimonial, error) {
	items := make([]Testimonial, 0, len(rows))
	for _, r := range rows {
		t, err := r.toTestimonial()
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, nil
}

func (s *SupabaseStore) Insert(ctx context.Context, videoURL string, createdAt time.Time) (Testimonial, error) {
	row := Testimonial{VideoURL: videoURL, CreatedAt: createdAt.UTC()}
	if err := validate.Struct(row); err != nil {
		return Testimonial{}, fmt.Errorf("invalid testimonial: %w", err)
	}

	body, err := json.Marshal([]insertRow{{
		VideoURL:  row.VideoURL,
		CreatedAt: row.CreatedAt.Format(time.RFC3339Nano),
	}})
	if err != nil {
		return Testimonial{}, fmt.Errorf("marshal testimonial: %w", err)
	}

	var created []apiRow
	if err := s.do(ctx, http.MethodPost, "", bytes.NewReader(body), &created); err != nil {
		return Testimonial{}, fmt.Errorf("insert testimonial: %w", err)
	}
	if len(created) == 0 {
		return row, nil
	}
	return created[0].toTestimonial()
}

func (s *SupabaseStore) ListNewestFirst(ctx context.Context) ([]Testimonial, error) {
	var rows []apiRow
	if err := s.do(ctx, http.MethodGet, "?select=*&order=created_at.desc", nil, &rows); err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return toTestimonials(rows)
}

func (s *SupabaseStore) do(ctx context.Context, method, query string, body io.Reader, out any) error {
	if s.baseURL == "" || s.apiKey == "" {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/rest/v1/"+s.table+query, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
