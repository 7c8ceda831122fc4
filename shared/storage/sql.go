package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"video-kb/internal/models"
	"video-kb/shared/logger"
)

const videoColumns = "id, identifier, title, full_transcript, summary, chunks, created_at"

// sqlStore implements Store on database/sql. Queries use '?' placeholders and
// are rebound for drivers that number them.
type sqlStore struct {
	db            *sql.DB
	numbered      bool
	isUniqueError func(error) bool
	log           *logger.Logger
}

func (s *sqlStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	return rebindNumbered(query)
}

// rebindNumbered turns '?' placeholders into $1, $2, ...
func rebindNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Insert(ctx context.Context, v *models.Video) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	chunks, err := json.Marshal(nonNil(v.Chunks))
	if err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}

	query := s.rebind(`INSERT INTO videos (identifier, title, full_transcript, summary, chunks, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err = s.db.QueryRowContext(ctx, query,
		v.Identifier, v.Title, v.Transcript, v.Summary, string(chunks), v.CreatedAt,
	).Scan(&id)
	if err != nil {
		if s.isUniqueError(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, v.Identifier)
		}
		return fmt.Errorf("failed to insert video %s: %w", v.Identifier, err)
	}

	v.ID = id
	s.log.Debug("Video stored", "id", id, "identifier", v.Identifier)
	return nil
}

func (s *sqlStore) FindByIdentifier(ctx context.Context, identifier string) (*models.Video, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+videoColumns+" FROM videos WHERE identifier = ?"), identifier)

	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find video %s: %w", identifier, err)
	}
	return v, nil
}

func (s *sqlStore) ListAll(ctx context.Context) ([]*models.Video, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+videoColumns+" FROM videos ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return videos, nil
}

func (s *sqlStore) DeleteByID(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM videos WHERE id = ?"), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete video %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete video %d: %w", id, err)
	}
	return n > 0, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var v models.Video
	var chunks string
	if err := row.Scan(&v.ID, &v.Identifier, &v.Title, &v.Transcript, &v.Summary, &chunks, &v.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(chunks), &v.Chunks); err != nil {
		return nil, fmt.Errorf("failed to decode chunks of %s: %w", v.Identifier, err)
	}
	return &v, nil
}

func nonNil(chunks []string) []string {
	if chunks == nil {
		return []string{}
	}
	return chunks
}
