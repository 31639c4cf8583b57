package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"github.com/google/uuid"
	"github.com/savcinema/voicereview-service/internal/config"
	"github.com/savcinema/voicereview-service/internal/storage"
	"github.com/savcinema/voicereview-service/internal/types"
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	pg := &Postgres{Db: db}
	err = pg.CreateTables()
	if err != nil {
		log.Fatal("Failed to create tables:", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS movies (
			id TEXT PRIMARY KEY,
			tmdb_id BIGINT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			overview TEXT,
			poster_url TEXT,
			release_date TEXT,
			media_type VARCHAR(10) NOT NULL CHECK (media_type IN ('movie', 'tv')),
			slug TEXT NOT NULL
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS active_movie (
			id SERIAL PRIMARY KEY,
			movie_id TEXT UNIQUE NOT NULL REFERENCES movies(id) ON DELETE CASCADE
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS reviews (
			id TEXT PRIMARY KEY,
			movie_id TEXT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
			audio_url TEXT NOT NULL,
			audio_object_key TEXT NOT NULL,
			audio_mime VARCHAR(50) NOT NULL,
			duration_sec INTEGER NOT NULL,
			display_name TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'NEW' CHECK (status IN ('NEW', 'APPROVED', 'ARCHIVED', 'REJECTED')),
			tags TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS admin_users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) UpsertMovie(movie types.Movie) (types.Movie, error) {
	if movie.ID == "" {
		movie.ID = uuid.New().String()
	}

	query := `
	INSERT INTO movies (id, tmdb_id, title, overview, poster_url, release_date, media_type, slug)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (tmdb_id) DO UPDATE SET
		title = EXCLUDED.title,
		overview = EXCLUDED.overview,
		poster_url = EXCLUDED.poster_url,
		release_date = EXCLUDED.release_date,
		media_type = EXCLUDED.media_type,
		slug = EXCLUDED.slug
	RETURNING id
	`

	err := p.Db.QueryRow(query, movie.ID, movie.TMDBID, movie.Title, movie.Overview,
		movie.PosterURL, movie.ReleaseDate, movie.MediaType, movie.Slug).Scan(&movie.ID)
	if err != nil {
		return types.Movie{}, err
	}

	return movie, nil
}

func (p *Postgres) GetMovieByID(id string) (types.Movie, error) {
	var m types.Movie
	query := `
	SELECT id, tmdb_id, title, overview, poster_url, release_date, media_type, slug
	FROM movies WHERE id = $1
	`

	err := p.Db.QueryRow(query, id).Scan(&m.ID, &m.TMDBID, &m.Title, &m.Overview,
		&m.PosterURL, &m.ReleaseDate, &m.MediaType, &m.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Movie{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Movie{}, err
	}

	return m, nil
}

// SetActiveMovie replaces the singleton pointer with a delete-all-then-insert
// swap. A concurrent reader between the two statements observes "no active
// movie", which GetActiveMovie reports as absence rather than an error.
func (p *Postgres) SetActiveMovie(movieID string) error {
	if _, err := p.Db.Exec(`DELETE FROM active_movie`); err != nil {
		return err
	}

	_, err := p.Db.Exec(`INSERT INTO active_movie (movie_id) VALUES ($1)`, movieID)
	return err
}

func (p *Postgres) GetActiveMovie() (*types.Movie, error) {
	var m types.Movie
	query := `
	SELECT m.id, m.tmdb_id, m.title, m.overview, m.poster_url, m.release_date, m.media_type, m.slug
	FROM active_movie a
	JOIN movies m ON m.id = a.movie_id
	LIMIT 1
	`

	err := p.Db.QueryRow(query).Scan(&m.ID, &m.TMDBID, &m.Title, &m.Overview,
		&m.PosterURL, &m.ReleaseDate, &m.MediaType, &m.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (p *Postgres) CreateReview(review types.Review) (types.Review, error) {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.Status == "" {
		review.Status = types.StatusNew
	}

	query := `
	INSERT INTO reviews (id, movie_id, audio_url, audio_object_key, audio_mime, duration_sec, display_name, status, tags)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at
	`

	err := p.Db.QueryRow(query, review.ID, review.MovieID, review.AudioURL, review.AudioObjectKey,
		review.AudioMime, review.DurationSec, review.DisplayName, review.Status,
		encodeTags(review.Tags)).Scan(&review.CreatedAt)
	if err != nil {
		return types.Review{}, err
	}

	return review, nil
}

func (p *Postgres) GetReviewByID(id string) (types.Review, error) {
	query := `
	SELECT id, movie_id, audio_url, audio_object_key, audio_mime, duration_sec, display_name, status, tags, created_at, deleted_at
	FROM reviews WHERE id = $1
	`

	var r types.Review
	var displayName sql.NullString
	var tags string
	var deletedAt sql.NullTime

	err := p.Db.QueryRow(query, id).Scan(&r.ID, &r.MovieID, &r.AudioURL, &r.AudioObjectKey,
		&r.AudioMime, &r.DurationSec, &displayName, &r.Status, &tags, &r.CreatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Review{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Review{}, err
	}

	r.DisplayName = displayName.String
	r.Tags = decodeTags(tags)
	if deletedAt.Valid {
		t := deletedAt.Time
		r.DeletedAt = &t
	}

	return r, nil
}

// ListReviews returns non-deleted reviews, newest first, joined with movie
// metadata. The deleted_at filter is unconditional.
func (p *Postgres) ListReviews(filter types.ReviewFilter) ([]types.Review, error) {
	query := `
	SELECT r.id, r.movie_id, r.audio_url, r.audio_mime, r.duration_sec, r.display_name, r.status, r.tags, r.created_at,
	       m.id, m.tmdb_id, m.title, m.overview, m.poster_url, m.release_date, m.media_type, m.slug
	FROM reviews r
	JOIN movies m ON m.id = r.movie_id
	WHERE r.deleted_at IS NULL
	`

	args := []interface{}{}
	if filter.MovieID != "" {
		args = append(args, filter.MovieID)
		query += fmt.Sprintf(" AND r.movie_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := p.Db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []types.Review{}
	for rows.Next() {
		var r types.Review
		var m types.Movie
		var displayName sql.NullString
		var tags string

		err := rows.Scan(&r.ID, &r.MovieID, &r.AudioURL, &r.AudioMime, &r.DurationSec,
			&displayName, &r.Status, &tags, &r.CreatedAt,
			&m.ID, &m.TMDBID, &m.Title, &m.Overview, &m.PosterURL, &m.ReleaseDate, &m.MediaType, &m.Slug)
		if err != nil {
			return nil, err
		}

		r.DisplayName = displayName.String
		r.Tags = decodeTags(tags)
		r.Movie = &m
		reviews = append(reviews, r)
	}

	return reviews, rows.Err()
}

// UpdateReview replaces status and/or tags on a non-deleted review. Passing
// nil leaves a field untouched; tags are a full-set overwrite.
func (p *Postgres) UpdateReview(id string, status *types.ReviewStatus, tags *[]string) (types.Review, error) {
	set := ""
	args := []interface{}{}

	if status != nil {
		args = append(args, *status)
		set += fmt.Sprintf("status = $%d", len(args))
	}
	if tags != nil {
		if set != "" {
			set += ", "
		}
		args = append(args, encodeTags(*tags))
		set += fmt.Sprintf("tags = $%d", len(args))
	}
	if set == "" {
		return p.GetReviewByID(id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE reviews SET %s WHERE id = $%d AND deleted_at IS NULL`, set, len(args))

	result, err := p.Db.Exec(query, args...)
	if err != nil {
		return types.Review{}, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.Review{}, err
	}
	if affected == 0 {
		return types.Review{}, storage.ErrNotFound
	}

	return p.GetReviewByID(id)
}

func (p *Postgres) SoftDeleteReview(id string) error {
	result, err := p.Db.Exec(`UPDATE reviews SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (p *Postgres) HardDeleteReview(id string) error {
	result, err := p.Db.Exec(`DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (p *Postgres) CreateAdminUser(email, passwordHash string) (string, error) {
	var userID int
	query := `
	INSERT INTO admin_users (email, password)
	VALUES ($1, $2)
	RETURNING id
	`

	err := p.Db.QueryRow(query, email, passwordHash).Scan(&userID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d", userID), nil
}

func (p *Postgres) GetAdminByEmail(email string) (string, string, error) {
	var userID int
	var hashedPassword string
	query := `
	SELECT id, password FROM admin_users WHERE email = $1
	`

	err := p.Db.QueryRow(query, email).Scan(&userID, &hashedPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", storage.ErrNotFound
	}
	if err != nil {
		return "", "", err
	}

	return fmt.Sprintf("%d", userID), hashedPassword, nil
}

func (p *Postgres) CountAdminUsers() (int, error) {
	var count int
	err := p.Db.QueryRow(`SELECT COUNT(*) FROM admin_users`).Scan(&count)
	return count, err
}
