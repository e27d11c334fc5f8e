package region

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore reads regions and their feed lists from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the database and ensures the schema exists.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS regions (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lat  DOUBLE PRECISION NOT NULL DEFAULT 0,
		lng  DOUBLE PRECISION NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS region_feeds (
		region_id TEXT NOT NULL REFERENCES regions(id) ON DELETE CASCADE,
		url       TEXT NOT NULL,
		category  TEXT NOT NULL DEFAULT '',
		position  INT  NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_region_feeds_region ON region_feeds(region_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Region, error) {
	var r Region
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, lat, lng FROM regions WHERE id = $1`, id)
	if err := row.Scan(&r.ID, &r.Name, &r.Lat, &r.Lng); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query region: %w", err)
	}

	feeds, err := s.feedsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Feeds = feeds
	return &r, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Region, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, lat, lng FROM regions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	var regions []Region
	for rows.Next() {
		var r Region
		if err := rows.Scan(&r.ID, &r.Name, &r.Lat, &r.Lng); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regions = append(regions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range regions {
		feeds, err := s.feedsFor(ctx, regions[i].ID)
		if err != nil {
			return nil, err
		}
		regions[i].Feeds = feeds
	}
	return regions, nil
}

func (s *PostgresStore) feedsFor(ctx context.Context, id string) ([]FeedSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, category FROM region_feeds WHERE region_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query region feeds: %w", err)
	}
	defer rows.Close()

	var feeds []FeedSource
	for rows.Next() {
		var f FeedSource
		if err := rows.Scan(&f.URL, &f.Category); err != nil {
			return nil, fmt.Errorf("scan feed source: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
