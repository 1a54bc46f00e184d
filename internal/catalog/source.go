package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// GameSource supplies the raw game table.
type GameSource interface {
	Games(ctx context.Context) ([]Game, error)
}

var requiredColumns = []string{"id", "opening_name", "opening_ply", "moves", "winner"}

// CSVSource reads games from a CSV export with a header row.
type CSVSource struct {
	path   string
	logger *logrus.Logger
}

func NewCSVSource(path string, logger *logrus.Logger) *CSVSource {
	return &CSVSource{path: path, logger: logger}
}

func (s *CSVSource) Games(ctx context.Context) ([]Game, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open games file: %w", err)
	}
	defer f.Close()

	games, skipped, err := ReadGamesCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if skipped > 0 {
		s.logger.WithFields(logrus.Fields{
			"path":    s.path,
			"skipped": skipped,
		}).Warn("Skipped malformed game rows")
	}
	return games, nil
}

// ReadGamesCSV parses games from r. Rows with an unparseable opening_ply are
// skipped and counted.
func ReadGamesCSV(ctx context.Context, r io.Reader) ([]Game, int, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("empty games file: %w", ErrMissingColumn)
		}
		return nil, 0, err
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var (
		games   []Game
		skipped int
	)
	for line := 0; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		field := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return record[i]
		}

		ply, err := strconv.Atoi(strings.TrimSpace(field("opening_ply")))
		if err != nil {
			skipped++
			continue
		}

		games = append(games, Game{
			ID:          field("id"),
			OpeningName: field("opening_name"),
			OpeningPly:  ply,
			Moves:       strings.Fields(field("moves")),
			Winner:      field("winner"),
		})
	}

	return games, skipped, nil
}

// DatabaseQuerier interface for database operations
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// PostgresSource reads games from the games table.
type PostgresSource struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewPostgresSource(db DatabaseQuerier, logger *logrus.Logger) *PostgresSource {
	return &PostgresSource{db: db, logger: logger}
}

func (s *PostgresSource) Games(ctx context.Context) ([]Game, error) {
	query := `
		SELECT id, opening_name, opening_ply, moves, winner
		FROM games
		ORDER BY id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("games query failed: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var (
			g     Game
			moves string
		)
		if err := rows.Scan(&g.ID, &g.OpeningName, &g.OpeningPly, &moves, &g.Winner); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		g.Moves = strings.Fields(moves)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("games query failed: %w", err)
	}

	s.logger.WithField("games", len(games)).Debug("Loaded games from PostgreSQL")
	return games, nil
}

// Load reads the source and builds the catalog.
func Load(ctx context.Context, src GameSource) (*Catalog, error) {
	games, err := src.Games(ctx)
	if err != nil {
		return nil, err
	}
	return Build(games)
}
