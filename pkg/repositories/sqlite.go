package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cbodonnell/arena/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path and executes every file of
// the migrations directory in name order.
func NewSQLiteRepository(ctx context.Context, path string, migrations string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := migrate(ctx, db, migrations); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func migrate(ctx context.Context, db *sql.DB, migrations string) error {
	dir, err := os.ReadDir(migrations)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %v", err)
	}
	sort.Slice(dir, func(i, j int) bool { return dir[i].Name() < dir[j].Name() })

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}

		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveMatchResult(ctx context.Context, result *models.MatchResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	q := `
	INSERT INTO match_results (match_id, map_name, winner, winner_kills, ended_at)
	VALUES (?, ?, ?, ?, ?);
	`
	_, err = tx.ExecContext(ctx, q, result.ID, result.MapName, result.Winner, result.WinnerKills, result.EndedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert match result: %v", err)
	}

	for _, player := range result.Players {
		q := `
		INSERT INTO match_players (match_id, username, kills, deaths)
		VALUES (?, ?, ?, ?);
		`
		_, err = tx.ExecContext(ctx, q, result.ID, player.Username, player.Kills, player.Deaths)
		if err != nil {
			return fmt.Errorf("failed to insert match player: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) GetMatchResult(ctx context.Context, id string) (*models.MatchResult, error) {
	q := `
	SELECT match_id, map_name, winner, winner_kills, ended_at FROM match_results WHERE match_id = ?;
	`
	result, err := scanSQLiteMatch(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to scan match result: %v", err)
	}

	if err := r.loadPlayers(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ListMatchResults(ctx context.Context, limit int) ([]*models.MatchResult, error) {
	q := `
	SELECT match_id, map_name, winner, winner_kills, ended_at FROM match_results
	ORDER BY ended_at DESC, match_id LIMIT ?;
	`
	rows, err := r.db.QueryContext(ctx, q, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query match results: %v", err)
	}

	results := []*models.MatchResult{}
	for rows.Next() {
		result, err := scanSQLiteMatch(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan match result: %v", err)
		}
		results = append(results, result)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read match results: %v", err)
	}

	for _, result := range results {
		if err := r.loadPlayers(ctx, result); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (r *SQLiteRepository) loadPlayers(ctx context.Context, result *models.MatchResult) error {
	q := `
	SELECT username, kills, deaths FROM match_players WHERE match_id = ?
	ORDER BY kills DESC, username;
	`
	rows, err := r.db.QueryContext(ctx, q, result.ID)
	if err != nil {
		return fmt.Errorf("failed to query match players: %v", err)
	}
	defer rows.Close()

	result.Players = []models.MatchPlayerResult{}
	for rows.Next() {
		var player models.MatchPlayerResult
		if err := rows.Scan(&player.Username, &player.Kills, &player.Deaths); err != nil {
			return fmt.Errorf("failed to scan match player: %v", err)
		}
		result.Players = append(result.Players, player)
	}
	return rows.Err()
}

type sqliteScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteMatch(row sqliteScanner) (*models.MatchResult, error) {
	var result models.MatchResult
	var endedAt int64
	if err := row.Scan(&result.ID, &result.MapName, &result.Winner, &result.WinnerKills, &endedAt); err != nil {
		return nil, err
	}
	result.EndedAt = time.UnixMilli(endedAt).UTC()
	return &result, nil
}
