package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	// pgx.Conn is not safe for concurrent use
	lock sync.Mutex
	conn *pgx.Conn
}

// NewPostgresRepository connects to the database and executes every file of
// the migrations directory in name order.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string, migrations string) (Repository, error) {
	conn, err := connectDb(ctx, connStr)
	if err != nil {
		return nil, err
	}

	dir, err := os.ReadDir(migrations)
	if err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}
	sort.Slice(dir, func(i, j int) bool { return dir[i].Name() < dir[j].Name() })

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}
		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			conn.Close(ctx)
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}
		if _, err := conn.Exec(ctx, string(migration)); err != nil {
			conn.Close(ctx)
			return nil, fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func connectDb(ctx context.Context, connStr string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	var username string
	var database string
	err = conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to query database: %v", err)
	}

	log.Info("Connected to %s as %s", database, username)

	return conn, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveMatchResult(ctx context.Context, result *models.MatchResult) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	q := `
	INSERT INTO match_results (match_id, map_name, winner, winner_kills, ended_at)
	VALUES ($1, $2, $3, $4, $5);
	`
	_, err = tx.Exec(ctx, q, result.ID, result.MapName, result.Winner, result.WinnerKills, result.EndedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match result: %v", err)
	}

	for _, player := range result.Players {
		q := `
		INSERT INTO match_players (match_id, username, kills, deaths) VALUES ($1, $2, $3, $4);
		`
		_, err = tx.Exec(ctx, q, result.ID, player.Username, player.Kills, player.Deaths)
		if err != nil {
			return fmt.Errorf("failed to insert match player: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *PostgresRepository) GetMatchResult(ctx context.Context, id string) (*models.MatchResult, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	q := `
	SELECT match_id::text, map_name, winner, winner_kills, ended_at FROM match_results WHERE match_id::text = $1;
	`
	var result models.MatchResult
	err := r.conn.QueryRow(ctx, q, id).Scan(&result.ID, &result.MapName, &result.Winner, &result.WinnerKills, &result.EndedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to scan match result: %v", err)
	}

	if err := r.loadPlayers(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *PostgresRepository) ListMatchResults(ctx context.Context, limit int) ([]*models.MatchResult, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	q := `
	SELECT match_id::text, map_name, winner, winner_kills, ended_at FROM match_results
	ORDER BY ended_at DESC, match_id LIMIT $1;
	`
	rows, err := r.conn.Query(ctx, q, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query match results: %v", err)
	}

	results := []*models.MatchResult{}
	for rows.Next() {
		var result models.MatchResult
		if err := rows.Scan(&result.ID, &result.MapName, &result.Winner, &result.WinnerKills, &result.EndedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan match result: %v", err)
		}
		results = append(results, &result)
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

// loadPlayers reads the per-player counters of result. The lock must be held.
func (r *PostgresRepository) loadPlayers(ctx context.Context, result *models.MatchResult) error {
	q := `
	SELECT username, kills, deaths FROM match_players WHERE match_id::text = $1
	ORDER BY kills DESC, username;
	`
	rows, err := r.conn.Query(ctx, q, result.ID)
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
