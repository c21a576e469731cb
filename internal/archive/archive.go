package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ChristianIvicevic/sorcery/internal/config"
	"github.com/ChristianIvicevic/sorcery/internal/game"
)

// Archive persists finished games to Postgres: the final snapshot for
// queries and the decision log for byte-exact replay.
type Archive struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id     TEXT PRIMARY KEY,
	seed        BIGINT NOT NULL,
	winner_id   TEXT,
	turn_count  INT NOT NULL,
	checksum    TEXT NOT NULL,
	snapshot    JSONB NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS game_decisions (
	game_id  TEXT NOT NULL REFERENCES games(game_id) ON DELETE CASCADE,
	seq      INT NOT NULL,
	decision JSONB NOT NULL,
	PRIMARY KEY (game_id, seq)
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id   TEXT NOT NULL REFERENCES games(game_id) ON DELETE CASCADE,
	seq       INT NOT NULL,
	player_id TEXT NOT NULL,
	kind      TEXT NOT NULL,
	payload   JSONB,
	at        TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, seq)
);
`

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Archive, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to archive database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging archive database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating archive schema: %w", err)
	}

	logger.Info("game archive connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name))
	return &Archive{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (a *Archive) Close() {
	a.pool.Close()
}

// SaveGame writes a finished game, its decision log and its action log in a
// single transaction.
func (a *Archive) SaveGame(ctx context.Context, snap *game.GameSnapshot, winnerID string,
	decisions []game.Decision, actions []game.ActionRecord) error {

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning archive transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO games (game_id, seed, winner_id, turn_count, checksum, snapshot)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (game_id) DO UPDATE
		 SET winner_id = EXCLUDED.winner_id,
		     turn_count = EXCLUDED.turn_count,
		     checksum = EXCLUDED.checksum,
		     snapshot = EXCLUDED.snapshot`,
		snap.GameID, snap.Seed, winnerID, snap.TurnNumber, snap.Checksum, snapJSON)
	if err != nil {
		return fmt.Errorf("inserting game %s: %w", snap.GameID, err)
	}

	for i, decision := range decisions {
		decisionJSON, err := json.Marshal(decision)
		if err != nil {
			return fmt.Errorf("marshaling decision %d: %w", i, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO game_decisions (game_id, seq, decision) VALUES ($1, $2, $3)
			 ON CONFLICT (game_id, seq) DO NOTHING`,
			snap.GameID, i, decisionJSON); err != nil {
			return fmt.Errorf("inserting decision %d: %w", i, err)
		}
	}

	for _, action := range actions {
		var payloadJSON []byte
		if action.Payload != nil {
			if payloadJSON, err = json.Marshal(action.Payload); err != nil {
				return fmt.Errorf("marshaling action %d payload: %w", action.Seq, err)
			}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO game_actions (game_id, seq, player_id, kind, payload, at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (game_id, seq) DO NOTHING`,
			snap.GameID, action.Seq, action.PlayerID, action.Kind, payloadJSON, action.At); err != nil {
			return fmt.Errorf("inserting action %d: %w", action.Seq, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing archive transaction: %w", err)
	}
	a.logger.Info("game archived",
		zap.String("game_id", snap.GameID),
		zap.Int("decisions", len(decisions)))
	return nil
}

// LoadDecisions returns the archived decision log of a game, in order.
func (a *Archive) LoadDecisions(ctx context.Context, gameID string) ([]game.Decision, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT decision FROM game_decisions WHERE game_id = $1 ORDER BY seq`, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying decisions for %s: %w", gameID, err)
	}
	defer rows.Close()

	var decisions []game.Decision
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}
		var decision game.Decision
		if err := json.Unmarshal(raw, &decision); err != nil {
			return nil, fmt.Errorf("unmarshaling decision: %w", err)
		}
		decisions = append(decisions, decision)
	}
	return decisions, rows.Err()
}

// LoadGame returns the archived final snapshot of a game.
func (a *Archive) LoadGame(ctx context.Context, gameID string) (*game.GameSnapshot, error) {
	var raw []byte
	err := a.pool.QueryRow(ctx,
		`SELECT snapshot FROM games WHERE game_id = $1`, gameID).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("querying game %s: %w", gameID, err)
	}
	var snap game.GameSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &snap, nil
}
