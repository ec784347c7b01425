package organism

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/suryap3105/EchoGenesis/internal/database"
	"github.com/suryap3105/EchoGenesis/internal/quantum"
)

// Repository handles organism database operations against the organisms and
// metrics_history tables. Metrics snapshots are stored as msgpack blobs.
type Repository struct {
	db           *sql.DB
	historyLimit int
	log          zerolog.Logger
}

// NewRepository creates a new organism repository. historyLimit caps the
// number of metrics_history rows kept per organism.
func NewRepository(db *sql.DB, historyLimit int, log zerolog.Logger) *Repository {
	return &Repository{
		db:           db,
		historyLimit: historyLimit,
		log:          log.With().Str("repository", "organism").Logger(),
	}
}

// Save upserts an organism record.
func (r *Repository) Save(o *Organism) error {
	var blob []byte
	if o.Metrics != nil {
		var err error
		blob, err = msgpack.Marshal(o.Metrics)
		if err != nil {
			return fmt.Errorf("failed to encode metrics for %s: %w", o.ID, err)
		}
	}

	mixed := 0
	if o.Mixed {
		mixed = 1
	}

	_, err := r.db.Exec(`
		INSERT INTO organisms (id, name, stage, qubits, mixed, metrics, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			stage = excluded.stage,
			qubits = excluded.qubits,
			mixed = excluded.mixed,
			metrics = excluded.metrics,
			updated_at = excluded.updated_at
	`, o.ID, o.Name, o.Stage, o.Qubits, mixed, blob,
		o.CreatedAt.Format(time.RFC3339), o.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save organism %s: %w", o.ID, err)
	}
	return nil
}

// Get retrieves an organism by ID.
func (r *Repository) Get(id string) (*Organism, error) {
	row := r.db.QueryRow(`
		SELECT id, name, stage, qubits, mixed, metrics, created_at, updated_at
		FROM organisms WHERE id = ?
	`, id)

	o, err := scanOrganism(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organism %s: %w", id, err)
	}
	return o, nil
}

// List retrieves all organisms ordered by creation time.
func (r *Repository) List() ([]*Organism, error) {
	rows, err := r.db.Query(`
		SELECT id, name, stage, qubits, mixed, metrics, created_at, updated_at
		FROM organisms ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organisms: %w", err)
	}
	defer rows.Close()

	var result []*Organism
	for rows.Next() {
		o, err := scanOrganism(rows)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan organism row")
			continue
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organisms: %w", err)
	}
	return result, nil
}

// Delete removes an organism; its history rows cascade.
func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM organisms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete organism %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// AppendHistory records a metrics sample and prunes rows beyond the
// retention limit. Insert and prune land in one transaction so the
// retention bound holds even when the prune fails.
func (r *Repository) AppendHistory(organismID string, m quantum.Metrics) error {
	blob, err := msgpack.Marshal(&m)
	if err != nil {
		return fmt.Errorf("failed to encode history metrics for %s: %w", organismID, err)
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO metrics_history (organism_id, metrics, recorded_at)
			VALUES (?, ?, ?)
		`, organismID, blob, time.Now().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to append history for %s: %w", organismID, err)
		}

		_, err = tx.Exec(`
			DELETE FROM metrics_history
			WHERE organism_id = ? AND id NOT IN (
				SELECT id FROM metrics_history
				WHERE organism_id = ?
				ORDER BY id DESC LIMIT ?
			)
		`, organismID, organismID, r.historyLimit)
		if err != nil {
			return fmt.Errorf("failed to prune history for %s: %w", organismID, err)
		}
		return nil
	})
}

// History retrieves the most recent metrics samples, newest first.
func (r *Repository) History(organismID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > r.historyLimit {
		limit = r.historyLimit
	}

	rows, err := r.db.Query(`
		SELECT metrics, recorded_at FROM metrics_history
		WHERE organism_id = ?
		ORDER BY id DESC LIMIT ?
	`, organismID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", organismID, err)
	}
	defer rows.Close()

	var result []HistoryEntry
	for rows.Next() {
		var blob []byte
		var recordedAt string
		if err := rows.Scan(&blob, &recordedAt); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan history row")
			continue
		}
		var m quantum.Metrics
		if err := msgpack.Unmarshal(blob, &m); err != nil {
			r.log.Warn().Err(err).Str("organism_id", organismID).Msg("Failed to decode history metrics")
			continue
		}
		ts, _ := time.Parse(time.RFC3339, recordedAt)
		result = append(result, HistoryEntry{Metrics: m, RecordedAt: ts})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return result, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrganism(row rowScanner) (*Organism, error) {
	var o Organism
	var mixed int
	var blob []byte
	var createdAt, updatedAt string

	if err := row.Scan(&o.ID, &o.Name, &o.Stage, &o.Qubits, &mixed, &blob, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	o.Mixed = mixed != 0
	if len(blob) > 0 {
		var m quantum.Metrics
		if err := msgpack.Unmarshal(blob, &m); err != nil {
			return nil, fmt.Errorf("failed to decode metrics: %w", err)
		}
		o.Metrics = &m
	}
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	o.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &o, nil
}
