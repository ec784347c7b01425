package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Snapshotter persists in-memory organism records.
type Snapshotter interface {
	Snapshot() error
}

// Checkpointer forces a WAL checkpoint after a snapshot so the WAL file
// stays small between backups.
type Checkpointer interface {
	WALCheckpoint(mode string) error
}

// SnapshotJob periodically flushes organism records to the database.
type SnapshotJob struct {
	organisms Snapshotter
	db        Checkpointer
	log       zerolog.Logger
}

// NewSnapshotJob creates the periodic snapshot job.
func NewSnapshotJob(organisms Snapshotter, db Checkpointer, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		organisms: organisms,
		db:        db,
		log:       log.With().Str("job", "snapshot").Logger(),
	}
}

// Name returns the job name.
func (j *SnapshotJob) Name() string {
	return "organism_snapshot"
}

// Run persists all organisms and checkpoints the WAL.
func (j *SnapshotJob) Run() error {
	if err := j.organisms.Snapshot(); err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	if err := j.db.WALCheckpoint("PASSIVE"); err != nil {
		// Checkpoint failure is not fatal; the next autocheckpoint covers it.
		j.log.Warn().Err(err).Msg("WAL checkpoint failed after snapshot")
	}
	return nil
}
