package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// backupTimeout bounds one backup run, upload included.
const backupTimeout = 10 * time.Minute

// BackupJob runs the scheduled backup: archive, upload, rotate.
type BackupJob struct {
	service   *BackupService
	retention int
	log       zerolog.Logger
}

// NewBackupJob creates the scheduled backup job.
func NewBackupJob(service *BackupService, retention int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:   service,
		retention: retention,
		log:       log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name.
func (j *BackupJob) Name() string {
	return "database_backup"
}

// Run creates and uploads a backup, then rotates old ones.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}

	if err := j.service.RotateOldBackups(ctx, j.retention); err != nil {
		// Rotation failure only delays cleanup; the backup itself succeeded.
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}
