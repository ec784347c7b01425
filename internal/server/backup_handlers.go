package server

import (
	"net/http"
)

// handleListBackups handles GET /api/backups.
func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := s.backups.ListBackups(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list backups")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"backups": backups,
	})
}

// handleTriggerBackup handles POST /api/backups: runs the scheduled backup
// job immediately, rotation included.
func (s *Server) handleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	s.log.Info().Msg("Manual backup triggered")

	if err := s.sched.RunNow(s.backupJob); err != nil {
		s.log.Error().Err(err).Msg("Manual backup failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Backup completed",
	})
}
