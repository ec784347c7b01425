package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suryap3105/EchoGenesis/internal/config"
	"github.com/suryap3105/EchoGenesis/internal/database"
	"github.com/suryap3105/EchoGenesis/internal/events"
	"github.com/suryap3105/EchoGenesis/internal/organism"
	"github.com/suryap3105/EchoGenesis/internal/reliability"
	"github.com/suryap3105/EchoGenesis/internal/scheduler"
)

type memoryStore struct {
	uploads map[string][]byte
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.uploads[key] = data
	return nil
}

func (m *memoryStore) List(_ context.Context, _ string) ([]types.Object, error) {
	var out []types.Object
	for k, v := range m.uploads {
		out = append(out, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(v)))})
	}
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	delete(m.uploads, key)
	return nil
}

func setupBackupServer(t *testing.T) (*Server, *memoryStore) {
	t.Helper()

	dataDir := t.TempDir()
	db, err := database.New(database.Config{
		Path: filepath.Join(dataDir, "organisms.db"),
		Name: "organisms",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	bus := events.NewBus(zerolog.Nop())
	repo := organism.NewRepository(db.Conn(), 50, zerolog.Nop())
	svc := organism.NewService(repo, bus, 0, zerolog.Nop())

	store := &memoryStore{uploads: make(map[string][]byte)}
	backups := reliability.NewBackupService(store, db, dataDir, zerolog.Nop())

	srv := New(Config{
		Log:       zerolog.Nop(),
		Config:    &config.Config{DataDir: dataDir, Port: 0, DevMode: true},
		DB:        db,
		Organisms: svc,
		Bus:       bus,
		Scheduler: scheduler.New(zerolog.Nop()),
		Backups:   backups,
		BackupJob: reliability.NewBackupJob(backups, 7, zerolog.Nop()),
	})
	return srv, store
}

func TestTriggerBackup_RunsJobAndUploads(t *testing.T) {
	s, store := setupBackupServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, store.uploads, 1, "manual trigger runs the full backup job")
}

func TestListBackups_ReturnsStoredArchives(t *testing.T) {
	s, _ := setupBackupServer(t)

	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/api/backups", nil).Code)

	rec := doJSON(t, s, http.MethodGet, "/api/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Backups []reliability.BackupInfo `json:"backups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Backups, 1)
	assert.Greater(t, resp.Backups[0].SizeBytes, int64(0))
}

func TestBackupRoutes_AbsentWhenDisabled(t *testing.T) {
	s := setupServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/backups", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
