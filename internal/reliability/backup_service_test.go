package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suryap3105/EchoGenesis/internal/database"
)

type fakeStore struct {
	uploads map[string][]byte
	objects []types.Object
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: make(map[string][]byte)}
}

func (f *fakeStore) Upload(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeStore) List(_ context.Context, _ string) ([]types.Object, error) {
	return f.objects, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func setupBackupService(t *testing.T) (*BackupService, *fakeStore) {
	t.Helper()

	dataDir := t.TempDir()
	db, err := database.New(database.Config{
		Path: filepath.Join(dataDir, "organisms.db"),
		Name: "organisms",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	store := newFakeStore()
	return NewBackupService(store, db, dataDir, zerolog.Nop()), store
}

func TestCreateAndUploadBackup_ArchiveContents(t *testing.T) {
	svc, store := setupBackupService(t)

	require.NoError(t, svc.CreateAndUploadBackup(context.Background()))
	require.Len(t, store.uploads, 1)

	var key string
	var data []byte
	for k, v := range store.uploads {
		key, data = k, v
	}
	_, ok := parseBackupTimestamp(key)
	assert.True(t, ok, "archive name %q must carry a parsable timestamp", key)

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	found := map[string]bool{}
	var metadataRaw []byte
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		found[hdr.Name] = true
		if hdr.Name == "backup-metadata.json" {
			metadataRaw, err = io.ReadAll(tr)
			require.NoError(t, err)
		}
	}

	assert.True(t, found["organisms.db"], "archive must contain the database dump")
	require.True(t, found["backup-metadata.json"], "archive must contain metadata")

	var meta BackupMetadata
	require.NoError(t, json.Unmarshal(metadataRaw, &meta))
	require.Len(t, meta.Databases, 1)
	assert.Equal(t, "organisms", meta.Databases[0].Name)
	assert.Contains(t, meta.Databases[0].Checksum, "sha256:")
	assert.Greater(t, meta.Databases[0].SizeBytes, int64(0))
}

func backupObject(ts time.Time, size int64) types.Object {
	name := fmt.Sprintf("%s%s.tar.gz", backupPrefix, ts.Format("2006-01-02-150405"))
	return types.Object{Key: aws.String(name), Size: aws.Int64(size)}
}

func TestListBackups_SortedNewestFirst(t *testing.T) {
	svc, store := setupBackupService(t)

	now := time.Now()
	store.objects = []types.Object{
		backupObject(now.AddDate(0, 0, -2), 100),
		backupObject(now, 300),
		backupObject(now.AddDate(0, 0, -1), 200),
		{Key: aws.String("unrelated-object.txt")},
	}

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 3, "non-backup objects are skipped")
	assert.True(t, backups[0].Timestamp.After(backups[1].Timestamp))
	assert.True(t, backups[1].Timestamp.After(backups[2].Timestamp))
	assert.EqualValues(t, 300, backups[0].SizeBytes)
}

func TestRotateOldBackups_KeepsMinimum(t *testing.T) {
	svc, store := setupBackupService(t)

	// Three ancient backups: all inside the minimum-keep window.
	old := time.Now().AddDate(0, 0, -100)
	for i := 0; i < minBackupsToKeep; i++ {
		store.objects = append(store.objects, backupObject(old.Add(time.Duration(i)*time.Hour), 10))
	}

	require.NoError(t, svc.RotateOldBackups(context.Background(), 7))
	assert.Empty(t, store.deleted)
}

func TestRotateOldBackups_DeletesExpired(t *testing.T) {
	svc, store := setupBackupService(t)

	now := time.Now()
	store.objects = []types.Object{
		backupObject(now, 10),
		backupObject(now.AddDate(0, 0, -1), 10),
		backupObject(now.AddDate(0, 0, -2), 10),
		backupObject(now.AddDate(0, 0, -30), 10),
		backupObject(now.AddDate(0, 0, -5), 10),
	}

	require.NoError(t, svc.RotateOldBackups(context.Background(), 7))
	require.Len(t, store.deleted, 1, "only the backup past retention and outside the keep window goes")
	assert.Contains(t, store.deleted[0], now.AddDate(0, 0, -30).Format("2006-01-02"))
}

func TestRotateOldBackups_ZeroRetentionKeepsAll(t *testing.T) {
	svc, store := setupBackupService(t)

	old := time.Now().AddDate(0, 0, -365)
	for i := 0; i < 6; i++ {
		store.objects = append(store.objects, backupObject(old.Add(time.Duration(i)*time.Hour), 10))
	}

	require.NoError(t, svc.RotateOldBackups(context.Background(), 0))
	assert.Empty(t, store.deleted)
}
