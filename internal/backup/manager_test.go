package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-retail-pos/internal/database"
	"go-retail-pos/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	manager *Manager
	db      *gorm.DB
	root    string
	dbPath  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(root, "pos.db")

	db, err := database.Connect(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Product{Name: "Coffee", Price: 4.50, StockQuantity: 10, IsActive: true}).Error)

	uploadsDir := filepath.Join(root, "uploads")
	require.NoError(t, os.MkdirAll(uploadsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "coffee.jpg"), []byte("jpeg bytes"), 0o644))

	manager, err := NewManager(Options{
		DB:         db,
		DBPath:     dbPath,
		UploadsDir: uploadsDir,
		BackupDir:  filepath.Join(root, "backups"),
		ConfigPath: filepath.Join(root, "backup_config.json"),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	return &testEnv{manager: manager, db: db, root: root, dbPath: dbPath}
}

func TestCreateBackupCompressed(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.manager.CreateBackup(KindManual)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(result.Path, ".zip"))
	_, err = os.Stat(result.Path)
	require.NoError(t, err)

	// Staging directory is gone; only the artifact remains
	_, err = os.Stat(strings.TrimSuffix(result.Path, ".zip"))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, string(KindManual), result.Manifest.Type)
	assert.Contains(t, result.Manifest.FilesBackedUp, "database/pos.db")
	assert.Contains(t, result.Manifest.FilesBackedUp, "database/database_export.json")
	assert.Contains(t, result.Manifest.FilesBackedUp, "uploads/")
	assert.Contains(t, result.Manifest.FilesBackedUp, "config/backup_config.json")
	assert.Contains(t, result.Manifest.FilesBackedUp, "app_files/app_metadata.json")
	assert.Positive(t, result.Manifest.SizeBytes)

	// The manifest travels inside the artifact
	data, err := readZipFile(result.Path, manifestName)
	require.NoError(t, err)
	var stored Manifest
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, result.Manifest.Timestamp, stored.Timestamp)

	// The portable export holds the seeded product
	exportData, err := readZipFile(result.Path, "database/database_export.json")
	require.NoError(t, err)
	assert.Contains(t, string(exportData), "Coffee")

	// last_backup is persisted
	assert.NotEmpty(t, env.manager.Config().LastBackup)
}

func TestCreateBackupUncompressedLeavesDirectory(t *testing.T) {
	env := newTestEnv(t)

	cfg := env.manager.Config()
	cfg.CompressionEnabled = false
	require.NoError(t, env.manager.UpdateConfig(cfg))

	result, err := env.manager.CreateBackup(KindManual)
	require.NoError(t, err)

	info, err := os.Stat(result.Path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(result.Path, manifestName))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(result.Path, "uploads", "coffee.jpg"))
	assert.NoError(t, err)
}

func TestComponentTogglesRespected(t *testing.T) {
	env := newTestEnv(t)

	cfg := env.manager.Config()
	cfg.BackupUploads = false
	cfg.CompressionEnabled = false
	require.NoError(t, env.manager.UpdateConfig(cfg))

	result, err := env.manager.CreateBackup(KindManual)
	require.NoError(t, err)

	assert.NotContains(t, result.Manifest.FilesBackedUp, "uploads/")
	_, err = os.Stat(filepath.Join(result.Path, "uploads"))
	assert.True(t, os.IsNotExist(err))
}

func TestRetentionKeepsNewest(t *testing.T) {
	env := newTestEnv(t)

	cfg := env.manager.Config()
	cfg.MaxBackups = 3
	require.NoError(t, env.manager.UpdateConfig(cfg))

	// Five artifacts with distinct creation times
	backupDir := filepath.Join(env.root, "backups")
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("backup_manual_2026010%d_000000", i+1)
		dir := filepath.Join(backupDir, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		manifest := Manifest{Type: "manual", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		data, err := json.Marshal(manifest)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, manifestName), data, 0o644))
	}

	require.NoError(t, env.manager.CleanupRetention())

	entries, err := env.manager.ListBackups()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Exactly the three most recent survive, newest first
	assert.Equal(t, "backup_manual_20260105_000000", entries[0].Name)
	assert.Equal(t, "backup_manual_20260104_000000", entries[1].Name)
	assert.Equal(t, "backup_manual_20260103_000000", entries[2].Name)
}

func TestListBackupsFallsBackWithoutManifest(t *testing.T) {
	env := newTestEnv(t)

	// A legacy artifact with no manifest still shows up
	require.NoError(t, os.MkdirAll(filepath.Join(env.root, "backups", "legacy_backup"), 0o755))

	entries, err := env.manager.ListBackups()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "unknown", entries[0].Type)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestRestoreTakesSafetyBackupAndRoundTrips(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.manager.CreateBackup(KindManual)
	require.NoError(t, err)

	// Mutate live state after the backup
	require.NoError(t, env.db.Model(&models.Product{}).Where("name = ?", "Coffee").Update("price", 99.0).Error)
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "uploads", "new.jpg"), []byte("later upload"), 0o644))

	restore, err := env.manager.RestoreBackup(result.Path)
	require.NoError(t, err)
	require.NotNil(t, restore.PreRestoreBackup)
	assert.Equal(t, string(KindPreRestore), restore.PreRestoreBackup.Manifest.Type)
	// The safety backup manifest reflects the live store at restore time
	assert.Contains(t, restore.PreRestoreBackup.Manifest.FilesBackedUp, "database/pos.db")

	// Exactly one pre_restore artifact exists
	entries, err := env.manager.ListBackups()
	require.NoError(t, err)
	var preRestoreCount int
	for _, entry := range entries {
		if entry.Type == string(KindPreRestore) {
			preRestoreCount++
		}
	}
	assert.Equal(t, 1, preRestoreCount)

	// A fresh connection to the restored file sees the pre-mutation data
	restored, err := database.Connect(env.dbPath)
	require.NoError(t, err)
	var product models.Product
	require.NoError(t, restored.Where("name = ?", "Coffee").First(&product).Error)
	assert.InDelta(t, 4.50, product.Price, 1e-9)

	// Uploads were replaced wholesale, not merged
	_, err = os.Stat(filepath.Join(env.root, "uploads", "new.jpg"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(env.root, "uploads", "coffee.jpg"))
	assert.NoError(t, err)
}

func TestRestoreMissingArtifact(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.manager.RestoreBackup(filepath.Join(env.root, "backups", "nope.zip"))
	assert.ErrorIs(t, err, ErrBackupNotFound)

	// No safety backup is taken for a restore that never started
	entries, err := env.manager.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFailedBackupLeavesNoArtifact(t *testing.T) {
	env := newTestEnv(t)

	// Point the manager at a database file that doesn't exist
	broken, err := NewManager(Options{
		DB:         env.db,
		DBPath:     filepath.Join(env.root, "missing.db"),
		UploadsDir: filepath.Join(env.root, "uploads"),
		BackupDir:  filepath.Join(env.root, "broken-backups"),
		ConfigPath: filepath.Join(env.root, "broken_config.json"),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	_, err = broken.CreateBackup(KindManual)
	require.Error(t, err)

	// The staging area was discarded; nothing looks like a valid backup
	entries, err := broken.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, entries)

	// last_backup was not updated on failure
	assert.Empty(t, broken.Config().LastBackup)
}
