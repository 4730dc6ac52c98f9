package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Kind tags what triggered a backup.
type Kind string

const (
	KindManual     Kind = "manual"
	KindAuto       Kind = "auto"
	KindPreRestore Kind = "pre_restore"
)

// ErrBackupNotFound rejects a restore of a nonexistent artifact.
var ErrBackupNotFound = errors.New("backup not found")

const manifestName = "backup_info.json"

// Manifest is written into every artifact and is the authoritative
// record for listings.
type Manifest struct {
	Timestamp     string    `json:"timestamp"` // 20060102_150405, matches the artifact name
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"created_at"`
	AppVersion    string    `json:"app_version"`
	FilesBackedUp []string  `json:"files_backed_up"`
	SizeBytes     int64     `json:"size_bytes"`
	Compressed    bool      `json:"compressed"`
}

// Result reports a finished backup.
type Result struct {
	Path     string   `json:"path"`
	Manifest Manifest `json:"manifest"`
}

// RestoreResult reports a finished restore and points at the safety
// backup taken before anything was touched.
type RestoreResult struct {
	PreRestoreBackup *Result `json:"pre_restore_backup"`
}

// Entry is one artifact in a listing. Fields fall back to filesystem
// metadata when the manifest is missing or unreadable.
type Entry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Type       string    `json:"type"` // "unknown" when no manifest could be read
	Timestamp  string    `json:"timestamp"`
	CreatedAt  time.Time `json:"created_at"`
	SizeBytes  int64     `json:"size_bytes"`
	Compressed bool      `json:"compressed"`
	Components []string  `json:"components"`
}

const appVersion = "1.0.0"

// Options wire a Manager to the stores it snapshots.
type Options struct {
	DB               *gorm.DB
	DBPath           string
	UploadsDir       string
	BackupDir        string
	ConfigPath       string   // where the backup Config JSON lives
	ExtraConfigFiles []string // other config files worth preserving, e.g. .env
	Logger           zerolog.Logger
}

// Manager snapshots persistent state into dated artifacts, enforces
// the retention policy, and restores artifacts with a safety net.
// It owns its Config explicitly; nothing else reads the config file.
type Manager struct {
	db          *gorm.DB
	dbPath      string
	uploadsDir  string
	backupDir   string
	configPath  string
	extraConfig []string
	log         zerolog.Logger

	mu  sync.Mutex
	cfg Config
}

func NewManager(opts Options) (*Manager, error) {
	if err := os.MkdirAll(opts.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load backup config: %w", err)
	}
	return &Manager{
		db:          opts.DB,
		dbPath:      opts.DBPath,
		uploadsDir:  opts.UploadsDir,
		backupDir:   opts.BackupDir,
		configPath:  opts.ConfigPath,
		extraConfig: opts.ExtraConfigFiles,
		log:         opts.Logger,
		cfg:         cfg,
	}, nil
}

// Config returns a copy of the current configuration.
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// UpdateConfig replaces the configuration and persists it.
func (m *Manager) UpdateConfig(cfg Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg.LastBackup = m.cfg.LastBackup // not caller-settable
	if err := SaveConfig(m.configPath, cfg); err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}

// ReloadConfig re-reads the config file, e.g. after a restore
// replaced it.
func (m *Manager) ReloadConfig() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, err := LoadConfig(m.configPath)
	if err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}

// CreateBackup assembles the enabled components in a staging area,
// finalizes it into an artifact (zipped or plain directory), records
// the last-backup time, and prunes old artifacts. A failure at any
// step discards the staging area; nothing half-written is ever left
// looking like a valid backup.
func (m *Manager) CreateBackup(kind Kind) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	timestamp := now.Format("20060102_150405")
	name := fmt.Sprintf("backup_%s_%s", kind, timestamp)
	staging := m.uniquePath(name)

	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	done := false
	defer func() {
		if !done {
			os.RemoveAll(staging)
		}
	}()

	manifest := Manifest{
		Timestamp:  timestamp,
		Type:       string(kind),
		CreatedAt:  now,
		AppVersion: appVersion,
		Compressed: m.cfg.CompressionEnabled,
	}

	if m.cfg.BackupDatabase {
		if err := m.stageDatabase(staging, &manifest); err != nil {
			return nil, fmt.Errorf("backup database: %w", err)
		}
	}
	if m.cfg.BackupUploads {
		if err := m.stageUploads(staging, &manifest); err != nil {
			return nil, fmt.Errorf("backup uploads: %w", err)
		}
	}
	if m.cfg.BackupConfig {
		if err := m.stageConfigFiles(staging, &manifest); err != nil {
			return nil, fmt.Errorf("backup config: %w", err)
		}
	}
	if err := m.stageAppMetadata(staging, &manifest); err != nil {
		return nil, fmt.Errorf("backup app metadata: %w", err)
	}

	stagedSize, err := pathSize(staging)
	if err != nil {
		return nil, err
	}
	manifest.SizeBytes = stagedSize

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(staging, manifestName), manifestData, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	artifact := staging
	if m.cfg.CompressionEnabled {
		zipPath := staging + ".zip"
		if err := zipDir(staging, zipPath); err != nil {
			os.Remove(zipPath)
			return nil, fmt.Errorf("compress backup: %w", err)
		}
		os.RemoveAll(staging)
		artifact = zipPath
	}
	done = true

	if size, err := pathSize(artifact); err == nil {
		manifest.SizeBytes = size
	}

	m.cfg.LastBackup = now.Format(time.RFC3339)
	if err := SaveConfig(m.configPath, m.cfg); err != nil {
		m.log.Error().Err(err).Msg("failed to persist last_backup timestamp")
	}

	if err := m.cleanupLocked(); err != nil {
		m.log.Error().Err(err).Msg("retention cleanup failed")
	}

	m.log.Info().
		Str("kind", string(kind)).
		Str("artifact", artifact).
		Int64("size_bytes", manifest.SizeBytes).
		Msg("backup created")

	return &Result{Path: artifact, Manifest: manifest}, nil
}

func (m *Manager) stageDatabase(staging string, manifest *Manifest) error {
	if _, err := os.Stat(m.dbPath); err != nil {
		return err
	}
	dbDir := filepath.Join(staging, "database")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return err
	}

	// VACUUM INTO gives a consistent point-in-time snapshot without
	// blocking live traffic; fall back to a plain copy on engines
	// that lack it.
	snapshot := filepath.Join(dbDir, filepath.Base(m.dbPath))
	if err := m.db.Exec("VACUUM INTO ?", snapshot).Error; err != nil {
		m.log.Warn().Err(err).Msg("VACUUM INTO failed, copying database file")
		if err := copyFile(m.dbPath, snapshot); err != nil {
			return err
		}
	}
	manifest.FilesBackedUp = append(manifest.FilesBackedUp, "database/"+filepath.Base(m.dbPath))

	exportPath := filepath.Join(dbDir, "database_export.json")
	if err := exportDatabaseJSON(m.db, exportPath); err != nil {
		return err
	}
	manifest.FilesBackedUp = append(manifest.FilesBackedUp, "database/database_export.json")
	return nil
}

func (m *Manager) stageUploads(staging string, manifest *Manifest) error {
	if _, err := os.Stat(m.uploadsDir); os.IsNotExist(err) {
		return nil // nothing uploaded yet
	}
	if err := copyTree(m.uploadsDir, filepath.Join(staging, "uploads")); err != nil {
		return err
	}
	manifest.FilesBackedUp = append(manifest.FilesBackedUp, "uploads/")
	return nil
}

func (m *Manager) stageConfigFiles(staging string, manifest *Manifest) error {
	configDir := filepath.Join(staging, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	files := append([]string{m.configPath}, m.extraConfig...)
	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}
		base := filepath.Base(file)
		if err := copyFile(file, filepath.Join(configDir, base)); err != nil {
			return err
		}
		manifest.FilesBackedUp = append(manifest.FilesBackedUp, "config/"+base)
	}
	return nil
}

// stageAppMetadata records what produced this backup. The original
// files aren't copied (the app is a single binary); the metadata is
// enough to match an archive to an app version during recovery.
func (m *Manager) stageAppMetadata(staging string, manifest *Manifest) error {
	appDir := filepath.Join(staging, "app_files")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return err
	}
	meta := map[string]string{
		"app_version": appVersion,
		"go_version":  runtime.Version(),
		"created_at":  manifest.CreatedAt.Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(appDir, "app_metadata.json"), data, 0o644); err != nil {
		return err
	}
	manifest.FilesBackedUp = append(manifest.FilesBackedUp, "app_files/app_metadata.json")
	return nil
}

// RestoreBackup replaces the live database, uploads and config files
// with the contents of the artifact at path. The current state is
// backed up first (tagged pre_restore) so the restore itself can be
// undone. The replace steps are not atomic as a group; if one fails
// partway, the pre_restore backup is the recovery path.
func (m *Manager) RestoreBackup(path string) (*RestoreResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, ErrBackupNotFound
	}

	pre, err := m.CreateBackup(KindPreRestore)
	if err != nil {
		return nil, fmt.Errorf("pre-restore safety backup: %w", err)
	}

	root := path
	if strings.HasSuffix(path, ".zip") {
		tmp, err := os.MkdirTemp("", "pos-restore-")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(tmp)
		if err := unzipTo(path, tmp); err != nil {
			return nil, fmt.Errorf("extract backup: %w", err)
		}
		root = tmp
	}

	// Database: replace the live file with the snapshot.
	snapshot := filepath.Join(root, "database", filepath.Base(m.dbPath))
	if _, err := os.Stat(snapshot); err == nil {
		if err := copyFile(snapshot, m.dbPath); err != nil {
			return nil, fmt.Errorf("restore database: %w", err)
		}
	}

	// Uploads: full replace, never a merge.
	uploadsBackup := filepath.Join(root, "uploads")
	if _, err := os.Stat(uploadsBackup); err == nil {
		if err := os.RemoveAll(m.uploadsDir); err != nil {
			return nil, fmt.Errorf("clear uploads: %w", err)
		}
		if err := copyTree(uploadsBackup, m.uploadsDir); err != nil {
			return nil, fmt.Errorf("restore uploads: %w", err)
		}
	}

	// Config files: overwrite in place.
	configBackup := filepath.Join(root, "config")
	if entries, err := os.ReadDir(configBackup); err == nil {
		configHome := filepath.Dir(m.configPath)
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			src := filepath.Join(configBackup, entry.Name())
			if err := copyFile(src, filepath.Join(configHome, entry.Name())); err != nil {
				return nil, fmt.Errorf("restore config %s: %w", entry.Name(), err)
			}
		}
	}

	// The config file on disk may have changed under us.
	if err := m.ReloadConfig(); err != nil {
		m.log.Warn().Err(err).Msg("failed to reload backup config after restore")
	}

	m.log.Info().Str("artifact", path).Msg("backup restored")
	return &RestoreResult{PreRestoreBackup: pre}, nil
}

// ListBackups enumerates artifacts newest first. Artifacts without a
// readable manifest still appear, typed "unknown" and dated by
// filesystem modification time, so legacy or damaged backups remain
// visible and restorable.
func (m *Manager) ListBackups() ([]Entry, error) {
	dirEntries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, de := range dirEntries {
		if !de.IsDir() && !strings.HasSuffix(de.Name(), ".zip") {
			continue
		}
		path := filepath.Join(m.backupDir, de.Name())
		entry := Entry{Name: de.Name(), Path: path}

		info, err := de.Info()
		if err != nil {
			continue
		}

		if manifest, err := readManifest(path, de.IsDir()); err == nil {
			entry.Type = manifest.Type
			entry.Timestamp = manifest.Timestamp
			entry.CreatedAt = manifest.CreatedAt
			entry.Compressed = manifest.Compressed
			entry.Components = manifest.FilesBackedUp
		} else {
			entry.Type = "unknown"
			entry.Timestamp = info.ModTime().Format("20060102_150405")
			entry.CreatedAt = info.ModTime()
			entry.Compressed = strings.HasSuffix(de.Name(), ".zip")
		}

		if size, err := pathSize(path); err == nil {
			entry.SizeBytes = size
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func readManifest(path string, isDir bool) (*Manifest, error) {
	var data []byte
	var err error
	if isDir {
		data, err = os.ReadFile(filepath.Join(path, manifestName))
	} else {
		data, err = readZipFile(path, manifestName)
	}
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// CleanupRetention removes the oldest artifacts beyond MaxBackups.
// Deletion is immediate and permanent.
func (m *Manager) CleanupRetention() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleanupLocked()
}

func (m *Manager) cleanupLocked() error {
	max := m.cfg.MaxBackups
	if max <= 0 {
		return nil // retention disabled
	}
	entries, err := m.ListBackups()
	if err != nil {
		return err
	}
	for _, entry := range entries[min(max, len(entries)):] {
		if err := os.RemoveAll(entry.Path); err != nil {
			return err
		}
		m.log.Info().Str("artifact", entry.Name).Msg("pruned old backup")
	}
	return nil
}

// uniquePath returns a path under the backup dir that does not exist
// yet, suffixing a counter when two backups land in the same second.
func (m *Manager) uniquePath(name string) string {
	path := filepath.Join(m.backupDir, name)
	for i := 2; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if _, err := os.Stat(path + ".zip"); os.IsNotExist(err) {
				return path
			}
		}
		path = filepath.Join(m.backupDir, fmt.Sprintf("%s_%d", name, i))
	}
}
