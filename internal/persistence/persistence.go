// Package persistence stores the engine state as versioned JSON bundles with
// atomic replace, timestamped backups, payload checksums and a short-lived
// read cache.
package persistence

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/alibedirhan/Bup-Yonetim-sub000/internal/errors"
)

// Logical bundle names. The on-disk file is "<name>.json".
const (
	BundleAnalysis    = "analysis_data"
	BundleAssignments = "assignments_data"
	BundleSettings    = "settings"
)

const (
	envelopeVersion   = "1.0"
	backupTimeFormat  = "20060102_150405"
	defaultCacheTTL   = 300 * time.Second
	defaultMaxBackups = 10
)

// payloadKeys maps each bundle to the envelope key its payload lives under.
var payloadKeys = map[string]string{
	BundleAnalysis:    "analysis_results",
	BundleAssignments: "assignments",
	BundleSettings:    "settings",
}

// Options tune a Manager. Zero values fall back to the defaults above.
type Options struct {
	MaxBackups     int
	CacheTTL       time.Duration
	StrictChecksum bool
}

type cacheEntry struct {
	fields   map[string]json.RawMessage
	loadedAt time.Time
}

// Manager owns a data directory and its backups/ subdirectory.
type Manager struct {
	mu     sync.Mutex
	logger *slog.Logger
	dir    string
	opts   Options
	cache  map[string]cacheEntry
	now    func() time.Time
}

// NewManager creates the data and backup directories if needed.
func NewManager(logger *slog.Logger, dir string, opts Options) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = defaultMaxBackups
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}

	if err := os.MkdirAll(filepath.Join(dir, "backups"), 0o755); err != nil {
		return nil, apperrors.NewPersistence("init", "cannot create data directory", err)
	}

	return &Manager{
		logger: logger.With(slog.String("component", "persistence")),
		dir:    dir,
		opts:   opts,
		cache:  make(map[string]cacheEntry),
		now:    time.Now,
	}, nil
}

// Dir returns the data directory.
func (m *Manager) Dir() string { return m.dir }

// BackupsDir returns the backup directory.
func (m *Manager) BackupsDir() string { return filepath.Join(m.dir, "backups") }

func (m *Manager) bundlePath(name string) string {
	return filepath.Join(m.dir, name+".json")
}

// Save writes a bundle. fields are the payload-level envelope entries; the
// bundle's payload key must be among them. The envelope adds version,
// save_date and data_checksum, the checksum covering the canonical form of
// the primary payload.
func (m *Manager) Save(name string, fields map[string]any, metadata map[string]any) error {
	key, ok := payloadKeys[name]
	if !ok {
		return apperrors.NewPersistence("save", fmt.Sprintf("unknown bundle %q", name), nil)
	}
	payload, ok := fields[key]
	if !ok {
		return apperrors.NewPersistence("save", fmt.Sprintf("bundle %q is missing its %q payload", name, key), nil)
	}

	checksum, err := payloadChecksum(payload)
	if err != nil {
		return apperrors.NewPersistence("save", "cannot compute payload checksum", err)
	}

	envelope := map[string]any{
		"version":       envelopeVersion,
		"save_date":     m.now().Format(time.RFC3339),
		"data_checksum": checksum,
	}
	for k, v := range fields {
		envelope[k] = v
	}
	if metadata != nil {
		envelope["metadata"] = metadata
	}

	encoded, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return apperrors.NewPersistence("save", "cannot encode envelope", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.bundlePath(name)
	if _, statErr := os.Stat(target); statErr == nil {
		if backupErr := m.backupLocked(name, target); backupErr != nil {
			m.logger.Warn("backup before write failed",
				slog.String("bundle", name),
				slog.String("error", backupErr.Error()))
		}
	}

	if err := atomicWrite(target, encoded); err != nil {
		return apperrors.NewPersistence("save", fmt.Sprintf("cannot write bundle %q", name), err)
	}

	delete(m.cache, name)
	m.logger.Info("bundle saved",
		slog.String("bundle", name),
		slog.Int("bytes", len(encoded)))
	return nil
}

// Load reads a bundle's envelope. A missing bundle returns (nil, false, nil)
// so callers can start from empty state. A checksum mismatch is logged as an
// integrity warning; with StrictChecksum it becomes an error.
func (m *Manager) Load(name string) (map[string]json.RawMessage, bool, error) {
	key, ok := payloadKeys[name]
	if !ok {
		return nil, false, apperrors.NewPersistence("load", fmt.Sprintf("unknown bundle %q", name), nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, hit := m.cache[name]; hit && m.now().Sub(entry.loadedAt) < m.opts.CacheTTL {
		return entry.fields, true, nil
	}

	raw, err := os.ReadFile(m.bundlePath(name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.NewPersistence("load", fmt.Sprintf("cannot read bundle %q", name), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false, apperrors.NewPersistence("load", fmt.Sprintf("bundle %q is not valid JSON", name), err)
	}
	for _, required := range []string{"version", "save_date", key} {
		if _, present := fields[required]; !present {
			return nil, false, apperrors.NewPersistence("load", fmt.Sprintf("bundle %q is missing %q", name, required), nil)
		}
	}

	if err := m.verifyChecksum(name, key, fields); err != nil {
		return nil, false, err
	}

	m.cache[name] = cacheEntry{fields: fields, loadedAt: m.now()}
	return fields, true, nil
}

func (m *Manager) verifyChecksum(name, key string, fields map[string]json.RawMessage) error {
	declared, present := fields["data_checksum"]
	if !present {
		return nil
	}

	var want string
	if err := json.Unmarshal(declared, &want); err != nil {
		return nil
	}

	var payload any
	if err := json.Unmarshal(fields[key], &payload); err != nil {
		return nil
	}
	got, err := payloadChecksum(payload)
	if err != nil || got == want {
		return nil
	}

	m.logger.Warn("bundle checksum mismatch",
		slog.String("bundle", name),
		slog.String("declared", want),
		slog.String("computed", got))
	if m.opts.StrictChecksum {
		return apperrors.NewIntegrity(name, "payload checksum mismatch")
	}
	return nil
}

// Invalidate drops a bundle from the read cache.
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, name)
}

// backupLocked copies the current bundle file into backups/ and prunes old
// copies beyond the retention limit. Callers hold m.mu.
func (m *Manager) backupLocked(name, target string) error {
	stamp := m.now().Format(backupTimeFormat)
	backup := filepath.Join(m.BackupsDir(), fmt.Sprintf("%s_backup_%s.json", name, stamp))
	if err := copyFile(target, backup); err != nil {
		return err
	}
	return m.pruneBackupsLocked(name)
}

func (m *Manager) pruneBackupsLocked(name string) error {
	pattern := filepath.Join(m.BackupsDir(), name+"_backup_*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	if len(matches) <= m.opts.MaxBackups {
		return nil
	}

	// The timestamp suffix sorts lexically, oldest first.
	sort.Strings(matches)
	for _, stale := range matches[:len(matches)-m.opts.MaxBackups] {
		if err := os.Remove(stale); err != nil {
			m.logger.Warn("cannot remove stale backup",
				slog.String("path", stale),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// payloadChecksum hashes the canonical JSON form of the payload. Decoding
// into interface{} and re-encoding sorts all object keys.
func payloadChecksum(payload any) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	var canonical any
	if err := json.Unmarshal(encoded, &canonical); err != nil {
		return "", err
	}
	sorted, err := json.Marshal(canonical)
	if err != nil {
		return "", err
	}
	digest := md5.Sum(sorted)
	return hex.EncodeToString(digest[:]), nil
}

// atomicWrite lands data under path via a flushed sibling temp file and a
// rename, so readers observe either the old or the new content.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// BundleNames lists the known logical bundles in a stable order.
func BundleNames() []string {
	names := make([]string, 0, len(payloadKeys))
	for name := range payloadKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// trimExt strips the .json suffix from a file name, if present.
func trimExt(file string) string {
	return strings.TrimSuffix(filepath.Base(file), ".json")
}
