package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/alibedirhan/Bup-Yonetim-sub000/internal/errors"
)

const appName = "bupilic-yaslandirma"

// exportHeader identifies an aggregate export file.
type exportHeader struct {
	ExportedAt string `json:"exported_at"`
	App        string `json:"app"`
	Version    string `json:"version"`
}

// aggregateExport carries all three bundles in one file.
type aggregateExport struct {
	exportHeader
	Bundles map[string]json.RawMessage `json:"bundles"`
}

// ImportReport lists per-bundle outcomes of an import.
type ImportReport struct {
	Imported []string
	Skipped  []string
	Failed   map[string]string
}

// Export writes every existing bundle into one aggregate JSON file at path.
func (m *Manager) Export(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	export := aggregateExport{
		exportHeader: exportHeader{
			ExportedAt: m.now().Format(time.RFC3339),
			App:        appName,
			Version:    envelopeVersion,
		},
		Bundles: make(map[string]json.RawMessage),
	}

	for _, name := range BundleNames() {
		raw, err := os.ReadFile(m.bundlePath(name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return apperrors.NewPersistence("export", fmt.Sprintf("cannot read bundle %q", name), err)
		}
		if !json.Valid(raw) {
			return apperrors.NewPersistence("export", fmt.Sprintf("bundle %q on disk is not valid JSON", name), nil)
		}
		export.Bundles[name] = raw
	}

	encoded, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return apperrors.NewPersistence("export", "cannot encode aggregate export", err)
	}
	if err := atomicWrite(path, encoded); err != nil {
		return apperrors.NewPersistence("export", "cannot write export file", err)
	}

	m.logger.Info("aggregate export written",
		slog.String("path", path),
		slog.Int("bundles", len(export.Bundles)))
	return nil
}

// Import reads an aggregate export and replays each bundle through the
// normal write protocol. A malformed envelope is refused outright; otherwise
// the current state is snapshotted first and per-bundle failures are
// reported without aborting the rest.
func (m *Manager) Import(ctx context.Context, path string) (*ImportReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewPersistence("import", "cannot read import file", err)
	}

	var export aggregateExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, apperrors.NewPersistence("import", "import file is not valid JSON", err)
	}
	if export.App != appName || export.Bundles == nil {
		return nil, apperrors.NewPersistence("import", "import file is not a recognized aggregate export", nil)
	}

	if _, err := m.FullBackup(ctx); err != nil {
		return nil, err
	}

	report := &ImportReport{Failed: make(map[string]string)}
	for _, name := range BundleNames() {
		envelope, present := export.Bundles[name]
		if !present {
			report.Skipped = append(report.Skipped, name)
			continue
		}
		if err := m.importBundle(name, envelope); err != nil {
			report.Failed[name] = err.Error()
			m.logger.Warn("bundle import failed",
				slog.String("bundle", name),
				slog.String("error", err.Error()))
			continue
		}
		report.Imported = append(report.Imported, name)
	}

	m.logger.Info("aggregate import finished",
		slog.Int("imported", len(report.Imported)),
		slog.Int("failed", len(report.Failed)))
	return report, nil
}

func (m *Manager) importBundle(name string, envelope json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(envelope, &fields); err != nil {
		return fmt.Errorf("bundle envelope is not a JSON object: %w", err)
	}

	key := payloadKeys[name]
	for _, required := range []string{"version", "save_date", key} {
		if _, present := fields[required]; !present {
			return fmt.Errorf("bundle envelope is missing %q", required)
		}
	}

	// Re-save through the normal protocol; the envelope gets a fresh
	// save_date and checksum.
	payloadFields := make(map[string]any)
	var metadata map[string]any
	for k, v := range fields {
		switch k {
		case "version", "save_date", "data_checksum":
			continue
		case "metadata":
			_ = json.Unmarshal(v, &metadata)
		default:
			var value any
			if err := json.Unmarshal(v, &value); err != nil {
				return fmt.Errorf("field %q is malformed: %w", k, err)
			}
			payloadFields[k] = value
		}
	}
	return m.Save(name, payloadFields, metadata)
}

// FullBackup copies every existing bundle into a timestamped snapshot
// directory under backups/, copying the bundles concurrently. It returns the
// snapshot directory path.
func (m *Manager) FullBackup(ctx context.Context) (string, error) {
	snapshotDir := filepath.Join(m.BackupsDir(), "full_backup_"+m.now().Format(backupTimeFormat))
	if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
		return "", apperrors.NewPersistence("backup", "cannot create snapshot directory", err)
	}

	g, _ := errgroup.WithContext(ctx)
	for _, name := range BundleNames() {
		src := m.bundlePath(name)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		dst := filepath.Join(snapshotDir, name+".json")
		g.Go(func() error {
			if err := copyFile(src, dst); err != nil {
				return fmt.Errorf("bundle %s: %w", trimExt(src), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", apperrors.NewPersistence("backup", "full backup incomplete", err)
	}

	m.logger.Info("full backup created", slog.String("dir", snapshotDir))
	return snapshotDir, nil
}
