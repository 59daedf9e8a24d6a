package persistence

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestManager(t, Options{})
	store := NewStore(src)
	require.NoError(t, store.SaveAssignments(sampleSnapshot()))
	settings := DefaultSettings()
	settings.UITheme = "dark"
	require.NoError(t, store.SaveSettings(settings))

	exportPath := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, src.Export(exportPath))

	dst := newTestManager(t, Options{})
	report, err := dst.Import(context.Background(), exportPath)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{BundleAssignments, BundleSettings}, report.Imported)
	assert.Equal(t, []string{BundleAnalysis}, report.Skipped)
	assert.Empty(t, report.Failed)

	loaded, err := NewStore(dst).LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "dark", loaded.UITheme)

	snap, err := NewStore(dst).LoadAssignments()
	require.NoError(t, err)
	assert.Contains(t, snap.Assignments, "06")
}

func TestImportRefusesMalformedEnvelope(t *testing.T) {
	m := newTestManager(t, Options{})

	path := filepath.Join(t.TempDir(), "bogus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app":"something-else","bundles":{}}`), 0o644))

	_, err := m.Import(context.Background(), path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	_, err = m.Import(context.Background(), path)
	require.Error(t, err)
}

func TestImportReportsPartialFailure(t *testing.T) {
	src := newTestManager(t, Options{})
	require.NoError(t, NewStore(src).SaveSettings(DefaultSettings()))

	exportPath := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, src.Export(exportPath))

	// Corrupt the settings bundle inside the export, keep the header valid.
	raw, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	var export map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &export))

	var bundles map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(export["bundles"], &bundles))
	bundles[BundleSettings] = json.RawMessage(`{"version":"1.0"}`)
	patched, err := json.Marshal(bundles)
	require.NoError(t, err)
	export["bundles"] = patched
	repacked, err := json.Marshal(export)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(exportPath, repacked, 0o644))

	dst := newTestManager(t, Options{})
	report, err := dst.Import(context.Background(), exportPath)
	require.NoError(t, err)
	assert.Empty(t, report.Imported)
	assert.Contains(t, report.Failed, BundleSettings)
}

func TestImportTakesFullBackupFirst(t *testing.T) {
	m := newTestManager(t, Options{})
	require.NoError(t, NewStore(m).SaveSettings(DefaultSettings()))

	exportPath := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, m.Export(exportPath))

	_, err := m.Import(context.Background(), exportPath)
	require.NoError(t, err)

	snapshots, err := filepath.Glob(filepath.Join(m.BackupsDir(), "full_backup_*"))
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	copied, err := os.ReadFile(filepath.Join(snapshots[0], "settings.json"))
	require.NoError(t, err)
	assert.True(t, json.Valid(copied))
}

func TestFullBackupCopiesExistingBundles(t *testing.T) {
	m := newTestManager(t, Options{})
	store := NewStore(m)
	require.NoError(t, store.SaveSettings(DefaultSettings()))
	require.NoError(t, store.SaveAssignments(sampleSnapshot()))

	dir, err := m.FullBackup(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"settings.json", "assignments_data.json"}, names)
}
