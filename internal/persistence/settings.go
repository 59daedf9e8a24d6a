package persistence

// Settings are the user-tunable application options persisted in the
// settings bundle.
type Settings struct {
	UITheme              string `json:"ui_theme"`
	AutoSave             bool   `json:"auto_save"`
	AutoSaveInterval     int    `json:"auto_save_interval"`
	BackupEnabled        bool   `json:"backup_enabled"`
	MaxBackupCount       int    `json:"max_backup_count"`
	AnalysisCacheTimeout int    `json:"analysis_cache_timeout"`
	DefaultExportFormat  string `json:"default_export_format"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// DefaultSettings are used when no settings bundle exists yet.
func DefaultSettings() Settings {
	return Settings{
		UITheme:              "light",
		AutoSave:             true,
		AutoSaveInterval:     300,
		BackupEnabled:        true,
		MaxBackupCount:       defaultMaxBackups,
		AnalysisCacheTimeout: int(defaultCacheTTL.Seconds()),
		DefaultExportFormat:  "xlsx",
		NotificationsEnabled: true,
	}
}
