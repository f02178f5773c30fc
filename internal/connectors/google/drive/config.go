package drive

import "github.com/LeonardSibelius/engineroom-ai/internal/core/domain"

// listFields restricts listing responses to what the sync decision needs.
const listFields = "nextPageToken, files(id, name, modifiedTime, size)"

// Config holds Google Drive client configuration.
type Config struct {
	// PageSize is the page size for listing requests.
	PageSize int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{PageSize: domain.DefaultDrivePageSize}
}

// ConfigFromSettings derives a Config from the Drive settings. A
// non-positive page size falls back to the default.
func ConfigFromSettings(s domain.DriveSettings) *Config {
	cfg := DefaultConfig()
	if s.PageSize > 0 {
		cfg.PageSize = s.PageSize
	}
	return cfg
}
