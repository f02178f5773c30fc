package driven

// ConfigStore holds the persisted overrides for domain.Settings, addressed
// by dot-separated keys such as "drive.folder_id" or "embedding.provider".
// Keys that are absent fall back to domain.DefaultSettings.
type ConfigStore interface {
	// Get returns the raw value for key and whether it is set.
	Get(key string) (any, bool)

	// GetString returns key as a string, or "" when unset or not a string.
	GetString(key string) string

	// GetInt returns key as an int, or 0 when unset or not numeric.
	GetInt(key string) int

	// Set stores value under key and persists it before returning. A
	// failed write leaves the previous value in place.
	Set(key string, value any) error

	// Path returns the backing file.
	Path() string
}
