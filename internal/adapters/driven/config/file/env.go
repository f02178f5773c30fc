package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
)

// Ensure EnvOverlay implements the interface.
var _ driven.ConfigStore = (*EnvOverlay)(nil)

// DefaultEnvBindings maps config keys to the environment variables that
// override them.
func DefaultEnvBindings() map[string]string {
	return map[string]string{
		"books_dir":          "BOOKS_DIR",
		"data_dir":           "ENGINEROOM_DATA_DIR",
		"drive.folder_id":    "DRIVE_FOLDER_ID",
		"drive.token_path":   "DRIVE_TOKEN_PATH",
		"embedding.provider": "ENGINEROOM_EMBEDDING_PROVIDER",
		"embedding.api_key":  "OPENAI_API_KEY",
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables already set are not overwritten and missing files
// are skipped. With no paths, ./.env is tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// EnvOverlay layers environment variables over a ConfigStore. Reads
// prefer a non-empty bound variable; writes go to the underlying store.
type EnvOverlay struct {
	driven.ConfigStore
	bindings map[string]string
	lookup   func(string) (string, bool)
}

// NewEnvOverlay wraps store with the given key-to-variable bindings.
// A nil bindings map uses DefaultEnvBindings.
func NewEnvOverlay(store driven.ConfigStore, bindings map[string]string) *EnvOverlay {
	if bindings == nil {
		bindings = DefaultEnvBindings()
	}
	return &EnvOverlay{
		ConfigStore: store,
		bindings:    bindings,
		lookup:      os.LookupEnv,
	}
}

// Get returns the bound environment value when set, else the stored value.
func (o *EnvOverlay) Get(key string) (any, bool) {
	if v, ok := o.env(key); ok {
		return v, true
	}
	return o.ConfigStore.Get(key)
}

// GetString retrieves a string value.
func (o *EnvOverlay) GetString(key string) string {
	if v, ok := o.env(key); ok {
		return v
	}
	return o.ConfigStore.GetString(key)
}

// GetInt retrieves an integer value. An unparsable variable is ignored.
func (o *EnvOverlay) GetInt(key string) int {
	if v, ok := o.env(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return o.ConfigStore.GetInt(key)
}

// Source reports where key's effective value comes from: the variable
// name, "config" or "" when unset.
func (o *EnvOverlay) Source(key string) string {
	if _, ok := o.env(key); ok {
		return "$" + o.bindings[key]
	}
	if _, ok := o.ConfigStore.Get(key); ok {
		return "config"
	}
	return ""
}

func (o *EnvOverlay) env(key string) (string, bool) {
	name, bound := o.bindings[key]
	if !bound {
		return "", false
	}
	v, ok := o.lookup(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
