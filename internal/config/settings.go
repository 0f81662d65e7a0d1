package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// Settings holds the typed engine settings decoded from the global section's
// "global" entries.
type Settings struct {
	// CaseSensitive controls whether name matching and search are
	// case-sensitive. Defaults to true on POSIX and false on Windows.
	CaseSensitive bool `koanf:"case_sensitive"`

	// ReduceStorage stores only case-folded names in the index when true;
	// otherwise both the literal and folded form are stored when they differ.
	ReduceStorage bool `koanf:"reduce_storage"`

	// Compression is the zlib level (1-9) applied to the serialized index,
	// or 0 for raw bytes.
	Compression int `koanf:"compression"`

	// HonorGitignore additionally skips directories matched by a .gitignore
	// at the root during the crawl.
	HonorGitignore bool `koanf:"honor_gitignore"`
}

// DefaultSettings returns the platform-dependent settings defaults.
func DefaultSettings() Settings {
	return Settings{
		CaseSensitive: runtime.GOOS != "windows",
		ReduceStorage: false,
		Compression:   2,
	}
}

// settingsKeys enumerates the recognized setting names. Entries with other
// keys are preserved in the configuration but logged and ignored here.
var settingsKeys = map[string]bool{
	"case_sensitive":  true,
	"reduce_storage":  true,
	"compression":     true,
	"honor_gitignore": true,
}

// decodeSettings parses "key=value" entries into a Settings struct layered
// over the defaults. Unrecognized keys produce a warning; malformed entries
// are skipped.
func decodeSettings(entries []string) Settings {
	values := map[string]interface{}{}
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			slog.Warn("malformed global setting, skipping", "entry", entry)
			continue
		}
		if !settingsKeys[key] {
			slog.Warn("unknown global setting, skipping", "key", key)
			continue
		}
		values[key] = strings.TrimSpace(value)
	}

	k := koanf.New(".")
	settings := DefaultSettings()
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		slog.Warn("loading global settings", "error", err)
		return settings
	}
	if err := k.Unmarshal("", &settings); err != nil {
		slog.Warn("decoding global settings", "error", err)
		return DefaultSettings()
	}
	return settings
}

// encodeSetting renders one key=value entry the way Store writes it.
func encodeSetting(key, value string) string {
	return fmt.Sprintf("%s=%s", strings.ToLower(key), value)
}
