// Package config implements the timestamp-prefixed, INI-like configuration
// file at the repository root: the per-folder marker model, its parser and
// canonical writer, the typed global settings, and the tag mutation
// operations the CLI exposes. It also provides the process-level concerns
// every command shares: flag binding and logging setup.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tagsplorer/tagsplorer/internal/norm"
)

// Config is the in-memory model of the root configuration file: a mapping
// from root-relative folder path (leading slash, empty string for the root)
// to its marker set, plus the decoded engine settings and the timestamp of
// the last store.
type Config struct {
	// Paths maps root-relative folder paths to their markers. The empty key
	// is the global section.
	Paths map[string]*Markers

	// Settings are the typed engine settings decoded from the global
	// section.
	Settings Settings

	// Timestamp is the first-line timestamp in milliseconds since epoch, as
	// read by Load or written by Store.
	Timestamp int64
}

// New returns an empty configuration with platform defaults.
func New() *Config {
	return &Config{
		Paths:    make(map[string]*Markers),
		Settings: DefaultSettings(),
	}
}

// NewWithDefaults returns a fresh configuration seeded with the default
// global skip names, as written by tp init.
func NewWithDefaults() *Config {
	c := New()
	g := c.ensureGlobal()
	g.Skipd = append(g.Skipd, DefaultSkipd...)
	return c
}

// Load reads the configuration file in dir. The first line is a decimal
// millisecond timestamp (integer or float tolerated). When indexTS is
// non-zero and equals that timestamp, Load returns false without parsing the
// body: the index built from this configuration is still current. Otherwise
// the body is parsed, recognized global settings are applied, and Load
// returns true.
func (c *Config) Load(dir string, indexTS int64) (bool, error) {
	path := filepath.Join(dir, ConfigName)
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open configuration %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	firstLine, err := br.ReadString('\n')
	if err != nil && firstLine == "" {
		return false, fmt.Errorf("read configuration timestamp from %s: %w", path, err)
	}
	ts, err := parseTimestamp(firstLine)
	if err != nil {
		return false, fmt.Errorf("parse configuration timestamp %q: %w", firstLine, err)
	}
	if indexTS != 0 && ts == indexTS {
		slog.Debug("index is up to date", "timestamp", ts)
		return false, nil
	}

	paths, err := parseBody(br)
	if err != nil {
		return false, fmt.Errorf("parse configuration %s: %w", path, err)
	}
	c.Paths = paths
	c.Timestamp = ts
	c.Settings = decodeSettings(c.GlobalEntries())
	slog.Debug("configuration loaded",
		"path", path,
		"sections", len(paths),
		"case_sensitive", c.Settings.CaseSensitive,
		"reduce_storage", c.Settings.ReduceStorage,
	)
	return true, nil
}

// Store writes the configuration to dir, prefixed by timestamp (current
// wall-clock milliseconds when zero). Sections, keys, and values are written
// in sorted order and the body ends with a blank line.
func (c *Config) Store(dir string, timestamp int64) error {
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}
	path := filepath.Join(dir, ConfigName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create configuration %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\n", timestamp); err != nil {
		return fmt.Errorf("write configuration timestamp: %w", err)
	}
	if err := writeBody(f, c.Paths); err != nil {
		return fmt.Errorf("write configuration %s: %w", path, err)
	}
	c.Timestamp = timestamp
	slog.Debug("configuration stored", "path", path, "timestamp", timestamp)
	return nil
}

// parseTimestamp parses a decimal millisecond timestamp, tolerating a
// fractional part.
func parseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ts, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// tagLine renders the canonical "tag;inc,inc;exc,exc" entry with sorted glob
// lists.
func tagLine(tag string, poss, negs []string) string {
	p := append([]string(nil), poss...)
	n := append([]string(nil), negs...)
	sort.Strings(p)
	sort.Strings(n)
	return fmt.Sprintf("%s;%s;%s", tag, strings.Join(p, ","), strings.Join(n, ","))
}

// AddTag appends one tag entry for folder unless the exact same line is
// already present. Whole-line equality is the only deduplication; force is
// accepted for call-site parity but does not relax the check. Reports whether
// the configuration was mutated.
func (c *Config) AddTag(folder, tag string, poss, negs []string, force bool) bool {
	line := tagLine(tag, poss, negs)
	section := c.Paths[folder]
	if section != nil {
		for _, existing := range section.Tag {
			if strings.TrimSpace(existing) == line {
				slog.Warn("tag already defined, skipping",
					"tag", tag,
					"folder", folder,
				)
				return false
			}
		}
	}
	if section == nil {
		section = &Markers{}
		c.Paths[folder] = section
	}
	section.Tag = append(section.Tag, line)
	slog.Info("tag added", "tag", tag, "folder", folder, "entry", line)
	return true
}

// DelTag removes the matching tag entry line(s) for folder. Reports whether
// any removal occurred.
func (c *Config) DelTag(folder, tag string, poss, negs []string) bool {
	line := tagLine(tag, poss, negs)
	section := c.Paths[folder]
	if section == nil {
		return false
	}
	kept := section.Tag[:0]
	found := false
	for _, existing := range section.Tag {
		if strings.TrimSpace(existing) == line {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	section.Tag = kept
	if found {
		slog.Info("tag removed", "tag", tag, "folder", folder, "entry", line)
	}
	return found
}

// ShowTags returns the tags derived implicitly from folder's path
// (constituents, their tokens, and folded forms under the given policy) and
// the configured tag entry lines for the folder, grouped by tag name in
// sorted order.
func (c *Config) ShowTags(folder string, n *norm.Normalizer) (derived, entries []string) {
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			derived = append(derived, s)
		}
	}
	for _, step := range norm.SafeSplit(folder, "/") {
		add(step)
		for _, tok := range norm.Tokenize(step) {
			add(tok)
		}
		add(n.Filenorm(step))
		for _, tok := range norm.Tokenize(n.Filenorm(step)) {
			add(tok)
		}
	}

	section := c.Paths[folder]
	if section == nil {
		return derived, nil
	}
	byTag := make(map[string][]string)
	for _, line := range section.Tag {
		name, _, _ := strings.Cut(line, ";")
		byTag[name] = append(byTag[name], line)
	}
	names := make([]string, 0, len(byTag))
	for name := range byTag {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entries = append(entries, byTag[name]...)
	}
	return derived, entries
}

// ensureGlobal returns the global section, creating it when absent.
func (c *Config) ensureGlobal() *Markers {
	g := c.Paths[""]
	if g == nil {
		g = &Markers{}
		c.Paths[""] = g
	}
	return g
}

// GlobalSkipd returns the global skip-dir name list.
func (c *Config) GlobalSkipd() []string {
	if g := c.Paths[""]; g != nil {
		return g.Skipd
	}
	return nil
}

// GlobalIgnored returns the global ignore-dir glob list.
func (c *Config) GlobalIgnored() []string {
	if g := c.Paths[""]; g != nil {
		return g.Ignored
	}
	return nil
}

// GlobalEntries returns the raw key=value settings entries of the global
// section.
func (c *Config) GlobalEntries() []string {
	if g := c.Paths[""]; g != nil {
		return g.Global
	}
	return nil
}

// AnyParentSkipped reports whether path or any of its ancestors carries a
// skip marker in the configuration.
func (c *Config) AnyParentSkipped(path string) bool {
	if m := c.Paths[""]; m != nil && m.Skip {
		return true
	}
	current := ""
	for _, elem := range norm.SafeSplit(path, "/") {
		current += "/" + elem
		if m := c.Paths[current]; m != nil && m.Skip {
			return true
		}
	}
	return false
}

// SetSetting updates or adds one recognized global setting and re-decodes the
// typed settings.
func (c *Config) SetSetting(key, value string) error {
	key = strings.ToLower(key)
	if !settingsKeys[key] {
		return fmt.Errorf("unknown setting %q", key)
	}
	g := c.ensureGlobal()
	entry := encodeSetting(key, value)
	for i, existing := range g.Global {
		name, _, _ := strings.Cut(existing, "=")
		if strings.ToLower(name) == key {
			g.Global[i] = entry
			c.Settings = decodeSettings(g.Global)
			return nil
		}
	}
	g.Global = append(g.Global, entry)
	c.Settings = decodeSettings(g.Global)
	return nil
}

// GetSetting returns the effective value of one recognized setting, rendered
// as it would appear in the configuration file.
func (c *Config) GetSetting(key string) (string, error) {
	key = strings.ToLower(key)
	switch key {
	case "case_sensitive":
		return strconv.FormatBool(c.Settings.CaseSensitive), nil
	case "reduce_storage":
		return strconv.FormatBool(c.Settings.ReduceStorage), nil
	case "compression":
		return strconv.Itoa(c.Settings.Compression), nil
	case "honor_gitignore":
		return strconv.FormatBool(c.Settings.HonorGitignore), nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

// UnsetSetting removes one setting entry, reverting it to its default.
// Reports whether an entry was removed.
func (c *Config) UnsetSetting(key string) (bool, error) {
	key = strings.ToLower(key)
	if !settingsKeys[key] {
		return false, fmt.Errorf("unknown setting %q", key)
	}
	g := c.Paths[""]
	if g == nil {
		return false, nil
	}
	kept := g.Global[:0]
	found := false
	for _, existing := range g.Global {
		name, _, _ := strings.Cut(existing, "=")
		if strings.ToLower(name) == key {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	g.Global = kept
	c.Settings = decodeSettings(g.Global)
	return found, nil
}

// ResetSettings removes all settings entries, reverting every setting to its
// default.
func (c *Config) ResetSettings() {
	if g := c.Paths[""]; g != nil {
		g.Global = nil
	}
	c.Settings = DefaultSettings()
}

// Clone returns a deep copy of the configuration. The index embeds a copy so
// later in-memory mutations do not leak into a stored index.
func (c *Config) Clone() *Config {
	out := &Config{
		Paths:     make(map[string]*Markers, len(c.Paths)),
		Settings:  c.Settings,
		Timestamp: c.Timestamp,
	}
	for path, m := range c.Paths {
		out.Paths[path] = m.clone()
	}
	return out
}
