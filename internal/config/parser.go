package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// Markers is the per-folder marker set parsed from one configuration section.
type Markers struct {
	// Tag holds "name;inc,inc;exc,exc" entries.
	Tag []string

	// From holds folder paths whose manual tags are mirrored into this
	// folder. Entries are root-absolute (leading slash) or folder-relative.
	From []string

	// Skip excludes the folder and its entire subtree from indexing.
	Skip bool

	// Ignore excludes the folder's own name and contents from indexing while
	// recursion continues.
	Ignore bool

	// Skipd, Ignored, and Global are only meaningful in the global (empty
	// title) section: folder-name skip globs, folder-name ignore globs, and
	// raw key=value engine settings.
	Skipd   []string
	Ignored []string
	Global  []string
}

// empty reports whether the section would serialize to nothing.
func (m *Markers) empty() bool {
	return m == nil || (!m.Skip && !m.Ignore &&
		len(m.Tag) == 0 && len(m.From) == 0 &&
		len(m.Skipd) == 0 && len(m.Ignored) == 0 && len(m.Global) == 0)
}

// clone returns a deep copy of the marker set.
func (m *Markers) clone() *Markers {
	if m == nil {
		return nil
	}
	out := &Markers{Skip: m.Skip, Ignore: m.Ignore}
	out.Tag = append(out.Tag, m.Tag...)
	out.From = append(out.From, m.From...)
	out.Skipd = append(out.Skipd, m.Skipd...)
	out.Ignored = append(out.Ignored, m.Ignored...)
	out.Global = append(out.Global, m.Global...)
	return out
}

// parseBody reads the INI-like configuration body into a paths map. Lines are
// trimmed; a blank line terminates parsing. Multi-valued keys accumulate;
// valueless skip/ignore lines become boolean markers. Unrecognized keys are
// logged and skipped.
func parseBody(r io.Reader) (map[string]*Markers, error) {
	paths := make(map[string]*Markers)
	title := ""
	section := &Markers{}
	flush := func() {
		if !section.empty() {
			paths[title] = section
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			end := strings.Index(line, "]")
			if end < 0 {
				slog.Warn("unterminated section header, skipping", "line", line)
				continue
			}
			flush()
			title = line[1:end]
			section = &Markers{}
			continue
		}
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			slog.Warn("key without value for illegal entry, skipping", "line", line)
			continue
		}
		key = strings.ToLower(key)
		switch {
		case value != "" && key == keyTag:
			section.Tag = append(section.Tag, value)
		case value != "" && key == keyFrom:
			section.From = append(section.From, value)
		case value != "" && title == "" && key == keySkipd:
			section.Skipd = append(section.Skipd, value)
		case value != "" && title == "" && key == keyIgnored:
			section.Ignored = append(section.Ignored, value)
		case value != "" && title == "" && key == keyGlobal:
			section.Global = append(section.Global, value)
		case key == keySkip:
			section.Skip = true
		case key == keyIgnore:
			section.Ignore = true
		default:
			slog.Warn("illegal configuration key, skipping", "key", key, "section", title)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading configuration body: %w", err)
	}
	flush()
	return paths, nil
}

// writeBody serializes the paths map in the canonical order: sections sorted
// by title, keys sorted ascending within a section, values sorted ascending
// per key, valueless markers emitted as "key=". A single blank line
// terminates the body.
func writeBody(w io.Writer, paths map[string]*Markers) error {
	titles := make([]string, 0, len(paths))
	for title := range paths {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	for _, title := range titles {
		section := paths[title]
		if section.empty() {
			continue
		}
		if _, err := fmt.Fprintf(w, "[%s]\n", title); err != nil {
			return err
		}
		// Key emission order matches the ascending sort over present keys.
		type entry struct {
			key    string
			values []string // nil for valueless markers
		}
		var entries []entry
		if len(section.From) > 0 {
			entries = append(entries, entry{keyFrom, section.From})
		}
		if len(section.Global) > 0 {
			entries = append(entries, entry{keyGlobal, section.Global})
		}
		if section.Ignore {
			entries = append(entries, entry{keyIgnore, nil})
		}
		if len(section.Ignored) > 0 {
			entries = append(entries, entry{keyIgnored, section.Ignored})
		}
		if section.Skip {
			entries = append(entries, entry{keySkip, nil})
		}
		if len(section.Skipd) > 0 {
			entries = append(entries, entry{keySkipd, section.Skipd})
		}
		if len(section.Tag) > 0 {
			entries = append(entries, entry{keyTag, section.Tag})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
		for _, e := range entries {
			if e.values == nil {
				if _, err := fmt.Fprintf(w, "%s=\n", e.key); err != nil {
					return err
				}
				continue
			}
			values := append([]string(nil), e.values...)
			sort.Strings(values)
			for _, v := range values {
				if _, err := fmt.Fprintf(w, "%s=%s\n", e.key, v); err != nil {
					return err
				}
			}
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

// EncodeBody serializes the configuration body (without the timestamp line)
// into the canonical text form. The index codec embeds this so a loaded index
// carries the configuration it was built from.
func (c *Config) EncodeBody() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeBody(&buf, c.Paths); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBody parses a configuration body serialized by EncodeBody and decodes
// its global settings.
func DecodeBody(data []byte) (*Config, error) {
	paths, err := parseBody(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c := &Config{Paths: paths}
	c.Settings = decodeSettings(c.GlobalEntries())
	return c, nil
}
