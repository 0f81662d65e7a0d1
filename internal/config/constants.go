package config

// On-disk artifact names. These are fixed by the repository format and shared
// with every other implementation that reads the same trees.
const (
	// ConfigName is the user-edited configuration file at the root.
	ConfigName = ".tagsplorer.cfg"

	// IndexName is the binary index file, rebuilt whenever the configuration
	// changes.
	IndexName = ".tagsplorer.idx"

	// SkipFileName is the zero-byte marker that excludes a folder and its
	// subtree from indexing.
	SkipFileName = ".tagsplorer.skp"

	// IgnoreFileName is the zero-byte marker that excludes a folder's own
	// name and contents from indexing while recursion continues.
	IgnoreFileName = ".tagsplorer.ign"
)

// Configuration file keys.
const (
	keyTag     = "tag"
	keyFrom    = "from"
	keySkip    = "skip"
	keyIgnore  = "ignore"
	keySkipd   = "skipd"
	keyIgnored = "ignored"
	keyGlobal  = "global"
)

// DefaultSkipd seeds the global skip list of a fresh configuration with
// folder names that are never worth indexing.
var DefaultSkipd = []string{".git", ".svn", "$RECYCLE.BIN", "System Volume Information"}
