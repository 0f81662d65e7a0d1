package buildinfo

import "testing"

func TestBuildMetadataDefaults(t *testing.T) {
	// The ldflags variables have sensible defaults when not injected
	// (i.e., during go test).
	for name, value := range map[string]string{
		"Version":   Version,
		"Commit":    Commit,
		"Date":      Date,
		"GoVersion": GoVersion,
		"OS":        OS(),
		"Arch":      Arch(),
	} {
		if value == "" {
			t.Errorf("%s should not be empty", name)
		}
	}
}
