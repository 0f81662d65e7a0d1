package norm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizer_Filenorm(t *testing.T) {
	t.Parallel()

	sensitive := New(true)
	insensitive := New(false)

	assert.Equal(t, "Abc", sensitive.Filenorm("Abc"))
	assert.Equal(t, "ABC", insensitive.Filenorm("Abc"))
	assert.Equal(t, "", insensitive.Filenorm(""))
}

func TestNormalizer_GlobMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		value         string
		pattern       string
		caseSensitive bool
		want          bool
	}{
		{name: "question mark case mismatch", value: "abc", pattern: "?Bc", caseSensitive: true, want: false},
		{name: "question mark case folded", value: "abc", pattern: "?Bc", caseSensitive: false, want: true},
		{name: "star run", value: "file3.ext1", pattern: "file*", caseSensitive: true, want: true},
		{name: "question mark needs one char", value: "ab", pattern: "a?b", caseSensitive: true, want: false},
		{name: "plain pattern equals", value: "sdf.txt", pattern: "sdf.txt", caseSensitive: true, want: true},
		{name: "plain pattern differs", value: "sdf.txt", pattern: "sdf.txd", caseSensitive: true, want: false},
		{name: "folder glob", value: "folders", pattern: "folder?", caseSensitive: true, want: true},
		{name: "folded both sides", value: "dot.folder", pattern: "DOT*", caseSensitive: false, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n := New(tt.caseSensitive)
			assert.Equal(t, tt.want, n.GlobMatch(tt.value, tt.pattern))
		})
	}
}

func TestNormalizer_GlobFilter(t *testing.T) {
	t.Parallel()

	sensitive := New(true)
	insensitive := New(false)

	assert.Equal(t, []string{"ab1"}, sensitive.GlobFilter([]string{"ab1", "Ab2"}, "a??"))
	assert.Equal(t, []string{"ab1", "Ab2"}, insensitive.GlobFilter([]string{"ab1", "Ab2"}, "a??"))
	assert.Equal(t, []string{"ab", "Ab"}, insensitive.GlobFilter([]string{"ab", "Ab"}, "a?"))
	assert.Empty(t, sensitive.GlobFilter(nil, "*"))
}

func TestNormalizer_PolicySwitchTakesEffect(t *testing.T) {
	t.Parallel()

	n := New(true)
	assert.False(t, n.GlobMatch("abc", "?Bc"))
	n.SetCaseSensitive(false)
	assert.True(t, n.GlobMatch("abc", "?Bc"))
}

func TestIsGlob(t *testing.T) {
	t.Parallel()

	assert.True(t, IsGlob("a*b.jp?"))
	assert.True(t, IsGlob("folder?"))
	assert.False(t, IsGlob("sdf.txt"))
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "dots split", input: "dot.folder", want: []string{"dot", "folder"}},
		{name: "full name excluded", input: "plain", want: nil},
		{name: "mixed separators", input: "a-b_c d", want: []string{"a", "b", "c", "d"}},
		{name: "duplicate tokens collapse", input: "x.x", want: []string{"x"}},
		{name: "duplicates among distinct", input: "x.x.y", want: []string{"x", "y"}},
		{name: "leading separator drops empty token", input: ".hidden", want: []string{"hidden"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestSafeSplit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "d"}, SafeSplit("a,b,,d", ","))
	assert.Equal(t, []string{"x"}, SafeSplit(",x,", ","))
	assert.Empty(t, SafeSplit(",", ","))
	assert.Equal(t, []string{"a", "b"}, SafeSplit("/a/b", "/"))
}

func TestConstituentInPath(t *testing.T) {
	t.Parallel()

	assert.True(t, ConstituentInPath("/a", "a"))
	assert.True(t, ConstituentInPath("/a/b/c", "b"))
	assert.False(t, ConstituentInPath("/ab/c", "a"))
	assert.False(t, ConstituentInPath("/b", "a"))
}

func TestPathHasGlobalSkip(t *testing.T) {
	t.Parallel()

	assert.True(t, PathHasGlobalSkip("/a", []string{"a"}))
	assert.False(t, PathHasGlobalSkip("/b", []string{"a"}))
	assert.True(t, PathHasGlobalSkip("/a/b/c", []string{"b"}))
}

func TestPathHasGlobalIgnore(t *testing.T) {
	t.Parallel()

	sensitive := New(true)
	insensitive := New(false)

	assert.True(t, sensitive.PathHasGlobalIgnore("/a/b", []string{"b"}))
	assert.False(t, sensitive.PathHasGlobalIgnore("/a/b", []string{"B"}))
	assert.True(t, insensitive.PathHasGlobalIgnore("/a/b", []string{"B"}))
	assert.False(t, insensitive.PathHasGlobalIgnore("/a/b", []string{"c"}))
	assert.True(t, sensitive.PathHasGlobalIgnore("", []string{""}))
	assert.False(t, sensitive.PathHasGlobalIgnore("", []string{"a"}))
}
