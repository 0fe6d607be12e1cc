package directive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinsRegistry(t *testing.T) {
	r, err := Builtins()
	require.NoError(t, err)

	assert.Equal(t, []string{"CRITIQUE", "DUMP", "GENERATE"}, r.Names())

	for _, name := range r.Names() {
		d, err := r.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, d.Name)
		assert.True(t, d.BuiltIn)
		assert.NotEmpty(t, d.Summary)
		assert.NotEmpty(t, d.Instruction)
	}

	dump, err := r.Lookup("DUMP")
	require.NoError(t, err)
	critique, err := r.Lookup("CRITIQUE")
	require.NoError(t, err)
	assert.NotEqual(t, dump.Instruction, critique.Instruction)
}

func TestLookupCaseInsensitive(t *testing.T) {
	r, err := Builtins()
	require.NoError(t, err)

	for _, input := range []string{"critique", "Critique", "CRITIQUE", "  critique  "} {
		d, err := r.Lookup(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, "CRITIQUE", d.Name)
	}
}

func TestLookupUnknown(t *testing.T) {
	r, err := Builtins()
	require.NoError(t, err)

	_, err = r.Lookup("POLISH")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknown))
	assert.Contains(t, err.Error(), "POLISH")
}

func TestAllSortedByName(t *testing.T) {
	r, err := Builtins()
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "CRITIQUE", all[0].Name)
	assert.Equal(t, "DUMP", all[1].Name)
	assert.Equal(t, "GENERATE", all[2].Name)
}

func TestLoadDirAddsDirective(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "polish.cue", `
directive: POLISH: {
	summary:     "Smooth out rough sentences"
	instruction: "Polish the writing below sentence by sentence."
}
`)

	r, err := Builtins()
	require.NoError(t, err)

	count, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	d, err := r.Lookup("polish")
	require.NoError(t, err)
	assert.Equal(t, "POLISH", d.Name)
	assert.Equal(t, "Smooth out rough sentences", d.Summary)
	assert.False(t, d.BuiltIn)

	assert.Len(t, r.All(), 4)
}

func TestLoadDirOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "critique.cue", `
directive: CRITIQUE: {
	summary:     "House style critique"
	instruction: "Critique against the house style guide."
}
`)

	r, err := Builtins()
	require.NoError(t, err)

	count, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	d, err := r.Lookup("CRITIQUE")
	require.NoError(t, err)
	assert.Equal(t, "House style critique", d.Summary)
	assert.Equal(t, "Critique against the house style guide.", d.Instruction)
	assert.False(t, d.BuiltIn)

	// The other built-ins survive the overlay.
	assert.Len(t, r.All(), 3)
}

func TestLoadDirDefinitionSpansFiles(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "a.cue", `
directive: OUTLINE: summary: "Reduce the entries to an outline"
`)
	writeCUE(t, dir, "b.cue", `
directive: OUTLINE: instruction: "Outline the writing below as nested bullets."
`)

	r, err := Builtins()
	require.NoError(t, err)

	count, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	d, err := r.Lookup("OUTLINE")
	require.NoError(t, err)
	assert.Equal(t, "Reduce the entries to an outline", d.Summary)
}

func TestLoadDirEmptyDirectory(t *testing.T) {
	r, err := Builtins()
	require.NoError(t, err)

	count, err := r.LoadDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Len(t, r.All(), 3)
}

func TestLoadDirIgnoresNonCUEFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not cue"), 0o644))

	r, err := Builtins()
	require.NoError(t, err)

	count, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestLoadDirMissingDirectory(t *testing.T) {
	r, err := Builtins()
	require.NoError(t, err)

	_, err = r.LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadDirPathIsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.cue")
	require.NoError(t, os.WriteFile(path, []byte("directive: {}"), 0o644))

	r, err := Builtins()
	require.NoError(t, err)

	_, err = r.LoadDir(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestLoadDirMissingInstruction(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "bad.cue", `
directive: SLOPPY: {
	summary: "Missing the instruction field"
}
`)

	r, err := Builtins()
	require.NoError(t, err)

	_, err = r.LoadDir(dir)
	require.Error(t, err)

	var defErr *DefError
	require.True(t, errors.As(err, &defErr))
	assert.Equal(t, "SLOPPY", defErr.Directive)
}

func TestLoadDirEmptySummary(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "bad.cue", `
directive: HOLLOW: {
	summary:     ""
	instruction: "Has an instruction but no summary."
}
`)

	r, err := Builtins()
	require.NoError(t, err)

	_, err = r.LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOLLOW")
}

func TestLoadDirLowercaseNameRejected(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "bad.cue", `
directive: polish: {
	summary:     "Lowercase label"
	instruction: "Should fail the name pattern."
}
`)

	r, err := Builtins()
	require.NoError(t, err)

	_, err = r.LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "polish")
}

func TestLoadDirSyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "broken.cue", `directive: X: {`)

	r, err := Builtins()
	require.NoError(t, err)

	_, err = r.LoadDir(dir)
	require.Error(t, err)
}

func TestDefErrorFormatting(t *testing.T) {
	err := &DefError{Directive: "SLOPPY", Message: "instruction is required"}
	assert.Equal(t, "directive SLOPPY: instruction is required", err.Error())
}

func writeCUE(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
