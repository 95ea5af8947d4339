package compiler_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specforge/specforge/compiler"
	"github.com/specforge/specforge/gwt"
	"github.com/specforge/specforge/ir"
	"github.com/specforge/specforge/vocabulary"
	"github.com/specforge/specforge/vocabulary/vocabtest"
)

func TestCompileGWT(t *testing.T) {
	root := t.TempDir()
	vocabtest.WriteProject(t, root)
	vocab := vocabtest.Load(t)

	input := filepath.Join(root, "specs", "registration.txt")
	out, err := compiler.Compile(input, vocab, root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "specs", "registration.dal"), out.DAL)
	assert.Equal(t, filepath.Join(root, "specs", "registration.txt.canonical"), out.CanonicalGWT)
	assert.Equal(t, filepath.Join(root, ".specforge", "ir", "registration.json"), out.IR)
	assert.Equal(t, filepath.Join(root, ".specforge", "roundtrip", "registration.diff.txt"), out.Diff)

	for _, path := range []string{out.DAL, out.CanonicalGWT, out.IR, out.Diff} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}

	// The serialized IR and the compiled canonical output agree.
	loaded, err := ir.LoadFile(out.IR)
	require.NoError(t, err)
	canonical, err := os.ReadFile(out.CanonicalGWT)
	require.NoError(t, err)
	reparsed, err := gwt.Parse(string(canonical), out.CanonicalGWT, vocab)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(reparsed))

	dalText, err := os.ReadFile(out.DAL)
	require.NoError(t, err)
	assert.Contains(t, string(dalText), "FEATURE registration.")
	assert.Contains(t, string(dalText), `DO user_registers(email="bob@example.com", password="secret123").`)
}

func TestCompileDAL(t *testing.T) {
	root := t.TempDir()
	vocab := vocabtest.Load(t)

	specs := filepath.Join(root, "specs")
	require.NoError(t, os.MkdirAll(specs, 0o755))
	input := filepath.Join(specs, "registration.dal")
	require.NoError(t, os.WriteFile(input, []byte(vocabtest.DALSource), 0o644))

	out, err := compiler.Compile(input, vocab, root)
	require.NoError(t, err)

	assert.Empty(t, out.DAL)
	assert.Empty(t, out.Diff)

	canonical, err := os.ReadFile(out.CanonicalGWT)
	require.NoError(t, err)
	assert.Contains(t, string(canonical), `WHEN a user registers with email "bob@example.com" and password "secret123".`)

	loaded, err := ir.LoadFile(out.IR)
	require.NoError(t, err)
	assert.Equal(t, "registration", loaded.FeatureID)
}

func TestCompileUnsupportedExtension(t *testing.T) {
	root := t.TempDir()
	vocab := vocabtest.Load(t)

	input := filepath.Join(root, "notes.md")
	require.NoError(t, os.WriteFile(input, []byte("# not a spec"), 0o644))

	_, err := compiler.Compile(input, vocab, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected .txt or .dal")
}

func TestCompileParseErrorWritesNothing(t *testing.T) {
	root := t.TempDir()
	vocab := vocabtest.Load(t)

	specs := filepath.Join(root, "specs")
	require.NoError(t, os.MkdirAll(specs, 0o755))
	input := filepath.Join(specs, "broken.txt")
	require.NoError(t, os.WriteFile(input, []byte("GIVEN something the vocabulary never saw.\n"), 0o644))

	_, err := compiler.Compile(input, vocab, root)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(specs, "broken.dal"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(root, ".specforge"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCompileDiffRecordsCanonicalization(t *testing.T) {
	root := t.TempDir()
	vocab := vocabtest.Load(t)

	specs := filepath.Join(root, "specs")
	require.NoError(t, os.MkdirAll(specs, 0o755))

	// Headerless free text differs from canonical output, so the diff
	// artifact is non-empty.
	source := `GIVEN no registered users.
WHEN a user registers with email "bob@example.com".
THEN there is 1 registered user.
`
	input := filepath.Join(specs, "loose.txt")
	require.NoError(t, os.WriteFile(input, []byte(source), 0o644))

	out, err := compiler.Compile(input, vocab, root)
	require.NoError(t, err)

	diff, err := os.ReadFile(out.Diff)
	require.NoError(t, err)
	assert.Contains(t, string(diff), "+; GENERATED FILE - DO NOT EDIT")
	assert.Contains(t, string(diff), `+WHEN a user registers with email "bob@example.com" and password "secret123".`)
}

func TestVerifyRoundtrip(t *testing.T) {
	root := t.TempDir()
	vocabtest.WriteProject(t, root)
	vocab := vocabtest.Load(t)

	require.NoError(t, compiler.VerifyRoundtrip(filepath.Join(root, "specs", "registration.txt"), vocab))

	_, err := os.Stat(filepath.Join(root, ".specforge"))
	assert.True(t, os.IsNotExist(err), "verify must not write artifacts")
}

func TestCompileWithRealVocabularyFile(t *testing.T) {
	root := t.TempDir()
	vocabPath := vocabtest.WriteProject(t, root)

	vocab, err := vocabulary.Load(vocabPath)
	require.NoError(t, err)

	_, err = compiler.Compile(filepath.Join(root, "specs", "registration.txt"), vocab, root)
	require.NoError(t, err)
}
