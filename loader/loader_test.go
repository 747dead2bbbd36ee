package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taylorza/zopt/config"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunFileRewritesInPlaceAtomically(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeTemp(t, dir, "rules.opt", "pattern:\nld a, 0\nreplacement:\nxor a\n")
	inputPath := writeTemp(t, dir, "program.asm", "ld a, 0\nret\n")

	eng, err := LoadRules(rulesPath, config.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, RunFile(eng, inputPath))

	out, err := os.ReadFile(inputPath)
	require.NoError(t, err)
	require.Equal(t, "xor a\nret\n", string(out))

	_, err = os.Stat(inputPath + ".tmp")
	require.True(t, os.IsNotExist(err), "temp file should not survive a successful run")
}

func TestLoadRulesMissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.opt"), config.DefaultConfig())
	require.Error(t, err)
}

func TestRunFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeTemp(t, dir, "rules.opt", "pattern:\na\nreplacement:\nb\n")
	eng, err := LoadRules(rulesPath, config.DefaultConfig())
	require.NoError(t, err)

	err = RunFile(eng, filepath.Join(dir, "missing.asm"))
	require.Error(t, err)
}

func TestRunFileAcceptsCRLFAndBareCR(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeTemp(t, dir, "rules.opt", "pattern:\nld a, 0\nreplacement:\nxor a\n")
	inputPath := writeTemp(t, dir, "program.asm", "ld a, 0\r\nret\rnop\n")

	eng, err := LoadRules(rulesPath, config.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, RunFile(eng, inputPath))

	out, err := os.ReadFile(inputPath)
	require.NoError(t, err)
	require.Equal(t, "xor a\nret\nnop\n", string(out))
}

func TestEmptyRuleFileIsIdentityOnDisk(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeTemp(t, dir, "rules.opt", "")
	inputPath := writeTemp(t, dir, "program.asm", "push bc\npop bc\nret\n")

	eng, err := LoadRules(rulesPath, config.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, RunFile(eng, inputPath))

	out, err := os.ReadFile(inputPath)
	require.NoError(t, err)
	require.Equal(t, "push bc\npop bc\nret\n", string(out))
}
