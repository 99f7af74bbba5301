package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/model"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`store:
  driver: sqlite
  path: %s
log:
  mode: dev
  level: error
  file: %s
`, filepath.Join(dir, "studio.db"), filepath.Join(dir, "studio.log"))
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func execute(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--user", "u1"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestProjectsChaptersAndExport(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, cfg, "projects", "create", "The Long Night", "--goal", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, `Created "The Long Night"`)

	out, err = execute(t, cfg, "projects", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "The Long Night")
	assert.Contains(t, out, "0 / 1000")

	_, err = execute(t, cfg, "chapters", "add", "Arrival")
	require.NoError(t, err)
	out, err = execute(t, cfg, "chapters", "add", "--project", "the long night")
	require.NoError(t, err)
	assert.Contains(t, out, `"Chapter 2"`)

	out, err = execute(t, cfg, "chapters", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Arrival")
	assert.Contains(t, out, "Chapter 2")

	out, err = execute(t, cfg, "export", "--out", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Chapter 1: Arrival")
	assert.Contains(t, out, "Chapter 2: Chapter 2")

	out, err = execute(t, cfg, "export", "--scope", "chapter", "--chapter", "2", "--out", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Chapter 2: Chapter 2")
	assert.NotContains(t, out, "Arrival")

	_, err = execute(t, cfg, "export", "--scope", "chapter", "--out", "-")
	assert.Error(t, err)
}

func TestExportUnknownProject(t *testing.T) {
	cfg := writeConfig(t)
	_, err := execute(t, cfg, "export", "--project", "missing")
	assert.ErrorContains(t, err, `no project matches "missing"`)
}

func TestServeNeedsSecret(t *testing.T) {
	cfg := writeConfig(t)
	_, err := execute(t, cfg, "serve")
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestFindChapter(t *testing.T) {
	chapters := []model.Chapter{{ID: "a", Title: "Arrival"}, {ID: "b", Title: "Storm"}}

	for ref, want := range map[string]string{"2": "b", "a": "a", "storm": "b"} {
		ch, err := findChapter(chapters, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, want, ch.ID, ref)
	}

	_, err := findChapter(chapters, "3")
	assert.Error(t, err)
}
