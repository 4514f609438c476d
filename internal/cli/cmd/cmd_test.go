package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawabatas/payroll-batch/internal/domain/model"
	"github.com/kawabatas/payroll-batch/internal/infra/config"
)

const seedYAML = `batches:
  - id: oct-2026
    name: October payroll
    debitAccount: "001-223344"
    paymentDate: "2026-10-31"
    entries:
      - id: e-1
        method: NEFT
        payeeName: A. Rao
        amount: 1500.5
      - id: e-2
        method: IMPS
        payeeName: K. Menon
        amount: 499.5
`

func run(t *testing.T, cfg config.AppConfig, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	root := NewRootCmd(cfg)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBatchctl(t *testing.T) {
	dir := t.TempDir()
	cfg := config.AppConfig{SqlitePath: filepath.Join(dir, "cli.sqlite")}
	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seedYAML), 0600))

	out, err := run(t, cfg, "seed", seedPath)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 1 batches, 2 entries")

	out, err = run(t, cfg, "seed", seedPath)
	require.NoError(t, err)
	assert.Contains(t, out, "--force")

	out, err = run(t, cfg, "batches", "count")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = run(t, cfg, "batches", "list", "--json")
	require.NoError(t, err)
	var list []model.Batch
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "oct-2026", list[0].ID)

	out, err = run(t, cfg, "batches", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "October payroll")
	assert.Contains(t, out, "draft")

	out, err = run(t, cfg, "batches", "show", "oct-2026")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:    2000.00 (2 entries)")
	assert.Contains(t, out, "1500.50")

	_, err = run(t, cfg, "batches", "show", "missing")
	assert.Error(t, err)

	snap := filepath.Join(dir, "snap.sqlite")
	out, err = run(t, cfg, "snapshot", snap)
	require.NoError(t, err)
	assert.Contains(t, out, snap)
	assert.FileExists(t, snap)

	// スナップショットからも同じデータが読める
	out, err = run(t, config.AppConfig{SqlitePath: snap}, "batches", "count")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestBatchctl_FlagOverridesConfig(t *testing.T) {
	_, err := run(t, config.AppConfig{}, "--driver", "oracle", "batches", "count")
	assert.ErrorContains(t, err, "unsupported database driver: oracle")

	_, err = run(t, config.AppConfig{DBDriver: "postgres"}, "snapshot", filepath.Join(t.TempDir(), "x.sqlite"))
	assert.ErrorContains(t, err, "only supported for sqlite")
}

func TestVersion(t *testing.T) {
	out, err := run(t, config.AppConfig{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
}

func TestExecute_PrintsErrorToStderr(t *testing.T) {
	color.NoColor = true
	root := NewRootCmd(config.AppConfig{DBDriver: "oracle"})
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"batches", "count"})

	assert.Equal(t, 1, execute(root))
	assert.Equal(t, "✗ unsupported database driver: oracle\n", stderr.String())
	assert.Empty(t, stdout.String())

	root = NewRootCmd(config.AppConfig{SqlitePath: filepath.Join(t.TempDir(), "ok.sqlite")})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"version"})
	assert.Equal(t, 0, execute(root))
}
