package seed

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawabatas/payroll-batch/internal/domain/model"
	"github.com/kawabatas/payroll-batch/internal/infra/datastore"
)

func openStore(t *testing.T) datastore.DataStore {
	t.Helper()
	ds, err := datastore.Open(context.Background(), datastore.Config{Path: filepath.Join(t.TempDir(), "seed.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestLoadFile(t *testing.T) {
	f, err := LoadFile(filepath.Join("testdata", "batches.yaml"))
	require.NoError(t, err)
	require.Len(t, f.Batches, 2)
	assert.Equal(t, "001-223344", f.Batches[0].DebitAccount)
	assert.Equal(t, 48750.5, f.Batches[0].Entries[1].Amount)
	assert.Equal(t, "International", f.Batches[1].PaymentType)
}

func TestLoad_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":    "batches:\n  - id: a\n    colour: red\n",
		"missing id":     "batches:\n  - name: no id\n",
		"unknown status": "batches:\n  - id: a\n    status: paid\n",
		"inf amount":     "batches:\n  - id: a\n    entries:\n      - amount: .inf\n",
		"nan amount":     "batches:\n  - id: a\n    entries:\n      - amount: .nan\n",
	} {
		_, err := Load(strings.NewReader(doc))
		assert.Error(t, err, name)
	}

	f, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Batches)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	ds := openStore(t)
	f, err := LoadFile(filepath.Join("testdata", "batches.yaml"))
	require.NoError(t, err)

	res, err := Apply(ctx, ds, f, false)
	require.NoError(t, err)
	assert.Equal(t, Result{Batches: 2, Entries: 3}, res)

	sep, found, err := ds.Batches().FindByID(ctx, "sep-2026")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.BatchStatusSubmitted, sep.Status)
	assert.Equal(t, "INR", sep.Currency)

	oct, _, err := ds.Batches().FindByID(ctx, "oct-2026")
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusDraft, oct.Status)
	entries, err := ds.PayrollEntries().FindByBatchID(ctx, "oct-2026")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "oct-2026-1", entries[0].ID)

	// 2 回目は空でないのでスキップ
	res, err = Apply(ctx, ds, f, false)
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	res, err = Apply(ctx, ds, File{Batches: []Batch{{ID: "sep-2026", Name: "September (fixed)"}}}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Batches)
	n, err := ds.Batches().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestApply_ForceReseedKeepsEntryIDs(t *testing.T) {
	ctx := context.Background()
	ds := openStore(t)
	f, err := LoadFile(filepath.Join("testdata", "batches.yaml"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := Apply(ctx, ds, f, true)
		require.NoError(t, err)
	}

	entries, err := ds.PayrollEntries().FindByBatchID(ctx, "oct-2026")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "oct-2026-1", entries[0].ID)
	n, err := ds.PayrollEntries().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
