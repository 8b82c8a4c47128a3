package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/walks/internal/config"
	"github.com/san-kum/walks/internal/output"
	"github.com/san-kum/walks/internal/walk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRun(t *testing.T, st *Store, ts time.Time) Run {
	t.Helper()
	cfg := config.GetPreset("drift")
	run, err := st.Create(cfg)
	require.NoError(t, err)
	assert.Equal(t, run.RecordsPath(), cfg.Sink.Path)

	rec, err := output.CreateRecords(run.RecordsPath())
	require.NoError(t, err)
	require.NoError(t, rec.WriteTimestep(0, walk.Positions{{0}, {1}}))
	require.NoError(t, rec.WriteTimestep(1, walk.Positions{{1, 4}, {1, 3}}))
	require.NoError(t, rec.Close())

	require.NoError(t, st.Save(&RunMetadata{
		ID:           run.ID,
		Name:         cfg.Name,
		Field:        cfg.Field.Name,
		Timestamp:    ts,
		Seed:         42,
		StreamSeeds:  []int64{7, 9},
		Dim:          2,
		Diffusion:    []float64{0, 0},
		Dt:           1,
		Duration:     3,
		Walkers:      2,
		Snapshots:    2,
		MeanPosition: []float64{2.5, 2},
	}))
	return run
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	run := createRun(t, st, time.Now())
	assert.NotEmpty(t, run.ID)

	meta, err := st.Load(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "drift", meta.Name)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, []int64{7, 9}, meta.StreamSeeds)

	cfg, err := st.LoadConfig(run.ID)
	require.NoError(t, err)
	assert.Equal(t, output.KindRecords, cfg.Sink.Kind)
	assert.Equal(t, 2, cfg.Initial.Replication)

	tr, err := st.LoadTrajectory(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, []int{1, 2}, tr.Counts)
}

func TestSaveEmptyEnsemble(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	meta := &RunMetadata{ID: "empty", Field: "constant", MeanPosition: []float64{math.NaN(), math.NaN()}}
	require.NoError(t, st.Save(meta))
	assert.True(t, math.IsNaN(meta.MeanPosition[0]), "caller's metadata is untouched")

	loaded, err := st.Load("empty")
	require.NoError(t, err)
	assert.Nil(t, loaded.MeanPosition)
}

type failingCloser struct {
	bytes.Buffer
	err error
}

func (f *failingCloser) Close() error { return f.err }

func TestWriteMetadataReportsCloseError(t *testing.T) {
	diskFull := errors.New("no space left on device")
	w := &failingCloser{err: diskFull}

	err := writeMetadata(w, &RunMetadata{ID: "abc", Field: "constant"})
	assert.ErrorIs(t, err, diskFull)
	assert.Contains(t, w.String(), `"id": "abc"`)

	assert.NoError(t, writeMetadata(&failingCloser{}, &RunMetadata{ID: "abc"}))
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	now := time.Now()
	second := createRun(t, st, now)
	first := createRun(t, st, now.Add(-time.Hour))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "junk"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.ID, runs[0].ID)
	assert.Equal(t, second.ID, runs[1].ID)
}

func TestResolve(t *testing.T) {
	st := New(t.TempDir())
	run := createRun(t, st, time.Now())

	id, err := st.Resolve(run.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, run.ID, id)

	_, err = st.Resolve("zzzz")
	assert.ErrorIs(t, err, ErrRunNotFound)

	createRun(t, st, time.Now())
	_, err = st.Resolve("")
	assert.ErrorIs(t, err, ErrAmbiguousRun)

	_, err = st.Load("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestExportCSV(t *testing.T) {
	st := New(t.TempDir())
	run := createRun(t, st, time.Now())

	var buf bytes.Buffer
	require.NoError(t, st.ExportCSV(run.ID, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"step", "time", "walker", "x0", "x1"}, rows[0])
	assert.Equal(t, []string{"0", "0.000000", "0", "0.000000", "1.000000"}, rows[1])
	assert.Equal(t, []string{"1", "1.000000", "1", "4.000000", "3.000000"}, rows[3])
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	run := createRun(t, st, time.Now())

	var buf bytes.Buffer
	require.NoError(t, st.ExportJSON(run.ID, &buf))

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, run.ID, data.Metadata.ID)
	assert.Equal(t, []float64{0, 1}, data.Times)
	assert.Equal(t, [][]float64{{0, 1}, {2.5, 2}}, data.MeanPath)
	assert.Nil(t, data.VariancePath[0])
	assert.Equal(t, []float64{4.5, 2}, data.VariancePath[1])
}

func TestExportMissingRun(t *testing.T) {
	st := New(t.TempDir())
	var buf bytes.Buffer
	assert.Error(t, st.ExportCSV("nope", &buf))
	assert.ErrorIs(t, st.ExportJSON("nope", &buf), ErrRunNotFound)
}
