package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/walks/internal/config"
	"github.com/san-kum/walks/internal/output"
)

const (
	metadataFile = "metadata.json"
	recordsFile  = "walks.rec"
	configFile   = "config.yaml"
)

var (
	ErrRunNotFound  = errors.New("storage: run not found")
	ErrAmbiguousRun = errors.New("storage: run id prefix is ambiguous")
)

// Store keeps one directory per run holding its metadata, run file and
// record file.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string        `json:"id"`
	Name         string        `json:"name,omitempty"`
	Field        string        `json:"field"`
	Timestamp    time.Time     `json:"timestamp"`
	Seed         int64         `json:"seed"`
	StreamSeeds  []int64       `json:"stream_seeds"`
	Dim          int           `json:"dim"`
	Diffusion    []float64     `json:"diffusion"`
	Dt           float64       `json:"dt"`
	Duration     float64       `json:"duration"`
	SaveEvery    int           `json:"save_every"`
	Walkers      int           `json:"walkers"`
	Snapshots    int           `json:"snapshots"`
	MeanPosition []float64     `json:"mean_position"`
	WallTime     time.Duration `json:"wall_time"`
}

// Run is a run directory reserved by Create.
type Run struct {
	ID  string
	Dir string
}

// RecordsPath is where the run's record sink writes.
func (r Run) RecordsPath() string {
	return filepath.Join(r.Dir, recordsFile)
}

// Create reserves a fresh run directory and stores the run file in it.
// cfg's sink is pointed at the run's record file.
func (s *Store) Create(cfg *config.Config) (Run, error) {
	id := uuid.New().String()
	run := Run{ID: id, Dir: filepath.Join(s.baseDir, id)}
	if err := os.MkdirAll(run.Dir, 0755); err != nil {
		return Run{}, err
	}

	cfg.Sink = config.SinkConfig{Kind: output.KindRecords, Path: run.RecordsPath()}
	if err := config.Save(filepath.Join(run.Dir, configFile), cfg); err != nil {
		return Run{}, err
	}
	return run, nil
}

// Save writes the metadata of a finished run. A mean position of an empty
// ensemble is stored as null.
func (s *Store) Save(meta *RunMetadata) error {
	if nullable([][]float64{meta.MeanPosition})[0] == nil {
		m := *meta
		m.MeanPosition = nil
		meta = &m
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	return writeMetadata(metaFile, meta)
}

// writeMetadata encodes meta and closes w, reporting either failure.
func writeMetadata(w io.WriteCloser, meta *RunMetadata) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Join(enc.Encode(meta), w.Close())
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Resolve expands a unique prefix of a run id.
func (s *Store) Resolve(prefix string) (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}

	var match string
	for _, r := range runs {
		if r.ID == prefix {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousRun, prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}
	return match, nil
}

// LoadConfig reads back the run file a run was started with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadTrajectory(runID string) (*output.Trajectory, error) {
	path := filepath.Join(s.baseDir, runID, recordsFile)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return output.LoadFile(path)
}
