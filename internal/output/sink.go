// Package output records ensemble snapshots during a simulation run.
//
// A [Sink] accepts one snapshot per saved step and can materialise every
// snapshot written so far as a [Trajectory]. Two sinks are provided:
//
//   - [Memory]: keeps deep copies of the snapshots in memory
//   - [Records]: appends self-describing binary records to a file
//
// Because sources grow the ensemble during a run, snapshots may differ in
// particle count. [Trajectory] pads shorter snapshots with NaN and keeps the
// real count per step so padding can be told apart from data.
package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/walks/internal/walk"
)

// ErrClosed is returned by writes to a sink that has been closed.
var ErrClosed = errors.New("output: sink closed")

type Sink interface {
	WriteTimestep(t float64, pos walk.Positions) error
	Load() (*Trajectory, error)
	Close() error
}

// Kind selects a sink implementation.
type Kind int

const (
	KindMemory Kind = iota
	KindRecords
)

func (k Kind) String() string {
	switch k {
	case KindMemory:
		return "memory"
	case KindRecords:
		return "records"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "memory":
		return KindMemory, nil
	case "records", "file":
		return KindRecords, nil
	}
	return 0, fmt.Errorf("unknown sink kind: %s", name)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// New opens a sink of the given kind. The records sink creates (or
// truncates) path immediately and fails if it cannot.
func New(kind Kind, path string) (Sink, error) {
	switch kind {
	case KindMemory:
		return NewMemory(), nil
	case KindRecords:
		if path == "" {
			return nil, fmt.Errorf("output: records sink requires a path")
		}
		return CreateRecords(path)
	}
	return nil, fmt.Errorf("output: unsupported sink kind %v", kind)
}
