package output

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/san-kum/walks/internal/walk"
)

// maxRecordSize bounds a single frame so a corrupt length prefix cannot
// trigger a huge allocation.
const maxRecordSize = 1 << 31

// ErrRecordTooLarge is returned for a snapshot whose encoded frame would
// exceed maxRecordSize.
var ErrRecordTooLarge = errors.New("output: record too large")

// record is the payload of one frame. Data holds the snapshot row-major,
// Dim rows of Count values.
type record struct {
	Time  float64
	Dim   int
	Count int
	Data  []float64
}

// Records appends one frame per snapshot to a file. A frame is a
// little-endian uint32 payload length followed by a gob-encoded record
// written with its own encoder, so every frame carries its type
// description and can be decoded independently.
type Records struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
	buf  bytes.Buffer
}

// CreateRecords creates or truncates path and opens it for appending.
func CreateRecords(path string) (*Records, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("output: open records: %w", err)
	}
	return &Records{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (r *Records) Path() string { return r.path }

func (r *Records) WriteTimestep(t float64, pos walk.Positions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return ErrClosed
	}

	rec := record{Time: t, Dim: pos.Dim(), Count: pos.N(), Data: make([]float64, 0, pos.Dim()*pos.N())}
	for _, row := range pos {
		rec.Data = append(rec.Data, row...)
	}

	r.buf.Reset()
	if err := gob.NewEncoder(&r.buf).Encode(&rec); err != nil {
		return fmt.Errorf("output: encode record: %w", err)
	}

	if err := checkFrameSize(r.buf.Len()); err != nil {
		return err
	}

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(r.buf.Len()))
	if _, err := r.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := r.w.Write(r.buf.Bytes())
	return err
}

// checkFrameSize rejects payloads the reader would take for a corrupt
// length prefix.
func checkFrameSize(n int) error {
	if uint64(n) >= maxRecordSize {
		return fmt.Errorf("%w: %d byte record", ErrRecordTooLarge, n)
	}
	return nil
}

// Load flushes pending frames and re-reads the file from the start through
// a separate handle. The append position is unchanged, so writes may
// continue afterwards.
func (r *Records) Load() (*Trajectory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f != nil {
		if err := r.w.Flush(); err != nil {
			return nil, err
		}
	}
	return LoadFile(r.path)
}

// Close flushes buffered frames and releases the file.
func (r *Records) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	flushErr := r.w.Flush()
	closeErr := r.f.Close()
	r.f, r.w = nil, nil
	return errors.Join(flushErr, closeErr)
}

// LoadFile reads every complete frame of a records file. A truncated or
// malformed frame ends the stream; the frames before it are returned.
func LoadFile(path string) (*Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("output: open records: %w", err)
	}
	defer f.Close()

	times, snaps := ReadRecords(bufio.NewReader(f))
	return buildTrajectory(times, snaps), nil
}

// ReadRecords decodes frames from rd until end of stream or the first frame
// that cannot be decoded.
func ReadRecords(rd io.Reader) ([]float64, []walk.Positions) {
	var (
		times []float64
		snaps []walk.Positions
		hdr   [4]byte
	)
	for {
		if _, err := io.ReadFull(rd, hdr[:]); err != nil {
			break
		}
		size := binary.LittleEndian.Uint32(hdr[:])
		if size == 0 || uint64(size) >= maxRecordSize {
			break
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(rd, payload); err != nil {
			break
		}

		var rec record
		if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&rec); err != nil {
			break
		}
		if rec.Dim < 0 || rec.Count < 0 || len(rec.Data) != rec.Dim*rec.Count {
			break
		}

		pos := walk.NewPositions(rec.Dim, rec.Count)
		for d := range pos {
			copy(pos[d], rec.Data[d*rec.Count:(d+1)*rec.Count])
		}
		times = append(times, rec.Time)
		snaps = append(snaps, pos)
	}
	return times, snaps
}
