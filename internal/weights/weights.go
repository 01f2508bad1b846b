// Package weights persists network weights as plain-text matrices, one per
// layer, keyed by a board-size tag.
package weights

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hailam/shallowblue/internal/nnet"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var ErrStorageUnavailable = errors.New("weight storage unavailable")

// ErrNotStored reports that no layer at all is stored for a tag. It matches
// ErrStorageUnavailable under errors.Is.
var ErrNotStored error = notStored{}

type notStored struct{}

func (notStored) Error() string { return "no weights stored" }

func (notStored) Is(target error) bool { return target == ErrStorageUnavailable }

// Store reads and writes per-layer weight matrices.
type Store interface {
	Save(tag string, ms []*mat.Dense) error
	Load(tag string, numLayers int) ([]*mat.Dense, error)
}

// FileName returns the file name of layer i for tag, e.g. "3weight0.txt".
func FileName(tag string, i int) string {
	return fmt.Sprintf("%sweight%d.txt", tag, i)
}

// FileStore keeps one text file per layer in Dir.
type FileStore struct {
	Dir string
}

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Save writes every matrix to its own file.
func (fs *FileStore) Save(tag string, ms []*mat.Dense) error {
	if err := os.MkdirAll(fs.Dir, 0755); err != nil {
		return errors.Wrapf(err, "creating weights directory %s", fs.Dir)
	}
	for i, m := range ms {
		path := filepath.Join(fs.Dir, FileName(tag, i))
		if err := os.WriteFile(path, EncodeMatrix(m), 0644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	return nil
}

// Load reads numLayers matrices for tag.
func (fs *FileStore) Load(tag string, numLayers int) ([]*mat.Dense, error) {
	ms := make([]*mat.Dense, numLayers)
	for i := range ms {
		path := filepath.Join(fs.Dir, FileName(tag, i))
		data, err := os.ReadFile(path)
		if i == 0 && errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(ErrNotStored, "reading %s", path)
		}
		if err != nil {
			return nil, errors.Wrapf(ErrStorageUnavailable, "reading %s: %v", path, err)
		}
		m, err := DecodeMatrix(data)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s", path)
		}
		ms[i] = m
	}
	return ms, nil
}

// EncodeMatrix writes one row per line, values separated by spaces.
func EncodeMatrix(m mat.Matrix) []byte {
	var buf bytes.Buffer
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(strconv.FormatFloat(m.At(i, j), 'e', 18, 64))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// DecodeMatrix parses the EncodeMatrix format. A single line decodes to a
// 1×k matrix.
func DecodeMatrix(data []byte) (*mat.Dense, error) {
	return decode(bytes.NewReader(data))
}

func decode(r io.Reader) (*mat.Dense, error) {
	var (
		values []float64
		cols   int
		rows   int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if rows == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, errors.Wrapf(ErrStorageUnavailable, "row %d has %d values, want %d", rows, len(fields), cols)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrStorageUnavailable, "row %d: %v", rows, err)
			}
			values = append(values, v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(ErrStorageUnavailable, "scanning: %v", err)
	}
	if rows == 0 {
		return nil, errors.Wrap(ErrStorageUnavailable, "empty matrix")
	}
	return mat.NewDense(rows, cols, values), nil
}

// Save writes the network's live weights to store under tag.
func Save(store Store, tag string, net *nnet.Network) error {
	return store.Save(tag, net.Weights())
}

// Load reads the weights for tag and applies them to net.
func Load(store Store, tag string, net *nnet.Network) error {
	ms, err := store.Load(tag, net.NumLayers())
	if err != nil {
		return err
	}
	return Apply(net, ms)
}

// Apply overwrites every neuron from the matching matrix row. Matrices that do
// not match the topology are rejected.
func Apply(net *nnet.Network, ms []*mat.Dense) error {
	if err := net.SetWeights(ms); err != nil {
		return errors.Wrap(err, "applying weights")
	}
	return nil
}

// Update persists ms and then reloads them into net, so the live network
// always reflects what was stored.
func Update(store Store, tag string, net *nnet.Network, ms []*mat.Dense) error {
	if err := store.Save(tag, ms); err != nil {
		return err
	}
	return Load(store, tag, net)
}
