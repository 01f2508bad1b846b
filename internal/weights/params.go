package weights

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParamsFile is the default layer-list file name.
const ParamsFile = "weight_params.txt"

// LoadParams reads a layer list, one size per line.
func LoadParams(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrStorageUnavailable, "reading %s: %v", path, err)
	}
	var sizes []int
	for _, f := range strings.Fields(string(data)) {
		// numpy writes integers as floats, e.g. 1.000000000000000000e+01
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 1 || v != float64(int(v)) {
			return nil, errors.Wrapf(ErrStorageUnavailable, "%s: bad layer size %q", path, f)
		}
		sizes = append(sizes, int(v))
	}
	if len(sizes) == 0 {
		return nil, errors.Wrapf(ErrStorageUnavailable, "%s: no layers", path)
	}
	return sizes, nil
}

// SaveParams writes a layer list, one size per line.
func SaveParams(path string, sizes []int) error {
	var buf bytes.Buffer
	for _, s := range sizes {
		buf.WriteString(strconv.Itoa(s))
		buf.WriteByte('\n')
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0644), "writing %s", path)
}

// ParseLayers parses a comma-separated layer list such as "48,24".
func ParseLayers(s string) ([]int, error) {
	var sizes []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil || v < 1 {
			return nil, errors.Errorf("bad layer size %q", f)
		}
		sizes = append(sizes, v)
	}
	if len(sizes) == 0 {
		return nil, errors.New("no layers given")
	}
	return sizes, nil
}
