package policy

import (
	"strconv"

	"github.com/hailam/shallowblue/internal/board"
	"github.com/hailam/shallowblue/internal/nnet"
	"github.com/hailam/shallowblue/internal/weights"
	"github.com/pkg/errors"
)

// SizeTag returns the weight-storage tag for a board size.
func SizeTag(size int) string {
	return strconv.Itoa(size)
}

// Topology returns the layer sizes for a size×size board. The output layer
// has one unit per edge and is appended when layers does not end with it.
func Topology(size int, layers []int) []int {
	edges := board.NumEdges(size)
	sizes := append([]int(nil), layers...)
	if len(sizes) == 0 || sizes[len(sizes)-1] != edges {
		sizes = append(sizes, edges)
	}
	return sizes
}

// NewNetwork builds the network for a board size and loads its stored weights.
// When no layer is stored it keeps the seeded random weights and reports
// loaded as false. A corrupt or partial set, or a stored topology that does
// not match, is an error.
func NewNetwork(store weights.Store, size int, layers []int, seed uint64) (net *nnet.Network, loaded bool, err error) {
	net, err = nnet.New(board.NumEdges(size), Topology(size, layers), seed)
	if err != nil {
		return nil, false, err
	}
	if store == nil {
		return net, false, nil
	}
	err = weights.Load(store, SizeTag(size), net)
	switch {
	case err == nil:
		return net, true, nil
	case errors.Is(err, weights.ErrNotStored):
		return net, false, nil
	}
	return nil, false, err
}
