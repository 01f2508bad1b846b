package board

import (
	"strings"

	"github.com/pkg/errors"
)

// ParseState builds a board from a string of '0'/'1' characters, one per edge.
// Drawn edges are replayed in index order, so box owners and the side to move
// come from that replay, not from the real game history.
func ParseState(size int, s string) (*Board, error) {
	b, err := NewBoard(size)
	if err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if len(s) != b.NumEdges() {
		return nil, errors.Errorf("state has %d edges, want %d", len(s), b.NumEdges())
	}
	for e, ch := range s {
		switch ch {
		case '0':
		case '1':
			if _, err := b.MakeMove(e); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("bad state character %q at %d", ch, e)
		}
	}
	return b, nil
}

// StateString returns the board as '0'/'1' characters, one per edge.
func (b *Board) StateString() string {
	var sb strings.Builder
	sb.Grow(len(b.edges))
	for _, drawn := range b.edges {
		if drawn {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
