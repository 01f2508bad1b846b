package board

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrBadCommand = errors.New("bad move command")

// Command is the external encoding of an edge: the line row (0..2n, even rows
// horizontal, odd rows vertical) and the position along that row.
type Command struct {
	Row int
	Col int
}

// NoCommand represents an invalid or missing move.
var NoCommand = Command{-1, -1}

func (c Command) String() string {
	if c == NoCommand {
		return "none"
	}
	return fmt.Sprintf("%d,%d", c.Row, c.Col)
}

// ParseCommand parses "r,c".
func ParseCommand(s string) (Command, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return NoCommand, errors.Wrapf(ErrBadCommand, "%q", s)
	}
	r, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return NoCommand, errors.Wrapf(ErrBadCommand, "%q", s)
	}
	c, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return NoCommand, errors.Wrapf(ErrBadCommand, "%q", s)
	}
	return Command{r, c}, nil
}

// Commands returns the command for every edge of a size×size board,
// indexed by edge.
func Commands(size int) []Command {
	cmds := make([]Command, 0, NumEdges(size))
	for r := 0; r <= 2*size; r++ {
		width := size
		if r%2 == 1 {
			width = size + 1
		}
		for c := 0; c < width; c++ {
			cmds = append(cmds, Command{r, c})
		}
	}
	return cmds
}

// EdgeOf converts a command back to an edge index.
func EdgeOf(size int, c Command) (int, error) {
	if c.Row < 0 || c.Row > 2*size || c.Col < 0 {
		return -1, errors.Wrapf(ErrBadCommand, "%s on size %d", c, size)
	}
	width := size
	if c.Row%2 == 1 {
		width = size + 1
	}
	if c.Col >= width {
		return -1, errors.Wrapf(ErrBadCommand, "%s on size %d", c, size)
	}
	stride := 2*size + 1
	return (c.Row/2)*stride + (c.Row%2)*size + c.Col, nil
}

// Ranked is a scored move candidate.
type Ranked struct {
	Score float64
	Edge  int
}

// OrderMoves ranks network outputs by descending score. Ties keep index order.
func OrderMoves(out []float64) []Ranked {
	ranked := make([]Ranked, len(out))
	for i, s := range out {
		ranked[i] = Ranked{Score: s, Edge: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// OnlyLegal keeps the ranked moves whose edge is undrawn in the cleaned state.
func OnlyLegal(ranked []Ranked, clean []float64) []Ranked {
	legal := make([]Ranked, 0, len(ranked))
	for _, r := range ranked {
		if r.Edge >= 0 && r.Edge < len(clean) && clean[r.Edge] == 0 {
			legal = append(legal, r)
		}
	}
	return legal
}

// FormatMoves maps ranked moves to commands, keeping the ranking.
func FormatMoves(ranked []Ranked, cmds []Command) []Command {
	out := make([]Command, len(ranked))
	for i, r := range ranked {
		out[i] = cmds[r.Edge]
	}
	return out
}
