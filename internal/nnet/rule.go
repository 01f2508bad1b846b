package nnet

import (
	"strings"

	"github.com/pkg/errors"
)

// Rule selects a gradient-descent variant.
type Rule int

const (
	Plain Rule = iota
	Momentum
	Nesterov
)

var ruleNames = map[Rule]string{
	Plain:    "plain",
	Momentum: "momentum",
	Nesterov: "nag",
}

func (r Rule) String() string {
	if s, ok := ruleNames[r]; ok {
		return s
	}
	return "unknown"
}

// ParseRule accepts "plain", "momentum" and "nag" (or "nesterov").
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "sgd", "":
		return Plain, nil
	case "momentum":
		return Momentum, nil
	case "nag", "nesterov":
		return Nesterov, nil
	}
	return Plain, errors.Wrapf(ErrUnknownRule, "%q", s)
}

// TrainWith dispatches one training step to the given rule. gamma is ignored
// by the plain rule.
func (n *Network) TrainWith(rule Rule, alpha, gamma float64, x, y []float64) error {
	switch rule {
	case Plain:
		return n.Train(alpha, x, y)
	case Momentum:
		return n.TrainMomentum(alpha, x, y, gamma)
	case Nesterov:
		return n.TrainNAG(alpha, x, y, gamma)
	}
	return errors.Wrapf(ErrUnknownRule, "rule %d", int(rule))
}
