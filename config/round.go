package config

import (
	"fmt"
	"strings"

	"postflopsolver/treebuild"
)

// ParseRound converts the current_round config string into treebuild's enum.
func ParseRound(s string) (treebuild.Round, error) {
	switch strings.ToLower(s) {
	case "preflop":
		return treebuild.Preflop, nil
	case "flop":
		return treebuild.Flop, nil
	case "turn":
		return treebuild.Turn, nil
	case "river":
		return treebuild.River, nil
	default:
		return 0, fmt.Errorf("config: unknown current_round %q", s)
	}
}
