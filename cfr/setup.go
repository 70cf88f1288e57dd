// Package cfr implements the vector-CFR / Discounted-CFR solving engine
// (spec §4.5) over a tree built by treebuild, and the driver loop that runs
// it to convergence (spec §4.6).
package cfr

import (
	"postflopsolver/ranges"
	"postflopsolver/trainable"
	"postflopsolver/treebuild"
)

// Setup walks a freshly built tree once and attaches a trainable.Table to
// every action node, sized by that node's acting player's range. This
// mirrors the reference solver's own two-phase build-then-setTrainable
// structure (PCfrSolver's constructor calls setTrainable(root) right after
// the tree exists): the builder itself never sees a ranges.Index, so the
// Trainables field it leaves is nil until this pass runs.
func Setup(root *treebuild.Node, rangeIdx [2]*ranges.Index, coef trainable.Coefficients) {
	setup(root, rangeIdx, coef)
}

func setup(n *treebuild.Node, rangeIdx [2]*ranges.Index, coef trainable.Coefficients) {
	if n == nil {
		return
	}
	switch n.Kind {
	case treebuild.NodeAction:
		n.Trainables = trainable.NewTable(len(n.Actions), rangeIdx[n.Player].Len(), coef)
		for _, c := range n.Children {
			setup(c, rangeIdx, coef)
		}
	case treebuild.NodeChance:
		setup(n.ChanceChild, rangeIdx, coef)
	}
}
