package cfr

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"postflopsolver/bestresponse"
	"postflopsolver/cards"
	"postflopsolver/common/bench"
	"postflopsolver/ranges"
	"postflopsolver/treebuild"
)

// DriverConfig carries the subset of the Driver configuration (spec §6)
// the outer training loop itself needs; tree-shape and range options are
// already baked into root/rangeIdx by the time a Driver is built.
type DriverConfig struct {
	IterationNumber int
	PrintInterval   int
	Warmup          int
	Accuracy        float64
	LogFile         string
}

// Driver runs the outer CFR loop of spec §4.6: alternate full tree
// traversals per player per iteration, periodically checking best-response
// exploitability against a fixed accuracy target.
type Driver struct {
	solver *Solver
	br     *bestresponse.Exploitability
	cfg    DriverConfig
	runID  string
}

func NewDriver(solver *Solver, br *bestresponse.Exploitability, cfg DriverConfig) *Driver {
	return &Driver{solver: solver, br: br, cfg: cfg, runID: uuid.NewString()}
}

// Run trains root to convergence (iteration count or accuracy threshold,
// whichever comes first) and returns the number of iterations actually run.
func (d *Driver) Run(root *treebuild.Node, rangeIdx [2]*ranges.Index, board cards.Board, pot float64) (int, error) {
	var logWriter io.WriteCloser
	if d.cfg.LogFile != "" {
		f, err := os.Create(d.cfg.LogFile)
		if err != nil {
			return 0, fmt.Errorf("cfr: opening log file: %w", err)
		}
		defer f.Close()
		logWriter = f
	}

	reachProbs := [2][]float32{rangeIdx[0].Weights(), rangeIdx[1].Weights()}

	bar := progressbar.Default(int64(d.cfg.IterationNumber), fmt.Sprintf("training run %s", d.runID))
	defer bar.Close()

	ran := 0
	var totalMs int64
	for iter := 0; iter < d.cfg.IterationNumber; iter++ {
		elapsed := bench.MeasureExec(func() {
			for player := 0; player < 2; player++ {
				d.solver.Run(player, root, reachProbs[1-player], iter, board, 0)
			}
		})
		totalMs += elapsed.Milliseconds()
		_ = bar.Add(1)
		ran = iter + 1

		if iter > d.cfg.Warmup && d.cfg.PrintInterval > 0 && iter%d.cfg.PrintInterval == 0 {
			exploitability := d.br.Compute(root, iter+1, pot, board)
			if logWriter != nil {
				d.logLine(logWriter, iter, exploitability, totalMs)
			}
			if exploitability <= d.cfg.Accuracy {
				break
			}
		}
	}

	return ran, nil
}

func (d *Driver) logLine(w io.Writer, iter int, exploitability float64, timeMs int64) {
	entry := map[string]any{
		"iteration":      iter,
		"exploitibility": exploitability,
		"time_ms":        timeMs,
	}
	enc := json.NewEncoder(w)
	_ = enc.Encode(entry)
}
