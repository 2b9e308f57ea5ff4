package optim

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
)

// Loop is the epoch skeleton shared by every trainer in this module.
//
// Per epoch it draws a fresh permutation of the m instances, chops it into
// m/bSize contiguous batches (remainder dropped) and calls Step for each. It
// then asks Loss for the full-dataset loss, records it, and consults Stopper.
// When the stopper fires, Restore receives the best snapshot and the loop
// ends. Otherwise the learning rate is multiplied by AdjustFactor every
// AdjustPeriod epochs.
//
// T is the parameter snapshot type understood by Stopper.
type Loop[T any] struct {
	Name    string           // Trainer name for logs
	Config  Config           // Hyper-parameters
	Params  T                // Live parameters, mutated by Step
	Stopper *StoppingRule[T] // Early-stopping policy

	// Restore adopts a snapshot into Params.
	Restore func(best T)

	// Step updates Params from one batch.
	Step func(x, y *mat.Dense, eta float64)

	// Loss returns the full-dataset loss under the current Params.
	Loss func() float64
}

// Run trains on (x, y).
func (lp *Loop[T]) Run(x, y *mat.Dense) (res Result, err error) {
	defer recoverShape(&err)

	cfg := lp.Config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	m, _ := x.Dims()
	if my, _ := y.Dims(); my != m {
		return Result{}, errors.Wrapf(ErrShapeMismatch, "x has %d rows, y has %d", m, my)
	}
	if m == 0 {
		return Result{}, errors.Wrap(ErrInvalidConfiguration, "no training instances")
	}
	bSize := min(cfg.BatchSize, m)
	nB := m / bSize

	runID := uuid.New()
	log := cfg.Logger.WithFields(logrus.Fields{
		"optimizer": lp.Name,
		"run_id":    runID.String(),
	})

	perm := NewPermGenerator(m, cfg.Seed, cfg.Randomize)
	res = Result{
		Epochs: cfg.MaxEpochs,
		Losses: make([]float64, 0, cfg.MaxEpochs),
		Eta:    cfg.Eta,
		RunID:  runID,
	}

	eta := cfg.Eta
	for epoch := 1; epoch <= cfg.MaxEpochs; epoch++ {
		for _, ib := range Batches(perm.Igen(), nB, bSize) {
			lp.Step(nn.SelectRows(x, ib), nn.SelectRows(y, ib), eta)
		}

		sse := lp.Loss()
		res.Losses = append(res.Losses, sse)
		res.Loss = sse
		log.WithFields(logrus.Fields{"epoch": epoch, "sse": sse, "eta": eta}).Debug("epoch complete")

		best, bestSSE, stop := lp.Stopper.StopWhen(lp.Params, sse)
		if stop {
			lp.Restore(best)
			res.Loss = bestSSE
			res.Epochs = epoch - cfg.UpLimit
			res.Stopped = true
			log.WithFields(logrus.Fields{"epoch": epoch, "best_sse": bestSSE}).Info("early stop")
			break
		}
		if epoch%AdjustPeriod == 0 {
			eta *= AdjustFactor
		}
	}

	return res, nil
}
