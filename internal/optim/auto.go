package optim

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
)

// OptimizeFunc is the signature of Optimizer.Optimize.
type OptimizeFunc func(x, y *mat.Dense, params nn.NetParams, eta float64, fns []nn.Activation) (Result, error)

// AutoOptimize picks a learning rate by grid search.
//
// It tries NSteps+1 evenly spaced rates over [lo, hi]. Before every trial the
// parameters are re-initialized to fresh random weights drawn from the
// config's stream, so no trial inherits another's weights or optimizer state.
// Trials whose loss is NaN are logged and skipped.
//
// On return params hold the weights of the best (lowest loss) trial and the
// result is that trial's. If every trial produced NaN, params hold the last
// trial's weights and ErrNoConvergence is returned.
func AutoOptimize(
	x, y *mat.Dense,
	params nn.NetParams,
	lo, hi float64,
	fns []nn.Activation,
	optimize OptimizeFunc,
	cfg Config,
) (Result, error) {
	if lo <= 0 || hi < lo {
		return Result{}, errors.Wrapf(ErrInvalidConfiguration, "learning-rate interval [%g, %g]", lo, hi)
	}
	cfg = cfg.withDefaults()

	stream := cfg.Seed
	if cfg.Randomize {
		//nolint:gosec // G115: wall clock only seeds weight initialization
		stream = uint64(time.Now().UnixNano())
	}
	rng := nn.NewRand(stream)
	step := (hi - lo) / NSteps

	var (
		best       Result
		bestParams nn.NetParams
		found      bool
	)
	for i := 0; i <= NSteps; i++ {
		eta := lo + float64(i)*step
		nn.Reinit(params, rng)

		res, err := optimize(x, y, params, eta, fns)
		if err != nil {
			return Result{}, errors.Wrapf(err, "trial %d (eta=%g)", i, eta)
		}
		if math.IsNaN(res.Loss) {
			cfg.Logger.WithFields(logrus.Fields{"trial": i, "eta": eta}).Warn("trial produced NaN loss, skipped")
			continue
		}
		if !found || res.Loss < best.Loss {
			best, bestParams, found = res, params.Copy(), true
		}
	}

	if !found {
		return Result{}, errors.Wrapf(ErrNoConvergence, "%d trials over [%g, %g]", NSteps+1, lo, hi)
	}
	params.Set(bestParams)
	cfg.Logger.WithFields(logrus.Fields{"eta": best.Eta, "sse": best.Loss}).Info("best learning rate selected")
	return best, nil
}
