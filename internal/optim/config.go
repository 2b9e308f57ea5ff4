package optim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Developer constants shared by every optimizer.
const (
	Epsilon      = 1e-7 // Tolerance for "got worse" and Adam's denominator
	AdjustPeriod = 100  // Epochs between learning-rate adjustments
	AdjustFactor = 1.1  // Learning-rate multiplier applied every AdjustPeriod epochs
	NSteps       = 16   // Grid intervals scanned by AutoOptimize (NSteps+1 points)
)

// Config holds the hyper-parameters of a training call.
//
// Config is passed by value: each optimizer keeps its own copy and a training
// call never observes changes made by another caller. Start from
// DefaultConfig and override what you need. When an optimizer is constructed,
// zero values of Eta, BatchSize, MaxEpochs, Beta and Beta2 are replaced by
// their defaults; Lambda, UpLimit and Nu are taken as given because zero is a
// meaningful setting for them.
type Config struct {
	Eta       float64 // Learning rate (default: 0.1)
	BatchSize int     // Mini-batch size (default: 20)
	MaxEpochs int     // Epoch cap (default: 400)
	Lambda    float64 // Regularization weight for models that use one (default: 0.01)
	UpLimit   int     // Consecutive worsening epochs tolerated (default: 4)
	Beta      float64 // Momentum / first-moment decay (default: 0.9)
	Beta2     float64 // Second-moment decay (default: 0.999)
	Nu        float64 // Momentum interpolation for SGDM (default: 0.9)

	Seed      uint64 // Random stream for batch shuffling and re-initialization
	Randomize bool   // Draw a live stream instead of Seed

	Logger logrus.FieldLogger // Destination for training logs (default: logrus.StandardLogger())
}

// DefaultConfig returns the process-wide default hyper-parameters.
func DefaultConfig() Config {
	return Config{
		Eta:       0.1,
		BatchSize: 20,
		MaxEpochs: 400,
		Lambda:    0.01,
		UpLimit:   4,
		Beta:      0.9,
		Beta2:     0.999,
		Nu:        0.9,
	}
}

// withDefaults fills the zero fields that have no meaningful zero setting.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Eta == 0 {
		c.Eta = d.Eta
	}
	if c.BatchSize == 0 {
		c.BatchSize = d.BatchSize
	}
	if c.MaxEpochs == 0 {
		c.MaxEpochs = d.MaxEpochs
	}
	if c.Beta == 0 {
		c.Beta = d.Beta
	}
	if c.Beta2 == 0 {
		c.Beta2 = d.Beta2
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return c
}

// Validate checks the ranges of the hyper-parameters.
func (c Config) Validate() error {
	switch {
	case c.Eta <= 0:
		return errors.Wrapf(ErrInvalidConfiguration, "eta must be positive, got %g", c.Eta)
	case c.BatchSize <= 0:
		return errors.Wrapf(ErrInvalidConfiguration, "bSize must be positive, got %d", c.BatchSize)
	case c.MaxEpochs <= 0:
		return errors.Wrapf(ErrInvalidConfiguration, "maxEpochs must be positive, got %d", c.MaxEpochs)
	case c.UpLimit < 0:
		return errors.Wrapf(ErrInvalidConfiguration, "upLimit must be non-negative, got %d", c.UpLimit)
	case c.Beta < 0 || c.Beta >= 1:
		return errors.Wrapf(ErrInvalidConfiguration, "beta must be in [0, 1), got %g", c.Beta)
	case c.Beta2 < 0 || c.Beta2 >= 1:
		return errors.Wrapf(ErrInvalidConfiguration, "beta2 must be in [0, 1), got %g", c.Beta2)
	case c.Nu < 0 || c.Nu > 1:
		return errors.Wrapf(ErrInvalidConfiguration, "nu must be in [0, 1], got %g", c.Nu)
	}
	return nil
}

// HyperParamNames lists the names accepted by Get and Set.
var HyperParamNames = []string{"eta", "bSize", "maxEpochs", "lambda", "upLimit", "beta", "beta2", "nu"}

// Get returns a hyper-parameter by name.
func (c *Config) Get(name string) (float64, error) {
	switch name {
	case "eta":
		return c.Eta, nil
	case "bSize":
		return float64(c.BatchSize), nil
	case "maxEpochs":
		return float64(c.MaxEpochs), nil
	case "lambda":
		return c.Lambda, nil
	case "upLimit":
		return float64(c.UpLimit), nil
	case "beta":
		return c.Beta, nil
	case "beta2":
		return c.Beta2, nil
	case "nu":
		return c.Nu, nil
	}
	return 0, errors.Errorf("unknown hyper-parameter %q", name)
}

// Set assigns a hyper-parameter by name. Integer knobs are truncated.
func (c *Config) Set(name string, value float64) error {
	switch name {
	case "eta":
		c.Eta = value
	case "bSize":
		c.BatchSize = int(value)
	case "maxEpochs":
		c.MaxEpochs = int(value)
	case "lambda":
		c.Lambda = value
	case "upLimit":
		c.UpLimit = int(value)
	case "beta":
		c.Beta = value
	case "beta2":
		c.Beta2 = value
	case "nu":
		c.Nu = value
	default:
		return errors.Errorf("unknown hyper-parameter %q", name)
	}
	return nil
}

// ParseAssignments applies "name=value" overrides in order.
func (c *Config) ParseAssignments(assignments []string) error {
	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		if !ok {
			return errors.Errorf("hyper-parameter override %q is not name=value", a)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return errors.Wrapf(err, "hyper-parameter %q", name)
		}
		if err := c.Set(strings.TrimSpace(name), v); err != nil {
			return err
		}
	}
	return nil
}
