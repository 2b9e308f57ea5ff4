package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/model"
	"github.com/born-ml/netopt/internal/nn"
	"github.com/born-ml/netopt/internal/optim"
	"github.com/born-ml/netopt/internal/serialization"
)

// trainOptions holds the flags of the train command.
type trainOptions struct {
	Model       string
	Optimizer   string
	Hidden      []int
	Act         string
	OutAct      string
	Filter      int
	HyperParams []string
	Auto        []float64
	Rows        int
	Inputs      int
	Outputs     int
	Seed        uint64
	Save        string
	SafeTensors string
}

var trainOpts trainOptions

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a network on a synthetic regression problem",
	Long: `Train a network on a deterministic synthetic regression problem and
report the loss, the epochs used and the quality of fit.

Models:
  nn   dense network; --hidden sets the hidden widths (--hidden 0 for none)
  cnn  1-D convolution filter of width --filter plus a dense output layer
  elm  extreme learning machine with --hidden[0] random hidden units

Hyper-parameters are overridden with --hp name=value, for example
--hp eta=0.05 --hp bSize=10.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		log, err := newLogger(cmd)
		if err != nil {
			return err
		}
		return runTrain(cmd.OutOrStdout(), log, trainOpts)
	},
}

// newOptimizer returns the optimizer registered under name.
func newOptimizer(name string, cfg optim.Config) (optim.Optimizer, error) {
	switch strings.ToLower(name) {
	case "sgd":
		return optim.NewSGD(cfg), nil
	case "sgdm":
		return optim.NewSGDM(cfg), nil
	case "adam":
		return optim.NewAdam(cfg), nil
	}
	return nil, errors.Errorf("unknown optimizer %q (have sgd, sgdm, adam)", name)
}

// synthesize builds a deterministic regression problem: inputs uniform on
// [0, 1) and output k equal to sin(π·x0) + (k+1)·x1·x_last plus small noise.
func synthesize(m, nx, ny int, seed uint64) (x, y *mat.Dense) {
	rng := nn.NewRand(seed)
	x = mat.NewDense(m, nx, nil)
	y = mat.NewDense(m, ny, nil)
	for i := 0; i < m; i++ {
		row := x.RawRowView(i)
		for j := range row {
			row[j] = rng.Float64()
		}
		x1 := row[min(1, nx-1)]
		for k := 0; k < ny; k++ {
			v := math.Sin(math.Pi*row[0]) + float64(k+1)*x1*row[nx-1]
			y.Set(i, k, v+0.01*rng.NormFloat64())
		}
	}
	return x, y
}

// runTrain executes the train command and writes a report to out.
func runTrain(out io.Writer, log logrus.FieldLogger, o trainOptions) error {
	if o.Rows <= 0 || o.Inputs <= 0 || o.Outputs <= 0 {
		return errors.Wrapf(optim.ErrInvalidConfiguration,
			"rows=%d inputs=%d outputs=%d", o.Rows, o.Inputs, o.Outputs)
	}
	if len(o.Auto) != 0 && len(o.Auto) != 2 {
		return errors.Errorf("--auto takes lo,hi, got %v", o.Auto)
	}

	cfg := optim.DefaultConfig()
	if err := cfg.ParseAssignments(o.HyperParams); err != nil {
		return err
	}
	cfg.Seed = o.Seed
	cfg.Logger = log

	act, err := nn.ActivationByName(o.Act)
	if err != nil {
		return err
	}
	outAct, err := nn.ActivationByName(o.OutAct)
	if err != nil {
		return err
	}

	x, y := synthesize(o.Rows, o.Inputs, o.Outputs, o.Seed)
	rng := nn.NewRand(o.Seed + 1)

	switch o.Model {
	case "nn":
		return trainNeuralNet(out, log, o, cfg, act, outAct, x, y)
	case "cnn":
		net, err := model.NewCNN1D(o.Inputs, o.Filter, o.Outputs, act, outAct, cfg, rng)
		if err != nil {
			return err
		}
		res, err := net.Train(x, y)
		if err != nil {
			return err
		}
		report(out, "CNN1D", res, net.Test(x, y))
		return save(out, o, net.Params(), "CNN1D", "SGD", res, cfg, nil, act, outAct)
	case "elm":
		if len(o.Hidden) != 1 {
			return errors.Errorf("elm needs exactly one --hidden width, got %v", o.Hidden)
		}
		elm, err := model.NewELM3L1(o.Inputs, o.Hidden[0], o.Outputs, act, rng)
		if err != nil {
			return err
		}
		elm.SetLogger(log)
		if err := elm.Train(x, y); err != nil {
			return err
		}
		fmt.Fprintf(out, "model=ELM3L1 %s\n", elm.Test(x, y))
		return nil
	}
	return errors.Errorf("unknown model %q (have nn, cnn, elm)", o.Model)
}

func trainNeuralNet(out io.Writer, log logrus.FieldLogger, o trainOptions, cfg optim.Config,
	act, outAct nn.Activation, x, y *mat.Dense,
) error {
	opt, err := newOptimizer(o.Optimizer, cfg)
	if err != nil {
		return err
	}

	sizes := []int{o.Inputs}
	for _, h := range o.Hidden {
		if h != 0 {
			sizes = append(sizes, h)
		}
	}
	sizes = append(sizes, o.Outputs)
	fns := append(nn.Repeat(act, len(sizes)-2), outAct)
	net, err := model.NewXL(sizes, fns, opt, nn.NewRand(o.Seed+1))
	if err != nil {
		return err
	}
	name := fmt.Sprintf("NeuralNet_%dL", len(sizes))
	if len(sizes) > 3 {
		name = "NeuralNet_XL"
	}

	var res optim.Result
	if len(o.Auto) == 2 {
		res, err = net.TrainAuto(x, y, o.Auto[0], o.Auto[1])
	} else {
		res, err = net.Train(x, y)
	}
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"model": name, "run_id": res.RunID.String()}).Info("training finished")

	report(out, name, res, net.Test(x, y))
	return save(out, o, net.Params(), name, opt.Name(), res, cfg, net.ScaleMetadata(), fns...)
}

func report(out io.Writer, name string, res optim.Result, qof model.QoF) {
	fmt.Fprintf(out, "model=%s loss=%.6g epochs=%d eta=%g stopped=%t\n", name, res.Loss, res.Epochs, res.Eta, res.Stopped)
	fmt.Fprintf(out, "fit: %s\n", qof)
}

func save(out io.Writer, o trainOptions, params nn.NetParams, modelType, optName string,
	res optim.Result, cfg optim.Config, extra map[string]string, fns ...nn.Activation,
) error {
	names := make([]string, len(fns))
	for i, f := range fns {
		names[i] = f.Name
	}
	meta := map[string]string{"activations": strings.Join(names, ",")}
	for k, v := range extra {
		meta[k] = v
	}

	if o.Save != "" {
		h := serialization.Header{
			ModelType:  modelType,
			Metadata:   meta,
			Checkpoint: serialization.NewCheckpointMeta(optName, res, cfg),
		}
		if err := serialization.Save(o.Save, params, h); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s\n", o.Save)
	}
	if o.SafeTensors != "" {
		if err := serialization.SaveSafeTensors(o.SafeTensors, params, meta); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s\n", o.SafeTensors)
	}
	return nil
}

func init() {
	f := trainCmd.Flags()
	f.StringVarP(&trainOpts.Model, "model", "m", "nn", "Model (nn, cnn, elm)")
	f.StringVarP(&trainOpts.Optimizer, "optimizer", "o", "adam", "Optimizer for nn (sgd, sgdm, adam)")
	f.IntSliceVar(&trainOpts.Hidden, "hidden", []int{6}, "Hidden layer widths")
	f.StringVar(&trainOpts.Act, "act", "tanh", "Hidden activation ("+strings.Join(nn.ActivationNames(), ", ")+")")
	f.StringVar(&trainOpts.OutAct, "out-act", "id", "Output activation")
	f.IntVar(&trainOpts.Filter, "filter", 3, "Convolution filter width for cnn")
	f.StringArrayVar(&trainOpts.HyperParams, "hp", nil, "Hyper-parameter override name=value (repeatable)")
	f.Float64SliceVar(&trainOpts.Auto, "auto", nil, "Search the learning rate over lo,hi")
	f.IntVar(&trainOpts.Rows, "rows", 200, "Synthetic instances")
	f.IntVar(&trainOpts.Inputs, "inputs", 3, "Input width")
	f.IntVar(&trainOpts.Outputs, "outputs", 1, "Output width")
	f.Uint64Var(&trainOpts.Seed, "seed", 0, "Random stream for data, weights and batches")
	f.StringVar(&trainOpts.Save, "save", "", "Write a .born checkpoint")
	f.StringVar(&trainOpts.SafeTensors, "safetensors", "", "Write a SafeTensors export")
}
