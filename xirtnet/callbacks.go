package xirtnet

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Callback is run by Fit at the end of every epoch. Returning true stops training after the
// current epoch.
type Callback interface {
	Name() string
	OnEpochEnd(x *XiRTNet, l EpochLog) (stop bool, err error)
}

// monitored gives the value that callbacks try to minimize: the validation loss if there is one,
// otherwise the training loss
func monitored(l EpochLog) float64 {
	if math.IsNaN(l.ValLoss) {
		return l.Loss
	}
	return l.ValLoss
}

// EarlyStopping stops training once the monitored loss has not improved for Patience epochs.
type EarlyStopping struct {
	Patience int

	best float64
	wait int
}

func NewEarlyStopping(patience int) *EarlyStopping {
	return &EarlyStopping{Patience: patience, best: math.Inf(1)}
}

func (e *EarlyStopping) Name() string {
	return "early_stopping"
}

func (e *EarlyStopping) OnEpochEnd(x *XiRTNet, l EpochLog) (bool, error) {
	if v := monitored(l); v < e.best {
		e.best = v
		e.wait = 0
		return false, nil
	}

	e.wait++
	if e.wait < e.Patience {
		return false, nil
	}

	x.logger.Info().Int("epoch", l.Epoch).Float64("best", e.best).Msg("stopping early")
	return true, nil
}

// ReduceLR reduces the learning rate when the monitored loss stops improving, with the factor and
// patience given to Compile by the callback params.
type ReduceLR struct{}

func NewReduceLR() *ReduceLR {
	return &ReduceLR{}
}

func (r *ReduceLR) Name() string {
	return "reduce_lr"
}

func (r *ReduceLR) OnEpochEnd(x *XiRTNet, l EpochLog) (bool, error) {
	if x.lr == nil {
		return false, ErrNotCompiled
	}

	if x.lr.Observe(monitored(l)) {
		x.logger.Info().Int("epoch", l.Epoch).Float64("learning_rate", x.LearningRate()).Msg("reduced learning rate")
	}
	return false, nil
}

// StepDecay multiplies the learning rate by the decay factor at the start of each of the decay
// epochs given to Compile by the learning params.
type StepDecay struct{}

func NewStepDecay() *StepDecay {
	return &StepDecay{}
}

func (s *StepDecay) Name() string {
	return "step_decay"
}

func (s *StepDecay) OnEpochEnd(x *XiRTNet, l EpochLog) (bool, error) {
	if x.lr == nil {
		return false, ErrNotCompiled
	} else if x.decay == nil {
		return false, nil
	}

	// l.Epoch epochs are done, so the next one has index l.Epoch
	prev, next := x.decay.Value(l.Epoch-1), x.decay.Value(l.Epoch)
	if next == prev {
		return false, nil
	}

	x.lr.Set(x.LearningRate() * next / prev)
	x.logger.Info().Int("epoch", l.Epoch).Float64("learning_rate", x.LearningRate()).Msg("decayed learning rate")
	return false, nil
}

// Checkpoint saves the weights of the model to Path whenever the monitored loss improves.
type Checkpoint struct {
	Path string

	best float64
}

func NewCheckpoint(path string) *Checkpoint {
	return &Checkpoint{Path: path, best: math.Inf(1)}
}

func (c *Checkpoint) Name() string {
	return "check_point"
}

func (c *Checkpoint) OnEpochEnd(x *XiRTNet, l EpochLog) (bool, error) {
	v := monitored(l)
	if v >= c.best {
		return false, nil
	}

	c.best = v
	if err := x.SaveWeights(c.Path); err != nil {
		return false, err
	}

	x.logger.Debug().Int("epoch", l.Epoch).Str("path", c.Path).Msg("saved checkpoint")
	return false, nil
}

// CSVLogger writes one row for every epoch to the file at Path, which is replaced at the first
// epoch. The columns are fixed by the first epoch.
type CSVLogger struct {
	Path string

	keys []string
}

func NewCSVLogger(path string) *CSVLogger {
	return &CSVLogger{Path: path}
}

func (c *CSVLogger) Name() string {
	return "log_csv"
}

func (c *CSVLogger) OnEpochEnd(x *XiRTNet, l EpochLog) (bool, error) {
	flags := os.O_WRONLY | os.O_APPEND
	if c.keys == nil {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

		c.keys = make([]string, 0, len(l.Metrics))
		for k := range l.Metrics {
			c.keys = append(c.keys, k)
		}
		sort.Strings(c.keys)
	}

	f, err := os.OpenFile(c.Path, flags, 0o644)
	if err != nil {
		return false, errors.Wrapf(err, "Failed to open epoch log %s", c.Path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if flags&os.O_TRUNC != 0 {
		header := append([]string{"epoch", "loss", "val_loss", "lr"}, c.keys...)
		if err := w.Write(header); err != nil {
			return false, errors.Wrapf(err, "Failed to write epoch log %s", c.Path)
		}
	}

	row := []string{
		strconv.Itoa(l.Epoch),
		formatFloat(l.Loss),
		formatFloat(l.ValLoss),
		formatFloat(l.LearningRate),
	}
	for _, k := range c.keys {
		row = append(row, formatFloat(l.Metrics[k]))
	}

	if err := w.Write(row); err != nil {
		return false, errors.Wrapf(err, "Failed to write epoch log %s", c.Path)
	}
	w.Flush()
	return false, errors.Wrapf(w.Error(), "Failed to write epoch log %s", c.Path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Progress logs the results of every epoch.
type Progress struct {
	logger zerolog.Logger
}

func NewProgress(logger zerolog.Logger) *Progress {
	return &Progress{logger}
}

func (p *Progress) Name() string {
	return "progress"
}

func (p *Progress) OnEpochEnd(x *XiRTNet, l EpochLog) (bool, error) {
	fields := make(map[string]interface{}, len(l.Metrics))
	for k, v := range l.Metrics {
		fields[k] = v
	}

	e := p.logger.Info().
		Int("epoch", l.Epoch).
		Float64("loss", l.Loss).
		Float64("lr", l.LearningRate).
		Fields(fields)
	if !math.IsNaN(l.ValLoss) {
		e = e.Float64("val_loss", l.ValLoss)
	}
	e.Msg("epoch finished")

	return false, nil
}

// GetCallbacks returns the callbacks enabled by the callback params. Files are written to the
// callback path (which is created if needed), with names ending in the given suffix.
//
// TensorBoard logging is not supported; enabling it only logs a warning.
func (x *XiRTNet) GetCallbacks(suffix string) ([]Callback, error) {
	c := x.Callbacks
	if suffix != "" {
		suffix = "_" + suffix
	}

	dir := c.CallbackPath
	if dir == "" {
		dir = "."
	}
	if c.CheckPoint || c.LogCSV {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "Failed to create callback path %s", dir)
		}
	}

	var cbs []Callback
	if c.EarlyStopping {
		patience := c.EarlyStoppingPatience
		if patience < 1 {
			patience = 1
		}
		cbs = append(cbs, NewEarlyStopping(patience))
	}
	if c.ReduceLR {
		cbs = append(cbs, NewReduceLR())
	}
	if len(x.Learning.DecayEpochs) != 0 {
		cbs = append(cbs, NewStepDecay())
	}
	if c.CheckPoint {
		cbs = append(cbs, NewCheckpoint(filepath.Join(dir, "xirt_weights"+suffix+".json")))
	}
	if c.LogCSV {
		cbs = append(cbs, NewCSVLogger(filepath.Join(dir, "xirt_epochlog"+suffix+".csv")))
	}
	if c.TensorBoard {
		x.logger.Warn().Msg("tensor_board callback is not supported, ignoring")
	}
	if c.ProgressBar || x.Learning.Verbose > 0 {
		cbs = append(cbs, NewProgress(x.logger))
	}

	return cbs, nil
}

// SaveWeights writes the weights of the model to a file.
func (x *XiRTNet) SaveWeights(path string) error {
	if x.model == nil {
		return errors.Wrap(ErrNotBuilt, "Can't save weights")
	}
	return x.model.Save(path)
}

// LoadWeights reads the weights of the model from a file written by SaveWeights. The model must
// have been built with the same params.
func (x *XiRTNet) LoadWeights(path string) error {
	if x.model == nil {
		return errors.Wrap(ErrNotBuilt, "Can't load weights")
	}
	return x.model.Load(path)
}
