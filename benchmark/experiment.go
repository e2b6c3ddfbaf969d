package benchmark

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/thalesfsp/ntbea"
)

//////
// Const, vars, types.
//////

// ModelType selects the landscape model of an experiment.
type ModelType string

const (
	// ModelSTD is the standard NTupleSystem.
	ModelSTD ModelType = "STD"

	// ModelEXP is the weighted model with ExpWeight.
	ModelEXP ModelType = "EXP"

	// ModelLIN is the weighted model with LinearWeight.
	ModelLIN ModelType = "LIN"

	// ModelINV is the weighted model with InverseWeight.
	ModelINV ModelType = "INV"

	// ModelSQRT is the weighted model with SqrtWeight.
	ModelSQRT ModelType = "SQRT"

	// ModelFIT is the regression model blended by the share of active
	// features.
	ModelFIT ModelType = "FIT"

	// ModelSTDFIT is the regression model blended with a fixed FitWeight.
	ModelSTDFIT ModelType = "STDFIT"

	// ModelGP is the kernel-smoothed model.
	ModelGP ModelType = "GP"
)

// Acquisitions maps the accepted Experiment.Acquisition names to their
// functions. The empty name selects UCB.
var Acquisitions = map[string]ntbea.AcquisitionFunc{
	"":    ntbea.UCB,
	"UCB": ntbea.UCB,
	"PI":  ntbea.ProbabilityOfImprovement,
	"EI":  ntbea.ExpectedImprovement,
	"TS":  ntbea.ThompsonSampling,
}

// ModelTypes lists every supported model type.
func ModelTypes() []ModelType {
	return []ModelType{ModelSTD, ModelEXP, ModelLIN, ModelINV, ModelSQRT, ModelFIT, ModelSTDFIT, ModelGP}
}

// Experiment describes a batch of independent optimisation runs of one
// benchmark function.
type Experiment struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Function is the name of a built-in Function.
	Function string `json:"function"`

	// Model is the landscape model type.
	Model ModelType `json:"model"`

	// Runs is the number of independent runs.
	Runs int `json:"runs"`

	// Evals is the evaluation budget of each run.
	Evals int `json:"evals"`

	// Discretisation is the number of values per dimension.
	Discretisation int `json:"discretisation"`

	KExplore float64 `json:"k_explore"`

	// MinWeight floors the weights of the EXP, LIN, INV and SQRT models.
	MinWeight float64 `json:"min_weight"`

	// FitWeight is the share of the regression fit for STDFIT.
	FitWeight float64 `json:"fit_weight"`

	// MaxFeatures caps the regression features; 0 means no cap.
	MaxFeatures int `json:"max_features"`

	// T is the weight temperature for EXP, LIN, INV and SQRT, and the visit
	// threshold of a regression feature for FIT and STDFIT.
	T int `json:"t"`

	// Neighbourhood is the number of neighbours scored per iteration. 0
	// means min(50, 1% of the space).
	Neighbourhood int `json:"neighbourhood"`

	UseThreeTuples bool `json:"use_three_tuples"`

	// Acquisition names the function ranking neighbours: UCB, PI, EI or TS.
	Acquisition string `json:"acquisition,omitempty"`

	// Deterministic evaluates the exact function value instead of a
	// Bernoulli trial.
	Deterministic bool `json:"deterministic"`

	// Workers is the number of runs executed concurrently.
	Workers int `json:"workers"`

	// Seed makes the experiment reproducible; run i uses Seed + i.
	Seed int64 `json:"seed"`
}

// RunOutcome is the result of one run.
type RunOutcome struct {
	ID    string `json:"id"`
	Index int    `json:"index"`

	// Choice is the best sampled point and Values its coordinates.
	Choice ntbea.Point `json:"choice"`
	Values []float64   `json:"values"`

	// Predicted is the model's estimate of Choice, Actual the function value.
	Predicted float64 `json:"predicted"`
	Actual    float64 `json:"actual"`
	Delta     float64 `json:"delta"`

	Evaluations int           `json:"evaluations"`
	Duration    time.Duration `json:"duration"`

	// Snapshot holds the final tuple statistics of tuple-based models.
	Snapshot []ntbea.TupleSnapshot `json:"-"`
}

// Popularity counts how many runs settled on the same choice.
type Popularity struct {
	Key    string  `json:"key"`
	Count  int     `json:"count"`
	Actual float64 `json:"actual"`
}

// Report is the outcome of an experiment.
type Report struct {
	Experiment Experiment
	Outcomes   []RunOutcome
	Collator   *StatsCollator
	Popular    []Popularity
}

// RunOptions are the optional hooks of RunExperiment.
type RunOptions struct {
	// Logger receives experiment logs. Nil discards them.
	Logger *slog.Logger

	// Progress receives the optimiser's updates of every run.
	Progress chan<- ntbea.ProgressUpdate

	// OnRun is called after each run, possibly concurrently.
	OnRun func(Experiment, RunOutcome)
}

//////
// Factory.
//////

// DefaultExperiment returns the settings of a standard run on fn.
func DefaultExperiment(fn string) Experiment {
	return Experiment{
		Function:       fn,
		Model:          ModelSTD,
		Runs:           10,
		Evals:          1000,
		Discretisation: 10,
		KExplore:       100,
		FitWeight:      0.5,
		T:              30,
		Workers:        1,
		Seed:           1,
	}
}

//////
// Methods.
//////

// Validate checks the experiment.
func (e Experiment) Validate() error {
	switch {
	case e.Runs < 1:
		return fmt.Errorf("%w: runs must be positive, got %d", ErrInvalidExperiment, e.Runs)
	case e.Evals < 1:
		return fmt.Errorf("%w: evals must be positive, got %d", ErrInvalidExperiment, e.Evals)
	case e.Discretisation < 1:
		return fmt.Errorf("%w: discretisation must be positive, got %d", ErrInvalidExperiment, e.Discretisation)
	case e.KExplore < 0:
		return fmt.Errorf("%w: k explore must be non-negative, got %v", ErrInvalidExperiment, e.KExplore)
	case e.FitWeight < 0 || e.FitWeight > 1:
		return fmt.Errorf("%w: fit weight must be in [0, 1], got %v", ErrInvalidExperiment, e.FitWeight)
	case e.T < 1:
		return fmt.Errorf("%w: T must be positive, got %d", ErrInvalidExperiment, e.T)
	}

	if _, err := FunctionByName(e.Function); err != nil {
		return err
	}

	if !slices.Contains(ModelTypes(), e.Model) {
		return fmt.Errorf("%w: %q", ErrUnknownModel, e.Model)
	}

	if _, ok := Acquisitions[e.Acquisition]; !ok {
		return fmt.Errorf("%w: unknown acquisition %q", ErrInvalidExperiment, e.Acquisition)
	}

	return nil
}

// neighbourhood returns the requested neighbourhood size.
func (e Experiment) neighbourhood(space ntbea.SearchSpace) int {
	if e.Neighbourhood > 0 {
		return e.Neighbourhood
	}

	return int(math.Min(50, float64(ntbea.Size(space))*0.01))
}

//////
// Exported functionalities.
//////

// NewModel builds the landscape model selected by exp.Model over space.
func NewModel(exp Experiment, space ntbea.SearchSpace) (ntbea.BanditLandscapeModel, error) {
	cfg := ntbea.DefaultTupleConfig()
	cfg.Three = exp.UseThreeTuples

	t := float64(max(exp.T, 1))

	switch exp.Model {
	case ModelSTD:
		return ntbea.NewNTupleSystem(space, cfg)
	case ModelEXP, ModelLIN, ModelINV, ModelSQRT:
		weight := map[ModelType]ntbea.WeightFunc{
			ModelEXP:  ntbea.ExpWeight(t),
			ModelLIN:  ntbea.LinearWeight(t),
			ModelINV:  ntbea.InverseWeight(t),
			ModelSQRT: ntbea.SqrtWeight(t),
		}[exp.Model]

		m, err := ntbea.NewWeightedNTupleSystem(space, cfg, weight)
		if err != nil {
			return nil, err
		}

		m.MinWeight = exp.MinWeight

		return m, nil
	case ModelFIT, ModelSTDFIT:
		m, err := ntbea.NewRegressionNTupleSystem(space, cfg)
		if err != nil {
			return nil, err
		}

		m.Threshold = exp.T
		m.MaxFeatures = exp.MaxFeatures
		m.InterpolateByTuple = exp.Model == ModelFIT
		m.Interpolation = exp.FitWeight

		return m, nil
	case ModelGP:
		return ntbea.NewKernelModel(space), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, exp.Model)
	}
}

// RunExperiment runs exp.Runs independent optimisations of exp.Function.
//
// Runs execute on up to exp.Workers goroutines; every run owns its model,
// evaluator and random source, so outcomes do not depend on scheduling. A
// cancelled ctx stops runs that have not started yet and the error is
// returned.
//
// Returns:
// - *Report: Outcomes in run order, the ActualValue and Delta statistics and
// the ten most popular choices
// - error: Invalid experiment, a failed run or ctx's error
func RunExperiment(ctx context.Context, exp Experiment, opts RunOptions) (*Report, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	if exp.ID == "" {
		exp.ID = uuid.NewString()
	}

	if exp.CreatedAt.IsZero() {
		exp.CreatedAt = time.Now().UTC()
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	f, _ := FunctionByName(exp.Function)
	space := NewFunctionSpace(f.Dimension(), exp.Discretisation)

	log.Info("experiment started",
		"id", exp.ID,
		"function", exp.Function,
		"model", exp.Model,
		"runs", exp.Runs,
		"evals", exp.Evals,
		"size", ntbea.Size(space),
	)

	outcomes := make([]RunOutcome, exp.Runs)

	var mu sync.Mutex

	p := pool.New().
		WithErrors().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(max(exp.Workers, 1))

	for i := range exp.Runs {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			out, err := runOnce(exp, f, space, i, opts.Progress)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}

			mu.Lock()
			outcomes[i] = out
			mu.Unlock()

			log.Debug("run finished",
				"run", i,
				"choice", out.Choice,
				"actual", out.Actual,
				"predicted", out.Predicted,
				"duration", out.Duration,
			)

			if opts.OnRun != nil {
				opts.OnRun(exp, out)
			}

			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Experiment: exp,
		Outcomes:   outcomes,
		Collator:   NewStatsCollator(),
	}

	for _, out := range outcomes {
		report.Collator.AddDetailed("ActualValue", out.Actual)
		report.Collator.AddDetailed("Delta", out.Delta)
		report.Collator.Add("Evaluations", float64(out.Evaluations))
	}

	report.Popular = popular(outcomes, 10)

	log.Info("experiment finished",
		"id", exp.ID,
		"actual_mean", report.Collator.Mean("ActualValue"),
		"delta_mean", report.Collator.Mean("Delta"),
	)

	return report, nil
}

//////
// Helper functions.
//////

func runOnce(
	exp Experiment,
	f Function,
	space *FunctionSpace,
	index int,
	progress chan<- ntbea.ProgressUpdate,
) (RunOutcome, error) {
	start := time.Now()

	model, err := NewModel(exp, space)
	if err != nil {
		return RunOutcome{}, err
	}

	rng := rand.New(rand.NewSource(exp.Seed + int64(index)))

	evaluator := NewFunctionEvaluator(f, space, rand.New(rand.NewSource(rng.Int63())))
	evaluator.Deterministic = exp.Deterministic

	config := ntbea.DefaultConfig()
	config.KExplore = exp.KExplore
	config.NNeighbours = max(exp.neighbourhood(space), 1)
	config.RandomState = rng
	config.ProgressChan = progress
	config.Acquisition = Acquisitions[exp.Acquisition]

	result, err := ntbea.New(model, config).RunTrial(evaluator, exp.Evals)
	if err != nil {
		return RunOutcome{}, err
	}

	values := space.ValueAt(result.Best)
	actual := f.Value(values)
	predicted := model.MeanEstimate(result.Best)

	out := RunOutcome{
		ID:          uuid.NewString(),
		Index:       index,
		Choice:      result.Best,
		Values:      values,
		Predicted:   predicted,
		Actual:      actual,
		Delta:       predicted - actual,
		Evaluations: result.Evaluations,
		Duration:    time.Since(start),
	}

	if s, ok := model.(interface{ Snapshot() []ntbea.TupleSnapshot }); ok {
		out.Snapshot = s.Snapshot()
	}

	return out, nil
}

// ChoiceKey formats coordinates the way popular choices are grouped.
func ChoiceKey(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.3f", v)
	}

	return strings.Join(parts, ",")
}

// popular returns the n most frequent choices, ties by key.
func popular(outcomes []RunOutcome, n int) []Popularity {
	counts := make(map[string]*Popularity)

	for _, out := range outcomes {
		key := ChoiceKey(out.Values)

		p, ok := counts[key]
		if !ok {
			p = &Popularity{Key: key, Actual: out.Actual}
			counts[key] = p
		}

		p.Count++
	}

	list := make([]Popularity, 0, len(counts))
	for _, p := range counts {
		list = append(list, *p)
	}

	slices.SortFunc(list, func(a, b Popularity) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.Key, b.Key)
	})

	return list[:min(n, len(list))]
}
