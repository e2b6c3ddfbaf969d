package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/thalesfsp/ntbea"
	"github.com/thalesfsp/ntbea/benchmark"
	"github.com/thalesfsp/ntbea/internal/config"
	"github.com/thalesfsp/ntbea/internal/metrics"
	"github.com/thalesfsp/ntbea/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.App, os.Stderr)

	switch args[0] {
	case "run":
		return runRun(ctx, cfg, logger, args[1:], out)
	case "list":
		return runList(ctx, cfg, args[1:], out)
	case "show":
		return runShow(ctx, cfg, args[1:], out)
	case "functions":
		return runFunctions(out)
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	storeKind := fs.String("store", cfg.Storage.Backend, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", cfg.Storage.SQLitePath, "sqlite database path")
	function := fs.String("function", "Hartmann3", "benchmark function")
	model := fs.String("model", string(benchmark.ModelSTD), "landscape model: "+modelNames())
	runs := fs.Int("runs", cfg.Search.Runs, "independent runs")
	evals := fs.Int("evals", cfg.Search.Evals, "evaluations per run")
	discretisation := fs.Int("discretisation", cfg.Search.Discretisation, "values per dimension")
	kExplore := fs.Float64("k", cfg.Search.KExplore, "exploration factor")
	minWeight := fs.Float64("min-weight", 0, "minimum tuple weight of weighted models")
	fitWeight := fs.Float64("fit-weight", 0.5, "regression interpolation weight")
	maxFeatures := fs.Int("max-features", 0, "regression feature cap (0 for no cap)")
	threshold := fs.Int("t", 30, "weighting scale or regression threshold")
	neighbours := fs.Int("neighbours", 0, "neighbourhood size (0 for the default)")
	acquisition := fs.String("acquisition", "UCB", "neighbour ranking: UCB|PI|EI|TS")
	threeTuples := fs.Bool("three-tuples", false, "add every 3-tuple to the model")
	deterministic := fs.Bool("deterministic", false, "return the function value instead of a Bernoulli sample")
	workers := fs.Int("workers", cfg.Search.Workers, "concurrent runs")
	seed := fs.Int64("seed", cfg.Search.Seed, "seed of the first run")
	serveMetrics := fs.Bool("metrics", cfg.Metrics.Enabled, "serve Prometheus metrics while running")
	if err := fs.Parse(args); err != nil {
		return err
	}

	exp := benchmark.DefaultExperiment(*function)
	exp.Model = benchmark.ModelType(strings.ToUpper(*model))
	exp.Runs = *runs
	exp.Evals = *evals
	exp.Discretisation = *discretisation
	exp.KExplore = *kExplore
	exp.MinWeight = *minWeight
	exp.FitWeight = *fitWeight
	exp.MaxFeatures = *maxFeatures
	exp.T = *threshold
	exp.Neighbourhood = *neighbours
	exp.UseThreeTuples = *threeTuples
	exp.Acquisition = strings.ToUpper(*acquisition)
	exp.Deterministic = *deterministic
	exp.Workers = *workers
	exp.Seed = *seed

	if err := exp.Validate(); err != nil {
		return err
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if isMemoryStore(*storeKind) {
		logger.Warn("results are kept in memory and discarded on exit", "store", *storeKind)
	}

	recorder := metrics.NewRecorder()

	if *serveMetrics {
		srv := metrics.NewServer(recorder, cfg.Metrics.Port, logger)
		srv.Start()

		defer func() {
			if err := srv.Shutdown(5 * time.Second); err != nil {
				logger.Error("Metrics server shutdown error", "error", err)
			}
		}()
	}

	progress := make(chan ntbea.ProgressUpdate, 256)
	consumeCtx, stopConsume := context.WithCancel(ctx)
	consumed := make(chan struct{})

	go func() {
		recorder.Consume(consumeCtx, exp.Function, progress)
		close(consumed)
	}()

	report, err := benchmark.RunExperiment(ctx, exp, benchmark.RunOptions{
		Logger:   logger,
		Progress: progress,
		OnRun: func(e benchmark.Experiment, o benchmark.RunOutcome) {
			recorder.ObserveRun(e, o)
			logger.Debug("run finished",
				"experiment", e.ID,
				"run", o.Index,
				"actual", o.Actual,
				"predicted", o.Predicted,
				"duration", o.Duration,
			)
		},
	})

	close(progress)
	<-consumed
	stopConsume()

	if err != nil {
		return err
	}

	if err := storage.SaveReport(ctx, store, report); err != nil {
		return err
	}

	printReport(out, report)

	return nil
}

func runList(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	storeKind := fs.String("store", cfg.Storage.Backend, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", cfg.Storage.SQLitePath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.ListExperiments(ctx)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "no experiments")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tFUNCTION\tMODEL\tRUNS\tEVALS\tACTUAL")

	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%.4f\n",
			r.Experiment.ID,
			humanize.Time(r.Experiment.CreatedAt),
			r.Experiment.Function,
			r.Experiment.Model,
			r.Experiment.Runs,
			humanize.Comma(int64(r.Experiment.Evals)),
			r.Summary.ActualMean,
		)
	}

	return w.Flush()
}

func runShow(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	storeKind := fs.String("store", cfg.Storage.Backend, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", cfg.Storage.SQLitePath, "sqlite database path")
	id := fs.String("id", "", "experiment id")
	tuples := fs.Int("tuples", 0, "print the top patterns per tuple of the best run (0 to skip)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *id == "" {
		return usageError("show requires --id")
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	record, ok, err := store.GetExperiment(ctx, *id)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("experiment %s not found", *id)
	}

	runs, err := store.ListRuns(ctx, *id)
	if err != nil {
		return err
	}

	e := record.Experiment
	fmt.Fprintf(out, "experiment %s (%s)\n", e.ID, humanize.Time(e.CreatedAt))
	fmt.Fprintf(out, "function=%s model=%s runs=%d evals=%s discretisation=%d k=%g\n",
		e.Function, e.Model, e.Runs, humanize.Comma(int64(e.Evals)), e.Discretisation, e.KExplore)
	fmt.Fprintf(out, "actual mean=%.4f (±%.4f) delta mean=%.4f\n",
		record.Summary.ActualMean, record.Summary.ActualStdErr, record.Summary.DeltaMean)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCHOICE\tPREDICTED\tACTUAL\tEVALS\tDURATION")

	for _, r := range runs {
		o := r.Outcome
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%.4f\t%s\t%s\n",
			o.Index,
			benchmark.ChoiceKey(o.Values),
			o.Predicted,
			o.Actual,
			humanize.Comma(int64(o.Evaluations)),
			o.Duration.Round(time.Millisecond),
		)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	if *tuples <= 0 || len(runs) == 0 {
		return nil
	}

	best := runs[0]
	for _, r := range runs[1:] {
		if r.Outcome.Actual > best.Outcome.Actual {
			best = r
		}
	}

	snap, ok, err := store.GetSnapshot(ctx, best.Outcome.ID)
	if err != nil {
		return err
	}

	if !ok {
		fmt.Fprintf(out, "run %d has no tuple snapshot\n", best.Outcome.Index)
		return nil
	}

	printSnapshot(out, best.Outcome.Index, snap.Tuples, *tuples)

	return nil
}

func runFunctions(out io.Writer) error {
	for _, f := range benchmark.Functions() {
		fmt.Fprintf(out, "%s\t%d dimensions\n", f.Name(), f.Dimension())
	}

	return nil
}

//////
// Helper functions.
//////

func openStore(ctx context.Context, kind, path string) (storage.Store, error) {
	store, err := storage.NewStore(kind, path)
	if err != nil {
		return nil, err
	}

	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

func isMemoryStore(kind string) bool {
	return kind == "" || kind == "memory"
}

// newLogger returns a text logger for terminals and a JSON logger otherwise,
// unless the format is forced.
func newLogger(cfg config.AppConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	format := cfg.LogFormat
	if format == "auto" || format == "" {
		format = "json"
		if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			format = "text"
		}
	}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("app", cfg.Name)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}

	return level
}

func printReport(out io.Writer, report *benchmark.Report) {
	e := report.Experiment

	var evaluations int
	for _, o := range report.Outcomes {
		evaluations += o.Evaluations
	}

	fmt.Fprintf(out, "experiment %s: %s/%s, %d runs, %s evaluations\n",
		e.ID, e.Function, e.Model, e.Runs, humanize.Comma(int64(evaluations)))
	fmt.Fprint(out, report.Collator.Summary())

	if len(report.Popular) > 0 {
		fmt.Fprintln(out, "most popular choices:")

		for _, p := range report.Popular {
			fmt.Fprintf(out, "  %s  x%d  actual=%.4f\n", p.Key, p.Count, p.Actual)
		}
	}
}

// printSnapshot prints the top patterns by mean of every tuple.
func printSnapshot(out io.Writer, run int, tuples []ntbea.TupleSnapshot, top int) {
	fmt.Fprintf(out, "tuple statistics of run %d:\n", run)

	for _, t := range tuples {
		patterns := slices.Clone(t.Patterns)
		slices.SortStableFunc(patterns, func(a, b ntbea.PatternStats) int {
			return cmp.Compare(b.Mean, a.Mean)
		})

		fmt.Fprintf(out, "  dims %v: %s samples, %d patterns\n", t.Dims, humanize.Comma(int64(t.NSamples)), len(t.Patterns))

		for _, p := range patterns[:min(top, len(patterns))] {
			fmt.Fprintf(out, "    %v  n=%d  mean=%.4f  sd=%.4f\n", p.Pattern, p.N, p.Mean, p.SD)
		}
	}
}

func modelNames() string {
	names := make([]string, 0, len(benchmark.ModelTypes()))
	for _, m := range benchmark.ModelTypes() {
		names = append(names, string(m))
	}

	return strings.Join(names, "|")
}

func usageError(msg string) error {
	return errors.New(msg + "\nusage: ntbea <run|list|show|functions> [flags]")
}
