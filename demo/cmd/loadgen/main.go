package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/journal/oteladapters"
	"github.com/openshelf/circulation-go/journal/postgresengine"
	"github.com/openshelf/circulation-go/relay"
	"github.com/openshelf/circulation-go/shell"
	"github.com/openshelf/circulation-go/testutil/config"
)

const (
	defaultRate            = 25
	defaultInitialBooks    = 200
	defaultInitialReaders  = 50
	defaultScenarioWeights = "60,40" // borrow, return
)

// Config holds the load generator settings parsed from command line flags.
type Config struct {
	Rate                 int
	DurationSec          int
	InitialBooks         int
	InitialReaders       int
	ScenarioWeights      []int
	ObservabilityEnabled bool
}

func main() {
	cfg := parseFlags()

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgxPool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolSingleConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create pgx pool")
	}
	defer pgxPool.Close()

	if err = pgxPool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	journalOptions := []postgresengine.Option{
		postgresengine.WithLogger(newZerologAdapter(logger)),
	}

	instrumentation := shell.Instrumentation{}
	if cfg.ObservabilityEnabled {
		tracer := otel.Tracer("circulation-loadgen")
		meter := otel.Meter("circulation-loadgen")

		metricsCollector := oteladapters.NewMetricsCollector(meter)
		tracingCollector := oteladapters.NewTracingCollector(tracer)
		contextualLogger := oteladapters.NewSlogBridgeLogger("circulation-loadgen")

		journalOptions = append(journalOptions,
			postgresengine.WithMetrics(metricsCollector),
			postgresengine.WithTracing(tracingCollector),
			postgresengine.WithContextualLogger(contextualLogger),
		)
		instrumentation = shell.Instrumentation{
			ContextualLogger: contextualLogger,
			Metrics:          metricsCollector,
			Tracing:          tracingCollector,
		}

		logger.Info().Msg("observability enabled")
	}

	circulationJournal, err := postgresengine.NewJournalFromPGXPool(pgxPool, journalOptions...)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create journal")
	}

	eventRelay, err := relay.NewRabbitRelay(config.RabbitURL(), "circulation", newZerologAdapter(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}
	defer func() { _ = eventRelay.Close() }()
	if eventRelay != nil {
		logger.Info().Msg("event relay enabled")
	}

	loadGen := NewLoadGenerator(circulationJournal, cfg, instrumentation, eventRelay, logger)

	logger.Info().
		Int("rate", cfg.Rate).
		Int("initial_books", cfg.InitialBooks).
		Int("initial_readers", cfg.InitialReaders).
		Ints("scenario_weights", cfg.ScenarioWeights).
		Msg("circulation load generator starting")

	if err = loadGen.Seed(ctx); err != nil {
		logger.Fatal().Err(err).Msg("seeding failed")
	}

	runCtx := ctx
	if cfg.DurationSec > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.DurationSec)*time.Second)
		defer cancel()
	}

	logger.Info().Msg("load generation running, press Ctrl+C to stop")

	if err = loadGen.Run(runCtx); err != nil && ctx.Err() == nil && runCtx.Err() == nil {
		logger.Error().Err(err).Msg("load generation failed")
	}

	if loadGen.ReportAndVerify() {
		logger.Info().Msg("load generator stopped, all invariants held")
		return
	}

	logger.Error().Msg("load generator stopped, invariant violations observed")
	os.Exit(1)
}

func parseFlags() Config {
	var (
		rate            = flag.Int("rate", defaultRate, "Requests per second")
		durationSec     = flag.Int("duration", 0, "Run duration in seconds (0 = until signal)")
		initialBooks    = flag.Int("initial-books", defaultInitialBooks, "Number of books to publish before load starts")
		initialReaders  = flag.Int("initial-readers", defaultInitialReaders, "Number of readers to register before load starts")
		scenarioWeights = flag.String("scenario-weights", defaultScenarioWeights, "Comma-separated weights for borrow,return scenarios")
		observability   = flag.Bool("observability-enabled", false, "Enable OpenTelemetry observability")
	)

	flag.Parse()

	weights, err := parseScenarioWeights(*scenarioWeights)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid scenario weights %q: %v\n", *scenarioWeights, err)
		os.Exit(2)
	}

	return Config{
		Rate:                 *rate,
		DurationSec:          *durationSec,
		InitialBooks:         *initialBooks,
		InitialReaders:       *initialReaders,
		ScenarioWeights:      weights,
		ObservabilityEnabled: *observability,
	}
}

func parseScenarioWeights(weightsStr string) ([]int, error) {
	parts := strings.Split(weightsStr, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected 2 weights, got %d", len(parts))
	}

	weights := make([]int, 2)
	total := 0
	for i, part := range parts {
		weight, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", part, err)
		}
		if weight < 0 || weight > 100 {
			return nil, fmt.Errorf("weight %d out of range [0, 100]", weight)
		}
		weights[i] = weight
		total += weight
	}

	if total != 100 {
		return nil, fmt.Errorf("weights must sum to 100, got %d", total)
	}

	return weights, nil
}

// zerologAdapter adapts a zerolog.Logger to the journal.Logger interface so
// the engine and the relay can log through the demo binary's logger.
type zerologAdapter struct {
	logger zerolog.Logger
}

func newZerologAdapter(logger zerolog.Logger) zerologAdapter {
	return zerologAdapter{logger: logger}
}

func (a zerologAdapter) Debug(msg string, args ...any) {
	a.logger.Debug().Fields(args).Msg(msg)
}

func (a zerologAdapter) Info(msg string, args ...any) {
	a.logger.Info().Fields(args).Msg(msg)
}

func (a zerologAdapter) Warn(msg string, args ...any) {
	a.logger.Warn().Fields(args).Msg(msg)
}

func (a zerologAdapter) Error(msg string, args ...any) {
	a.logger.Error().Fields(args).Msg(msg)
}

var _ journal.Logger = zerologAdapter{}
