// Package main implements a load generator that drives concurrent borrow and
// return traffic against the circulation journal and verifies, from observed
// outcomes, that availability never goes negative and that no reader ever
// exceeds the borrow limit.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/features/command/borrowbook"
	"github.com/openshelf/circulation-go/features/command/publishbook"
	"github.com/openshelf/circulation-go/features/command/registerreader"
	"github.com/openshelf/circulation-go/features/command/returnbook"
	"github.com/openshelf/circulation-go/holdings"
	"github.com/openshelf/circulation-go/journal/postgresengine"
	"github.com/openshelf/circulation-go/relay"
	"github.com/openshelf/circulation-go/shell"
)

const (
	seedConcurrency   = 8
	scenarioTimeout   = 5 * time.Second
	statsLogInterval  = 10 * time.Second
	maxSeedStock      = 5
	inFlightScenarios = 64
)

var seedGenres = []string{"Software", "Fantasy", "History", "Science", "Poetry"}

// LoadGenerator orchestrates weighted borrow/return load against the journal.
type LoadGenerator struct {
	config Config
	logger zerolog.Logger

	publishHandler  publishbook.CommandHandler
	registerHandler registerreader.CommandHandler
	borrowHandler   borrowbook.CommandHandler
	returnHandler   returnbook.CommandHandler

	mu                   sync.Mutex
	requestCount         int64
	rejectedCount        int64
	errorCount           int64
	observedHolds        map[uuid.UUID]int
	maxObservedHolds     int
	minObservedAvailable int
	violations           int
	startTime            time.Time
}

// NewLoadGenerator wires the command handlers for the scenarios. The relay,
// when enabled, is registered as commit listener on the borrow and return
// handlers so committed events are published downstream.
func NewLoadGenerator(
	circulationJournal postgresengine.Journal,
	config Config,
	instrumentation shell.Instrumentation,
	eventRelay *relay.RabbitRelay,
	logger zerolog.Logger,
) *LoadGenerator {

	borrowOptions := []borrowbook.Option{borrowbook.WithInstrumentation(instrumentation)}
	returnOptions := []returnbook.Option{returnbook.WithInstrumentation(instrumentation)}
	if eventRelay != nil {
		borrowOptions = append(borrowOptions, borrowbook.WithCommitListener(eventRelay))
		returnOptions = append(returnOptions, returnbook.WithCommitListener(eventRelay))
	}

	return &LoadGenerator{
		config:               config,
		logger:               logger,
		publishHandler:       publishbook.NewCommandHandler(circulationJournal, publishbook.WithInstrumentation(instrumentation)),
		registerHandler:      registerreader.NewCommandHandler(circulationJournal, registerreader.WithInstrumentation(instrumentation)),
		borrowHandler:        borrowbook.NewCommandHandler(circulationJournal, borrowOptions...),
		returnHandler:        returnbook.NewCommandHandler(circulationJournal, returnOptions...),
		observedHolds:        make(map[uuid.UUID]int),
		minObservedAvailable: 0,
	}
}

// Seed publishes the initial books and registers the initial readers.
// Publishing an already published book or registering an already registered
// reader is rejected by the handlers, which makes reruns against a journal
// from a previous run harmless.
func (lg *LoadGenerator) Seed(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(seedConcurrency)

	for bookNum := 1; bookNum <= lg.config.InitialBooks; bookNum++ {
		group.Go(func() error {
			command := publishbook.BuildCommand(
				bookIDFor(bookNum),
				fmt.Sprintf("Load Test Book %d", bookNum),
				seedGenres[bookNum%len(seedGenres)],
				uuid.NewSHA1(uuid.NameSpaceOID, []byte("load-test-author")),
				rand.Intn(maxSeedStock)+1, //nolint:gosec // weak random is fine for load generation
				time.Now(),
			)

			_, err := lg.publishHandler.Handle(groupCtx, command)
			if err != nil && !core.IsDomainError(err) {
				return fmt.Errorf("publishing book %d: %w", bookNum, err)
			}

			return nil
		})
	}

	for readerNum := 1; readerNum <= lg.config.InitialReaders; readerNum++ {
		group.Go(func() error {
			command := registerreader.BuildCommand(
				readerIDFor(readerNum),
				fmt.Sprintf("Load Test Reader %d", readerNum),
				time.Now(),
			)

			_, err := lg.registerHandler.Handle(groupCtx, command)
			if err != nil && !core.IsDomainError(err) {
				return fmt.Errorf("registering reader %d: %w", readerNum, err)
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	lg.logger.Info().
		Int("books", lg.config.InitialBooks).
		Int("readers", lg.config.InitialReaders).
		Msg("seeding complete")

	return nil
}

// Run drives scenarios at the configured rate until the context is done.
func (lg *LoadGenerator) Run(ctx context.Context) error {
	lg.mu.Lock()
	lg.startTime = time.Now()
	lg.mu.Unlock()

	interval := time.Second / time.Duration(lg.config.Rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(statsLogInterval)
	defer statsTicker.Stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(inFlightScenarios)

	for {
		select {
		case <-groupCtx.Done():
			waitErr := group.Wait()
			if waitErr != nil {
				return waitErr
			}

			return ctx.Err()

		case <-statsTicker.C:
			lg.logCurrentStats()

		case <-ticker.C:
			group.Go(func() error {
				lg.executeScenario(groupCtx)
				return nil
			})
		}
	}
}

func (lg *LoadGenerator) executeScenario(ctx context.Context) {
	opCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
	defer cancel()

	bookID := bookIDFor(rand.Intn(lg.config.InitialBooks) + 1)     //nolint:gosec // weak random is fine for load generation
	readerID := readerIDFor(rand.Intn(lg.config.InitialReaders) + 1) //nolint:gosec // weak random is fine for load generation

	if rand.Intn(100) < lg.config.ScenarioWeights[0] { //nolint:gosec // weak random is fine for load generation
		lg.runBorrowScenario(opCtx, bookID, readerID)
		return
	}

	lg.runReturnScenario(opCtx, bookID, readerID)
}

func (lg *LoadGenerator) runBorrowScenario(ctx context.Context, bookID uuid.UUID, readerID uuid.UUID) {
	result, err := lg.borrowHandler.Handle(ctx, borrowbook.BuildCommand(bookID, readerID, time.Now()))

	lg.mu.Lock()
	defer lg.mu.Unlock()
	lg.requestCount++

	switch {
	case err == nil:
		lg.observedHolds[readerID]++
		if lg.observedHolds[readerID] > lg.maxObservedHolds {
			lg.maxObservedHolds = lg.observedHolds[readerID]
		}
		if lg.observedHolds[readerID] > holdings.BorrowLimit {
			lg.violations++
			lg.logger.Error().
				Str("reader_id", readerID.String()).
				Int("holds", lg.observedHolds[readerID]).
				Msg("borrow accepted beyond the borrow limit")
		}
		if result.Availability.Available < lg.minObservedAvailable {
			lg.minObservedAvailable = result.Availability.Available
		}
		if result.Availability.Available < 0 {
			lg.violations++
			lg.logger.Error().
				Str("book_id", bookID.String()).
				Int("available", result.Availability.Available).
				Msg("availability went negative")
		}

	case core.IsDomainError(err):
		lg.rejectedCount++

	case ctx.Err() != nil:
		// Shutdown in flight, not an error.

	default:
		lg.errorCount++
		lg.logger.Warn().Err(err).Msg("borrow scenario failed")
	}
}

func (lg *LoadGenerator) runReturnScenario(ctx context.Context, bookID uuid.UUID, readerID uuid.UUID) {
	result, err := lg.returnHandler.Handle(ctx, returnbook.BuildCommand(bookID, readerID, time.Now()))

	lg.mu.Lock()
	defer lg.mu.Unlock()
	lg.requestCount++

	switch {
	case err == nil:
		lg.observedHolds[readerID]--
		if result.Availability.Available < 0 {
			lg.violations++
			lg.logger.Error().
				Str("book_id", bookID.String()).
				Int("available", result.Availability.Available).
				Msg("availability went negative")
		}

	case core.IsDomainError(err):
		lg.rejectedCount++

	case ctx.Err() != nil:
		// Shutdown in flight, not an error.

	default:
		lg.errorCount++
		lg.logger.Warn().Err(err).Msg("return scenario failed")
	}
}

func (lg *LoadGenerator) logCurrentStats() {
	lg.mu.Lock()
	duration := time.Since(lg.startTime)
	requests := lg.requestCount
	rejected := lg.rejectedCount
	failed := lg.errorCount
	lg.mu.Unlock()

	if duration <= 0 {
		return
	}

	lg.logger.Info().
		Int64("requests", requests).
		Int64("rejected", rejected).
		Int64("failed", failed).
		Float64("rps", float64(requests)/duration.Seconds()).
		Msg("load stats")
}

// ReportAndVerify logs the final statistics and reports whether the observed
// outcomes stayed within the circulation invariants.
func (lg *LoadGenerator) ReportAndVerify() bool {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	duration := time.Since(lg.startTime)
	rps := 0.0
	if duration > 0 {
		rps = float64(lg.requestCount) / duration.Seconds()
	}

	lg.logger.Info().
		Int64("requests", lg.requestCount).
		Int64("rejected", lg.rejectedCount).
		Int64("failed", lg.errorCount).
		Float64("rps", rps).
		Int("max_observed_holds", lg.maxObservedHolds).
		Int("min_observed_available", lg.minObservedAvailable).
		Int("violations", lg.violations).
		Msg("final load stats")

	return lg.violations == 0
}

// bookIDFor derives a stable UUID for a numbered load test book, so reruns
// address the same catalog.
func bookIDFor(bookNum int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("load-test-book-%d", bookNum)))
}

func readerIDFor(readerNum int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("load-test-reader-%d", readerNum)))
}
