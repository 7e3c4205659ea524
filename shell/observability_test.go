package shell_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation-go/shell"
	"github.com/openshelf/circulation-go/testutil/spies"
)

func Test_Instrumentation_StartSpan_FinishesSpanThroughCollector(t *testing.T) {
	// arrange
	tracingSpy := spies.NewTracingCollectorSpy(true)
	instrumentation := shell.Instrumentation{Tracing: tracingSpy}

	// act
	_, finishSpan := instrumentation.StartSpan(context.Background(), shell.SpanCommandHandler, map[string]string{
		shell.AttrCommandType: "BorrowBook",
	})
	finishSpan(shell.StatusSuccess)

	// assert
	require.Len(t, tracingSpy.GetStartedSpans(), 1)
	assert.True(t, tracingSpy.HasFinishedSpan(shell.SpanCommandHandler, shell.StatusSuccess))
	assert.True(t, tracingSpy.GetStartedSpans()[0].Finished)
}

func Test_Instrumentation_StartSpan_FinishReportsTheGivenStatus(t *testing.T) {
	// arrange
	tracingSpy := spies.NewTracingCollectorSpy(true)
	instrumentation := shell.Instrumentation{Tracing: tracingSpy}

	// act
	_, finishSpan := instrumentation.StartSpan(context.Background(), shell.SpanQueryHandler, nil)
	finishSpan(shell.StatusError)

	// assert
	assert.True(t, tracingSpy.HasFinishedSpan(shell.SpanQueryHandler, shell.StatusError))
	assert.False(t, tracingSpy.HasFinishedSpan(shell.SpanQueryHandler, shell.StatusSuccess))
}

func Test_Instrumentation_StartSpan_WithoutTracingIsANoOp(t *testing.T) {
	// arrange
	instrumentation := shell.Instrumentation{}

	// act
	ctx, finishSpan := instrumentation.StartSpan(context.Background(), shell.SpanCommandHandler, nil)

	// assert
	assert.Equal(t, context.Background(), ctx)
	assert.NotPanics(t, func() { finishSpan(shell.StatusSuccess) })
}

func Test_Instrumentation_RecordHandlerOutcome_PrefersContextualCollector(t *testing.T) {
	// arrange
	metricsSpy := spies.NewMetricsCollectorSpy(true)
	instrumentation := shell.Instrumentation{Metrics: metricsSpy}

	// act
	instrumentation.RecordHandlerOutcome(context.Background(),
		shell.MetricCommandHandlerDuration, shell.LabelCommandType, "BorrowBook",
		shell.StatusSuccess, 25*time.Millisecond)

	// assert
	assert.True(t, metricsSpy.HasDurationRecord(
		shell.MetricCommandHandlerDuration, shell.LabelStatus, shell.StatusSuccess))
}
