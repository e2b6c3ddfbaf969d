package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thalesfsp/ntbea"
	"github.com/thalesfsp/ntbea/benchmark"
)

func TestObserveProgress(t *testing.T) {
	r := NewRecorder()

	r.ObserveProgress("Branin", ntbea.ProgressUpdate{Phase: "Optimization", CurrentBestFitness: 0.4})
	r.ObserveProgress("Branin", ntbea.ProgressUpdate{Phase: "Optimization", CurrentBestFitness: 0.7})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Evaluations.WithLabelValues("Branin")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Iterations.WithLabelValues("Branin", "Optimization")))
	assert.Equal(t, 0.7, testutil.ToFloat64(r.BestFitness.WithLabelValues("Branin")))
}

func TestObserveRun(t *testing.T) {
	r := NewRecorder()
	exp := benchmark.DefaultExperiment("Hartmann3")

	r.ObserveRun(exp, benchmark.RunOutcome{Duration: 50 * time.Millisecond})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues("Hartmann3", string(exp.Model))))
	assert.Equal(t, 1, testutil.CollectAndCount(r.RunDuration))
}

func TestConsumeStopsWhenChannelCloses(t *testing.T) {
	r := NewRecorder()
	ch := make(chan ntbea.ProgressUpdate, 3)

	for i := 0; i < 3; i++ {
		ch <- ntbea.ProgressUpdate{Phase: "MultiAgent", Agent: i}
	}
	close(ch)

	r.Consume(context.Background(), "Branin", ch)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.Iterations.WithLabelValues("Branin", "MultiAgent")))
}

func TestConsumeStopsOnCancel(t *testing.T) {
	r := NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		r.Consume(ctx, "Branin", make(chan ntbea.ProgressUpdate))
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after cancel")
	}
}

func TestServerRoutes(t *testing.T) {
	r := NewRecorder()
	r.ObserveProgress("Branin", ntbea.ProgressUpdate{Phase: "Optimization"})

	srv := httptest.NewServer(NewServer(r, "0", nil).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `ntbea_evaluations_total{function="Branin"} 1`))

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
