package bot_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/wooadminbot/internal/bot"
	"github.com/edgard/wooadminbot/internal/bot/tasks"
	"github.com/edgard/wooadminbot/internal/config"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type blockingPoller struct{ started chan struct{} }

func (p blockingPoller) Start(ctx context.Context) {
	close(p.started)
	<-ctx.Done()
}

type exitingPoller struct{}

func (exitingPoller) Start(context.Context) {}

func newScheduler(t *testing.T, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) *bot.Scheduler {
	t.Helper()
	s, err := bot.NewScheduler(discard(), cfg, taskMap)
	require.NoError(t, err)
	return s
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	poller := blockingPoller{started: make(chan struct{})}
	b := bot.NewBot(discard(), &config.Config{}, poller, newScheduler(t, nil, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	<-poller.started
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunFailsWhenPollerExits(t *testing.T) {
	t.Parallel()

	b := bot.NewBot(discard(), &config.Config{}, exitingPoller{}, newScheduler(t, nil, nil), nil)

	err := b.Run(context.Background())
	assert.ErrorContains(t, err, "telegram listener stopped unexpectedly")
}

func TestSchedulerRegistersEnabledTasks(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"sql_maintenance":  {Enabled: true, Schedule: "0 0 4 * * 0"},
		"pending_sweep":    {Enabled: true, Schedule: "0 */5 * * * *"},
		"low_stock_report": {Enabled: false, Schedule: "0 0 9 * * *"},
		"unknown":          {Enabled: true, Schedule: "0 0 1 * * *"},
		"bad_schedule":     {Enabled: true, Schedule: "not a cron"},
	}}
	s := newScheduler(t, cfg, map[string]tasks.ScheduledTaskFunc{
		"sql_maintenance":  noop,
		"pending_sweep":    noop,
		"low_stock_report": noop,
		"bad_schedule":     noop,
	})

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	assert.Equal(t, []string{"pending_sweep", "sql_maintenance"}, s.Jobs())
	assert.Error(t, s.Start(context.Background()), "second start is rejected")
}

func TestStatusRouter(t *testing.T) {
	t.Parallel()

	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("database is locked") }

	tests := []struct {
		name   string
		checks map[string]bot.HealthCheck
		status int
		body   map[string]string
	}{
		{"healthy", map[string]bot.HealthCheck{"database": healthy}, http.StatusOK, map[string]string{"database": "ok"}},
		{
			"one failing",
			map[string]bot.HealthCheck{"database": broken, "redis": healthy},
			http.StatusServiceUnavailable,
			map[string]string{"database": "database is locked", "redis": "ok"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(bot.NewStatusRouter(tt.checks))
			t.Cleanup(srv.Close)

			resp, err := http.Get(srv.URL + "/healthz")
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestStatusRouterMetrics(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(bot.NewStatusRouter(nil))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}
