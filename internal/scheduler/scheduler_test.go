package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroLens/internal/collector"
	"MacroLens/internal/config"
	"MacroLens/internal/model"
	"MacroLens/internal/recorder"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingNotifier) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return nil
}

func (r *recordingNotifier) SendWithRetry(ctx context.Context, text string, _ int) error {
	return r.Send(ctx, text)
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func gdp(values ...float64) model.TimeSeries {
	points := make([]model.Point, len(values))
	for i, v := range values {
		points[i] = model.Point{Date: time.Date(2015+i, 1, 1, 0, 0, 0, 0, time.UTC), Value: v}
	}
	return model.NewTimeSeries(points)
}

func newTestScheduler(t *testing.T) (*Scheduler, *recordingNotifier) {
	t.Helper()
	mock := collector.NewMockProvider().
		Set("USA", model.SeriesGDP, gdp(18, 19, 20)).
		Set("JPN", model.SeriesGDP, gdp(5, 5.1)).
		Fail("DEU", model.SeriesGDP, model.Transient("timeout"))
	n := &recordingNotifier{}
	s := NewScheduler(context.Background(), mock, n, t.TempDir())
	s.now = func() time.Time { return time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC) }
	return s, n
}

var g7 = config.ReportJob{
	Name:      "g7",
	Cron:      "0 0 7 * * 1",
	Countries: []string{"USA,JPN", "DEU"},
	Series:    []string{"gdp"},
	Period:    "10Y",
	Formats:   []string{"csv", "xlsx", "md"},
	Chart:     "svg",
}

func TestJobFromConfig(t *testing.T) {
	job, err := JobFromConfig(g7)
	require.NoError(t, err)
	assert.Equal(t, []model.Country{"USA", "JPN", "DEU"}, job.Countries)
	assert.Equal(t, []model.SeriesID{model.SeriesGDP}, job.Series)
	assert.Equal(t, model.JoinOuter, job.Join)
	assert.Len(t, job.Formats, 3)

	bad := g7
	bad.Series = []string{"nope"}
	_, err = JobFromConfig(bad)
	assert.Error(t, err)
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t)
	second := g7
	second.Name = "asia"
	require.NoError(t, s.RegisterAll([]config.ReportJob{g7, second}))
	assert.Equal(t, []string{"asia", "g7"}, s.Jobs())
	assert.Len(t, s.Cron.Entries(), 2)

	assert.Error(t, s.RegisterAll([]config.ReportJob{g7}))
}

func TestRunNow_WritesReportsAndNotifies(t *testing.T) {
	s, n := newTestScheduler(t)
	require.NoError(t, s.RegisterAll([]config.ReportJob{g7}))

	result, err := s.RunNow(context.Background(), "g7")
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.True(t, errors.Is(result.Err, model.ErrTransientFetch))

	dir := filepath.Join(s.OutputDir, "g7")
	for _, name := range []string{"GDP.csv", "GDP.xlsx", "GDP.md", "GDP.svg"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	assert.Len(t, result.Files, 4)

	csv, err := os.ReadFile(filepath.Join(dir, "GDP.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,USA,JPN\n2015-01-01,18,5\n2016-01-01,19,5.1\n2017-01-01,20,\n", string(csv))

	sums := result.Summaries[model.SeriesGDP]
	require.Len(t, sums, 2)
	msgs := n.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "g7")
	assert.Contains(t, msgs[0], "timeout")
}

func TestRunNow_UnknownAndBusy(t *testing.T) {
	s, _ := newTestScheduler(t)
	_, err := s.RunNow(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrUnknownJob))

	require.NoError(t, s.RegisterAll([]config.ReportJob{g7}))
	s.running["g7"].Lock()
	_, err = s.RunNow(context.Background(), "g7")
	assert.True(t, errors.Is(err, ErrJobRunning))
	s.running["g7"].Unlock()
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t)
	require.NoError(t, s.RegisterAll([]config.ReportJob{g7}))
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/jobs"), "g7")
	assert.Contains(t, s.HandleCommand(ctx, "/help"), "/compare")
	assert.Contains(t, s.HandleCommand(ctx, "/run"), "usage")

	reply := s.HandleCommand(ctx, "/compare gdp usa,deu")
	assert.Contains(t, reply, "USA: 20.00")
	assert.Contains(t, reply, "1 fetch errors")

	assert.Contains(t, s.HandleCommand(ctx, "/compare happiness usa"), "unknown")
	assert.Contains(t, s.HandleCommand(ctx, "/stock ACME"), "not configured")

	s.Prices = &collector.MockFetcher{Price: 100}
	assert.Contains(t, s.HandleCommand(ctx, "/stock acme 3M"), "ACME")
}

func TestRunNow_RecordsHistory(t *testing.T) {
	s, _ := newTestScheduler(t)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer rec.Close()
	s.Recorder = rec
	require.NoError(t, s.RegisterAll([]config.ReportJob{g7}))

	result, err := s.RunNow(context.Background(), "g7")
	require.NoError(t, err)

	runs, err := rec.RecentRuns(context.Background(), "g7", 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].RunID)
	assert.Equal(t, "USA,JPN,DEU", runs[0].Countries)
	assert.Equal(t, "GDP", runs[0].Series)
	assert.Equal(t, 4, runs[0].Files)
	assert.Equal(t, 1, runs[0].Errors)
	assert.Equal(t, recorder.StatusPartial, runs[0].Status)

	reply := s.HandleCommand(context.Background(), "/history g7")
	assert.Contains(t, reply, "g7")
	assert.Contains(t, reply, "1 errors")
	assert.Equal(t, "no recorded runs", s.HandleCommand(context.Background(), "/history asia"))
}
