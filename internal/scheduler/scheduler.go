package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"MacroLens/internal/collector"
	"MacroLens/internal/compare"
	"MacroLens/internal/config"
	"MacroLens/internal/country"
	"MacroLens/internal/model"
	"MacroLens/internal/notifier"
	"MacroLens/internal/recorder"
	"MacroLens/internal/report"
	"MacroLens/internal/viz"
)

var (
	ErrUnknownJob = errors.New("unknown report job")
	ErrJobRunning = errors.New("report job already running")
)

// Job is a validated report job.
type Job struct {
	Name      string
	Cron      string
	Countries []model.Country
	Series    []model.SeriesID
	Period    model.Period
	Join      model.JoinPolicy
	Formats   []report.Format
	Chart     string
}

// JobFromConfig parses a configured report job.
func JobFromConfig(j config.ReportJob) (Job, error) {
	if err := j.Validate(); err != nil {
		return Job{}, fmt.Errorf("job %q: %w", j.Name, err)
	}
	countries, _ := model.ParseCountries(j.Countries...)
	series := make([]model.SeriesID, 0, len(j.Series))
	for _, s := range j.Series {
		id, _ := model.ParseSeriesID(s)
		series = append(series, id)
	}
	period, _ := model.ParsePeriod(j.Period)
	join, _ := model.ParseJoinPolicy(j.Join)
	formats := make([]report.Format, 0, len(j.Formats))
	for _, f := range j.Formats {
		rf, err := report.ParseFormat(f)
		if err != nil {
			return Job{}, fmt.Errorf("job %q: %w", j.Name, err)
		}
		formats = append(formats, rf)
	}
	return Job{
		Name:      j.Name,
		Cron:      j.Cron,
		Countries: countries,
		Series:    series,
		Period:    period,
		Join:      join,
		Formats:   formats,
		Chart:     strings.ToLower(j.Chart),
	}, nil
}

// Scheduler manages report jobs on cron and on demand.
type Scheduler struct {
	Cron      *cron.Cron
	Provider  collector.SeriesProvider
	Prices    collector.PriceFetcher
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	OutputDir string
	Ctx       context.Context

	now func() time.Time

	mu      sync.Mutex
	jobs    map[string]Job
	running map[string]*sync.Mutex
}

// NewScheduler creates a new Scheduler. A job never overlaps itself.
func NewScheduler(ctx context.Context, provider collector.SeriesProvider, n notifier.Notifier, outputDir string) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Provider:  provider,
		Notifier:  n,
		Recorder:  recorder.NewNoopRecorder(),
		OutputDir: outputDir,
		Ctx:       ctx,
		now:       time.Now,
		jobs:      make(map[string]Job),
		running:   make(map[string]*sync.Mutex),
	}
}

// Register adds job to the cron schedule.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("register %s: duplicate job name", job.Name)
	}
	if _, err := s.Cron.AddFunc(job.Cron, func() { s.runScheduled(job.Name) }); err != nil {
		return fmt.Errorf("register %s: %w", job.Name, err)
	}
	s.jobs[job.Name] = job
	s.running[job.Name] = &sync.Mutex{}
	return nil
}

// RegisterAll parses and registers every configured job.
func (s *Scheduler) RegisterAll(jobs []config.ReportJob) error {
	for _, cj := range jobs {
		job, err := JobFromConfig(cj)
		if err != nil {
			return err
		}
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Printf("[INFO] scheduler started with %d report jobs", len(s.Jobs()))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// Jobs returns the registered job names, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) runScheduled(name string) {
	if _, err := s.RunNow(s.Ctx, name); err != nil {
		log.Printf("[ERROR] report job %s: %v", name, err)
	}
}

// RunNow executes job name immediately and sends its summary.
func (s *Scheduler) RunNow(ctx context.Context, name string) (notifier.RunResult, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	lock := s.running[name]
	s.mu.Unlock()
	if !ok {
		return notifier.RunResult{}, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	if !lock.TryLock() {
		return notifier.RunResult{}, fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	defer lock.Unlock()

	result := s.run(ctx, job)
	if err := s.Recorder.RecordRun(ctx, historyEntry(job, result, s.now())); err != nil {
		log.Printf("[WARN] record run %s: %v", result.RunID, err)
	}
	if err := s.Notifier.SendWithRetry(ctx, notifier.FormatRunSummary(result), 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
	return result, nil
}

func (s *Scheduler) run(ctx context.Context, job Job) notifier.RunResult {
	result := notifier.RunResult{
		Job:       job.Name,
		RunID:     uuid.NewString(),
		Started:   s.now(),
		Countries: job.Countries,
		Summaries: make(map[model.SeriesID][]compare.Summary),
	}
	log.Printf("[INFO] report job %s run %s: %d countries, %d series", job.Name, result.RunID, len(job.Countries), len(job.Series))

	members := make([]*country.CountrySeries, len(job.Countries))
	for i, c := range job.Countries {
		members[i] = country.New(c, s.Provider).WithClock(s.now)
	}
	view := compare.New(members...).WithJoin(job.Join)

	var errs []error
	if err := view.Load(ctx, job.Period, job.Series...); err != nil {
		log.Printf("[WARN] report job %s run %s: partial load: %v", job.Name, result.RunID, err)
		errs = append(errs, err)
	}

	dir := filepath.Join(s.OutputDir, job.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Err = fmt.Errorf("create output dir: %w", err)
		return result
	}

	for _, id := range job.Series {
		rep, err := report.New(view, id, result.Started)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		result.Summaries[id] = rep.Summaries
		for _, f := range job.Formats {
			path := filepath.Join(dir, fmt.Sprintf("%s.%s", id, f))
			if err := writeFile(path, func(fh *os.File) error { return report.Write(fh, f, rep) }); err != nil {
				errs = append(errs, err)
				continue
			}
			result.Files = append(result.Files, path)
		}
		if job.Chart == "" {
			continue
		}
		fig, err := view.Visualize(id)
		if errors.Is(err, model.ErrNoDataToVisualize) {
			log.Printf("[WARN] report job %s: no chart for %s: %v", job.Name, id, err)
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s.%s", id, job.Chart))
		if err := writeFile(path, func(fh *os.File) error { return viz.Render(fig, fh, job.Chart, 0, 0) }); err != nil {
			errs = append(errs, err)
			continue
		}
		result.Files = append(result.Files, path)
	}

	result.Err = errors.Join(errs...)
	log.Printf("[INFO] report job %s run %s: wrote %d files", job.Name, result.RunID, len(result.Files))
	return result
}

func historyEntry(job Job, r notifier.RunResult, finished time.Time) *recorder.Run {
	countries := make([]string, len(job.Countries))
	for i, c := range job.Countries {
		countries[i] = string(c)
	}
	series := make([]string, len(job.Series))
	for i, id := range job.Series {
		series[i] = string(id)
	}
	run := &recorder.Run{
		RunID:     r.RunID,
		Job:       job.Name,
		Started:   r.Started.Unix(),
		Finished:  finished.Unix(),
		Countries: strings.Join(countries, ","),
		Series:    strings.Join(series, ","),
		Files:     len(r.Files),
		Status:    recorder.StatusOK,
	}
	if r.Err != nil {
		run.Errors = countErrors(r.Err)
		run.Message = r.Err.Error()
		run.Status = recorder.StatusPartial
		if len(r.Files) == 0 {
			run.Status = recorder.StatusFailed
		}
	}
	return run
}

func writeFile(path string, write func(*os.File) error) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(fh); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}
