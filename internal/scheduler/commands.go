package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"MacroLens/internal/compare"
	"MacroLens/internal/country"
	"MacroLens/internal/model"
	"MacroLens/internal/notifier"
	"MacroLens/internal/stock"
)

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch strings.ToLower(fields[0]) {
	case "/jobs":
		return notifier.FormatJobs(s.Jobs())
	case "/run":
		if len(fields) < 2 {
			return "usage: /run &lt;job&gt;"
		}
		go func(name string) {
			if _, err := s.RunNow(s.Ctx, name); err != nil {
				s.reply(fmt.Sprintf("❌ %v", err))
			}
		}(fields[1])
		return fmt.Sprintf("⏳ running %s", fields[1])
	case "/history":
		job := ""
		if len(fields) > 1 {
			job = fields[1]
		}
		runs, err := s.Recorder.RecentRuns(ctx, job, 10)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatHistory(runs)
	case "/compare":
		return s.compareCommand(ctx, fields[1:])
	case "/stock":
		return s.stockCommand(ctx, fields[1:])
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) compareCommand(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return "usage: /compare &lt;series&gt; &lt;c1,c2,...&gt; [period]"
	}
	id, err := model.ParseSeriesID(args[0])
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	countries, err := model.ParseCountries(args[1])
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	period := model.Period{}
	if len(args) > 2 {
		if period, err = model.ParsePeriod(args[2]); err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
	}

	members := make([]*country.CountrySeries, len(countries))
	for i, c := range countries {
		members[i] = country.New(c, s.Provider).WithClock(s.now)
	}
	view := compare.New(members...)
	loadErr := view.Load(ctx, period, id)
	sums, err := view.Summarize(id)
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	msg := notifier.FormatComparison(id, sums)
	if loadErr != nil {
		msg += fmt.Sprintf("\n⚠️ %d fetch errors", countErrors(loadErr))
	}
	return msg
}

func (s *Scheduler) stockCommand(ctx context.Context, args []string) string {
	if s.Prices == nil {
		return "stock quotes are not configured"
	}
	if len(args) < 1 {
		return "usage: /stock &lt;symbol&gt; [period]"
	}
	period := model.MustPeriod("1Y")
	if len(args) > 1 {
		p, err := model.ParsePeriod(args[1])
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		period = p
	}
	t, err := stock.Load(ctx, s.Prices, args[0], period.Resolve(s.now()))
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	snap, err := t.Snapshot()
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	return notifier.FormatSnapshot(snap)
}

func (s *Scheduler) reply(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send reply: %v", err)
	}
}

func countErrors(err error) int {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		n := 0
		for _, e := range joined.Unwrap() {
			n += countErrors(e)
		}
		return n
	}
	return 1
}
