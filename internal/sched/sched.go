// Package sched registers the periodic backup and renewal triggers, either
// as root crontab entries or as an in-process cron daemon.
package sched

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/avelichko/lampctl/internal/runner"
	"github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field cron expressions (minute, hour, dom,
// month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Entry builds a crontab line running command on the given 5-field schedule
// with output appended to logFile.
func Entry(schedule, command, logFile string) string {
	return fmt.Sprintf("%s %s >> %s 2>&1", schedule, command, logFile)
}

// Next returns the first fire time of a 5-field cron expression after from.
func Next(schedule string, from time.Time) (time.Time, error) {
	s, err := cronParser.Parse(schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("sched: parse %q: %w", schedule, err)
	}
	return s.Next(from), nil
}

// Register merges the given entries into the root crontab, skipping entries
// whose command is already present.
func Register(ctx context.Context, r runner.Runner, entries []string, out io.Writer) error {
	current, err := r.Output(ctx, "crontab", "-l")
	if err != nil {
		current = "" // no crontab yet
	}

	updated := strings.TrimRight(current, "\n")
	added := 0
	for _, entry := range entries {
		if cronCommand := entryCommand(entry); cronCommand != "" && strings.Contains(current, cronCommand) {
			fmt.Fprintf(out, "Cron job already present: %s\n", cronCommand)
			continue
		}
		if updated != "" {
			updated += "\n"
		}
		updated += entry
		added++
	}

	if added == 0 {
		return nil
	}

	if err := r.RunWithStdin(ctx, strings.NewReader(updated+"\n"), "crontab", "-"); err != nil {
		return fmt.Errorf("sched: install crontab: %w", err)
	}
	fmt.Fprintf(out, "Registered %d cron job(s)\n", added)
	return nil
}

// entryCommand strips the 5 schedule fields from a crontab line, leaving the
// command used for duplicate detection.
func entryCommand(entry string) string {
	fields := strings.Fields(entry)
	if len(fields) <= 5 {
		return ""
	}
	return strings.Join(fields[5:], " ")
}

// Job is one scheduled task for the in-process daemon.
type Job struct {
	Name string
	Spec string // 5-field cron expression
	Fn   func()
}

// RunDaemon runs the jobs on their schedules until ctx is cancelled. Invalid
// schedules fail fast before any job starts.
func RunDaemon(ctx context.Context, jobs []Job, out io.Writer) error {
	c := cron.New(cron.WithParser(cronParser))

	for _, job := range jobs {
		j := job
		if _, err := c.AddFunc(j.Spec, func() {
			fmt.Fprintf(out, "Running scheduled job %s\n", j.Name)
			j.Fn()
		}); err != nil {
			return fmt.Errorf("sched: job %s: %w", j.Name, err)
		}
		next, err := Next(j.Spec, time.Now())
		if err == nil {
			fmt.Fprintf(out, "Job %s scheduled (%s), next run %s\n", j.Name, j.Spec, next.Format(time.RFC3339))
		}
	}

	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		log.Printf("sched: job still running at shutdown, abandoning")
	}
	return nil
}
