// Package jobs hosts the background archive sweep.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/rasyidev/habitpoint/internal/repository"
	"github.com/rasyidev/habitpoint/internal/service"
	"github.com/rasyidev/habitpoint/internal/timezone"
	"github.com/robfig/cron/v3"
)

// GoalArchiver sweeps once per hour and, for every timezone whose users just
// rolled past local midnight, archives the finished day's goal progress into
// history. Timezones are cohorts: one archive call covers all users sharing
// a zone.
type GoalArchiver struct {
	goals         service.GoalService
	users         repository.UserRepository
	cronScheduler *cron.Cron
	jobID         cron.EntryID
	now           func() time.Time
}

func NewGoalArchiver(goals service.GoalService, users repository.UserRepository) *GoalArchiver {
	return &GoalArchiver{
		goals:         goals,
		users:         users,
		cronScheduler: cron.New(),
		now:           time.Now,
	}
}

// Start schedules the hourly sweep.
func (a *GoalArchiver) Start() error {
	var err error
	a.jobID, err = a.cronScheduler.AddFunc("0 * * * *", func() {
		a.RunSweep(context.Background())
	})
	if err != nil {
		return err
	}

	a.cronScheduler.Start()
	log.Println("goal archive sweep scheduled hourly")
	return nil
}

func (a *GoalArchiver) Stop() {
	if a.cronScheduler != nil {
		ctx := a.cronScheduler.Stop()
		<-ctx.Done()
	}
}

// RunSweep archives the previous local day for every timezone currently at
// local hour zero. A failing zone is logged and does not stop the others.
func (a *GoalArchiver) RunSweep(ctx context.Context) {
	zones, err := a.users.DistinctTimezones(ctx)
	if err != nil {
		log.Printf("archive sweep: listing timezones failed: %v", err)
		return
	}

	now := a.now()
	for _, zone := range zones {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			log.Printf("archive sweep: skipping unknown timezone %q", zone)
			continue
		}

		if now.In(loc).Hour() != 0 {
			continue
		}

		// It is just past midnight in this zone; the day to close out is
		// yesterday's local date.
		finished := timezone.DateIn(now, loc).AddDate(0, 0, -1)
		if err := a.goals.ArchiveGoalsForDate(ctx, finished, zone); err != nil {
			log.Printf("archive sweep for %s failed: %v", zone, err)
		}
	}
}
