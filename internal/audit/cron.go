package audit

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionJob periodically prunes confirmed/orphaned submissions past a
// retention window, on a cron schedule.
type RetentionJob struct {
	store     *Store
	retention time.Duration
	cronSpec  string
}

// NewRetentionJob builds a retention job. cronSpec is a standard five-field
// cron expression; retention is how long a terminal-status submission is
// kept before being pruned.
func NewRetentionJob(store *Store, retention time.Duration, cronSpec string) *RetentionJob {
	return &RetentionJob{store: store, retention: retention, cronSpec: cronSpec}
}

// Start registers the cron job and starts the scheduler. It returns a
// function to stop the scheduler.
func (j *RetentionJob) Start() (func(), error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	_, err := c.AddFunc(j.cronSpec, j.run)
	if err != nil {
		return nil, err
	}
	c.Start()
	return func() {
		ctx := c.Stop()
		<-ctx.Done()
	}, nil
}

func (j *RetentionJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	removed, err := j.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("audit: retention job: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("audit: retention job: pruned %d submissions older than %s", removed, cutoff.Format(time.RFC3339))
	}
}
