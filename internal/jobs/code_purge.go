package jobs

import (
	"context"
	"fmt"
)

type codePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CodePurgeJob drops expired unconsumed activation codes so listings stay
// tidy without manual cleanup.
type CodePurgeJob struct {
	purger codePurger
}

// NewCodePurgeJob builds the purge job.
func NewCodePurgeJob(purger codePurger) (*CodePurgeJob, error) {
	if purger == nil {
		return nil, fmt.Errorf("purger required")
	}
	return &CodePurgeJob{purger: purger}, nil
}

func (j *CodePurgeJob) Name() string { return "activation-code-purge" }

func (j *CodePurgeJob) Run(ctx context.Context) error {
	_, err := j.purger.PurgeExpired(ctx)
	return err
}
