package cron

import (
	"context"
	"fmt"
)

// Job is one maintenance task run on every cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Jobs is an ordered set of uniquely named jobs.
type Jobs struct {
	list []Job
}

// NewJobs collects jobs, rejecting duplicate names.
func NewJobs(jobs ...Job) (*Jobs, error) {
	set := &Jobs{}
	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if _, dup := seen[job.Name()]; dup {
			return nil, fmt.Errorf("duplicate job %q", job.Name())
		}
		seen[job.Name()] = struct{}{}
		set.list = append(set.list, job)
	}
	return set, nil
}

// All returns the jobs in registration order.
func (j *Jobs) All() []Job {
	if j == nil {
		return nil
	}
	out := make([]Job, len(j.list))
	copy(out, j.list)
	return out
}
