package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is a unit of scheduled maintenance. Run reports how many rows it touched.
type Job interface {
	Name() string
	Run(ctx context.Context) (int, error)
}

// Registry keeps jobs in registration order, keyed by name.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry builds a registry from jobs, skipping nils.
func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{names: map[string]struct{}{}}
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register appends job. Names must be unique and non-blank.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("cron job name is required")
	}
	if r.names == nil {
		r.names = map[string]struct{}{}
	}
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("cron job %q already registered", name)
	}
	r.names[name] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
