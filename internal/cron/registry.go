package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one unit of periodic background work. Name labels logs and metrics
// and must be unique within a registry.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry is the ordered set of jobs a cycle runs.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry registers jobs in order; nil entries are skipped so optional
// jobs can be passed straight through.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{names: make(map[string]struct{}, len(jobs))}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("nil job")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("job name required")
	}
	if r.names == nil {
		r.names = make(map[string]struct{})
	}
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}
	r.names[name] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy in registration order.
func (r *Registry) Jobs() []Job {
	if r == nil {
		return nil
	}
	return append([]Job(nil), r.jobs...)
}
