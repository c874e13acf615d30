package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"openmod/internal/platform/kv"
	"openmod/internal/temporal"
	"openmod/pkg/platform/sentinel"
)

const (
	dueKey    = "scheduler:due"
	jobPrefix = "scheduler:job:"
)

func jobKey(id string) string { return jobPrefix + id }

// Store is the kv-backed Scheduler. The due set holds job id → next run
// score; each job's definition is a hash.
type Store struct {
	kv kv.Store
}

// NewStore creates a Store.
func NewStore(store kv.Store) (*Store, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	return &Store{kv: store}, nil
}

// ParseCron validates a standard five-field cron expression.
func ParseCron(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("cron %q: %w: %v", expr, sentinel.ErrInvalidState, err)
	}
	return sched, nil
}

// RunJob registers spec and returns the new job id.
func (s *Store) RunJob(ctx context.Context, spec Spec) (string, error) {
	if spec.Name == "" {
		return "", fmt.Errorf("job without name: %w", sentinel.ErrInvalidState)
	}
	if (spec.Cron == "") == spec.RunAt.IsZero() {
		return "", fmt.Errorf("job %s needs exactly one of cron or runAt: %w", spec.Name, sentinel.ErrInvalidState)
	}

	next := spec.RunAt
	if spec.Cron != "" {
		sched, err := ParseCron(spec.Cron)
		if err != nil {
			return "", err
		}
		next = sched.Next(temporal.Now(ctx))
	}

	id := uuid.NewString()
	if err := s.kv.HReplace(ctx, jobKey(id), map[string]string{
		"name":  spec.Name,
		"cron":  spec.Cron,
		"runAt": strconv.FormatInt(next.UnixMilli(), 10),
	}); err != nil {
		return "", fmt.Errorf("writing job %s: %w", spec.Name, err)
	}
	if err := s.kv.ZAdd(ctx, dueKey, kv.Member{Member: id, Score: temporal.Score(next)}); err != nil {
		return "", fmt.Errorf("arming job %s: %w", spec.Name, err)
	}
	return id, nil
}

// ListJobs returns registered jobs ordered by next run.
func (s *Store) ListJobs(ctx context.Context) ([]Job, error) {
	members, err := s.kv.ZRange(ctx, dueKey)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	jobs := make([]Job, 0, len(members))
	for _, m := range members {
		job, err := s.load(ctx, m.Member)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		job.RunAt = temporal.FromScore(m.Score)
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// CancelJob removes a job. Unknown ids yield sentinel.ErrNotFound.
func (s *Store) CancelJob(ctx context.Context, id string) error {
	removed, err := s.kv.ZRem(ctx, dueKey, id)
	if err != nil {
		return fmt.Errorf("cancelling job %s: %w", id, err)
	}
	if err := s.kv.Del(ctx, jobKey(id)); err != nil {
		return fmt.Errorf("deleting job %s: %w", id, err)
	}
	if removed == 0 {
		return fmt.Errorf("job %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Store) load(ctx context.Context, id string) (Job, error) {
	fields, err := s.kv.HGetAll(ctx, jobKey(id))
	if err != nil {
		return Job{}, fmt.Errorf("reading job %s: %w", id, err)
	}
	if len(fields) == 0 {
		return Job{}, fmt.Errorf("job %s: %w", id, sentinel.ErrNotFound)
	}
	ms, _ := strconv.ParseInt(fields["runAt"], 10, 64)
	return Job{ID: id, Name: fields["name"], Cron: fields["cron"], RunAt: temporal.FromScore(float64(ms))}, nil
}

// Claim takes every job due at the context's now. Removing a job from the
// due set is the claim, so two runners never execute the same firing.
// Recurring jobs are re-armed at their next cron time; one-shot jobs are
// deleted.
func (s *Store) Claim(ctx context.Context) ([]Job, error) {
	now := temporal.Now(ctx)
	due, err := s.kv.ZRangeByScore(ctx, dueKey, temporal.Score(now))
	if err != nil {
		return nil, fmt.Errorf("reading due jobs: %w", err)
	}

	var claimed []Job
	for _, m := range due {
		removed, err := s.kv.ZRem(ctx, dueKey, m.Member)
		if err != nil {
			return claimed, fmt.Errorf("claiming job %s: %w", m.Member, err)
		}
		if removed == 0 {
			continue
		}

		job, err := s.load(ctx, m.Member)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return claimed, err
		}
		job.RunAt = temporal.FromScore(m.Score)
		claimed = append(claimed, job)

		if err := s.rearm(ctx, job); err != nil {
			return claimed, err
		}
	}
	return claimed, nil
}

func (s *Store) rearm(ctx context.Context, job Job) error {
	if !job.Recurring() {
		return s.kv.Del(ctx, jobKey(job.ID))
	}
	sched, err := ParseCron(job.Cron)
	if err != nil {
		return err
	}
	next := sched.Next(temporal.Now(ctx))
	if err := s.kv.HSet(ctx, jobKey(job.ID), map[string]string{"runAt": strconv.FormatInt(next.UnixMilli(), 10)}, 0); err != nil {
		return fmt.Errorf("re-arming job %s: %w", job.ID, err)
	}
	return s.kv.ZAdd(ctx, dueKey, kv.Member{Member: job.ID, Score: temporal.Score(next)})
}

var _ Scheduler = (*Store)(nil)
