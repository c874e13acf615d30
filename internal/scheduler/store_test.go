package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"openmod/internal/platform/kv"
	"openmod/pkg/platform/sentinel"
	"openmod/pkg/requestcontext"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	now   time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	st, err := NewStore(kv.NewMemory())
	s.Require().NoError(err)
	s.store = st
	s.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StoreSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *StoreSuite) TestRunJobValidation() {
	ctx := s.at(s.now)

	_, err := s.store.RunJob(ctx, Spec{Cron: "0 23 * * *"})
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.RunJob(ctx, Spec{Name: "x"})
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.RunJob(ctx, Spec{Name: "x", Cron: "0 23 * * *", RunAt: s.now})
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.RunJob(ctx, Spec{Name: "x", Cron: "not a cron"})
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *StoreSuite) TestListAndCancel() {
	ctx := s.at(s.now)

	cronID, err := s.store.RunJob(ctx, Spec{Name: "sweep", Cron: "0 23 * * *"})
	s.Require().NoError(err)
	onceID, err := s.store.RunJob(ctx, Spec{Name: "sweep", RunAt: s.now.Add(5 * time.Second)})
	s.Require().NoError(err)

	jobs, err := s.store.ListJobs(ctx)
	s.Require().NoError(err)
	s.Require().Len(jobs, 2)
	s.Equal(onceID, jobs[0].ID)
	s.False(jobs[0].Recurring())
	s.Equal(cronID, jobs[1].ID)
	s.True(jobs[1].Recurring())
	s.Equal(time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC), jobs[1].RunAt.UTC())

	s.Require().NoError(s.store.CancelJob(ctx, onceID))
	s.ErrorIs(s.store.CancelJob(ctx, onceID), sentinel.ErrNotFound)

	jobs, err = s.store.ListJobs(ctx)
	s.Require().NoError(err)
	s.Len(jobs, 1)
}

func (s *StoreSuite) TestClaim() {
	once, err := s.store.RunJob(s.at(s.now), Spec{Name: "follow-up", RunAt: s.now.Add(5 * time.Second)})
	s.Require().NoError(err)
	recurring, err := s.store.RunJob(s.at(s.now), Spec{Name: "sweep", Cron: "0 23 * * *"})
	s.Require().NoError(err)

	s.Run("nothing is due yet", func() {
		jobs, err := s.store.Claim(s.at(s.now))
		s.Require().NoError(err)
		s.Empty(jobs)
	})

	s.Run("one-shot job fires once and is deleted", func() {
		ctx := s.at(s.now.Add(5 * time.Second))
		jobs, err := s.store.Claim(ctx)
		s.Require().NoError(err)
		s.Require().Len(jobs, 1)
		s.Equal(once, jobs[0].ID)

		jobs, err = s.store.Claim(ctx)
		s.Require().NoError(err)
		s.Empty(jobs)
	})

	s.Run("recurring job is re-armed at its next cron time", func() {
		fire := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
		jobs, err := s.store.Claim(s.at(fire))
		s.Require().NoError(err)
		s.Require().Len(jobs, 1)
		s.Equal(recurring, jobs[0].ID)

		listed, err := s.store.ListJobs(s.at(fire))
		s.Require().NoError(err)
		s.Require().Len(listed, 1)
		s.Equal(fire.Add(24*time.Hour), listed[0].RunAt.UTC())
	})
}
