package kv

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/suite"

	"openmod/pkg/platform/sentinel"
)

// =============================================================================
// Store Contract
// =============================================================================
// Every Store implementation runs the same behavioural checks so the
// in-memory store stays a faithful stand-in for Redis.

type contractSuite struct {
	suite.Suite
	store Store
}

func (s *contractSuite) TestStrings() {
	ctx := context.Background()

	s.Run("get missing key returns not found", func() {
		_, err := s.store.Get(ctx, "missing")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("setnx writes once", func() {
		wrote, err := s.store.SetNX(ctx, "event:a", "1", time.Hour)
		s.Require().NoError(err)
		s.True(wrote)

		wrote, err = s.store.SetNX(ctx, "event:a", "2", time.Hour)
		s.Require().NoError(err)
		s.False(wrote)

		v, err := s.store.Get(ctx, "event:a")
		s.Require().NoError(err)
		s.Equal("1", v)
	})

	s.Run("del ignores absent keys", func() {
		s.NoError(s.store.Del(ctx, "event:a", "never-set"))
		_, err := s.store.Get(ctx, "event:a")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("expire reports existence", func() {
		ok, err := s.store.Expire(ctx, "never-set", time.Hour)
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *contractSuite) TestHashes() {
	ctx := context.Background()

	s.Run("missing hash is empty", func() {
		fields, err := s.store.HGetAll(ctx, "audit:none")
		s.Require().NoError(err)
		s.Empty(fields)
	})

	s.Run("hset merges", func() {
		s.Require().NoError(s.store.HSet(ctx, "audit:t3_a", map[string]string{"a": "1", "b": "2"}, 0))
		s.Require().NoError(s.store.HSet(ctx, "audit:t3_a", map[string]string{"b": "3"}, 0))

		fields, err := s.store.HGetAll(ctx, "audit:t3_a")
		s.Require().NoError(err)
		s.Equal(map[string]string{"a": "1", "b": "3"}, fields)
	})

	s.Run("hreplace drops old fields", func() {
		s.Require().NoError(s.store.HReplace(ctx, "audit:t3_a", map[string]string{"c": "4"}))

		fields, err := s.store.HGetAll(ctx, "audit:t3_a")
		s.Require().NoError(err)
		s.Equal(map[string]string{"c": "4"}, fields)
	})
}

func (s *contractSuite) TestSortedSets() {
	ctx := context.Background()
	key := "user:t2_u1"

	s.Run("range is ascending by score", func() {
		s.Require().NoError(s.store.ZAdd(ctx, key,
			Member{Member: "t3_b", Score: 20},
			Member{Member: "t3_a", Score: 10},
			Member{Member: "t1_c", Score: 30},
		))

		members, err := s.store.ZRange(ctx, key)
		s.Require().NoError(err)
		s.Equal([]Member{{"t3_a", 10}, {"t3_b", 20}, {"t1_c", 30}}, members)
	})

	s.Run("nx keeps the first score", func() {
		s.Require().NoError(s.store.ZAddNX(ctx, key, Member{Member: "t3_a", Score: 99}, Member{Member: "t3_d", Score: 40}))

		score, ok, err := s.store.ZScore(ctx, key, "t3_a")
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(float64(10), score)

		_, ok, err = s.store.ZScore(ctx, key, "t3_d")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("range by score is inclusive", func() {
		members, err := s.store.ZRangeByScore(ctx, key, 20)
		s.Require().NoError(err)
		s.Equal([]Member{{"t3_a", 10}, {"t3_b", 20}}, members)
	})

	s.Run("zrem counts removed members", func() {
		n, err := s.store.ZRem(ctx, key, "t3_a", "absent")
		s.Require().NoError(err)
		s.Equal(int64(1), n)
	})
}

func (s *contractSuite) TestScan() {
	ctx := context.Background()
	s.Require().NoError(s.store.ZAdd(ctx, "user:t2_a", Member{Member: "t3_a", Score: 1}))
	s.Require().NoError(s.store.ZAdd(ctx, "user:t2_b", Member{Member: "t3_b", Score: 1}))
	s.Require().NoError(s.store.ZAdd(ctx, "mod-actions:t3_a", Member{Member: "t3_p", Score: 1}))

	keys, err := s.store.Scan(ctx, "user:*")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"user:t2_a", "user:t2_b"}, keys)
}
