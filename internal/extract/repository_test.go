package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"openmod/internal/cache"
	"openmod/internal/content"
	"openmod/internal/content/mocks"
	"openmod/internal/platform/kv"
	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

// =============================================================================
// Extract Repository Test Suite
// =============================================================================
// Justification: the legacy upgrade rewrites externally visible state. These
// tests pin that it happens at most once, resolves authors through the cache,
// and leaves the stored record alone when it cannot complete.

type RepositorySuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	provider *mocks.MockProvider
	store    *kv.Memory
	cache    *cache.Cache
	repo     *Repository
	ctx      context.Context
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.provider = mocks.NewMockProvider(s.ctrl)
	s.store = kv.NewMemory()
	s.ctx = context.Background()

	c, err := cache.New(s.store, s.provider)
	s.Require().NoError(err)
	s.cache = c

	repo, err := NewRepository(s.store, c, s.provider)
	s.Require().NoError(err)
	s.repo = repo
}

func (s *RepositorySuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RepositorySuite) seedLegacy(id domain.LinkID, l *Legacy) {
	s.Require().NoError(s.store.HReplace(s.ctx, Key(id), EncodeLegacy(l)))
}

func (s *RepositorySuite) TestNewRepositoryRequiresDependencies() {
	_, err := NewRepository(nil, s.cache, s.provider)
	s.Error(err)
	_, err = NewRepository(s.store, nil, s.provider)
	s.Error(err)
	_, err = NewRepository(s.store, s.cache, nil)
	s.Error(err)
}

func (s *RepositorySuite) TestSaveGetDelete() {
	x := &Extract{Type: RemoveLink, Actor: "t2_mod", Target: "t2_u1", Link: "t3_abc"}
	s.Require().NoError(s.repo.Save(s.ctx, "t3_pub1", x))

	got, err := s.repo.Get(s.ctx, "t3_pub1")
	s.Require().NoError(err)
	s.Equal(x, got)

	s.Require().NoError(s.repo.Delete(s.ctx, "t3_pub1", "t3_never"))
	_, err = s.repo.Get(s.ctx, "t3_pub1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RepositorySuite) TestSaveRejectsIncompleteVariant() {
	err := s.repo.Save(s.ctx, "t3_pub1", &Extract{Type: RemoveComment, Actor: "t2_mod", Target: "t2_u1"})
	s.ErrorIs(err, sentinel.ErrInvalidState)
	s.False(s.store.Exists(Key("t3_pub1")))
}

// =============================================================================
// Legacy upgrade
// =============================================================================

func (s *RepositorySuite) TestLegacyPostRecordIsUpgradedOnce() {
	s.seedLegacy("t3_pub1", &Legacy{Type: RemoveLink, Actor: "mod1", ThingID: "t3_abc", Permalink: "/r/x/comments/abc/", CreatedAt: "1700000000000"})

	s.provider.EXPECT().GetUserByUsername(gomock.Any(), "mod1").
		Return(&content.User{ID: "t2_mod1", Username: "mod1"}, nil).Times(1)
	s.provider.EXPECT().GetPostByID(gomock.Any(), domain.LinkID("t3_abc")).
		Return(&content.Post{ID: "t3_abc", AuthorID: "t2_u1"}, nil).Times(1)

	want := &Extract{Type: RemoveLink, Actor: "t2_mod1", Target: "t2_u1", Link: "t3_abc"}

	got, err := s.repo.Get(s.ctx, "t3_pub1")
	s.Require().NoError(err)
	s.Equal(want, got)

	fields, err := s.store.HGetAll(s.ctx, Key("t3_pub1"))
	s.Require().NoError(err)
	s.False(IsLegacy(fields))
	s.NotContains(fields, "permalink")
	s.NotContains(fields, "createdAt")

	got, err = s.repo.Get(s.ctx, "t3_pub1")
	s.Require().NoError(err)
	s.Equal(want, got)

	u, err := s.cache.GetUser(s.ctx, "t2_mod1")
	s.Require().NoError(err)
	s.Equal("mod1", u.Username)
}

func (s *RepositorySuite) TestLegacyVariants() {
	s.provider.EXPECT().GetUserByUsername(gomock.Any(), "mod1").
		Return(&content.User{ID: "t2_mod1", Username: "mod1"}, nil).AnyTimes()

	s.Run("comment action targets the cached comment author", func() {
		s.Require().NoError(s.cache.PutComment(s.ctx, &cache.Comment{ID: "t1_c1", Author: "t2_u2"}))
		s.seedLegacy("t3_pub2", &Legacy{Type: SpamComment, Actor: "mod1", ThingID: "t1_c1"})

		got, err := s.repo.Get(s.ctx, "t3_pub2")
		s.Require().NoError(err)
		s.Equal(&Extract{Type: SpamComment, Actor: "t2_mod1", Target: "t2_u2", Comment: "t1_c1"}, got)
	})

	s.Run("ban has an unknown duration", func() {
		s.seedLegacy("t3_pub3", &Legacy{Type: BanUser, Actor: "mod1", ThingID: "t2_u3"})

		got, err := s.repo.Get(s.ctx, "t3_pub3")
		s.Require().NoError(err)
		s.Equal(&Extract{Type: BanUser, Actor: "t2_mod1", Target: "t2_u3"}, got)
	})

	s.Run("unmute carries only the target", func() {
		s.seedLegacy("t3_pub4", &Legacy{Type: UnmuteUser, Actor: "mod1", ThingID: "t2_u4"})

		got, err := s.repo.Get(s.ctx, "t3_pub4")
		s.Require().NoError(err)
		s.Equal(&Extract{Type: UnmuteUser, Actor: "t2_mod1", Target: "t2_u4"}, got)
	})

	s.Run("mismatched thing kind is rejected", func() {
		s.seedLegacy("t3_pub5", &Legacy{Type: RemoveLink, Actor: "mod1", ThingID: "t2_u5"})

		_, err := s.repo.Get(s.ctx, "t3_pub5")
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *RepositorySuite) TestUnresolvableActorLeavesLegacyRecord() {
	legacy := &Legacy{Type: BanUser, Actor: "gone-mod", ThingID: "t2_u1", CreatedAt: "x"}
	s.seedLegacy("t3_pub1", legacy)

	s.provider.EXPECT().GetUserByUsername(gomock.Any(), "gone-mod").Return(nil, sentinel.ErrNotFound)

	_, err := s.repo.Get(s.ctx, "t3_pub1")
	s.ErrorIs(err, sentinel.ErrActorResolution)

	fields, err := s.store.HGetAll(s.ctx, Key("t3_pub1"))
	s.Require().NoError(err)
	s.Equal(EncodeLegacy(legacy), fields)
}

func (s *RepositorySuite) TestGoneAuthorAbortsUpgrade() {
	legacy := &Legacy{Type: RemoveLink, Actor: "mod1", ThingID: "t3_gone"}
	s.seedLegacy("t3_pub1", legacy)

	s.provider.EXPECT().GetUserByUsername(gomock.Any(), "mod1").
		Return(&content.User{ID: "t2_mod1", Username: "mod1"}, nil)
	s.provider.EXPECT().GetPostByID(gomock.Any(), domain.LinkID("t3_gone")).Return(nil, sentinel.ErrNotFound)

	_, err := s.repo.Get(s.ctx, "t3_pub1")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.True(IsLegacy(s.mustFields("t3_pub1")))
}

func (s *RepositorySuite) mustFields(id domain.LinkID) map[string]string {
	fields, err := s.store.HGetAll(s.ctx, Key(id))
	s.Require().NoError(err)
	return fields
}
