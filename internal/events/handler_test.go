package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"openmod/internal/cache"
	"openmod/internal/content"
	"openmod/internal/content/contenttest"
	"openmod/internal/dedup"
	"openmod/internal/disclosure"
	"openmod/internal/enforcement"
	"openmod/internal/extract"
	"openmod/internal/platform/config"
	"openmod/internal/platform/kafka/consumer"
	"openmod/internal/platform/kv"
	"openmod/internal/scheduler/mocks"
	"openmod/internal/tracking"
	"openmod/pkg/platform/sentinel"
)

const (
	modActionTopic = "mod-actions"
	contentTopic   = "content-events"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

// =============================================================================
// Event Handler Test Suite
// =============================================================================
// Justification: the event surface is where at-most-once processing is
// decided. These tests deliver raw messages through the router to the real
// disclosure and enforcement services and assert on what was published.

type HandlerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *kv.Memory
	provider *contenttest.Fake
	cache    *cache.Cache
	tracking *tracking.Store
	settings config.Settings
	handler  *Handler
	router   *Router
	logs     *bytes.Buffer
	t0       time.Time
	offset   int64
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.t0 = time.UnixMilli(1_714_560_000_000)
	s.store = kv.NewMemory(kv.WithNow(func() time.Time { return s.t0 }))

	s.provider = contenttest.NewFake()
	s.provider.AddUser(content.User{ID: "t2_mod1", Username: "mod1"})
	s.provider.AddUser(content.User{ID: "t2_u1", Username: "u1"})
	s.provider.AddPost(content.Post{ID: "t3_abc", AuthorID: "t2_u1", Title: "Hello", Permalink: "/r/test/comments/abc/hello/"})

	s.settings = config.Settings{
		TargetCommunity:    "modlog",
		RecordAdminActions: true,
		ModerationActions:  config.DefaultModerationActions,
	}
	s.build()
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) build() {
	var err error
	s.cache, err = cache.New(s.store, s.provider)
	s.Require().NoError(err)
	s.tracking, err = tracking.New(s.store)
	s.Require().NoError(err)
	extracts, err := extract.NewRepository(s.store, s.cache, s.provider)
	s.Require().NoError(err)
	discloser, err := disclosure.New(s.settings, s.cache, s.tracking, extracts, s.provider)
	s.Require().NoError(err)
	enforcer, err := enforcement.New(s.tracking, s.cache, extracts, discloser, s.provider, mocks.NewMockScheduler(s.ctrl))
	s.Require().NoError(err)
	guard, err := dedup.New(s.store)
	s.Require().NoError(err)

	s.logs = &bytes.Buffer{}
	s.handler, err = New(s.settings, guard, s.cache, discloser, enforcer,
		WithClock(fixedClock(s.t0)),
		WithLogger(slog.New(slog.NewTextHandler(s.logs, nil))),
	)
	s.Require().NoError(err)
	s.router = NewRouter(s.handler.logger)
	s.handler.Routes(s.router, modActionTopic, contentTopic)
}

func (s *HandlerSuite) deliver(topic string, payload any) error {
	raw, err := json.Marshal(payload)
	s.Require().NoError(err)
	s.offset++
	return s.router.Handle(context.Background(), &consumer.Message{
		Topic:  topic,
		Offset: s.offset,
		Value:  raw,
	})
}

func (s *HandlerSuite) removeLink() map[string]any {
	return map[string]any{
		"moderator":  map[string]string{"id": "t2_mod1", "name": "mod1"},
		"action":     "removelink",
		"targetUser": map[string]string{"id": "t2_u1", "name": "u1"},
		"targetPost": map[string]string{"id": "t3_abc", "permalink": "/r/test/comments/abc/hello/"},
		"actionedAt": s.t0.Add(-time.Minute),
	}
}

func (s *HandlerSuite) TestNewRequiresDependencies() {
	_, err := New(s.settings, nil, s.cache, nil, nil)
	s.Error(err)
}

// =============================================================================
// Moderation actions
// =============================================================================

func (s *HandlerSuite) TestModActionPublishedOnce() {
	s.Require().NoError(s.deliver(modActionTopic, s.removeLink()))
	s.Require().NoError(s.deliver(modActionTopic, s.removeLink()))

	s.Len(s.provider.Submissions(), 1)
	keys, err := s.store.Scan(context.Background(), "event:*")
	s.Require().NoError(err)
	s.Len(keys, 1)
}

func (s *HandlerSuite) TestDistinctActionsBothPublished() {
	second := s.removeLink()
	second["actionedAt"] = s.t0

	s.Require().NoError(s.deliver(modActionTopic, s.removeLink()))
	s.Require().NoError(s.deliver(modActionTopic, second))

	s.Len(s.provider.Submissions(), 2)
}

func (s *HandlerSuite) TestFailedDisclosureReleasesClaim() {
	s.provider.FailUser("t2_mod1", sentinel.ErrUnavailable)
	err := s.deliver(modActionTopic, s.removeLink())
	s.ErrorIs(err, sentinel.ErrUnavailable)
	s.Empty(s.provider.Submissions())

	keys, err := s.store.Scan(context.Background(), "event:*")
	s.Require().NoError(err)
	s.Empty(keys, "failed event must be retryable")

	s.provider.FailUser("t2_mod1", nil)
	s.Require().NoError(s.deliver(modActionTopic, s.removeLink()))
	s.Len(s.provider.Submissions(), 1)
}

func (s *HandlerSuite) TestMalformedModActionCommitted() {
	s.Run("not json", func() {
		s.NoError(s.router.Handle(context.Background(), &consumer.Message{Topic: modActionTopic, Value: []byte("{")}))
	})
	s.Run("bad moderator id", func() {
		ev := s.removeLink()
		ev["moderator"] = map[string]string{"id": "t3_nope", "name": "mod1"}
		s.NoError(s.deliver(modActionTopic, ev))
	})
	s.Run("missing timestamp", func() {
		ev := s.removeLink()
		delete(ev, "actionedAt")
		s.NoError(s.deliver(modActionTopic, ev))
	})
	s.Empty(s.provider.Submissions())
}

func (s *HandlerSuite) TestUntargetedActionSkippedQuietly() {
	s.Require().NoError(s.deliver(modActionTopic, map[string]any{
		"moderator":  map[string]string{"id": "t2_mod1", "name": "mod1"},
		"action":     "editsettings",
		"actionedAt": s.t0,
	}))

	s.Empty(s.provider.Submissions())
	s.NotContains(s.logs.String(), "malformed")
	s.NotContains(s.logs.String(), "level=ERROR")
	s.Contains(s.logs.String(), "nothing to disclose")
}

func (s *HandlerSuite) TestUnconfiguredSkipsEverything() {
	s.settings.TargetCommunity = ""
	s.build()

	s.Require().NoError(s.deliver(modActionTopic, s.removeLink()))

	s.Empty(s.provider.Submissions())
	keys, err := s.store.Scan(context.Background(), "*")
	s.Require().NoError(err)
	s.Empty(keys)
}

// =============================================================================
// Content events
// =============================================================================

func (s *HandlerSuite) TestSubmitStoresSnapshot() {
	s.Require().NoError(s.deliver(contentTopic, map[string]any{
		"event":   "submit",
		"author":  map[string]string{"id": "t2_u2", "name": "u2"},
		"post":    map[string]string{"id": "t3_new", "title": "Fresh", "body": "text", "permalink": "/r/test/comments/new/"},
		"eventAt": s.t0,
	}))

	p, err := s.cache.GetPost(context.Background(), "t3_new")
	s.Require().NoError(err)
	s.Equal("Fresh", p.Title)
	s.EqualValues("t2_u2", p.Author)

	u, err := s.cache.GetUser(context.Background(), "t2_u2")
	s.Require().NoError(err)
	s.Equal("u2", u.Username)
	s.Zero(s.provider.Calls("GetUserByID"))
}

func (s *HandlerSuite) TestSubmitKeepsCachedAccountFlags() {
	ctx := context.Background()
	s.Require().NoError(s.cache.PutUser(ctx, &cache.User{ID: "t2_admin", Username: "someadmin", IsAdmin: true}))

	s.Require().NoError(s.deliver(contentTopic, map[string]any{
		"event":   "submit",
		"author":  map[string]string{"id": "t2_admin", "name": "someadmin"},
		"post":    map[string]string{"id": "t3_notice", "title": "Notice", "permalink": "/r/test/comments/notice/"},
		"eventAt": s.t0,
	}))

	u, err := s.cache.GetUser(ctx, "t2_admin")
	s.Require().NoError(err)
	s.True(u.IsAdmin, "an event author must not clear the admin flag")
}

func (s *HandlerSuite) TestUpdateEditsPublishedRecord() {
	s.Require().NoError(s.deliver(modActionTopic, s.removeLink()))
	pub := s.provider.Submissions()[0]

	s.Require().NoError(s.deliver(contentTopic, map[string]any{
		"event":        "submit",
		"author":       map[string]string{"id": "t2_u1", "name": "u1"},
		"post":         map[string]string{"id": "t3_abc", "title": "Hello", "body": "edited", "permalink": "/r/test/comments/abc/hello/"},
		"previousBody": "",
		"eventAt":      s.t0,
	}))

	got, ok := s.provider.Submission(pub.ID)
	s.Require().True(ok)
	s.Len(got.Edits, 1)

	p, err := s.cache.GetPost(context.Background(), "t3_abc")
	s.Require().NoError(err)
	s.Equal("edited", p.Body)
}

func (s *HandlerSuite) TestAuthorDeletionScrubsRecords() {
	s.Require().NoError(s.deliver(modActionTopic, s.removeLink()))
	pub := s.provider.Submissions()[0]

	s.Require().NoError(s.deliver(contentTopic, map[string]any{
		"event":   "delete",
		"source":  "user",
		"post":    map[string]string{"id": "t3_abc"},
		"eventAt": s.t0,
	}))

	got, ok := s.provider.Submission(pub.ID)
	s.Require().True(ok)
	s.Require().Len(got.Edits, 1)
	s.Contains(got.Edits[0], disclosure.AccountDeleted)
	s.NotContains(got.Edits[0], "/r/test/comments/abc/hello/")

	for _, key := range []string{"audit:" + pub.ID.String(), tracking.ModActionsKey("t3_abc"), cache.Key("t3_abc")} {
		s.False(s.store.Exists(key), key)
	}
}

func (s *HandlerSuite) TestModeratorDeletionIgnored() {
	s.Require().NoError(s.deliver(modActionTopic, s.removeLink()))
	pub := s.provider.Submissions()[0]

	s.Require().NoError(s.deliver(contentTopic, map[string]any{
		"event":   "delete",
		"source":  "moderator",
		"post":    map[string]string{"id": "t3_abc"},
		"eventAt": s.t0,
	}))

	got, _ := s.provider.Submission(pub.ID)
	s.Empty(got.Edits)
	s.True(s.store.Exists("audit:" + pub.ID.String()))
}

func (s *HandlerSuite) TestUnknownTopicCommitted() {
	s.NoError(s.deliver("elsewhere", s.removeLink()))
	s.Empty(s.provider.Submissions())
}
