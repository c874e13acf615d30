package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSettingsFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("OPENMOD_TARGET_COMMUNITY", "")
		t.Setenv("OPENMOD_MODERATION_ACTIONS", "")

		s := SettingsFromEnv()
		assert.True(t, s.RecordAdminActions)
		assert.False(t, s.RecordAutoModeratorActions)
		assert.Equal(t, DefaultModerationActions, s.ModerationActions)
		assert.False(t, s.IsMinimallyConfigured(), "target community is required")
	})

	t.Run("parses lists and strips prefixes", func(t *testing.T) {
		t.Setenv("OPENMOD_TARGET_COMMUNITY", " r/modlog ")
		t.Setenv("OPENMOD_MODERATION_ACTIONS", "banuser, removelink")
		t.Setenv("OPENMOD_EXCLUDED_MODERATORS", "u/alice, bob")
		t.Setenv("OPENMOD_RECORD_ADMIN_ACTIONS", "false")

		s := SettingsFromEnv()
		assert.Equal(t, "modlog", s.TargetCommunity)
		assert.Equal(t, []string{"banuser", "removelink"}, s.ModerationActions)
		assert.Equal(t, []string{"alice", "bob"}, s.ExcludedModerators)
		assert.False(t, s.RecordAdminActions)
		assert.True(t, s.IsMinimallyConfigured())
		assert.True(t, s.RecordsAction("BanUser"))
		assert.False(t, s.RecordsAction("muteuser"))
	})
}

func TestFromEnv(t *testing.T) {
	t.Setenv("OPENMOD_SWEEP_BATCH_SIZE", "25")
	t.Setenv("OPENMOD_SCHEDULER_TICK", "not-a-duration")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := FromEnv()
	assert.Equal(t, 25, cfg.Sweep.BatchSize)
	assert.Equal(t, "0 23 * * *", cfg.Sweep.Cron)
	assert.Equal(t, time.Second, cfg.Scheduler.Tick)
	assert.False(t, cfg.Kafka.Enabled())
}
