package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "openmod/pkg/platform/strings"
)

// Config is the resolved process configuration.
type Config struct {
	Server    Server
	Redis     RedisConfig
	Kafka     KafkaConfig
	Reddit    RedditConfig
	Sweep     SweepConfig
	Scheduler SchedulerConfig
	Settings  Settings
}

// Server captures the ops HTTP server configuration.
type Server struct {
	Addr string
}

// RedisConfig configures the backing key-value store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the event trigger surface.
type KafkaConfig struct {
	Brokers        []string
	Group          string
	ModActionTopic string
	ContentTopic   string
	Partitions     int32
	Replication    int16
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// RedditConfig configures the content provider client.
type RedditConfig struct {
	BaseURL       string
	Token         string
	UserAgent     string
	RatePerSecond float64
	Timeout       time.Duration
}

// SweepConfig configures the enforcement sweep.
type SweepConfig struct {
	Cron          string
	BatchSize     int
	CheckInterval time.Duration
	FollowUpDelay time.Duration
}

// SchedulerConfig configures the job runner.
type SchedulerConfig struct {
	Tick time.Duration
}

// Settings is the moderator-facing configuration consumed by the pipeline.
type Settings struct {
	TargetCommunity            string
	RecordAdminActions         bool
	RecordAutoModeratorActions bool
	ModerationActions          []string
	ExcludedModerators         []string
	ExcludedUsers              []string
}

// DefaultModerationActions is the action set recorded when none is configured.
var DefaultModerationActions = []string{"removelink", "spamlink", "removecomment", "spamcomment", "banuser", "muteuser"}

// IsMinimallyConfigured reports whether the pipeline has enough settings to publish.
func (s Settings) IsMinimallyConfigured() bool {
	return strings.TrimSpace(s.TargetCommunity) != "" && len(s.ModerationActions) > 0
}

// RecordsAction reports whether the action type is selected for recording.
func (s Settings) RecordsAction(action string) bool {
	return pstrings.ContainsFold(s.ModerationActions, action)
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr: envString("OPENMOD_ADDR", ":8080"),
		},
		Redis: RedisConfig{
			URL:          envString("REDIS_URL", "redis://localhost:6379/0"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:        pstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			Group:          envString("KAFKA_GROUP", "openmod"),
			ModActionTopic: envString("KAFKA_MOD_ACTION_TOPIC", "openmod.mod-actions"),
			ContentTopic:   envString("KAFKA_CONTENT_TOPIC", "openmod.content-events"),
			Partitions:     int32(envInt("KAFKA_PARTITIONS", 3)),
			Replication:    int16(envInt("KAFKA_REPLICATION", 1)),
		},
		Reddit: RedditConfig{
			BaseURL:       envString("REDDIT_BASE_URL", "https://oauth.reddit.com"),
			Token:         os.Getenv("REDDIT_TOKEN"),
			UserAgent:     envString("REDDIT_USER_AGENT", "openmod/1.0"),
			RatePerSecond: envFloat("REDDIT_RATE_PER_SECOND", 1),
			Timeout:       envDuration("REDDIT_TIMEOUT", 10*time.Second),
		},
		Sweep: SweepConfig{
			Cron:          envString("OPENMOD_SWEEP_CRON", "0 23 * * *"),
			BatchSize:     envInt("OPENMOD_SWEEP_BATCH_SIZE", 50),
			CheckInterval: envDuration("OPENMOD_SWEEP_CHECK_INTERVAL", 24*time.Hour),
			FollowUpDelay: envDuration("OPENMOD_SWEEP_FOLLOW_UP_DELAY", 5*time.Second),
		},
		Scheduler: SchedulerConfig{
			Tick: envDuration("OPENMOD_SCHEDULER_TICK", time.Second),
		},
		Settings: SettingsFromEnv(),
	}
}

// SettingsFromEnv resolves the moderator-facing settings.
func SettingsFromEnv() Settings {
	actions := pstrings.SplitList(os.Getenv("OPENMOD_MODERATION_ACTIONS"))
	if len(actions) == 0 {
		actions = DefaultModerationActions
	}
	return Settings{
		TargetCommunity:            strings.TrimPrefix(strings.TrimSpace(os.Getenv("OPENMOD_TARGET_COMMUNITY")), "r/"),
		RecordAdminActions:         envBool("OPENMOD_RECORD_ADMIN_ACTIONS", true),
		RecordAutoModeratorActions: envBool("OPENMOD_RECORD_AUTOMOD_ACTIONS", false),
		ModerationActions:          actions,
		ExcludedModerators:         pstrings.SplitList(os.Getenv("OPENMOD_EXCLUDED_MODERATORS")),
		ExcludedUsers:              pstrings.SplitList(os.Getenv("OPENMOD_EXCLUDED_USERS")),
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
