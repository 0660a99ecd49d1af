package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvIntDefault(t *testing.T) {
	t.Setenv("ZONE_TEST_INT", "42")
	assert.Equal(t, 42, EnvIntDefault("ZONE_TEST_INT", 1))

	t.Setenv("ZONE_TEST_INT", "nope")
	assert.Equal(t, 1, EnvIntDefault("ZONE_TEST_INT", 1))

	assert.Equal(t, 7, EnvIntDefault("ZONE_TEST_MISSING", 7))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ZONE_EVENTS_TOPIC", "")
	t.Setenv("ZONE_CACHE_TTL_SECONDS", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "zone_events", cfg.ZoneEventsTopic)
	assert.Equal(t, 5*time.Minute, cfg.ZoneCacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func validConfig() Config {
	return Config{
		ServiceName:     "zones",
		ServerPort:      8080,
		DatabaseURL:     "postgres://zones@localhost/zones",
		JWTAccessSecret: []byte("secret"),
		ZoneEventsTopic: "zone_events",
		ZoneCacheTTL:    time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{
			name:   "missing required",
			mutate: func(c *Config) { c.DatabaseURL = ""; c.JWTAccessSecret = nil },
			want:   []string{"missing DATABASE_URL, JWT_SECRET"},
		},
		{
			name:   "bad port and ttl",
			mutate: func(c *Config) { c.ServerPort = 70000; c.ZoneCacheTTL = 0 },
			want:   []string{"SERVER_PORT=70000", "ZONE_CACHE_TTL_SECONDS=0"},
		},
		{
			name:   "brokers without topic",
			mutate: func(c *Config) { c.KafkaBrokers = []string{"k:9092"}; c.ZoneEventsTopic = "" },
			want:   []string{"ZONE_EVENTS_TOPIC"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if len(tt.want) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}
