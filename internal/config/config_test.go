package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Hour, cfg.MergeTolerance)
	assert.Equal(t, 0.5, cfg.InvitationShare)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.False(t, cfg.SettingsFromBackend)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("MERGE_TOLERANCE", "30m")
	t.Setenv("INVITATION_SHARE", "0.4")
	t.Setenv("BACKEND_URL", "https://api.example.vn/api/")
	t.Setenv("CART_TIMEZONE_OFFSET", "0")
	t.Setenv("SETTINGS_FROM_BACKEND", "true")

	cfg := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.MergeTolerance)
	assert.Equal(t, 0.4, cfg.InvitationShare)
	assert.Equal(t, "https://api.example.vn/api", cfg.BackendURL)
	assert.True(t, cfg.SettingsFromBackend)
	_, off := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Zero(t, off)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MERGE_TOLERANCE", "an hour")
	t.Setenv("INVITATION_SHARE", "2")
	t.Setenv("HISTORY_WORKERS", "many")

	cfg := Load()
	assert.Equal(t, time.Hour, cfg.MergeTolerance)
	assert.Equal(t, 0.5, cfg.InvitationShare)
	assert.Equal(t, 4, cfg.HistoryWorkers)
}
