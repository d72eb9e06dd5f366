package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
)

func TestParseSchedule_Overrides(t *testing.T) {
	schedule, err := ParseSchedule([]byte(`
start: "08:00"
end: "17:00"
late_cutoff: "17:00"
timezone: UTC
`))

	require.NoError(t, err)
	assert.Equal(t, attendance.ClockTime(8*60), schedule.Start)
	assert.Equal(t, attendance.ClockTime(17*60), schedule.End)
	assert.Equal(t, attendance.ClockTime(12*60), schedule.LunchStart, "unset keys keep defaults")
	assert.Equal(t, 8.0, schedule.TargetHours)
	assert.Equal(t, "UTC", schedule.Location.String())
}

func TestParseSchedule_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bad clock", `start: "9am"`},
		{"end before start", `end: "08:00"`},
		{"unknown timezone", `timezone: Mars/Olympus`},
		{"not yaml", `start: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedule([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadSchedule(t *testing.T) {
	schedule, err := LoadSchedule("")
	require.NoError(t, err)
	assert.Equal(t, attendance.DefaultSchedule().Start, schedule.Start)

	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_hours: 7.5\n"), 0o600))
	schedule, err = LoadSchedule(path)
	require.NoError(t, err)
	assert.Equal(t, 7.5, schedule.TargetHours)

	_, err = LoadSchedule(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Password: "secret"},
			JWT:      JWTConfig{Secret: "jwt", AccessExpiration: "12h"},
			Storage:  StorageConfig{Type: "local"},
			Schedule: attendance.DefaultSchedule(),
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing db password", func(c *Config) { c.Database.Password = "" }},
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }},
		{"bad token lifetime", func(c *Config) { c.JWT.AccessExpiration = "forever" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "ftp" }},
		{"slack token without channel", func(c *Config) { c.Notify.SlackToken = "xoxb" }},
		{"discord channel without token", func(c *Config) { c.Notify.DiscordChannel = "123" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLogLevel(t *testing.T) {
	c := &Config{App: AppConfig{LogLevel: "debug"}}
	assert.Equal(t, "DEBUG", c.LogLevel().String())

	c.App.LogLevel = "chatty"
	assert.Equal(t, "INFO", c.LogLevel().String())
}
