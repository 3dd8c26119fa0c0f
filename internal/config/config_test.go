package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/attendly/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 30, cfg.Dispatch.AttemptTimeoutSeconds)
	assert.Equal(t, 100, cfg.Dispatch.ChunkSize)
	assert.Equal(t, 6, cfg.AccessCodes.PINLength)
	assert.Equal(t, 60, cfg.AccessCodes.TTLMinutes)
	assert.Equal(t, "https://api.sendgrid.com", cfg.SendGrid.BaseURL)
	assert.Equal(t, 1, cfg.SendGrid.Priority)
	assert.Equal(t, 1, cfg.Twilio.Priority)
	assert.Equal(t, "us-east-1", cfg.SES.Region)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  url: from-file\n")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("SENDGRID_API_KEY", "SG.env-key")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC-env")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok-env")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.Database.URL)
	assert.Equal(t, "SG.env-key", cfg.SendGrid.APIKey)
	assert.Equal(t, "AC-env", cfg.Twilio.AccountSID)
}

func TestStaticProviderConfigsRequireCredentials(t *testing.T) {
	path := writeConfig(t, "sendgrid:\n  api_key: SG.key\n  from_email: noreply@attendly.io\ntwilio:\n  account_sid: AC1\n  auth_token: tok\n  from_number: \"+15550001111\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	static := cfg.StaticProviderConfigs()
	require.Len(t, static, 2)

	byType := make(map[domain.ProviderType]domain.ProviderConfig)
	for _, c := range static {
		byType[c.Type] = c
	}

	sg, ok := byType[domain.ProviderSendGrid]
	require.True(t, ok, "sendgrid should be present with credentials set")
	assert.Equal(t, domain.ChannelEmail, sg.Channel)
	assert.Equal(t, 1, sg.Priority)
	assert.Equal(t, domain.SourceStatic, sg.Source)
	assert.True(t, sg.IsActive)
	assert.Equal(t, "SG.key", sg.Settings["api_key"])

	tw, ok := byType[domain.ProviderTwilio]
	require.True(t, ok, "twilio should be present with credentials set")
	assert.Equal(t, domain.ChannelSMS, tw.Channel)

	_, ok = byType[domain.ProviderMailgun]
	assert.False(t, ok, "mailgun has no credentials and should be absent")
}

func TestStaticProviderConfigsEmptyWithoutCredentials(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, cfg.StaticProviderConfigs())
}
