package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MMU_REG_NUMBER", "MMU_PASSWORD", "MMU_LOGIN_INTERVAL", "HEADLESS",
		"CHROME_BIN", "CHROME_PATH", "CI", "GITHUB_ACTIONS", "GITHUB_OUTPUT",
		"PORTALBOT_AI_PROVIDER", "PORTALBOT_AI_MODEL", "PORTALBOT_ANTHROPIC_KEY",
		"ANTHROPIC_API_KEY", "PORTALBOT_OPENAI_KEY", "OPENAI_API_KEY",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
		"NOTIFY_EMAIL_FROM", "NOTIFY_EMAIL_TO", "PORTALBOT_WEBHOOK_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, 45, cfg.Watch.IntervalMinutes)
	require.Equal(t, "https://studentportal.mmu.ac.ke/Student%20Login.aspx", cfg.Portal.LoginURL)
	require.False(t, cfg.CI)
	require.ErrorIs(t, cfg.RequireCredentials(), ErrMissingCredentials)
}

func TestLocalOverrideAndEnvPriority(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	base := filepath.Join(dir, "portalbot.json5")
	require.NoError(t, os.WriteFile(base, []byte(`{
		// comments and trailing commas are fine
		watch: {interval_minutes: 30},
		browser: {width: 1024, bin: "/usr/bin/chromium"},
		notify: {email: {host: "smtp.example.com", to: ["me@example.com"]}},
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "portalbot.local.json5"), []byte(`{
		watch: {interval_minutes: 20},
		portal: {registration_type: "retake"},
	}`), 0o644))

	t.Setenv("MMU_REG_NUMBER", " SCT221-0001/2021 ")
	t.Setenv("MMU_PASSWORD", "secret")
	t.Setenv("CHROME_PATH", "/opt/chrome")
	t.Setenv("NOTIFY_EMAIL_TO", "a@example.com, b@example.com,")

	cfg, err := Load(base)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.RequireCredentials())

	require.Equal(t, 20, cfg.Watch.IntervalMinutes)
	require.Equal(t, "retake", cfg.Portal.RegistrationType)
	require.Equal(t, 1024, cfg.Browser.Width)
	require.Equal(t, 720, cfg.Browser.Height)
	require.Equal(t, "/opt/chrome", cfg.Browser.Bin)
	require.Equal(t, "SCT221-0001/2021", cfg.Credentials.RegNumber)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Notify.Email.To)
	require.True(t, cfg.Notify.Email.Enabled())

	t.Setenv("MMU_LOGIN_INTERVAL", "5")
	cfg, err = Load(base)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Watch.IntervalMinutes)
}

func TestCIForcesHeadless(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_ACTIONS", "true")
	t.Setenv("GITHUB_OUTPUT", "/tmp/out")

	cfg, err := Load("")
	require.NoError(t, err)
	require.True(t, cfg.CI)
	require.True(t, cfg.Browser.Headless)
	require.Equal(t, "/tmp/out", cfg.Output.GitHubOutput)

	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("CI", "false")
	cfg, err = Load("")
	require.NoError(t, err)
	require.False(t, cfg.CI)
}

func TestBadEnv(t *testing.T) {
	for key, value := range map[string]string{
		"MMU_LOGIN_INTERVAL": "often",
		"HEADLESS":           "maybe",
		"SMTP_PORT":          "smtp",
	} {
		clearEnv(t)
		t.Setenv(key, value)
		_, err := Load("")
		require.Error(t, err, key)
	}
}

func TestBadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "portalbot.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{watch: `), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Portal.LoginURL = "not a url" },
		func(c *Config) { c.Watch.IntervalMinutes = 0 },
		func(c *Config) { c.Browser.TimeoutSeconds = -1 },
		func(c *Config) { c.Portal.RegistrationType = "summer" },
		func(c *Config) { c.Notify.Webhook.URL = "::" },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		require.Error(t, cfg.Validate(), "case %d", i)
	}
}

func TestAIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "ak")
	t.Setenv("PORTALBOT_OPENAI_KEY", "ok")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Empty(t, cfg.AI.Key())
	cfg.AI.Provider = "claude"
	require.Equal(t, "ak", cfg.AI.Key())
	cfg.AI.Provider = "openai"
	require.Equal(t, "ok", cfg.AI.Key())
}

func TestRegistrationTypeValue(t *testing.T) {
	v, err := RegistrationTypeValue("Supplementary")
	require.NoError(t, err)
	require.Equal(t, "2", v)
	_, err = RegistrationTypeValue("")
	require.Error(t, err)
}
