// Package config builds the bot's configuration once at startup from
// defaults, an optional json5 file with a local override, a .env file and
// the process environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
	"go.uber.org/zap"
)

// ErrMissingCredentials means MMU_REG_NUMBER or MMU_PASSWORD is unset.
var ErrMissingCredentials = errors.New("missing portal credentials")

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "portalbot.json5"

type Config struct {
	Credentials Credentials `json:"-"`
	Portal      Portal      `json:"portal"`
	Browser     Browser     `json:"browser"`
	Watch       Watch       `json:"watch"`
	AI          AI          `json:"ai"`
	Output      Output      `json:"output"`
	Notify      Notify      `json:"notify"`
	// CI is set when running under GitHub Actions or another CI runner.
	CI bool `json:"-"`
}

// Credentials only ever come from the environment.
type Credentials struct {
	RegNumber string
	Password  string
}

type Portal struct {
	LoginURL            string `json:"login_url"`
	UnitRegistrationURL string `json:"unit_registration_url"`
	// RegistrationType is course, supplementary or retake.
	RegistrationType string `json:"registration_type"`
}

type Browser struct {
	Headless       bool   `json:"headless"`
	Stealth        bool   `json:"stealth"`
	Bin            string `json:"bin"`
	ProfileDir     string `json:"profile_dir"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (b Browser) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type Watch struct {
	IntervalMinutes int `json:"interval_minutes"`
}

func (w Watch) Interval() time.Duration {
	return time.Duration(w.IntervalMinutes) * time.Minute
}

type AI struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	AnthropicKey string `json:"-"`
	OpenAIKey    string `json:"-"`
}

// Key returns the API key for the configured provider.
func (a AI) Key() string {
	switch a.Provider {
	case "claude", "anthropic":
		return a.AnthropicKey
	case "openai", "gpt":
		return a.OpenAIKey
	}
	return ""
}

type Output struct {
	JSONFile     string `json:"json_file"`
	SnapshotDir  string `json:"snapshot_dir"`
	HistoryDB    string `json:"history_db"`
	GitHubOutput string `json:"-"`
}

type Notify struct {
	Email   Email   `json:"email"`
	Webhook Webhook `json:"webhook"`
}

type Email struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"-"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

func (e Email) Enabled() bool {
	return e.Host != "" && len(e.To) > 0
}

type Webhook struct {
	URL     string `json:"url"`
	Retries int    `json:"retries"`
}

// Default returns the built-in configuration for the MMU student portal.
func Default() Config {
	return Config{
		Portal: Portal{
			LoginURL:            "https://studentportal.mmu.ac.ke/Student%20Login.aspx",
			UnitRegistrationURL: "https://studentportal.mmu.ac.ke/UnitRegistration.aspx",
			RegistrationType:    "course",
		},
		Browser: Browser{
			Stealth:        true,
			Width:          1280,
			Height:         720,
			TimeoutSeconds: 30,
		},
		Watch: Watch{IntervalMinutes: 45},
		Output: Output{
			JSONFile:    "registration_output.json",
			SnapshotDir: "snapshots",
		},
		Notify: Notify{
			Email:   Email{Port: 587},
			Webhook: Webhook{Retries: 3},
		},
	}
}

// Load reads path (missing is fine), then .env and the environment.
func Load(path string) (Config, error) {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		file, err := readFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := mergo.Merge(&cfg, file, mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("merge config: %w", err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks what every command needs. Credentials are checked
// separately since offline commands run without them.
func (c Config) Validate() error {
	for name, raw := range map[string]string{
		"portal.login_url":             c.Portal.LoginURL,
		"portal.unit_registration_url": c.Portal.UnitRegistrationURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: invalid url %q", name, raw)
		}
	}
	if c.Watch.IntervalMinutes <= 0 {
		return fmt.Errorf("watch.interval_minutes must be positive, got %d", c.Watch.IntervalMinutes)
	}
	if c.Browser.TimeoutSeconds <= 0 {
		return fmt.Errorf("browser.timeout_seconds must be positive, got %d", c.Browser.TimeoutSeconds)
	}
	if _, err := RegistrationTypeValue(c.Portal.RegistrationType); err != nil {
		return err
	}
	if c.Notify.Webhook.URL != "" {
		if _, err := url.ParseRequestURI(c.Notify.Webhook.URL); err != nil {
			return fmt.Errorf("notify.webhook.url: %w", err)
		}
	}
	return nil
}

// RequireCredentials fails with remediation text when credentials are unset.
func (c Config) RequireCredentials() error {
	var missing []string
	if c.Credentials.RegNumber == "" {
		missing = append(missing, "MMU_REG_NUMBER")
	}
	if c.Credentials.Password == "" {
		missing = append(missing, "MMU_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s in the environment or a .env file", ErrMissingCredentials, strings.Join(missing, " and "))
	}
	return nil
}

// registrationTypes maps names to the portal's Main__ddlRegFor values.
var registrationTypes = map[string]string{
	"course":        "0",
	"supplementary": "2",
	"retake":        "3",
}

// RegistrationTypeValue returns the option value for a registration type.
func RegistrationTypeValue(name string) (string, error) {
	v, ok := registrationTypes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown registration type %q (supported: course, supplementary, retake)", name)
	}
	return v, nil
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	get := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}

	if v, ok := get("MMU_REG_NUMBER"); ok {
		c.Credentials.RegNumber = v
	}
	if v, ok := lookup("MMU_PASSWORD"); ok {
		c.Credentials.Password = v
	}
	if v, ok := get("MMU_LOGIN_INTERVAL"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MMU_LOGIN_INTERVAL: %w", err)
		}
		c.Watch.IntervalMinutes = n
	}
	if v, ok := get("HEADLESS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HEADLESS: %w", err)
		}
		c.Browser.Headless = b
	}
	if v, ok := get("CHROME_BIN", "CHROME_PATH"); ok {
		c.Browser.Bin = v
	}
	if isTrue(get("CI")) || isTrue(get("GITHUB_ACTIONS")) {
		c.CI = true
		c.Browser.Headless = true
	}
	if v, ok := get("GITHUB_OUTPUT"); ok {
		c.Output.GitHubOutput = v
	}

	if v, ok := get("PORTALBOT_AI_PROVIDER"); ok {
		c.AI.Provider = v
	}
	if v, ok := get("PORTALBOT_AI_MODEL"); ok {
		c.AI.Model = v
	}
	c.AI.AnthropicKey, _ = get("PORTALBOT_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")
	c.AI.OpenAIKey, _ = get("PORTALBOT_OPENAI_KEY", "OPENAI_API_KEY")

	if v, ok := get("SMTP_HOST"); ok {
		c.Notify.Email.Host = v
	}
	if v, ok := get("SMTP_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		c.Notify.Email.Port = n
	}
	if v, ok := get("SMTP_USERNAME"); ok {
		c.Notify.Email.Username = v
	}
	if v, ok := lookup("SMTP_PASSWORD"); ok {
		c.Notify.Email.Password = v
	}
	if v, ok := get("NOTIFY_EMAIL_FROM"); ok {
		c.Notify.Email.From = v
	}
	if v, ok := get("NOTIFY_EMAIL_TO"); ok {
		c.Notify.Email.To = splitList(v)
	}
	if v, ok := get("PORTALBOT_WEBHOOK_URL"); ok {
		c.Notify.Webhook.URL = v
	}
	return nil
}

func isTrue(v string, ok bool) bool {
	b, err := strconv.ParseBool(v)
	return ok && err == nil && b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitExt(f string) (string, string) {
	ext := filepath.Ext(f)
	return strings.TrimSuffix(f, ext), strings.TrimPrefix(ext, ".")
}

// readFile merges <name>.<ext> with <name>.local.<ext>, the local file
// winning. os.ErrNotExist is returned when neither exists.
func readFile(name string) (Config, error) {
	var out Config
	allNotFound := true

	data, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(data) > 0 {
		if err := json5.Unmarshal(data, &out); err != nil {
			return out, err
		}
		allNotFound = false
	}

	prefix, ext := splitExt(filepath.Base(name))
	localPath := filepath.Join(filepath.Dir(name), fmt.Sprintf("%s.local.%s", prefix, ext))
	local, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(local) > 0 {
		var override Config
		if err := json5.Unmarshal(local, &override); err != nil {
			return out, err
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		zap.L().Debug("merging config with local overrides", zap.String("local", localPath))
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}
