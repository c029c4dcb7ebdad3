package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string        `mapstructure:"name"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   struct {
		MaxAttempts int `mapstructure:"max_attempts"`
	} `mapstructure:"retry"`
}

func defaults() Option[testConfig] {
	return WithDefaults[testConfig](map[string]any{
		"name":               "default",
		"timeout":            "5s",
		"retry.max_attempts": 3,
	})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_File(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", "name: from-file\nretry:\n  max_attempts: 5\n")

	c, err := Load(p, defaults())
	require.NoError(t, err)

	got := c.Get()
	assert.Equal(t, "from-file", got.Name)
	assert.Equal(t, 5*time.Second, got.Timeout)
	assert.Equal(t, 5, got.Retry.MaxAttempts)
	assert.Equal(t, p, c.Path())
}

func TestLoad_EmptyPathUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("CFGTEST_RETRY_MAX_ATTEMPTS", "7")

	c, err := Load("", defaults(), WithEnv[testConfig]("CFGTEST"))
	require.NoError(t, err)

	got := c.Get()
	assert.Equal(t, "default", got.Name)
	assert.Equal(t, 7, got.Retry.MaxAttempts)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "CFGDOT_NAME=from-dotenv\n")
	t.Setenv("CFGDOT_TIMEOUT", "9s")
	t.Cleanup(func() { _ = os.Unsetenv("CFGDOT_NAME") })

	c, err := Load("",
		defaults(),
		WithDotEnv[testConfig](env, filepath.Join(dir, "missing.env")),
		WithEnv[testConfig]("CFGDOT"),
	)
	require.NoError(t, err)

	got := c.Get()
	assert.Equal(t, "from-dotenv", got.Name)
	assert.Equal(t, 9*time.Second, got.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), defaults())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestGet_ReturnsCopy(t *testing.T) {
	c, err := Load("", defaults())
	require.NoError(t, err)

	got := c.Get()
	got.Name = "changed"
	assert.Equal(t, "default", c.Get().Name)
}

func TestOnChange_Reload(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", "name: one\n")

	c, err := Load(p, defaults())
	require.NoError(t, err)

	changed := make(chan [2]string, 1)
	c.OnChange(func(old, new testConfig) {
		select {
		case changed <- [2]string{old.Name, new.Name}:
		default:
		}
	})

	require.NoError(t, os.WriteFile(p, []byte("name: two\n"), 0o600))

	select {
	case got := <-changed:
		assert.Equal(t, [2]string{"one", "two"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestChanged(t *testing.T) {
	var a, b testConfig
	assert.False(t, Changed(a, b))
	b.Name = "x"
	assert.True(t, Changed(a, b))
}

func TestReload_InvalidKeepsPrevious(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", "name: one\n")

	c, err := Load(p, defaults(), WithValidate(func(c testConfig) error {
		if c.Name != "one" {
			return errors.New("name must be one")
		}
		return nil
	}))
	require.NoError(t, err)

	calls := 0
	c.OnChange(func(_, _ testConfig) { calls++ })

	require.NoError(t, os.WriteFile(p, []byte("name: two\n"), 0o600))
	err = c.Reload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must be one")
	assert.Equal(t, "one", c.Get().Name)

	require.NoError(t, os.WriteFile(p, []byte("name: one\n"), 0o600))
	require.NoError(t, c.Reload())
	assert.Equal(t, 0, calls, "unchanged content must not notify")
}

func TestLoad_ValidateFails(t *testing.T) {
	_, err := Load("", defaults(), WithValidate(func(testConfig) error { return errors.New("bad") }))
	require.Error(t, err)
}
