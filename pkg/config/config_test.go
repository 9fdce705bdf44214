package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCredentials(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validCredentials = `{
  "token": "123456:bot-token",
  "allowedUsers": ["root_user", "second_user"],
  "host": "files.example.com",
  "user": "uploader",
  "password": "secret",
  "menuPage": "https://example.com/menu",
  "tablePage": "https://example.com/food"
}`

func TestLoad(t *testing.T) {
	path := writeCredentials(t, validCredentials)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123456:bot-token", cfg.Telegram.Token)
	assert.Equal(t, []string{"root_user", "second_user"}, cfg.Telegram.AllowedUsers)
	assert.Equal(t, "root_user", cfg.PrivilegedUser())
	assert.Equal(t, "files.example.com", cfg.FTP.Host)
	assert.Equal(t, "uploader", cfg.FTP.User)
	assert.Equal(t, "secret", cfg.FTP.Password)
	assert.Equal(t, "https://example.com/menu", cfg.Pages.MenuPage)
}

func TestLoadDefaults(t *testing.T) {
	path := writeCredentials(t, validCredentials)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.OpsPort)
	assert.Equal(t, 30, cfg.Telegram.PollTimeout)
	assert.Equal(t, "/food/", cfg.Remote.Dir)
	assert.Equal(t, "menu.json", cfg.Remote.MenuJSONName)
	assert.Equal(t, "food_files.json", cfg.Remote.TableIndexName)
	assert.Equal(t, "menu", cfg.Remote.MenuBaseName)
	assert.Equal(t, "-sm.xlsx", cfg.Remote.TableSuffix)
	assert.Equal(t, "Europe/Moscow", cfg.Remote.TimeZone)
	assert.Equal(t, "http://files.example.com", cfg.Remote.IndexBaseURL)
	assert.Equal(t, 4, cfg.Workers.Count)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadIndexBaseURLStripsPort(t *testing.T) {
	path := writeCredentials(t, `{
  "token": "123456:bot-token",
  "allowedUsers": ["root_user"],
  "host": "files.example.com:2121",
  "user": "uploader",
  "menuPage": "https://example.com/menu",
  "tablePage": "https://example.com/food"
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://files.example.com", cfg.Remote.IndexBaseURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadMissingToken(t *testing.T) {
	path := writeCredentials(t, `{
  "allowedUsers": ["root_user"],
  "host": "files.example.com",
  "user": "uploader",
  "menuPage": "https://example.com/menu",
  "tablePage": "https://example.com/food"
}`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEmptyAllowlist(t *testing.T) {
	path := writeCredentials(t, `{
  "token": "123456:bot-token",
  "allowedUsers": [],
  "host": "files.example.com",
  "user": "uploader",
  "menuPage": "https://example.com/menu",
  "tablePage": "https://example.com/food"
}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowedUsers")
}

func TestLoadInvalidPageURL(t *testing.T) {
	path := writeCredentials(t, `{
  "token": "123456:bot-token",
  "allowedUsers": ["root_user"],
  "host": "files.example.com",
  "user": "uploader",
  "menuPage": "not a url",
  "tablePage": "https://example.com/food"
}`)

	_, err := Load(path)
	require.Error(t, err)
}
