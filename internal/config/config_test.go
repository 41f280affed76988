package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("IMAPMCP_IMAP_HOST", "imap.example.com")
	t.Setenv("IMAPMCP_IMAP_USERNAME", "me@example.com")
	t.Setenv("IMAPMCP_IMAP_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "imap.example.com", cfg.IMAP.Host)
	require.Equal(t, 993, cfg.IMAP.Port)
	require.Equal(t, "password", cfg.IMAP.Auth)
	require.Equal(t, 200, cfg.Query.MaxPageSize)
	require.Equal(t, 50, cfg.Query.DefaultPageSize)
	require.Equal(t, 200, cfg.Query.SnippetLength)
	require.Equal(t, "info", cfg.Log.Level)
	require.Empty(t, cfg.Log.File)
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("IMAPMCP_IMAP_PORT", "1993")
	t.Setenv("IMAPMCP_QUERY_MAX_PAGE_SIZE", "500")
	t.Setenv("IMAPMCP_QUERY_DEFAULT_PAGE_SIZE", "25")
	t.Setenv("IMAPMCP_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 1993, cfg.IMAP.Port)
	require.Equal(t, 500, cfg.Query.MaxPageSize)
	require.Equal(t, 25, cfg.Query.DefaultPageSize)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadOAuthBearer(t *testing.T) {
	t.Setenv("IMAPMCP_IMAP_HOST", "imap.example.com")
	t.Setenv("IMAPMCP_IMAP_USERNAME", "me@example.com")
	t.Setenv("IMAPMCP_IMAP_AUTH", "oauthbearer")
	t.Setenv("IMAPMCP_IMAP_ACCESS_TOKEN", "ya29.token")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "oauthbearer", cfg.IMAP.Auth)
	require.Equal(t, "ya29.token", cfg.IMAP.AccessToken)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			"missing host",
			map[string]string{"IMAPMCP_IMAP_HOST": ""},
		},
		{
			"missing username",
			map[string]string{"IMAPMCP_IMAP_USERNAME": ""},
		},
		{
			"missing password",
			map[string]string{"IMAPMCP_IMAP_PASSWORD": ""},
		},
		{
			"bad port",
			map[string]string{"IMAPMCP_IMAP_PORT": "70000"},
		},
		{
			"unknown auth",
			map[string]string{"IMAPMCP_IMAP_AUTH": "kerberos"},
		},
		{
			"oauthbearer without token",
			map[string]string{"IMAPMCP_IMAP_AUTH": "oauthbearer"},
		},
		{
			"default above ceiling",
			map[string]string{
				"IMAPMCP_QUERY_MAX_PAGE_SIZE":     "10",
				"IMAPMCP_QUERY_DEFAULT_PAGE_SIZE": "20",
			},
		},
		{
			"zero ceiling",
			map[string]string{"IMAPMCP_QUERY_MAX_PAGE_SIZE": "0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
		})
	}
}
