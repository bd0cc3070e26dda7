package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"POLYMARKET_PRIVATE_KEY", "POLYMARKET_FUNDER", "POLYMARKET_SIGNATURE_TYPE",
	"POLYMARKET_API_KEY", "POLYMARKET_API_SECRET", "POLYMARKET_API_PASSPHRASE",
	"POLYMARKET_HOST", "POLYMARKET_CHAIN_ID", "POLYMARKET_CREDENTIAL_POLICY",
	"DRY_RUN", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "SECRET_STORE_PATH", "SECRET_STORE_KEY", "SERVER_ADDR",
}

// clearEnv 清空相关环境变量，测试结束后由 t.Setenv 恢复
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultHost, cfg.Polymarket.Host)
	assert.Equal(t, DefaultChainID, cfg.Polymarket.ChainID)
	assert.Equal(t, PolicyFunder, cfg.Polymarket.CredentialPolicy)
	assert.Equal(t, 0, cfg.Polymarket.SignatureType)
	assert.False(t, cfg.Polymarket.DryRun)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, DefaultServerAddr, cfg.ServerAddr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
polymarket:
  private_key: "0xfile"
  funder: "0xfunder"
  signature_type: 2
  credential_policy: api_key
  api_key: k
  api_secret: s
  api_passphrase: p
dry_run: true
log_level: debug
log_format: text
secret_store:
  path: data/secrets
`), 0o600))

	t.Setenv("POLYMARKET_PRIVATE_KEY", "0xenv")
	t.Setenv("DRY_RUN", "false")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load(path)
	require.NoError(t, err)

	s := cfg.Polymarket
	assert.Equal(t, "0xenv", s.PrivateKey, "环境变量优先")
	assert.Equal(t, "0xfunder", s.Funder)
	assert.Equal(t, 2, s.SignatureType)
	assert.Equal(t, PolicyAPIKey, s.Policy())
	assert.Equal(t, "k", s.APIKey)
	assert.Equal(t, "p", s.APIPassphrase)
	assert.False(t, s.DryRun)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat, "环境变量优先")
	assert.Equal(t, "data/secrets", cfg.SecretStore.Path)
}

func TestLoad_JSONFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"polymarket":{"chain_id":80002,"host":"http://localhost:9000"}}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 80002, cfg.Polymarket.ChainID)
	assert.Equal(t, "http://localhost:9000", cfg.Polymarket.Host)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{Polymarket: Settings{CredentialPolicy: PolicyAPIKey, ChainID: 137}}, false},
		{"bad policy", Config{Polymarket: Settings{CredentialPolicy: "both"}}, true},
		{"bad signature type", Config{Polymarket: Settings{SignatureType: 3}}, true},
		{"bad chain", Config{Polymarket: Settings{ChainID: 1}}, true},
		{"bad log format", Config{LogFormat: "xml"}, true},
		{"store key without path", Config{SecretStore: SecretStoreConfig{Key: "k"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettings_PolicyDefaultsToFunder(t *testing.T) {
	assert.Equal(t, PolicyFunder, (&Settings{}).Policy())
}
