package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, billplzSandboxURL, cfg.Payment.Billplz.BaseURL)
	assert.Equal(t, bayarcashSandboxURL, cfg.Payment.Bayarcash.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Payment.Billplz.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Payment.Bayarcash.Timeout)
	assert.Equal(t, "myr", cfg.Payment.Stripe.Currency)
	assert.Equal(t, "Maybank", cfg.Payment.BankTransfer.BankName)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadLiveGateways(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("BILLPLZ_SANDBOX", "false")
	t.Setenv("BAYARCASH_SANDBOX", "false")
	t.Setenv("FRONTEND_URL", "https://seeker.example/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, billplzLiveURL, cfg.Payment.Billplz.BaseURL)
	assert.Equal(t, bayarcashLiveURL, cfg.Payment.Bayarcash.BaseURL)
	assert.Equal(t, "https://seeker.example", cfg.App.FrontendURL)
}

func TestValidateRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORAGE_PROVIDER", "ftp")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "STORAGE_PROVIDER")
}

func TestGetEnvAsSliceTrims(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvAsSlice("CORS_ORIGINS", nil))
}

func TestLoadConfigFileOverlay(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REDIS_PASSWORD", "from-env")
	t.Setenv("BUCKET_NAME", "seeker-proofs")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  port: 9090
redis:
  enabled: true
  lock:
    ttl: 20s
storage:
  provider: aws
  s3:
    bucket: ${BUCKET_NAME}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "seeker-adventure", cfg.App.Name)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "from-env", cfg.Redis.Password)
	assert.Equal(t, 20*time.Second, cfg.Redis.Lock.TTL)
	assert.Equal(t, 5*time.Second, cfg.Redis.Lock.Wait)
	assert.Equal(t, "aws", cfg.Storage.Provider)
	assert.Equal(t, "seeker-proofs", cfg.Storage.S3.Bucket)
	assert.Equal(t, "ap-southeast-1", cfg.Storage.S3.Region)
}

func TestLoadConfigFileErrors(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unterminated"), 0o644))
	t.Setenv("CONFIG_FILE", path)
	_, err = Load()
	assert.ErrorContains(t, err, "failed to parse config file")
}
