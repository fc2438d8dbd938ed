package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func minimalConfig() string {
	return `
ledger:
  contract_address: "` + testContract + `"
jwt:
  secret: "test-secret"
`
}

func TestLoadConfig_DefaultsApply(t *testing.T) {
	path := writeConfigFile(t, minimalConfig())

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:8545", cfg.Ledger.Endpoint)
	assert.Equal(t, "2m", cfg.Ledger.TxTimeout)
	assert.Equal(t, "2s", cfg.Ledger.PollInterval)
	assert.Equal(t, "http://localhost:8787", cfg.Relayer.Endpoint)
	assert.Equal(t, "1h", cfg.JWT.SessionExpiration)
	assert.Equal(t, "2s", cfg.Status.SuccessTTL)
	assert.Equal(t, "3s", cfg.Status.ErrorTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: "9090"
ledger:
  endpoint: "http://ledger:8545"
  contract_address: "`+testContract+`"
  tx_timeout: "5m"
jwt:
  secret: "test-secret"
status:
  success_ttl: "1s"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://ledger:8545", cfg.Ledger.Endpoint)
	assert.Equal(t, "5m", cfg.Ledger.TxTimeout)
	assert.Equal(t, "1s", cfg.Status.SuccessTTL)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, minimalConfig())

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("LEDGER_ENDPOINT", "http://env-ledger:8545")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "http://env-ledger:8545", cfg.Ledger.Endpoint)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("LEDGER_CONTRACT_ADDRESS", testContract)
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, testContract, cfg.Ledger.ContractAddress)
}

func TestLoadConfig_RequiresContractAddress(t *testing.T) {
	path := writeConfigFile(t, `
jwt:
  secret: "test-secret"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contract address")
}

func TestLoadConfig_RejectsMalformedContractAddress(t *testing.T) {
	path := writeConfigFile(t, `
ledger:
  contract_address: "0x1234"
jwt:
  secret: "test-secret"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid address")
}

func TestLoadConfig_RequiresJWTSecret(t *testing.T) {
	path := writeConfigFile(t, `
ledger:
  contract_address: "`+testContract+`"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret")
}

func TestLoadConfig_RejectsBadDuration(t *testing.T) {
	path := writeConfigFile(t, `
ledger:
  contract_address: "`+testContract+`"
  tx_timeout: "soon"
jwt:
  secret: "test-secret"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tx_timeout")
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, ParseDuration("5m", time.Second))
	assert.Equal(t, time.Second, ParseDuration("garbage", time.Second))
	assert.Equal(t, time.Second, ParseDuration("", time.Second))
}
