package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("hoply-test")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 100, cfg.Search.DefaultLimit)
	assert.Equal(t, 500, cfg.Search.MaxLimit)
	assert.Equal(t, 2, cfg.Search.CityMinPrefix)
	assert.Equal(t, 5, cfg.Search.CityLimit)
	assert.Equal(t, "hoply-test", cfg.Telemetry.ServiceName)
	assert.Equal(t, "hoply-import", cfg.Temporal.TaskQueue)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HOPLY_SERVER_PORT", "9090")
	t.Setenv("HOPLY_STORAGE_DRIVER", "memory")
	t.Setenv("HOPLY_SEARCH_MAX_LIMIT", "250")
	t.Setenv("HOPLY_LOG_LEVEL", "debug")

	cfg, err := Load("hoply-test")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 250, cfg.Search.MaxLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 0, ReadTimeout: 10, WriteTimeout: 10, RequestTimeout: 15},
		Storage: StorageConfig{Driver: "sqlite"},
		Search:  SearchConfig{DefaultLimit: 100, MaxLimit: 50, CityMinPrefix: 2, CityLimit: 5},
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.Contains(msg, "server.port"))
	assert.True(t, strings.Contains(msg, "storage.driver"))
	assert.True(t, strings.Contains(msg, "search.max_limit"))
}

func TestValidate_MemoryDriverSkipsDatabase(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10, RequestTimeout: 15},
		Storage: StorageConfig{Driver: DriverMemory},
		Search:  SearchConfig{DefaultLimit: 100, MaxLimit: 500, CityMinPrefix: 2, CityLimit: 5},
	}
	assert.NoError(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5433, DBName: "hoply", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5433/hoply?sslmode=disable", d.DSN())
}
