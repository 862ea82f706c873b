package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/ecopoints/internal/flagx"
	"github.com/dmitrijs2005/ecopoints/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Interval fields use
// timex.Duration so both "30m" and integer nanoseconds are accepted.
// Fields absent from the file keep their current value.
type JsonConfig struct {
	EndpointAddrHTTP     string         `json:"endpoint_addr_http"`
	DatabaseDSN          string         `json:"database_dsn"`
	StorageBackend       string         `json:"storage_backend"`
	PointsPerUnit        int64          `json:"points_per_unit"`
	RequireRegistration  *bool          `json:"require_registration"`
	StoreTimeout         timex.Duration `json:"store_timeout"`
	SessionBackend       string         `json:"session_backend"`
	SessionTTL           timex.Duration `json:"session_ttl"`
	SessionSweepInterval timex.Duration `json:"session_sweep_interval"`
	RedisURL             string         `json:"redis_url"`
	TerminalSecret       string         `json:"terminal_secret"`
	LoginRatePerSecond   float64        `json:"login_rate_per_second"`
	LoginBurst           int            `json:"login_burst"`
	ShutdownTimeout      timex.Duration `json:"shutdown_timeout"`
	S3RootUser           string         `json:"s3_root_user"`
	S3RootPassword       string         `json:"s3_root_password"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag into config. With neither flag set nothing is loaded.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.StorageBackend, c.StorageBackend)
	if c.PointsPerUnit != 0 {
		config.PointsPerUnit = c.PointsPerUnit
	}
	if c.RequireRegistration != nil {
		config.RequireRegistration = *c.RequireRegistration
	}
	setDuration(&config.StoreTimeout, c.StoreTimeout)
	setString(&config.SessionBackend, c.SessionBackend)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setDuration(&config.SessionSweepInterval, c.SessionSweepInterval)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.TerminalSecret, c.TerminalSecret)
	if c.LoginRatePerSecond != 0 {
		config.LoginRatePerSecond = c.LoginRatePerSecond
	}
	if c.LoginBurst != 0 {
		config.LoginBurst = c.LoginBurst
	}
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
