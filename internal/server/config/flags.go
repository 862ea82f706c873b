package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/ecopoints/internal/flagx"
)

var serverFlags = []string{
	"-a", "-d", "-storage", "-rate", "-require-registration", "-store-timeout",
	"-sessions", "-session-ttl", "-redis", "-s", "-login-rate", "-login-burst",
	"-u", "-p", "-b", "-g", "-e",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string                 HTTP bind address (e.g., ":3000")
//	-d string                 PostgreSQL DSN
//	-storage string           ledger backend: postgres or memory
//	-rate int                 points per unit of weight
//	-require-registration     reject deposits for unknown phones
//	-store-timeout duration   bound on each store call
//	-sessions string          session backend: memory, postgres or redis
//	-session-ttl duration     sliding session lifetime
//	-redis string             redis URL for the redis session backend
//	-s string                 terminal token HMAC secret
//	-login-rate float         login attempts per second per client
//	-login-burst int          login burst per client
//	-u, -p, -b, -g, -e        S3 user, password, bucket, region, endpoint
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags, "-require-registration")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageBackend, "storage", config.StorageBackend, "ledger storage backend")
	fs.Int64Var(&config.PointsPerUnit, "rate", config.PointsPerUnit, "points per unit of weight")
	fs.BoolVar(&config.RequireRegistration, "require-registration", config.RequireRegistration, "reject deposits for unknown phones")
	fs.DurationVar(&config.StoreTimeout, "store-timeout", config.StoreTimeout, "store call timeout")
	fs.StringVar(&config.SessionBackend, "sessions", config.SessionBackend, "session backend")
	fs.DurationVar(&config.SessionTTL, "session-ttl", config.SessionTTL, "sliding session lifetime")
	fs.StringVar(&config.RedisURL, "redis", config.RedisURL, "redis URL")
	fs.StringVar(&config.TerminalSecret, "s", config.TerminalSecret, "terminal token secret")
	fs.Float64Var(&config.LoginRatePerSecond, "login-rate", config.LoginRatePerSecond, "login attempts per second")
	fs.IntVar(&config.LoginBurst, "login-burst", config.LoginBurst, "login burst")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
