package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-i", "-k", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   token signing key
//	-t int      token validity, hours
//	-i string   MFA issuer label
//	-k string   hex key sealing MFA secrets at rest
//	-l string   log level
//
// The args are first filtered down to these flags with flagx.FilterArgs so
// -c/-config and foreign flags do not collide.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing key")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Hours()), "token validity (in hours)")
	fs.StringVar(&config.MFAIssuer, "i", config.MFAIssuer, "MFA issuer label")
	fs.StringVar(&config.MFAEncryptionKey, "k", config.MFAEncryptionKey, "hex key sealing MFA secrets")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" && *tokenValidity > 0 {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Hour
		}
	})
	return nil
}
