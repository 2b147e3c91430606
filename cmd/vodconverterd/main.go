// Command vodconverterd is the container entrypoint for the converter worker.
// It takes no flags: configuration comes from VODCONVERTER_CONFIG (a TOML
// path), a .env file and the environment.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"vodconverter/internal/config"
	"vodconverter/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load(configPathFromEnv(os.LookupEnv))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	opts := daemonrun.Options{SkipPreflight: envBool(os.LookupEnv, "VODCONVERTER_SKIP_PREFLIGHT")}
	if err := daemonrun.Run(context.Background(), cfg, opts); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("vodconverterd: %v", err)
	}
}

type lookupFunc func(string) (string, bool)

func configPathFromEnv(lookup lookupFunc) string {
	value, _ := lookup("VODCONVERTER_CONFIG")
	return strings.TrimSpace(value)
}

func envBool(lookup lookupFunc, key string) bool {
	value, ok := lookup(key)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
