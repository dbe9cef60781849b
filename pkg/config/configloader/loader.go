// Package configloader assembles a configuration struct from a YAML file, a .env file and the process environment.
package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Validator interface {
	Validate() error
}

// Options controls where Load looks for configuration sources.
type Options struct {
	// ConfigFile is the YAML file to read. Missing files are skipped.
	ConfigFile string
	// EnvFile is the dotenv file to read. Missing files are skipped.
	EnvFile string
}

// DefaultOptions returns the conventional locations: config.yaml and .env in the working directory.
// <APP>_CONFIG overrides the YAML path.
func DefaultOptions(appName string) Options {
	opts := Options{ConfigFile: "config.yaml", EnvFile: ".env"}
	if path := os.Getenv(strings.ToUpper(appName) + "_CONFIG"); path != "" {
		opts.ConfigFile = path
	}
	return opts
}

// Load reads the configuration for appName. Sources are applied in increasing priority:
// YAML file, .env file, system environment variables prefixed with <APPNAME>_.
func Load[T Validator](appName string, opts Options) (T, error) {
	var cfg T
	k := koanf.New(".")
	envPrefix := fmt.Sprintf("%s_", strings.ToUpper(appName))

	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				log.Printf("WARN: error loading YAML config file '%s': %v", opts.ConfigFile, err)
			}
		}
	}

	// STORESYNC_GATEWAY_BASEURL -> gateway.baseurl
	envTransformer := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}
	if opts.EnvFile != "" {
		if envFileMap, err := godotenv.Read(opts.EnvFile); err == nil {
			envMap := make(map[string]any)
			for key, value := range envFileMap {
				if !strings.HasPrefix(strings.ToUpper(key), envPrefix) {
					continue
				}
				envMap[envTransformer(key)] = value
			}
			if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
				log.Printf("WARN: error loading .env config: %v", err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("WARN: error reading .env file: %v", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformer), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
