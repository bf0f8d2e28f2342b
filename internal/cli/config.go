package cli

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	confdispatch "github.com/reoring/confdispatch"
)

// fileConfig is the --config TOML file.
//
//	latest-version = "15.0"
//	max-include-depth = 8
//
//	[properties]
//	"data.dir" = "/var/lib/cache"
//
//	[log]
//	level = "debug"
type fileConfig struct {
	LatestVersion   string            `toml:"latest-version"`
	MaxIncludeDepth int               `toml:"max-include-depth"`
	MaxDepth        int               `toml:"max-depth"`
	Properties      map[string]string `toml:"properties"`
	Log             struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// options merges the config file with --set overrides.
func (c fileConfig) options(sets []string) (confdispatch.Options, error) {
	opt := confdispatch.Options{
		Properties:      make(map[string]string, len(c.Properties)+len(sets)),
		MaxIncludeDepth: c.MaxIncludeDepth,
		MaxDepth:        c.MaxDepth,
	}
	for k, v := range c.Properties {
		opt.Properties[k] = v
	}
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return opt, fmt.Errorf("invalid --set %q: want key=value", s)
		}
		opt.Properties[strings.TrimSpace(k)] = v
	}
	if c.LatestVersion != "" {
		v, err := confdispatch.ParseVersion(c.LatestVersion)
		if err != nil {
			return opt, err
		}
		opt.LatestVersion = v
	}
	return opt, nil
}
