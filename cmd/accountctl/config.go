package main

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type config struct {
	Keystore keystoreConfig `yaml:"keystore"`
}

type keystoreConfig struct {
	Path string `yaml:"path"`
}

// loadConfig reads defaults from a yaml file when one exists and applies
// environment overrides on top. A missing or unreadable file is not an
// error; every value has a flag equivalent.
func loadConfig(configPath string) config {
	var cfg config

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"configs/accountctl.yaml",
			"accountctl.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var parsed config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}
		cfg = parsed
		break
	}

	applyEnvOverrides(&cfg)
	return cfg
}

func applyEnvOverrides(cfg *config) {
	if path := strings.TrimSpace(os.Getenv("SDK_KEYSTORE")); path != "" {
		cfg.Keystore.Path = path
	}
}
