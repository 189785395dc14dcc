package config

import (
	"encoding/base64"
	"fmt"
	"os"
)

// Environment variables carrying an inline configuration, used by container
// deployments that cannot mount a file.
const (
	EnvConfigJSON    = "VOXELVIEW_CONFIG_JSON"
	EnvConfigYAMLB64 = "VOXELVIEW_CONFIG_YAML_B64"
)

// FromEnv returns the configuration supplied through the environment. The
// JSON variable wins when both are set. ok is false when neither is set.
func FromEnv() (cfg *Config, ok bool, err error) {
	jsonPayload := os.Getenv(EnvConfigJSON)
	yamlPayload := os.Getenv(EnvConfigYAMLB64)

	if jsonPayload == "" && yamlPayload == "" {
		return nil, false, nil
	}

	if jsonPayload != "" {
		// JSON is a YAML subset, so both variables share the schema check.
		cfg, err = Parse([]byte(jsonPayload))
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", EnvConfigJSON, err)
		}
		return cfg, true, nil
	}

	data, err := base64.StdEncoding.DecodeString(yamlPayload)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", EnvConfigYAMLB64, err)
	}
	cfg, err = Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", EnvConfigYAMLB64, err)
	}
	return cfg, true, nil
}
