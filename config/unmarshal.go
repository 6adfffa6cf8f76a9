package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"reduction.dev/h2ofixture/config/jsontemplate"
)

// Unmarshal parses a fixture configuration from JSON, resolving `$param`
// references from params.
func Unmarshal(data []byte, params *jsontemplate.Params) (*Config, error) {
	resolved, err := jsontemplate.Resolve(data, &Config{}, params)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve params: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(resolved))
	decoder.DisallowUnknownFields()

	var config Config
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("invalid config document format: %w", err)
	}
	config.applyDefaults()

	slog.Info("resolved config", "config", string(resolved))
	return &config, nil
}
