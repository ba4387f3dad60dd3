package adapter

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// ConfigString reads an optional string option.
func ConfigString(cfg map[string]any, key string) string {
	if cfg == nil {
		return ""
	}
	return cast.ToString(cfg[key])
}

// ConfigBool reads an optional boolean option.
func ConfigBool(cfg map[string]any, key string) bool {
	if cfg == nil {
		return false
	}
	return cast.ToBool(cfg[key])
}

// ConfigUint reads an optional unsigned option.
func ConfigUint(cfg map[string]any, key string) (uint64, error) {
	if cfg == nil || cfg[key] == nil {
		return 0, nil
	}
	v, err := cast.ToUint64E(cfg[key])
	if err != nil {
		return 0, fmt.Errorf("option %s: %w", key, err)
	}
	return v, nil
}

// ConfigDuration reads an optional duration option such as "2s".
func ConfigDuration(cfg map[string]any, key string) (time.Duration, error) {
	if cfg == nil || cfg[key] == nil {
		return 0, nil
	}
	d, err := cast.ToDurationE(cfg[key])
	if err != nil {
		return 0, fmt.Errorf("option %s: %w", key, err)
	}
	return d, nil
}
