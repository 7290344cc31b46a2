package config

import (
	"os"
	"strconv"
	"time"
)

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func assignString(dst *string, key string) {
	if v, ok := lookupEnv(key); ok {
		*dst = v
	}
}

func assignDuration(dst *time.Duration, key string) {
	if v, ok := lookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func assignInt(dst *int, key string) {
	if v, ok := lookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func assignBool(dst *bool, key string) {
	if v, ok := lookupEnv(key); ok {
		*dst = v == "true" || v == "1"
	}
}
