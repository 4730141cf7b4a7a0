// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package internal

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/statful/statful-client-go/internal/log"
)

// BoolEnv returns the parsed boolean value of an environment variable, or
// def if it fails to parse.
func BoolEnv(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn("Non-boolean value for env var %s, defaulting to %t. Parse failed with error: %v", key, def, err)
		return def
	}
	return b
}

// IntEnv returns the parsed int value of an environment variable, or
// def otherwise.
func IntEnv(key string, def int) int {
	vv, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(vv)
	if err != nil {
		log.Warn("Non-integer value for env var %s, defaulting to %d. Parse failed with error: %v", key, def, err)
		return def
	}
	return v
}

// DurationEnv returns the parsed duration value of an environment variable,
// or def otherwise. Bare integers are read as milliseconds.
func DurationEnv(key string, def time.Duration) time.Duration {
	vv, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	if ms, err := strconv.ParseInt(vv, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	v, err := time.ParseDuration(vv)
	if err != nil {
		log.Warn("Non-duration value for env var %s, defaulting to %s. Parse failed with error: %v", key, def, err)
		return def
	}
	return v
}

// StringEnv returns the value of an environment variable, or def if it is
// unset or empty.
func StringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ForEachStringTag runs fn on every key:value pair found in str. Pairs are
// separated by commas or spaces; a pair without a colon gets an empty value.
func ForEachStringTag(str string, fn func(key, val string)) {
	for _, tag := range strings.FieldsFunc(str, func(r rune) bool { return r == ',' || r == ' ' }) {
		key, val, _ := strings.Cut(tag, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fn(key, strings.TrimSpace(val))
	}
}
