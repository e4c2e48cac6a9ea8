package config

import (
	"sort"
	"strconv"
	"strings"
)

// Option names read from the parsed command line.
const (
	KeyLogConfig      = "log4rs-config"
	KeyNoStderr       = "no-stderr"
	KeyLogFile        = "log-file"
	KeyLogJSON        = "log-json"
	KeyLogLevel       = "log-level"
	KeyLogLevelStderr = "log-level-stderr"
	KeyLogLevelFile   = "log-level-file"
	KeyLogLevelJSON   = "log-level-json"
	KeyLogFileSize    = "log-file-size"
	KeyLogJSONCount   = "log-json-count"
	KeyLogRedis       = "log-redis"
	KeyLogRedisKey    = "log-redis-key"
	KeyLogLevelRedis  = "log-level-redis"
	KeyHTTPIP         = "http-ip"
	KeyHTTPPort       = "http-port"
	KeyHTTPPoolSize   = "http-pool-size"
)

// Defaults applied when an option is absent or unusable.
const (
	DefaultLogLevel       = "debug"
	DefaultLogLevelStderr = "debug"
	DefaultLogLevelFile   = "info"
	DefaultLogLevelJSON   = "info"
	DefaultLogLevelRedis  = "info"
	DefaultLogFileSize    = 1000000
	DefaultLogJSONCount   = 10
	DefaultLogRedisKey    = "logs"
	DefaultHTTPIP         = "0.0.0.0"
	DefaultHTTPPort       = "3000"
	DefaultHTTPPoolSize   = 3
)

// Configuration is an immutable mapping from option name to value.
// An option with an empty value is treated as absent.
type Configuration struct {
	values map[string]string
}

// New returns a Configuration holding a copy of values.
func New(values map[string]string) Configuration {
	c := Configuration{values: make(map[string]string, len(values))}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Value returns the value of key and whether it is present.
func (c Configuration) Value(key string) (string, bool) {
	v, ok := c.values[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// String returns the value of key or def when absent.
func (c Configuration) String(key, def string) string {
	if v, ok := c.Value(key); ok {
		return v
	}
	return def
}

// Flag reports whether the boolean option key is set.
func (c Configuration) Flag(key string) bool {
	v, ok := c.Value(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// Uint returns key as a positive integer, or def when the value is absent,
// unparsable or zero.
func (c Configuration) Uint(key string, def uint64) uint64 {
	v, ok := c.Value(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil || n == 0 {
		return def
	}
	return n
}

// Int returns key as a positive int, or def when the value is absent,
// unparsable, zero or negative.
func (c Configuration) Int(key string, def int) int {
	v, ok := c.Value(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Keys returns the option names in sorted order.
func (c Configuration) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the underlying values.
func (c Configuration) Map() map[string]string {
	m := make(map[string]string, len(c.values))
	for k, v := range c.values {
		m[k] = v
	}
	return m
}
