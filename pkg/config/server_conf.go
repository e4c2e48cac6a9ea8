package config

import (
	"fmt"
	"net"
	"strconv"
)

// StatusServerConfig status listener configuration
type StatusServerConfig struct {
	IP       string
	Port     string
	PoolSize int
}

// NewStatusServerConfig derives the status listener configuration, applying
// defaults for absent or unusable values.
func NewStatusServerConfig(c Configuration) *StatusServerConfig {
	return &StatusServerConfig{
		IP:       c.String(KeyHTTPIP, DefaultHTTPIP),
		Port:     c.String(KeyHTTPPort, DefaultHTTPPort),
		PoolSize: c.Int(KeyHTTPPoolSize, DefaultHTTPPoolSize),
	}
}

// Address returns the bind address in host:port form.
func (c *StatusServerConfig) Address() string {
	return net.JoinHostPort(c.IP, c.Port)
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Key      string `yaml:"key" json:"key"`
}

// NewRedisConfig parses a host:port address into a RedisConfig.
func NewRedisConfig(addr, key string) (*RedisConfig, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid redis address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, fmt.Errorf("invalid redis port %q", portStr)
	}
	if key == "" {
		key = DefaultLogRedisKey
	}
	return &RedisConfig{
		Host: host,
		Port: port,
		Key:  key,
	}, nil
}

// Addr returns the redis address in host:port form.
func (c *RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
