package models

// Sink kinds accepted in a logging configuration file.
const (
	SinkKindConsole = "console"
	SinkKindFile    = "file"
	SinkKindJSON    = "json"
	SinkKindRedis   = "redis"
)

// Console targets.
const (
	TargetStdout = "stdout"
	TargetStderr = "stderr"
)

// LogConfig is the declarative form of a logging configuration, as read from
// an external file or synthesized from command line options.
type LogConfig struct {
	Level string       `yaml:"level" mapstructure:"level"` // trace, debug, info, warn, error
	Sinks []SinkConfig `yaml:"sinks" mapstructure:"sinks"`
}

// SinkConfig describes one output. Fields that do not apply to Kind are ignored.
type SinkConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Kind     string `yaml:"kind" mapstructure:"kind"`   // console, file, json, redis
	Level    string `yaml:"level" mapstructure:"level"` // threshold for this sink
	Target   string `yaml:"target,omitempty" mapstructure:"target"`
	Path     string `yaml:"path,omitempty" mapstructure:"path"`
	MaxSize  int64  `yaml:"max_size,omitempty" mapstructure:"max_size"`   // bytes, default 1000000
	MaxFiles int    `yaml:"max_files,omitempty" mapstructure:"max_files"` // json only, default 10
	Addr     string `yaml:"addr,omitempty" mapstructure:"addr"`           // redis host:port
	Key      string `yaml:"key,omitempty" mapstructure:"key"`             // redis list key
}
