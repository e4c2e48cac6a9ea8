package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"svcboot/pkg/config"
	"svcboot/pkg/logger"
)

// AppInfo describes the application embedding the bootstrap.
type AppInfo struct {
	Name        string
	Description string
	Version     string
}

// printLogConfigFlag is handled here and never reaches the Configuration.
const printLogConfigFlag = "print-log-config"

// stringKeys are copied verbatim into the Configuration.
var stringKeys = []string{
	config.KeyLogConfig,
	config.KeyLogFile,
	config.KeyLogJSON,
	config.KeyLogLevel,
	config.KeyLogLevelStderr,
	config.KeyLogLevelFile,
	config.KeyLogLevelJSON,
	config.KeyLogFileSize,
	config.KeyLogJSONCount,
	config.KeyLogRedis,
	config.KeyLogRedisKey,
	config.KeyLogLevelRedis,
	config.KeyHTTPIP,
	config.KeyHTTPPort,
	config.KeyHTTPPoolSize,
}

var levelKeys = []string{
	config.KeyLogLevel,
	config.KeyLogLevelStderr,
	config.KeyLogLevelFile,
	config.KeyLogLevelJSON,
	config.KeyLogLevelRedis,
}

// NewCommand declares every bootstrap option as a flag. Level flags are
// checked before action runs; numeric flags are kept as text so that an
// unusable value falls back to its default instead of failing the parse.
func NewCommand(info AppInfo, action cli.ActionFunc) *cli.Command {
	return &cli.Command{
		Name:    info.Name,
		Usage:   info.Description,
		Version: info.Version,
		Flags:   Flags(info.Name),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := validateLevels(cmd); err != nil {
				return err
			}

			if cmd.Bool(printLogConfigFlag) {
				out, err := logger.Template(ConfigurationFrom(cmd))
				if err != nil {
					return err
				}
				_, err = cmd.Root().Writer.Write(out)
				return err
			}

			if action == nil {
				return nil
			}
			return action(ctx, cmd)
		},
	}
}

// Flags returns the bootstrap flags with defaults derived from name.
func Flags(name string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    config.KeyLogConfig,
			Aliases: []string{"c"},
			Usage:   "Logging configuration file. If read successfully, this overrides all other logging options",
		},
		&cli.BoolFlag{
			Name:    config.KeyNoStderr,
			Aliases: []string{"n"},
			Usage:   "If set, do not print log to stderr",
		},
		&cli.StringFlag{
			Name:    config.KeyLogFile,
			Aliases: []string{"f"},
			Usage:   "Log file path, empty to disable",
			Value:   fmt.Sprintf("/tmp/log/%s.log", name),
		},
		&cli.StringFlag{
			Name:    config.KeyLogJSON,
			Aliases: []string{"j"},
			Usage:   "Log json file path, empty to disable. Must end with .0.jsonlog, '0' is incremented as files roll over",
			Value:   fmt.Sprintf("/tmp/log/%s%s", name, logger.JSONLogSuffix),
		},
		&cli.StringFlag{
			Name:    config.KeyLogLevel,
			Aliases: []string{"l"},
			Usage:   "Minimum log level for every sink (trace, debug, info, warn, error)",
			Value:   config.DefaultLogLevel,
		},
		&cli.StringFlag{
			Name:    config.KeyLogLevelStderr,
			Aliases: []string{"s"},
			Usage:   "Minimum log level for stderr",
			Value:   config.DefaultLogLevelStderr,
		},
		&cli.StringFlag{
			Name:  config.KeyLogLevelFile,
			Usage: "Minimum log level for file",
			Value: config.DefaultLogLevelFile,
		},
		&cli.StringFlag{
			Name:  config.KeyLogLevelJSON,
			Usage: "Minimum log level for json",
			Value: config.DefaultLogLevelJSON,
		},
		&cli.StringFlag{
			Name:  config.KeyLogFileSize,
			Usage: "Maximum log file size in bytes, any invalid value defaults to 1MB",
			Value: strconv.Itoa(config.DefaultLogFileSize),
		},
		&cli.StringFlag{
			Name:    config.KeyLogJSONCount,
			Aliases: []string{"log-file-count"},
			Usage:   "Maximum json log file count, any invalid value defaults to 10",
			Value:   strconv.Itoa(config.DefaultLogJSONCount),
		},
		&cli.StringFlag{
			Name:  config.KeyLogRedis,
			Usage: "Redis host:port to ship json records to, empty to disable",
		},
		&cli.StringFlag{
			Name:  config.KeyLogRedisKey,
			Usage: "Redis list records are appended to",
			Value: config.DefaultLogRedisKey,
		},
		&cli.StringFlag{
			Name:  config.KeyLogLevelRedis,
			Usage: "Minimum log level for redis",
			Value: config.DefaultLogLevelRedis,
		},
		&cli.StringFlag{
			Name:  config.KeyHTTPIP,
			Usage: "IP to bind to for http health",
			Value: config.DefaultHTTPIP,
		},
		&cli.StringFlag{
			Name:  config.KeyHTTPPort,
			Usage: "Port to bind to for http health",
			Value: config.DefaultHTTPPort,
		},
		&cli.StringFlag{
			Name:  config.KeyHTTPPoolSize,
			Usage: "Number of workers answering status requests",
			Value: strconv.Itoa(config.DefaultHTTPPoolSize),
		},
		&cli.BoolFlag{
			Name:  printLogConfigFlag,
			Usage: "Print the logging configuration the options above resolve to and exit",
		},
	}
}

func validateLevels(cmd *cli.Command) error {
	for _, key := range levelKeys {
		if _, err := logger.ParseSeverity(cmd.String(key)); err != nil {
			return fmt.Errorf("invalid value for --%s: %w", key, err)
		}
	}
	return nil
}

// ConfigurationFrom converts parsed flags into a Configuration. no-stderr is
// only present when set.
func ConfigurationFrom(cmd *cli.Command) config.Configuration {
	values := make(map[string]string, len(stringKeys)+1)
	for _, key := range stringKeys {
		values[key] = cmd.String(key)
	}
	if cmd.Bool(config.KeyNoStderr) {
		values[config.KeyNoStderr] = "true"
	}
	return config.New(values)
}
