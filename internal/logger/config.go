package logger

import (
	"log/slog"
	"strings"
)

// Config selects the handler and the base attributes of the process logger
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json or text
	ServiceName string
	Version     string
	Environment string
	AddSource   bool
}

// NewConfig builds a Config from the service configuration values
func NewConfig(level, format, serviceName, version, environment string, addSource bool) Config {
	return Config{
		Level:       level,
		Format:      format,
		ServiceName: serviceName,
		Version:     version,
		Environment: environment,
		AddSource:   addSource,
	}
}

// LogLevel maps Level to a slog level; unknown names mean info
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn, LogLevelWarning:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) IsJSON() bool {
	return strings.EqualFold(c.Format, LogFormatJSON)
}

// BaseAttributes are added to every record. Empty values are left out so a
// recipectl run does not log service="".
func (c Config) BaseAttributes() []slog.Attr {
	var attrs []slog.Attr
	for _, kv := range [][2]string{
		{AttrKeyService, c.ServiceName},
		{AttrKeyVersion, c.Version},
		{AttrKeyEnvironment, c.Environment},
	} {
		if kv[1] != "" {
			attrs = append(attrs, slog.String(kv[0], kv[1]))
		}
	}
	return attrs
}
