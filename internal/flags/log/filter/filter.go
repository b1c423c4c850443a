// Package filter drops log records below a per realm minimum level.
//
// The realm is read from the "realm" attribute, either attached to the
// logger with With or passed with the record.
package filter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	v1 "ocm.software/open-component-model/vxpack/internal/flags/log/config/v1"
)

const LoggingKeyRealm = "realm"

type filter struct {
	handler slog.Handler
	levels  map[string]slog.Level
	key     string
	// preset is the realm bound through WithAttrs, if any.
	preset string
}

// New wraps handler so records whose key attribute maps to a level in levels
// are only passed on at that level or above.
func New(handler slog.Handler, key string, levels map[string]slog.Level) slog.Handler {
	return &filter{handler: handler, levels: levels, key: key}
}

func (f *filter) Enabled(ctx context.Context, level slog.Level) bool {
	if minLevel, ok := f.levels[f.preset]; ok && f.preset != "" {
		return level >= minLevel
	}
	if f.handler.Enabled(ctx, level) {
		return true
	}
	// a realm may be configured below the base level
	for _, minLevel := range f.levels {
		if level >= minLevel {
			return true
		}
	}
	return false
}

func (f *filter) WithAttrs(attrs []slog.Attr) slog.Handler {
	preset := f.preset
	for _, attr := range attrs {
		if attr.Key == f.key {
			preset = attr.Value.String()
		}
	}
	return &filter{handler: f.handler.WithAttrs(attrs), levels: f.levels, key: f.key, preset: preset}
}

func (f *filter) WithGroup(name string) slog.Handler {
	return &filter{handler: f.handler.WithGroup(name), levels: f.levels, key: f.key, preset: f.preset}
}

func (f *filter) Handle(ctx context.Context, record slog.Record) error {
	realm := f.preset
	if realm == "" {
		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key == f.key {
				realm = attr.Value.String()
				return false
			}
			return true
		})
	}
	if minLevel, ok := f.levels[realm]; ok && realm != "" {
		if record.Level < minLevel {
			return nil
		}
		return f.handler.Handle(ctx, record)
	}
	if !f.handler.Enabled(ctx, record.Level) {
		return nil
	}
	return f.handler.Handle(ctx, record)
}

// LevelsFromConfig collects the realm levels of all rules.
func LevelsFromConfig(cfg *v1.Config) (map[string]slog.Level, error) {
	levels := make(map[string]slog.Level)
	if cfg == nil {
		return levels, nil
	}
	for _, rule := range cfg.Rules {
		var level slog.Level
		if err := level.UnmarshalText([]byte(rule.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level in rule %s: %w", rule.Level, err)
		}
		for _, condition := range rule.Conditions {
			if condition.Realm == "" {
				return nil, fmt.Errorf("condition realm cannot be empty in rule: %v", rule)
			}
			levels[condition.Realm] = level
		}
	}
	return levels, nil
}

// LevelsFromStrings parses "realm=level" pairs.
func LevelsFromStrings(raw ...string) (map[string]slog.Level, error) {
	levels := make(map[string]slog.Level, len(raw))
	for _, entry := range raw {
		realm, levelStr, found := strings.Cut(entry, "=")
		if !found || realm == "" {
			return nil, fmt.Errorf("invalid filter format: %s, expected realm=level", entry)
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelStr)); err != nil {
			return nil, fmt.Errorf("invalid log level in filter %s: %w", entry, err)
		}
		levels[realm] = level
	}
	return levels, nil
}
