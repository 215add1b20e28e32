package wenu

import (
	"slices"

	"github.com/go-logr/logr"
)

// logrLogger adapts a logr.Logger to Logger.
type logrLogger struct {
	logger logr.Logger
}

// NewLogrLogger wraps a logr.Logger. Debug messages are emitted at V(1).
func NewLogrLogger(logger logr.Logger) Logger {
	return &logrLogger{logger: logger}
}

func (l *logrLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.V(1).Info(msg, keysAndValues(fields)...)
}

func (l *logrLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, keysAndValues(fields)...)
}

func (l *logrLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, append(keysAndValues(fields), "severity", "warning")...)
}

func (l *logrLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(nil, msg, keysAndValues(fields)...)
}

// keysAndValues flattens fields in key order so output is stable.
func keysAndValues(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	kv := make([]interface{}, 0, 2*len(keys))
	for _, key := range keys {
		kv = append(kv, key, fields[key])
	}

	return kv
}
