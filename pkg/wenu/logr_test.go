package wenu_test

import (
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

func TestNewLogrLogger(t *testing.T) {
	t.Parallel()

	var lines []string

	sink := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	logger := wenu.NewLogrLogger(sink)

	logger.Debug("HTTP Request", map[string]interface{}{"url": "https://api.example.com/book", "method": "GET"})
	logger.Info("Discovered resources", map[string]interface{}{"resources": 3})
	logger.Warn("Retrying request", map[string]interface{}{"attempt": 1})
	logger.Error("API Response Error", map[string]interface{}{"status_code": 500})

	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"level"=1 "msg"="HTTP Request" "method"="GET" "url"="https://api.example.com/book"`)
	assert.Contains(t, lines[1], `"msg"="Discovered resources" "resources"=3`)
	assert.Contains(t, lines[2], `"attempt"=1 "severity"="warning"`)
	assert.Contains(t, lines[3], `"msg"="API Response Error"`)
	assert.Contains(t, lines[3], `"status_code"=500`)
}

func TestNewLogrLogger_DebugFiltered(t *testing.T) {
	t.Parallel()

	var lines []string

	logger := wenu.NewLogrLogger(funcr.New(func(_, args string) {
		lines = append(lines, args)
	}, funcr.Options{}))

	logger.Debug("hidden", nil)
	logger.Info("shown", nil)

	assert.Len(t, lines, 1)
}
