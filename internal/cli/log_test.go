package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

var stampedLine = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `)

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)
	logger.Info("loaded page", "cursor", "p2")

	line := strings.TrimRight(buf.String(), "\n")
	require.Regexp(t, stampedLine, line)
	require.Contains(t, line, "INFO")
	require.Contains(t, line, "loaded page")
	require.Contains(t, line, "cursor=p2")

	_, err := time.Parse("15:04:05.00", line[:11])
	require.NoError(t, err)
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("page") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("page") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("page") }, true},
		{"warn at error", log.ErrorLevel, func(l *log.Logger) { l.Warn("page") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(15 * time.Millisecond)
	prog.done("Fetched 2 events feed(s)")

	line := strings.TrimRight(buf.String(), "\n")
	require.Regexp(t, stampedLine, line)
	m := regexp.MustCompile(`Fetched 2 events feed\(s\) \(([^)]+)\)$`).FindStringSubmatch(line)
	require.NotNil(t, m, "unexpected line %q", line)

	elapsed, err := time.ParseDuration(m[1])
	require.NoError(t, err)
	require.GreaterOrEqual(t, elapsed, 15*time.Millisecond)
	require.Equal(t, elapsed, elapsed.Round(time.Millisecond), "elapsed should be rounded to milliseconds")
}

func TestProgressSilentAboveInfo(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.WarnLevel)).done("Fetched")
	require.Zero(t, buf.Len())
}
