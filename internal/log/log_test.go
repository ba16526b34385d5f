package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestInitWriter_FiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelWarn)
	t.Cleanup(func() { install(nil) })

	Debug(CatCheck, "hidden")
	Info(CatCheck, "also hidden")
	Warn(CatCheck, "soft violation", "kind", "github-on-parent", "id", "42")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[WARN] [check] soft violation kind=github-on-parent id=42")
}

func TestErrorErr_AppendsError(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { install(nil) })

	ErrorErr(CatAdapter, "load failed", errors.New("boom"), "module", "aave/index.js")
	ErrorErr(CatAdapter, "nil error", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "module=aave/index.js error=boom")
	require.Contains(t, lines[1], "error=<nil>")
}

func TestLog_OddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { install(nil) })

	Info(CatConfig, "odd", "orphan")
	require.Contains(t, buf.String(), "orphan=<missing>")
}

func TestLog_QuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { install(nil) })

	Warn(CatCheck, "advisory", "detail", "github is set on a child", "empty", "")
	require.Contains(t, buf.String(), `detail="github is set on a child" empty=""`)
}

func TestSetMinLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { install(nil) })

	SetMinLevel(LevelError)
	Warn(CatDB, "dropped")
	require.Empty(t, buf.String())

	Error(CatDB, "kept")
	require.Contains(t, buf.String(), "[ERROR] [db] kept")
}

func TestLog_NoLoggerIsSilent(t *testing.T) {
	install(nil)
	require.NotPanics(t, func() {
		Info(CatConfig, "nobody listening")
		SetMinLevel(LevelDebug)
	})
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "regcheck.log")

	closer, err := Init(path)
	require.NoError(t, err)
	t.Cleanup(func() { install(nil) })

	Info(CatLoader, "registry loaded", "protocols", 3)
	closer()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[INFO] [loader] registry loaded protocols=3")
}
