package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected map[string]any
		wantErr  bool
	}{
		{
			name:     "quotes file only",
			args:     []string{"quotes.txt"},
			expected: map[string]any{"qotd.quotes_file": "quotes.txt"},
		},
		{
			name:     "quotes file and port",
			args:     []string{"quotes.txt", "10017"},
			expected: map[string]any{"qotd.quotes_file": "quotes.txt", "qotd.port": 10017},
		},
		{
			name:     "highest port",
			args:     []string{"quotes.txt", "65535"},
			expected: map[string]any{"qotd.quotes_file": "quotes.txt", "qotd.port": 65535},
		},
		{name: "no arguments", args: nil, wantErr: true},
		{name: "too many arguments", args: []string{"a", "1", "b"}, wantErr: true},
		{name: "port out of range", args: []string{"quotes.txt", "65536"}, wantErr: true},
		{name: "port zero", args: []string{"quotes.txt", "0"}, wantErr: true},
		{name: "negative port", args: []string{"quotes.txt", "-1"}, wantErr: true},
		{name: "port not a number", args: []string{"quotes.txt", "qotd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overrides, err := parseArgs(tt.args)
			if tt.wantErr {
				require.ErrorIs(t, err, errUsage)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, overrides)
		})
	}
}

func TestRun_UsageErrorBeforeAnythingElse(t *testing.T) {
	err := run(nil)

	require.ErrorIs(t, err, errUsage)
	assert.Contains(t, err.Error(), "qotd <quotes-file> [port]")
}

func TestRun_MalformedQuotesFileFailsBeforeBinding(t *testing.T) {
	t.Setenv("QOTD_ENVIRONMENT", "test")
	t.Setenv("QOTD_LOG__LEVEL", "error")

	path := filepath.Join(t.TempDir(), "quotes.txt")
	require.NoError(t, os.WriteFile(path, []byte("One|Two\nTwo|delimiters|here\n"), 0o600))

	err := run([]string{path, "10017"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading quotes")
	assert.Contains(t, err.Error(), "line 2")
}
