package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/qbmatrix/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    schema.PayoutTier
		expected string
	}{
		{"max", schema.MaxPayout, MaxPayoutValue},
		{"mid", schema.MidPayout, MidPayoutValue},
		{"min", schema.MinPayout, MinPayoutValue},
		{"zero", schema.ZeroPayout, ZeroPayoutValue},
		{"unknown falls back to zero", schema.PayoutTier("bogus"), ZeroPayoutValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	for _, p := range []schema.PayoutTier{schema.MaxPayout, schema.MidPayout, schema.MinPayout, schema.ZeroPayout} {
		t.Run(string(p), func(t *testing.T) {
			// Should contain the plain label
			assert.Contains(t, GetColorLabel(p), GetPlainLabel(p))
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestGetHistoryDBFilePath(t *testing.T) {
	path := GetHistoryDBFilePath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, ".qbmatrix_history.db")

	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, homeDir), "path %s should start with home dir %s", path, homeDir)
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		width    int
		expected string
	}{
		{"fits", "3 fewer MA Readmissions", 40, "3 fewer MA Readmissions"},
		{"truncated", "3 fewer MA Readmissions", 10, "3 fewer..."},
		{"width too small", "abcdef", 3, "abcdef"},
		{"multibyte", "ééééé", 4, "é..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateText(tt.in, tt.width))
		})
	}
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		in       string
		expected bool
		wantErr  bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"no", false, false},
		{"False", false, false},
		{"0", false, false},
		{"maybe", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBoolString(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
