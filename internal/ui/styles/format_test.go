package styles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"fits", "diagram.puml", 20, "diagram.puml"},
		{"exact", "abc", 3, "abc"},
		{"ellipsis", "sequence-diagram.puml", 10, "sequenc..."},
		{"narrow", "abcdef", 2, "ab"},
		{"zero width", "abc", 0, ""},
		{"wide runes", "図図図図", 5, "図..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, TruncateString(tt.input, tt.width))
		})
	}
}

func TestTruncateString_KeepsEscapes(t *testing.T) {
	styled := "\x1b[31mred text here\x1b[0m"
	out := TruncateString(styled, 6)
	require.Contains(t, out, "\x1b[31m")
	require.Contains(t, out, "red")
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "0 B", FormatBytes(0))
	require.Equal(t, "1023 B", FormatBytes(1023))
	require.Equal(t, "1.5 KB", FormatBytes(1536))
	require.Equal(t, "2.0 MB", FormatBytes(2*1024*1024))
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.Equal(t, "", FormatAge(time.Time{}, now))
	require.Equal(t, "just now", FormatAge(now.Add(-time.Second), now))
	require.Equal(t, "30s ago", FormatAge(now.Add(-30*time.Second), now))
	require.Equal(t, "4m ago", FormatAge(now.Add(-4*time.Minute), now))
	require.Equal(t, "2h ago", FormatAge(now.Add(-2*time.Hour), now))
}
