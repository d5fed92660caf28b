package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"500ms", 500 * time.Millisecond},
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"2h", 2 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTTL(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseTTLRejectsMalformedInput(t *testing.T) {
	for _, in := range []string{
		"",
		"15",
		"m",
		"15 m",
		"1.5h",
		"-3s",
		"7w",
		"7dd",
		"d7",
		"7d extra",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTTL(in)
			require.Error(t, err)
		})
	}
}
