package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDateCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"09/03/2024", "2024-03-09\n"},
		{"2024-03-09", "2024-03-09\n"},
		{"not a date", "not a date\n"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs([]string{"normalize-date", tt.in})

			require.NoError(t, rootCmd.Execute())
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestNormalizeDateCommand_RequiresOneArg(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"normalize-date"})
	assert.Error(t, rootCmd.Execute())
}
