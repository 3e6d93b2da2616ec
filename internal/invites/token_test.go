package invites

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, token, TokenLength)
	assert.True(t, ValidTokenFormat(token))
}

func TestGenerateToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.False(t, seen[token], "token generated twice")
		seen[token] = true
	}
}

func TestValidTokenFormat(t *testing.T) {
	valid, err := GenerateToken()
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid token", valid, true},
		{"empty", "", false},
		{"too short", valid[:32], false},
		{"too long", valid + "x", false},
		{"wrong alphabet", strings.Repeat("+", TokenLength), false},
		{"padding characters", valid[:62] + "==", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTokenFormat(tt.token))
		})
	}
}
