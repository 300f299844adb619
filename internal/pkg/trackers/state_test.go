package trackers

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateRoundTrip(t *testing.T) {
	state := EncodeState(42)
	userID, err := DecodeState(state)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestStateIsUniquePerCall(t *testing.T) {
	// The nonce makes every issued state distinct even for the same user
	assert.NotEqual(t, EncodeState(1), EncodeState(1))
}

func TestDecodeStateRejectsGarbage(t *testing.T) {
	tests := []struct {
		name  string
		state string
	}{
		{"Not base64", "%%%"},
		{"No separator", base64.RawURLEncoding.EncodeToString([]byte("12345"))},
		{"Non-numeric user", base64.RawURLEncoding.EncodeToString([]byte("abc:nonce"))},
		{"Zero user", base64.RawURLEncoding.EncodeToString([]byte("0:nonce"))},
		{"Empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeState(tt.state)
			assert.Error(t, err)
		})
	}
}
