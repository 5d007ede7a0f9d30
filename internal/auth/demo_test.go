package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoIssuer_IssueAndVerify(t *testing.T) {
	d := NewDemoIssuer("signing-key", time.Hour)

	token, err := d.Issue()
	require.NoError(t, err)
	assert.True(t, IsDemoToken(token))
	assert.NoError(t, d.Verify(token))

	other, err := d.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestDemoIssuer_Verify_Rejects(t *testing.T) {
	d := NewDemoIssuer("signing-key", time.Hour)
	foreign, err := NewDemoIssuer("another-key", time.Hour).Issue()
	require.NoError(t, err)

	_, state, err := NewStateIssuer("signing-key").Issue()
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"unminted demo token", DemoTokenPrefix + "anything"},
		{"missing prefix", strings.TrimPrefix(foreign, DemoTokenPrefix)},
		{"signed with another key", foreign},
		{"state token reused as demo token", DemoTokenPrefix + state},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, d.Verify(tt.token), ErrInvalidDemoToken)
		})
	}
}

func TestDemoIssuer_Verify_Expired(t *testing.T) {
	d := NewDemoIssuer("signing-key", time.Minute)
	start := time.Now()
	d.now = func() time.Time { return start }

	token, err := d.Issue()
	require.NoError(t, err)

	d.now = func() time.Time { return start.Add(2 * time.Minute) }
	assert.ErrorIs(t, d.Verify(token), ErrInvalidDemoToken)
}
