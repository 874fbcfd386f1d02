package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, grant, err := signer.Sign("job-1", "roster/2026/roster.csv")
	require.NoError(t, err)

	got, err := signer.Verify(token, false)
	require.NoError(t, err)
	assert.Equal(t, grant, got)
	assert.Equal(t, "roster/2026/roster.csv", got.File)
}

func TestSignerExpiry(t *testing.T) {
	signer := NewSigner("secret", time.Minute)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return base }
	token, _, err := signer.Sign("job-1", "a.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = signer.Verify(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	grant, err := signer.Verify(token, true)
	require.NoError(t, err)
	assert.Equal(t, "job-1", grant.JobID)
}

func TestSignerRejectsTampering(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, _, err := signer.Sign("job-1", "a.csv")
	require.NoError(t, err)

	_, err = NewSigner("other", time.Hour).Verify(token, false)
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = signer.Verify("job-2"+token[len("job-1"):], false)
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = signer.Verify("garbage", false)
	assert.ErrorIs(t, err, ErrMalformedToken)
}
