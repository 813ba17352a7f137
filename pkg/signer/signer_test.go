package signer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	s := New("secret")
	expiresAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, version := range []int{VersionV1, VersionV2} {
		sig, err := s.Sign("token-1", "prize-1", expiresAt, version)
		require.NoError(t, err)
		require.True(t, s.Verify("token-1", "prize-1", expiresAt, version, sig))
	}
}

func TestVerifyRejectsReassignedPrize(t *testing.T) {
	s := New("secret")
	expiresAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	sig, err := s.Sign("token-1", "prize-a", expiresAt, LatestVersion)
	require.NoError(t, err)

	// Same token id and expiry, different prize.
	require.False(t, s.Verify("token-1", "prize-b", expiresAt, LatestVersion, sig))
}

func TestVerifyRejectsTamperedFields(t *testing.T) {
	s := New("secret")
	expiresAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	sig, err := s.Sign("token-1", "prize-a", expiresAt, LatestVersion)
	require.NoError(t, err)

	require.False(t, s.Verify("token-2", "prize-a", expiresAt, LatestVersion, sig))
	require.False(t, s.Verify("token-1", "prize-a", expiresAt.Add(time.Hour), LatestVersion, sig))
	require.False(t, s.Verify("token-1", "prize-a", expiresAt, LatestVersion, sig+"00"))
}

func TestVerifyDispatchesOnStoredVersion(t *testing.T) {
	s := New("secret")
	expiresAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	sigV1, err := s.Sign("token-1", "prize-a", expiresAt, VersionV1)
	require.NoError(t, err)

	// A historical token still verifies under its own version, but its
	// signature is not valid under the current scheme.
	require.True(t, s.Verify("token-1", "prize-a", expiresAt, VersionV1, sigV1))
	require.False(t, s.Verify("token-1", "prize-a", expiresAt, VersionV2, sigV1))
}

func TestUnknownVersion(t *testing.T) {
	s := New("secret")

	_, err := s.Sign("token-1", "prize-a", time.Now(), 99)
	require.Error(t, err)
	require.False(t, s.Verify("token-1", "prize-a", time.Now(), 99, "whatever"))
}

func TestDifferentSecrets(t *testing.T) {
	expiresAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	sig, err := New("secret-a").Sign("token-1", "prize-a", expiresAt, LatestVersion)
	require.NoError(t, err)
	require.False(t, New("secret-b").Verify("token-1", "prize-a", expiresAt, LatestVersion, sig))
}
