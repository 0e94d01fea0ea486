package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/stockroom/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestHS256RoundTrip(t *testing.T) {
	t.Parallel()

	h := jwtx.NewHS256([]byte("secret"))
	tok, err := h.Sign(jwtx.NewClaims(jwtx.TypeAccess, 7, time.Minute, time.Now()))
	require.NoError(t, err)

	claims, err := h.Verify(tok, jwtx.TypeAccess)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)

	t.Run("wrong type", func(t *testing.T) {
		_, err := h.Verify(tok, jwtx.TypeRefresh)
		require.ErrorIs(t, err, jwtx.ErrWrongTokenType)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := jwtx.NewHS256([]byte("other")).Verify(tok, jwtx.TypeAccess)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := h.Verify("not.a.jwt", jwtx.TypeAccess)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestHS256RejectsExpired(t *testing.T) {
	t.Parallel()

	h := jwtx.NewHS256([]byte("secret"))
	tok, err := h.Sign(jwtx.NewClaims(jwtx.TypeAccess, 1, time.Minute, time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	_, err = h.Verify(tok, jwtx.TypeAccess)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestPeekExpiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	tok, err := jwtx.NewHS256([]byte("k")).Sign(jwtx.NewClaims(jwtx.TypeAccess, 1, time.Hour, now))
	require.NoError(t, err)

	exp, ok := jwtx.PeekExpiry(tok)
	require.True(t, ok)
	require.Equal(t, now.Add(time.Hour).Unix(), exp.Unix())

	_, ok = jwtx.PeekExpiry("opaque-token")
	require.False(t, ok)
}
