package authenticator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/venuelab/backend/pkg/authenticator"
)

func TestJWT(t *testing.T) {
	engine := authenticator.NewTokenEngine[string]("secret")
	token, err := engine.Generate(time.Minute, "abc")
	require.Nil(t, err)

	msg, err := engine.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "abc", msg)
}

func TestJWTExpiration(t *testing.T) {
	engine := authenticator.NewTokenEngine[string]("secret")
	token, err := engine.Generate(-time.Minute, "abc")
	require.Nil(t, err)

	_, err = engine.Verify(token)
	require.Error(t, err)
}
