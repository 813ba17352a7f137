package authenticator

import "time"

// TokenEngine generates and verifies signed tokens carrying an arbitrary
// serializable object.
type TokenEngine[T any] interface {
	Generate(expiration time.Duration, obj T) (string, error)
	Verify(token string) (T, error)
}
