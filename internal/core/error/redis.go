package errx

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors to the unified Error type with appropriate kinds.
func WrapRedis(err error) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return Wrap(KindNotFound, RedisNotFoundMessage, err)
	}

	return Wrap(KindBackend, RedisErrorMessage, err)
}
