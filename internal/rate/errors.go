package rate

import "errors"

var (
	// ErrRateLimited means the attempt budget for the window is used up.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
