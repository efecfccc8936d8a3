package rate

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited means the failure budget for the window is spent.
	ErrRateLimited      = errors.New("rate limited")
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrCorruptCounter means a throttle key holds something other than an
	// integer. It wraps ErrRedisUnavailable.
	ErrCorruptCounter = fmt.Errorf("%w: throttle counter is not an integer", ErrRedisUnavailable)
)
