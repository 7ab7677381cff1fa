package task

import (
	"math/rand"
	"time"
)

// BackoffConfig bounds the wait between polls after consecutive store errors.
// Failed tasks are never retried.
type BackoffConfig struct {
	BaseDelay time.Duration // e.g. 100ms
	MaxDelay  time.Duration // e.g. 5s
}

func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  5 * time.Second,
	}
}

// PollBackoff computes the wait after the given number of consecutive poll
// failures using capped exponential backoff with equal jitter.
// failures is 1-based (1 => around BaseDelay).
func PollBackoff(failures int, cfg BackoffConfig, rng *rand.Rand) time.Duration {
	if failures < 1 {
		failures = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}

	// exponential: base * 2^(failures-1), capped
	delay := cfg.BaseDelay
	for i := 1; i < failures && delay < cfg.MaxDelay; i++ {
		delay *= 2
	}
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	// equal jitter: random in [delay/2, delay]
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	half := delay / 2
	return half + time.Duration(rng.Int63n(int64(delay-half)+1))
}
