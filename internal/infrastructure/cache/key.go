package cache

import (
	"context"
	"errors"
	"strings"

	"guias/internal/errs"
	"guias/internal/ports"
)

// checkKey validates the call context and returns the trimmed key.
func checkKey(ctx context.Context, key string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}

	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", ports.ErrCacheKeyRequired
	}
	return trimmed, nil
}
