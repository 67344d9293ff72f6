package errutil

import (
	"context"
	"errors"
)

func IsContext(ctx context.Context) bool {
	err := ctx.Err()
	return nil != err && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

// JoinClose attaches the failure of a deferred Close to the error being returned.
func JoinClose(err, closeErr error) error {
	if nil == err {
		return closeErr
	}
	return errors.Join(err, closeErr)
}
