package repository

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable wraps every driver-level failure: callers get one
// error kind for "the store cannot be reached", regardless of cause.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrInvalidPeriod marks a month/year pair outside the accepted range.
var ErrInvalidPeriod = errors.New("invalid period")

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
