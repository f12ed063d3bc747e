package endpoints

import (
	"errors"
)

const (
	API_SUCCESS = iota + 303000 // 303000
	API_FAILURE                 // 303001 - Generic API failure
)

const (
	MEASUREMENTS_NOT_AVAILABLE = iota + 101 // 101 - No tick has produced output yet
	METHOD_NOT_ALLOWED                      // 102 - Only GET is served
)

var (
	ErrNoMeasurements   = errors.New("no measurements available yet; the first tick only records a baseline")
	ErrMethodNotAllowed = errors.New("method not allowed; only GET requests are supported")
)

func GetErrorCode(err error) int {
	if err == nil {
		return API_SUCCESS
	}

	switch {
	case errors.Is(err, ErrNoMeasurements):
		return MEASUREMENTS_NOT_AVAILABLE
	case errors.Is(err, ErrMethodNotAllowed):
		return METHOD_NOT_ALLOWED
	default:
		return API_FAILURE
	}
}
