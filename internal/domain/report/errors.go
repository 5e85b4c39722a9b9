package report

import "errors"

var (
	ErrMonthNotLoaded = errors.New("no month has been selected")
)
