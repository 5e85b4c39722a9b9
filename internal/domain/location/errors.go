package location

import (
	"errors"
	"fmt"
)

var (
	ErrCapability = errors.New("location capability error")

	ErrCapabilityDenied      = fmt.Errorf("%w: location permission denied", ErrCapability)
	ErrCapabilityUnavailable = fmt.Errorf("%w: location unavailable", ErrCapability)
)
