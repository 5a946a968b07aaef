package adxl345

import "fmt"

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

var (
	ErrTransfer         = fmt.Errorf("bus transfer failed")
	ErrInvalidHandle    = fmt.Errorf("invalid device handle")
	ErrNotInitialized   = fmt.Errorf("device not initialized")
	ErrMissingBinding   = fmt.Errorf("missing interface binding")
	ErrIdentityMismatch = fmt.Errorf("device identity mismatch")
	ErrPowerDown        = fmt.Errorf("could not put device into low power state")
	ErrInvalidArgument  = fmt.Errorf("invalid argument")
	ErrNoData           = fmt.Errorf("no sample available")
)
