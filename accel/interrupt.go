package accel

import (
	"context"
)

// HandleInterrupt reads INT_SOURCE once and calls the registered handler for every
// asserted cause, data-ready first and overrun last. Without a handler the causes are dropped.
// It is meant to be called from the goroutine that services the INT1/INT2 lines.
func (d *ADXL345) HandleInterrupt(ctx context.Context) error {
	source, err := d.InterruptSource(ctx)
	if err != nil {
		return err
	}
	handler := d.bindings.OnInterrupt
	if handler == nil {
		return nil
	}
	for _, it := range Interrupts {
		if source&(1<<it) != 0 {
			handler(it)
		}
	}
	return nil
}
