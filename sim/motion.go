package sim

import (
	"context"
	"encoding/binary"
	"time"
)

// INT_SOURCE bits raised by Tick.
const (
	sourceDataReady = 1 << 7
	sourceWatermark = 1 << 1
	sourceOverrun   = 1 << 0
)

// Tick simulates one conversion. In bypass mode the data registers are replaced; in the
// buffered modes the sample is queued. DATA_READY is latched every time, WATERMARK once the
// queue reaches FIFO_CTL.SAMPLES and OVERRUN when a queued sample had to be dropped.
func (c *Chip) Tick(x, y, z int16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sample := [3]int16{x, y, z}
	c.regs[regIntSource] |= sourceDataReady
	if c.regs[regFIFOCtl]>>6 == 0 {
		for axis, v := range sample {
			binary.LittleEndian.PutUint16(c.regs[regDataX0+2*axis:], uint16(v))
		}
		return
	}
	if len(c.fifo) == fifoDepth {
		c.fifo = c.fifo[1:]
		c.regs[regIntSource] |= sourceOverrun
	}
	c.fifo = append(c.fifo, sample)
	if watermark := int(c.regs[regFIFOCtl] & 0x1F); watermark > 0 && len(c.fifo) >= watermark {
		c.regs[regIntSource] |= sourceWatermark
	}
}

// Run calls Tick every period with the samples produced by next until ctx is done.
func (c *Chip) Run(ctx context.Context, period time.Duration, next func(seq int) (x, y, z int16)) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for seq := 0; ; seq++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(next(seq))
		}
	}
}
