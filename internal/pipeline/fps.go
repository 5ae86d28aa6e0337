package pipeline

import "time"

const fpsDecay = 0.9

// FPSCounter tracks the instantaneous, exponentially smoothed and average
// frame rate of the loop.
type FPSCounter struct {
	now     func() time.Time
	started time.Time
	last    time.Time
	frames  int
	instant float64
	smooth  float64
}

// NewFPSCounter starts counting from now.
func NewFPSCounter() *FPSCounter {
	return newFPSCounter(time.Now)
}

func newFPSCounter(now func() time.Time) *FPSCounter {
	t := now()
	return &FPSCounter{now: now, started: t, last: t}
}

// Tick records a finished frame and returns the smoothed rate.
func (c *FPSCounter) Tick() float64 {
	t := c.now()
	dt := t.Sub(c.last).Seconds()
	c.last = t
	c.frames++

	if dt <= 0 {
		return c.smooth
	}
	c.instant = 1 / dt
	if c.smooth == 0 {
		c.smooth = c.instant
	} else {
		c.smooth = fpsDecay*c.smooth + (1-fpsDecay)*c.instant
	}
	return c.smooth
}

// Instant returns the rate of the last frame.
func (c *FPSCounter) Instant() float64 { return c.instant }

// Smoothed returns the exponentially smoothed rate.
func (c *FPSCounter) Smoothed() float64 { return c.smooth }

// Average returns frames per second since the counter started.
func (c *FPSCounter) Average() float64 {
	elapsed := c.last.Sub(c.started).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(c.frames) / elapsed
}

// Frames returns the number of ticks.
func (c *FPSCounter) Frames() int { return c.frames }
