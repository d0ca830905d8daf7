// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package main

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/spi"

	"github.com/tve/openlrs/collab"
)

// wallClock implements collab.Clock against the process monotonic clock,
// with an epoch fixed at startup so both counters start near zero. They
// wrap as uint32: Micros about every 71.6 minutes, Millis about every 49.7
// days (spec §3.2's timers are all relative, never absolute).
type wallClock struct {
	start time.Time
}

func newWallClock() *wallClock { return &wallClock{start: time.Now()} }

func (c *wallClock) Micros() uint32 { return uint32(time.Since(c.start).Microseconds()) }
func (c *wallClock) Millis() uint32 { return uint32(time.Since(c.start).Milliseconds()) }

// osSleeper implements collab.Sleeper with time.Sleep.
type osSleeper struct{}

func (osSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// logWatchdog implements collab.Watchdog without a hardware watchdog
// device: it just marks the last-kicked time for an external liveness
// check to read. Driving a real /dev/watchdog ioctl needs a Linux
// ioctl-wrapper dependency the example pack's goioctl/fdev (tied to
// Daedaluz's serial port use) doesn't generalize to, so this command
// documents the gap instead of fabricating a device path.
type logWatchdog struct {
	mu       sync.Mutex
	lastKick time.Time
}

func (w *logWatchdog) Kick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastKick = time.Now()
}

// directBus adapts a single periph.io spi.Conn to collab.SPIBus for the
// non-diversity (single radio) wiring.
type directBus struct {
	mu   sync.Mutex
	conn spi.Conn
}

func (b *directBus) Claim()   { b.mu.Lock() }
func (b *directBus) Release() { b.mu.Unlock() }

func (b *directBus) Transfer(tx []byte) ([]byte, error) {
	rx := make([]byte, len(tx))
	if err := b.conn.Tx(tx, rx); err != nil {
		return nil, err
	}
	return rx, nil
}
