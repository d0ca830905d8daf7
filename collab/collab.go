// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package collab defines the small collaborator interfaces the link
// engine is built against but does not implement itself (spec §1 "Out of
// scope"): the SPI transfer primitive, a monotonic clock, a sleep
// primitive, a watchdog kicker, the bind-parameter store, and the PPM
// sink. Concrete implementations live outside this module (board bring-up
// is explicitly out of scope) except for the illustrative periph.io-based
// ones in cmd/openlrs-rx.
package collab

import (
	"time"

	"github.com/tve/openlrs/model"
)

// SPIBus is the chip-select/SPI-transfer primitive the Register Interface
// is built on (spec §4.1, §6.1). Claim/Release bracket a sequence of
// transfers so they appear atomic to other devices sharing the bus,
// matching the scoped mutex discipline of spimux.Conn. A nil SPIBus is a
// legal dry-run no-op, mirroring a zero bus handle in the original
// firmware.
type SPIBus interface {
	Claim()
	Release()
	Transfer(tx []byte) (rx []byte, err error)
}

// Clock exposes the monotonic microsecond and millisecond counters the
// scheduler times hops and the task times its loop against.
type Clock interface {
	Micros() uint32
	Millis() uint32
}

// Sleeper is the blocking sleep primitive used by the driver task and the
// bind wait loop.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Watchdog is kicked once per task iteration and once per bind wait loop
// iteration so a hung task reboots the board rather than leaving the
// receiver silently dead in the air.
type Watchdog interface {
	Kick()
}

// Store persists BindData across power cycles. Load returning an error or
// a version mismatch both mean "no usable binding" to the facade (spec
// §3.4).
type Store interface {
	Load() (model.BindData, error)
	Save(model.BindData) error
}

// PPMSink is notified with a freshly decoded servo vector every time a
// servo-subtype data packet is received (spec §4.3, §4.4 step 2).
type PPMSink interface {
	OnPPM(ppm [model.PPMChannels]uint16)
}

// LogPrintf is the debug logging hook threaded through every stateful
// type in this module, exactly as tve-devices' sx1231.Radio and
// sx1276.Radio carry a `log LogPrintf` field.
type LogPrintf func(format string, v ...interface{})

// NoopLog is the default logger every constructor falls back to when the
// caller passes nil, matching sx1231.New's `func(format string, v
// ...interface{}) {}`.
func NoopLog(format string, v ...interface{}) {}
