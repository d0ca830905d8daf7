// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package task implements the cooperative driver loop the link engine
// runs on (spec §4.7): kick the watchdog, run one scheduler iteration,
// sleep 1ms, forever. It additionally elevates the loop's goroutine to
// realtime scheduling on Linux so the 1kHz cadence holds under load
// (spec §5 "Scheduling model").
package task

import (
	"time"

	"github.com/tve/openlrs/collab"
)

// tickInterval is the inter-iteration sleep (spec §5 "Suspension
// points": "the 1ms inter-iteration sleep").
const tickInterval = time.Millisecond

// Driver runs a single cooperative loop body at tickInterval cadence
// until Stop is called.
type Driver struct {
	wd    collab.Watchdog
	sleep collab.Sleeper
	tick  func()
	log   collab.LogPrintf

	stop chan struct{}
}

// New builds a Driver that calls tick once per loop iteration, between a
// watchdog kick and the inter-iteration sleep. log may be nil.
func New(wd collab.Watchdog, sleep collab.Sleeper, tick func(), log collab.LogPrintf) *Driver {
	if log == nil {
		log = collab.NoopLog
	}
	return &Driver{wd: wd, sleep: sleep, tick: tick, log: log, stop: make(chan struct{})}
}

// Run blocks, executing the loop until Stop is called. It is meant to be
// the body of the goroutine the facade spawns for each link (spec §4.8
// "init ... spawns the task").
func (d *Driver) Run() {
	if err := Realtime(); err != nil {
		d.log("task: could not set realtime scheduling: %s", err)
	}
	for {
		select {
		case <-d.stop:
			return
		default:
		}
		d.wd.Kick()
		d.tick()
		d.sleep.Sleep(tickInterval)
	}
}

// Stop ends the loop after its current iteration. It is safe to call at
// most once.
func (d *Driver) Stop() {
	close(d.stop)
}
