// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package openlrs

import (
	"fmt"
	"sync"

	"github.com/tve/openlrs/bindproto"
	"github.com/tve/openlrs/collab"
	"github.com/tve/openlrs/link"
	"github.com/tve/openlrs/model"
	"github.com/tve/openlrs/register"
	"github.com/tve/openlrs/rfm22b"
	"github.com/tve/openlrs/task"
)

// Options bundles the collaborators and board wiring Init needs. Bus,
// Store, Clock, Sleep, and Watchdog are the out-of-scope facilities spec
// §1 lists; board bring-up (opening the actual SPI device, wiring the IRQ
// line to OnIRQ) is the caller's job, typically in a cmd/ main.
type Options struct {
	Bus      collab.SPIBus
	Store    collab.Store
	Clock    collab.Clock
	Sleep    collab.Sleeper
	Watchdog collab.Watchdog
	Log      collab.LogPrintf

	GPIO          rfm22b.GPIOConfig
	Limit50Hz     bool
	BindTimeoutMs uint32 // 0 = listen indefinitely
}

// Link is the handle returned by Init (spec §4.8 "init(...) -> link_id").
type Link struct {
	mu     sync.Mutex
	reg    *register.Interface
	cfg    *rfm22b.Configurator
	sched  *link.Scheduler
	driver *task.Driver
	log    collab.LogPrintf
}

// Init probes the radio, establishes or loads a binding, and spawns the
// driver task (spec §4.8, §4.5 "Lifecycle"). If no usable BindData is
// stored, Init blocks in bind mode until a valid bind packet arrives or
// opts.BindTimeoutMs elapses.
func Init(opts Options) (*Link, error) {
	if opts.Log == nil {
		opts.Log = collab.NoopLog
	}

	reg := register.New(opts.Bus, opts.Log)
	reg.Claim()
	dt := reg.Read(rfm22b.RegDeviceType)
	reg.Release()
	if dt&rfm22b.DeviceTypeMask != rfm22b.DeviceTypeWant {
		return nil, fmt.Errorf("openlrs: device type probe failed: got %#02x, want %#02x", dt&rfm22b.DeviceTypeMask, rfm22b.DeviceTypeWant)
	}

	cfg := rfm22b.New(reg, opts.GPIO)

	bd, bound := loadBinding(opts.Store, opts.Log)
	if !bound {
		opts.Log("openlrs: no usable binding stored, entering bind mode")
		listener := bindproto.New(reg, cfg, opts.Store, opts.Clock, opts.Sleep, opts.Watchdog, opts.Log)
		newBD, ok := listener.Run(opts.BindTimeoutMs)
		if !ok {
			return nil, fmt.Errorf("openlrs: bind timed out after %dms", opts.BindTimeoutMs)
		}
		bd = newBD
	}

	cfg.Init(false, bd.RFMagic, bd.ModemParams, bd.RFPower, bd.RFChannelSpacing, bd.Diversity())
	cfg.SetCarrier(bd.RFFrequency)

	sched := link.New(reg, cfg, bd, opts.Clock, nil, opts.Log, opts.Limit50Hz)
	sched.SetMode(link.Receive)

	l := &Link{reg: reg, cfg: cfg, sched: sched, log: opts.Log}
	l.driver = task.New(opts.Watchdog, opts.Sleep, sched.Tick, opts.Log)
	go l.driver.Run()

	return l, nil
}

// loadBinding reports whether the store holds a BindData whose version
// matches the one this engine expects (spec §3.4 "If absent/wrong
// version, the engine enters bind mode").
func loadBinding(store collab.Store, log collab.LogPrintf) (model.BindData, bool) {
	bd, err := store.Load()
	if err != nil {
		log("openlrs: loading stored bind data failed: %s", err)
		return model.BindData{}, false
	}
	return bd, bd.Version == model.BindingVersion
}

// RegisterPPMSink installs the recipient notified on every decoded servo
// frame (spec §4.8 "register_ppm_sink").
func (l *Link) RegisterPPMSink(sink collab.PPMSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sched.SetSink(sink)
}

// OnIRQ is the entry point platform ISR glue calls on the radio's single
// interrupt line (spec §4.6, §4.8 "on_irq()").
func (l *Link) OnIRQ() {
	l.sched.OnIRQ()
}

// BindData returns the operational binding this link is running with.
func (l *Link) BindData() model.BindData {
	return l.sched.BindData()
}

// LinkAcquired, LostPackets, LinkQuality, RSSISmooth and RFChannel expose
// LinkState (spec §3.2) for a caller's diagnostics surface (e.g. a diag
// .History or a status page) without reaching into the scheduler
// directly.
func (l *Link) LinkAcquired() bool { return l.sched.LinkAcquired() }
func (l *Link) LostPackets() int   { return l.sched.LostPackets() }
func (l *Link) LinkQuality() uint16 {
	return l.sched.LinkQuality()
}
func (l *Link) RSSISmooth() byte { return l.sched.RSSISmooth() }
func (l *Link) RFChannel() int   { return l.sched.RFChannel() }
func (l *Link) AFC() uint16      { return l.sched.AFC() }

// Close stops the driver task. A Link cannot be restarted; call Init
// again to bring up a new one.
func (l *Link) Close() {
	l.driver.Stop()
}
