// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package bindproto implements the one-shot receiver-side bind exchange
// (spec §4.5): listen on the fixed bind carrier for a `'b'`-tagged
// parameter block, persist it on a version match, and transmit a `'B'`
// acknowledgement. It reuses link.Mode for the same IRQ-driven rf_mode
// flag the hop scheduler uses once bound, since both are driven by the
// identical FIFO-sent/FIFO-valid interrupt (spec §4.6).
package bindproto

import (
	"sync/atomic"
	"time"

	"github.com/tve/openlrs/collab"
	"github.com/tve/openlrs/link"
	"github.com/tve/openlrs/model"
	"github.com/tve/openlrs/packet"
	"github.com/tve/openlrs/rfm22b"
	"github.com/tve/openlrs/register"
)

// txAckDeadline is the synchronous-TX ceiling for the bind acknowledgement
// (spec §5 "Synchronous tx_packet has a 100ms watchdog-kicked ceiling").
const txAckDeadline = 100 * time.Millisecond

// logInterval is how often Run logs while waiting, mirroring the "logs
// state periodically" requirement of spec §4.5. A physical link LED is a
// board concern with no collaborator interface defined (spec §1 "Out of
// scope" lists no LED facility), so it is represented only as a log line.
const logInterval = 100 * time.Millisecond

// Listener runs the bind listen loop against an already-probed radio.
type Listener struct {
	reg   *register.Interface
	cfg   *rfm22b.Configurator
	store collab.Store
	clock collab.Clock
	sleep collab.Sleeper
	wd    collab.Watchdog
	log   collab.LogPrintf

	mode int32 // link.Mode, accessed only via atomic.*
}

// New builds a Listener. log may be nil.
func New(reg *register.Interface, cfg *rfm22b.Configurator, store collab.Store, clock collab.Clock, sleep collab.Sleeper, wd collab.Watchdog, log collab.LogPrintf) *Listener {
	if log == nil {
		log = collab.NoopLog
	}
	return &Listener{reg: reg, cfg: cfg, store: store, clock: clock, sleep: sleep, wd: wd, log: log}
}

// Mode returns the current rf_mode.
func (l *Listener) Mode() link.Mode { return link.Mode(atomic.LoadInt32(&l.mode)) }

// SetMode forces rf_mode.
func (l *Listener) SetMode(m link.Mode) { atomic.StoreInt32(&l.mode, int32(m)) }

// OnIRQ is the interrupt dispatcher for the bind session, identical in
// shape to link.Scheduler.OnIRQ (spec §4.6).
func (l *Listener) OnIRQ() {
	switch l.Mode() {
	case link.Transmit:
		l.SetMode(link.Transmitted)
	case link.Receive:
		l.SetMode(link.Received)
	}
}

// Run listens for a valid bind packet and returns it on success. A
// timeoutMs of 0 listens indefinitely (spec §4.5, §5 "Bind with
// timeout==0 is infinite").
func (l *Listener) Run(timeoutMs uint32) (model.BindData, bool) {
	l.cfg.Init(true, model.BindMagic, rfm22b.BindModemRow, model.BindingPower, 0, false)
	l.cfg.SetCarrier(model.BindingFrequency)
	l.armRX()

	start := l.clock.Millis()
	lastLog := start

	for {
		l.wd.Kick()

		if l.Mode() == link.Received {
			if bd, ok := l.drain(); ok {
				return bd, true
			}
			l.armRX()
		}

		now := l.clock.Millis()
		if now-lastLog >= uint32(logInterval/time.Millisecond) {
			l.log("bindproto: listening for bind packet")
			lastLog = now
		}
		if timeoutMs != 0 && now-start >= timeoutMs {
			return model.BindData{}, false
		}
		l.sleep.Sleep(time.Millisecond)
	}
}

// drain parses a staged bind packet and, on a version match, acknowledges
// and persists it (spec §4.5 steps 1-4).
func (l *Listener) drain() (model.BindData, bool) {
	buf := l.reg.BurstRead(rfm22b.RegFIFO, 1+packet.BindDataSize)
	bd, err := packet.DecodeBind(buf)
	if err != nil {
		l.log("bindproto: malformed bind packet: %s", err)
		return model.BindData{}, false
	}
	if bd.Version != model.BindingVersion {
		l.log("bindproto: bind version mismatch: got %d want %d", bd.Version, model.BindingVersion)
		return model.BindData{}, false
	}

	l.sendAck()

	if err := l.store.Save(bd); err != nil {
		l.log("bindproto: persisting bind data failed: %s", err)
	}
	return bd, true
}

// sendAck transmits the single-byte acknowledgement synchronously, giving
// up silently past the 100ms ceiling (spec §4.5 step 2, §5).
func (l *Listener) sendAck() {
	l.reg.Claim()
	l.reg.Write(rfm22b.RegPacketLenTx, 1)
	l.reg.BurstWrite(rfm22b.RegFIFO, []byte{packet.AckMarker})
	l.reg.Release()

	l.SetMode(link.Transmit)
	l.reg.Write(rfm22b.RegOpFuncCtrl1, rfm22b.PowerStateTXOn)

	deadline := l.clock.Millis() + uint32(txAckDeadline/time.Millisecond)
	for l.Mode() != link.Transmitted {
		l.wd.Kick()
		if l.clock.Millis() >= deadline {
			l.log("bindproto: ack transmit timed out")
			break
		}
		l.sleep.Sleep(time.Millisecond)
	}
}

// armRX clears the FIFO and puts the radio back into the receive state
// the bind listener polls (spec §4.2 GPIO routing, §4.4 drain step).
func (l *Listener) armRX() {
	l.cfg.ClearFIFO()
	l.reg.Write(rfm22b.RegOpFuncCtrl1, rfm22b.PowerStateRXOn)
	l.SetMode(link.Receive)
}
