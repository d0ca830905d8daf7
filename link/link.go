// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package link implements the hop scheduler and link state machine that
// is the heart of the receiver: it drives channel hopping, drains
// received packets, tracks RSSI/AFC/link-quality, detects loss, and
// dispatches the radio's single interrupt line (spec §4.4, §4.6). The
// struct-plus-polling-loop shape follows tve-devices/sx1231.Radio's
// worker, generalized from "select on an interrupt channel" to
// "observe an atomically-set mode field", per the cooperative,
// IRQ-does-no-I/O redesign this receiver requires.
package link

import (
	"sync/atomic"

	"github.com/tve/openlrs/collab"
	"github.com/tve/openlrs/model"
	"github.com/tve/openlrs/packet"
	"github.com/tve/openlrs/rfm22b"
	"github.com/tve/openlrs/register"
)

// Mode is the radio's half-duplex state as seen by the scheduler and
// mutated by the interrupt handler (spec §3.2 "rf_mode", §4.6).
type Mode int32

const (
	Available Mode = iota
	Receive
	Received
	Transmit
	Transmitted
)

func (m Mode) String() string {
	switch m {
	case Available:
		return "Available"
	case Receive:
		return "Receive"
	case Received:
		return "Received"
	case Transmit:
		return "Transmit"
	case Transmitted:
		return "Transmitted"
	default:
		return "Mode(?)"
	}
}

// linkQualityMask keeps link_quality a 15-bit shift register (spec
// §3.2).
const linkQualityMask = 0x7fff

// rssiSampleWindow is the number of RSSI samples averaged before folding
// into rssi_smooth (spec §4.4 step 3).
const rssiSampleWindow = 8

// Scheduler owns LinkState (spec §3.2) and the hop-timing logic (spec
// §4.4). It is driven by repeated calls to Tick from the driver task and
// by OnIRQ from interrupt context; OnIRQ only ever touches mode, which is
// accessed atomically so it never tears across the two contexts (spec
// §5 "Shared-resource policy").
type Scheduler struct {
	reg *register.Interface
	cfg *rfm22b.Configurator
	bd  model.BindData

	clock collab.Clock
	sink  collab.PPMSink
	log   collab.LogPrintf

	interval  uint32
	hopCount  int
	limit50Hz bool

	mode int32 // Mode, accessed only via atomic.*

	// LinkState (spec §3.2), task-owned: the scheduler is always called
	// from the single driver task goroutine, so these need no locking.
	rfChannel        int
	linkAcquired     bool
	lastPacketTimeUs uint32
	lostPackets      int
	linkQuality      uint16
	rssiSmooth       byte
	rssiLast         byte
	rssiSum          uint32
	rssiCount        int
	afcLast          uint16
	linkLossTimeMs   uint32

	rxBuf [model.MaxPacket]byte
	ppm   [model.PPMChannels]uint16
}

// New builds a Scheduler for an already-configured radio. reg and cfg
// drive the RFM22B directly; bd supplies the operational binding
// (hop table, magic, flags) the interval and header-keying math runs
// against. sink may be nil if no PPM consumer is registered yet.
func New(reg *register.Interface, cfg *rfm22b.Configurator, bd model.BindData, clock collab.Clock, sink collab.PPMSink, log collab.LogPrintf, limit50Hz bool) *Scheduler {
	if log == nil {
		log = collab.NoopLog
	}
	return &Scheduler{
		reg:       reg,
		cfg:       cfg,
		bd:        bd,
		clock:     clock,
		sink:      sink,
		log:       log,
		interval:  packet.Interval(bd, limit50Hz),
		hopCount:  bd.HopCount(),
		limit50Hz: limit50Hz,
		mode:      int32(Receive),
	}
}

// SetSink installs the PPM consumer notified on every decoded servo
// frame (spec §4.8 "register_ppm_sink").
func (s *Scheduler) SetSink(sink collab.PPMSink) { s.sink = sink }

// Mode returns the current rf_mode.
func (s *Scheduler) Mode() Mode { return Mode(atomic.LoadInt32(&s.mode)) }

// SetMode forces rf_mode, for use by the bind protocol and tests that
// simulate an IRQ-driven transition.
func (s *Scheduler) SetMode(m Mode) { atomic.StoreInt32(&s.mode, int32(m)) }

// OnIRQ is the interrupt dispatcher (spec §4.6): it performs no I/O,
// only the two legal transitions the radio's single interrupt line can
// signal.
func (s *Scheduler) OnIRQ() {
	switch s.Mode() {
	case Transmit:
		s.SetMode(Transmitted)
	case Receive:
		s.SetMode(Received)
	}
}

// Exported accessors for LinkState, used by the facade and by tests that
// assert against the golden scenarios (spec §8).
func (s *Scheduler) RFChannel() int          { return s.rfChannel }
func (s *Scheduler) LinkAcquired() bool      { return s.linkAcquired }
func (s *Scheduler) LostPackets() int        { return s.lostPackets }
func (s *Scheduler) LinkQuality() uint16     { return s.linkQuality }
func (s *Scheduler) RSSISmooth() byte        { return s.rssiSmooth }
func (s *Scheduler) AFC() uint16             { return s.afcLast }
func (s *Scheduler) LastPacketTimeUs() uint32 { return s.lastPacketTimeUs }
func (s *Scheduler) PPM() [model.PPMChannels]uint16 { return s.ppm }
func (s *Scheduler) Interval() uint32        { return s.interval }
func (s *Scheduler) BindData() model.BindData { return s.bd }

// Tick runs one scheduler iteration (spec §4.4), driven from the
// ≈1kHz driver task loop.
func (s *Scheduler) Tick() {
	s.tick(s.clock.Micros())
}

func (s *Scheduler) tick(now uint32) {
	// 1. Lockup detection.
	if s.reg.Read(rfm22b.RegGPIO1Config) == 0 {
		s.log("link: radio lockup detected, reinitializing")
		s.cfg.Init(false, s.bd.RFMagic, s.bd.ModemParams, s.bd.RFPower, s.bd.RFChannelSpacing, s.bd.Diversity())
		s.SetMode(Receive)
		return
	}

	willhop := false

	// 2. Drain on received.
	if s.Mode() == Received {
		pktSize := s.bd.PacketSize()
		if pktSize > 0 && pktSize <= len(s.rxBuf) {
			copy(s.rxBuf[:pktSize], s.reg.BurstRead(rfm22b.RegFIFO, pktSize))
		}
		s.afcLast = s.reg.Read16(rfm22b.RegAFC1)
		s.lastPacketTimeUs = s.clock.Micros()

		s.lostPackets = 0
		s.linkQuality = ((s.linkQuality << 1) | 1) & linkQualityMask

		if pktSize > 0 && packet.IsServo(s.rxBuf[0]) {
			s.ppm = packet.UnpackPPM(s.rxBuf[1:pktSize], s.bd.Flags)
			if s.sink != nil {
				s.sink.OnPPM(s.ppm)
			}
		}

		s.linkAcquired = true
		s.SetMode(Receive)
		willhop = true
	}

	// 3. RSSI sampling.
	if s.lostPackets < 2 && s.interval > 1500 && now-s.lastPacketTimeUs < s.interval-1500 {
		s.rssiLast = s.reg.Read(rfm22b.RegRSSI)
		s.rssiSum += uint32(s.rssiLast)
		s.rssiCount++
		if s.rssiCount >= rssiSampleWindow {
			avg := byte(s.rssiSum / rssiSampleWindow)
			s.rssiSmooth = byte((3*uint32(s.rssiSmooth) + uint32(avg)) / 4)
			s.rssiSum = 0
			s.rssiCount = 0
		}
	}

	// 4. Loss and slow-hop logic, once acquired.
	if s.linkAcquired {
		if s.lostPackets < s.hopCount && now-s.lastPacketTimeUs > s.interval+1000 {
			s.linkQuality = (s.linkQuality << 1) & linkQualityMask
			s.lostPackets++
			if s.lostPackets == 1 {
				s.linkLossTimeMs = s.clock.Millis()
			}
			s.lastPacketTimeUs += s.interval
			willhop = true
		} else if s.lostPackets == s.hopCount && now-s.lastPacketTimeUs > s.interval*uint32(s.hopCount) {
			s.linkQuality = 0
			s.rssiSmooth = 0
			s.lastPacketTimeUs = now
			willhop = true
		}
	}

	// 5. Acquisition search.
	if !s.linkAcquired {
		if now-s.lastPacketTimeUs > s.interval*uint32(s.hopCount) {
			willhop = true
			s.lastPacketTimeUs = now
		}
	}

	// 6. Hop.
	if willhop {
		s.rfChannel++
		if s.hopCount == 0 || s.rfChannel >= s.hopCount {
			s.rfChannel = 0
		}
		s.cfg.SetChannel(byte(s.rfChannel), s.bd.HopChannel[s.rfChannel], s.bd.RFMagic)
	}
}
