// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Command openlrs-bench replays the acquisition/single-loss/full-loss
// golden scenarios against link.Scheduler with a simulated bus and clock,
// no hardware required. It seeds its BindData from a boardcfg
// [bench] section when -config is given, or from a small built-in
// default otherwise.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/tve/openlrs/boardcfg"
	"github.com/tve/openlrs/link"
	"github.com/tve/openlrs/model"
	"github.com/tve/openlrs/register"
	"github.com/tve/openlrs/rfm22b"
)

func main() {
	configPath := flag.String("config", "", "board configuration file with a [bench] section (optional)")
	flag.Parse()

	bd := defaultBindData()
	if *configPath != "" {
		cfg, err := boardcfg.Load(*configPath)
		if err != nil {
			log.Fatalf("openlrs-bench: %s", err)
		}
		if cfg.Bench == nil {
			log.Fatalf("openlrs-bench: %s has no [bench] section", *configPath)
		}
		bd = cfg.Bench.BindData()
	}

	runAcquisition(bd)
	runSingleLoss(bd)
	runFullLoss(bd)
}

func defaultBindData() model.BindData {
	bd := model.BindData{
		Version:          model.BindingVersion,
		RFFrequency:      433920000,
		RFMagic:          0x11223344,
		RFPower:          4,
		RFChannelSpacing: 1,
		ModemParams:      1,
		Flags:            2, // PacketSizes[2] == 11
	}
	bd.HopChannel[0] = 10
	bd.HopChannel[1] = 11
	bd.HopChannel[2] = 12
	return bd
}

// simBus is a software-only RFM22B stand-in: registers that matter to
// the scheduler loop are backed by plain fields instead of real SPI
// transactions (spec §8 golden scenarios 1-3).
type simBus struct {
	fifo    []byte
	written map[byte]byte
}

func newSimBus() *simBus { return &simBus{written: map[byte]byte{}} }

func (b *simBus) Claim()   {}
func (b *simBus) Release() {}

func (b *simBus) Transfer(tx []byte) ([]byte, error) {
	rx := make([]byte, len(tx))
	addr := tx[0]
	if addr&0x80 != 0 {
		a := addr &^ 0x80
		for i, v := range tx[1:] {
			b.written[a+byte(i)] = v
		}
		return rx, nil
	}
	a := addr & 0x7f
	switch a {
	case rfm22b.RegGPIO1Config:
		rx[1] = 1 // not locked up
	case rfm22b.RegRSSI:
		rx[1] = 0x40
	case rfm22b.RegFIFO:
		copy(rx[1:], b.fifo)
	}
	return rx, nil
}

// simClock lets each scenario drive Micros()/Millis() directly instead
// of sleeping in real time.
type simClock struct{ us, ms uint32 }

func (c *simClock) Micros() uint32 { return c.us }
func (c *simClock) Millis() uint32 { return c.ms }

func newScheduler(bd model.BindData, bus *simBus, clock *simClock) *link.Scheduler {
	reg := register.New(bus, nil)
	cfg := rfm22b.New(reg, rfm22b.GPIOConfig{})
	return link.New(reg, cfg, bd, clock, nil, nil, false)
}

func servoPacket(bd model.BindData) []byte {
	size := bd.PacketSize()
	pkt := make([]byte, size)
	pkt[0] = 0 // servo subtype, header LSB not checked by the scheduler itself
	return pkt
}

func runAcquisition(bd model.BindData) {
	fmt.Println("=== scenario 1: acquisition ===")
	bus := newSimBus()
	clock := &simClock{}
	s := newScheduler(bd, bus, clock)
	bus.fifo = servoPacket(bd)

	s.SetMode(link.Received)
	s.Tick()

	fmt.Printf("link_acquired=%v lost_packets=%d link_quality=%#x rf_channel=%d\n",
		s.LinkAcquired(), s.LostPackets(), s.LinkQuality(), s.RFChannel())
}

func runSingleLoss(bd model.BindData) {
	fmt.Println("=== scenario 2: single loss ===")
	bus := newSimBus()
	clock := &simClock{}
	s := newScheduler(bd, bus, clock)
	bus.fifo = servoPacket(bd)

	s.SetMode(link.Received)
	s.Tick() // packet at t=0 acquires the link

	clock.us = s.Interval() + 1001
	s.Tick() // miss one hop

	fmt.Printf("lost_packets=%d link_quality=%#x rf_channel=%d\n",
		s.LostPackets(), s.LinkQuality(), s.RFChannel())
}

func runFullLoss(bd model.BindData) {
	fmt.Println("=== scenario 3: full loss / search mode ===")
	bus := newSimBus()
	clock := &simClock{}
	s := newScheduler(bd, bus, clock)
	bus.fifo = servoPacket(bd)

	s.SetMode(link.Received)
	s.Tick() // acquire

	hopCount := uint32(bd.HopCount())
	clock.us = s.Interval()*hopCount + 1
	for i := uint32(0); i < hopCount+1; i++ {
		s.Tick()
		clock.us += s.Interval() + 1001
	}

	fmt.Printf("link_quality=%#x rssi_smooth=%d rf_channel=%d\n",
		s.LinkQuality(), s.RSSISmooth(), s.RFChannel())
}
