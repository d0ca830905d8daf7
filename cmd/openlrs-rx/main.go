// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Command openlrs-rx brings up a real RFM22B over periph.io and runs the
// link engine against it, following seedhammer-seedhammer/lcd's
// host.Init/spireg.Open/Connect bring-up pattern. Board wiring (SPI bus,
// chip select, IRQ pin, and the optional diversity mux pin) comes from a
// boardcfg TOML file. When the board config enables the diversity mux, two
// independent Links are brought up, one per spimux.Mux side, and their PPM
// output is combined in diversity.go.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/tve/openlrs"
	"github.com/tve/openlrs/boardcfg"
	"github.com/tve/openlrs/collab"
	"github.com/tve/openlrs/diag"
	"github.com/tve/openlrs/model"
	"github.com/tve/openlrs/rfm22b"
	"github.com/tve/openlrs/spimux"
)

// radioMaxHz is the SPI clock the RFM22B datasheet allows; well under its
// 10MHz ceiling to leave margin for long wiring runs.
const radioMaxHz = 4 * physic.MegaHertz

func main() {
	configPath := flag.String("config", "/etc/openlrs.toml", "board configuration file")
	flag.Parse()

	cfg, err := boardcfg.Load(*configPath)
	if err != nil {
		log.Fatalf("openlrs-rx: %s", err)
	}

	if _, err := host.Init(); err != nil {
		log.Fatalf("openlrs-rx: host.Init: %s", err)
	}

	port, err := spireg.Open(fmt.Sprintf("SPI%d.%d", cfg.SPI.Bus, cfg.SPI.ChipSelect))
	if err != nil {
		log.Fatalf("openlrs-rx: spireg.Open: %s", err)
	}

	primaryBus, secondaryBus, err := openBus(port, cfg.SPI)
	if err != nil {
		log.Fatalf("openlrs-rx: %s", err)
	}

	trace := diag.NewTrace(500)
	history := diag.NewHistory()
	store := newFileStore(cfg.Persist.Path)
	clock := newWallClock()
	watchdog := &logWatchdog{}

	base := openlrs.Options{
		Store:    store,
		Clock:    clock,
		Sleep:    osSleeper{},
		Watchdog: watchdog,
		Log:      trace.AsLogPrintf(),
		GPIO: rfm22b.GPIOConfig{
			GPIO0Func: byte(cfg.GPIO.GPIO0Func),
			GPIO1Func: byte(cfg.GPIO.GPIO1Func),
		},
		Limit50Hz: cfg.Limit50Hz,
	}

	sink := &consoleSink{}

	if secondaryBus == nil {
		irqPin := openIRQPin(cfg.GPIO.IRQPin)
		lnk := bringUpLink(base, primaryBus)
		lnk.RegisterPPMSink(sink)
		go sampleHistory(lnk, history)
		runIRQLoop(irqPin, lnk.OnIRQ)
		return
	}

	if cfg.GPIO.SecondaryIRQPin == "" {
		log.Fatalf("openlrs-rx: diversity_mux is set but gpio.secondary_irq_pin is empty")
	}
	primaryIRQ := openIRQPin(cfg.GPIO.IRQPin)
	secondaryIRQ := openIRQPin(cfg.GPIO.SecondaryIRQPin)

	primaryLink := bringUpLink(base, primaryBus)
	secondaryLink := bringUpLink(base, secondaryBus)

	primaryLink.RegisterPPMSink(&diversitySide{self: primaryLink, other: secondaryLink, sink: sink})
	secondaryLink.RegisterPPMSink(&diversitySide{self: secondaryLink, other: primaryLink, sink: sink})

	go sampleHistory(primaryLink, history)
	go runIRQLoop(secondaryIRQ, secondaryLink.OnIRQ)
	runIRQLoop(primaryIRQ, primaryLink.OnIRQ)
}

// bringUpLink completes an Options value with bus and calls openlrs.Init,
// exiting the process on failure the same way a single-radio setup would.
func bringUpLink(opts openlrs.Options, bus collab.SPIBus) *openlrs.Link {
	opts.Bus = bus
	lnk, err := openlrs.Init(opts)
	if err != nil {
		log.Fatalf("openlrs-rx: %s", err)
	}
	return lnk
}

// openIRQPin resolves a board config pin name to an input configured for
// falling-edge detection, the RFM22B's nIRQ polarity.
func openIRQPin(name string) gpio.PinIO {
	pin := gpioreg.ByName(name)
	if pin == nil {
		log.Fatalf("openlrs-rx: unknown IRQ pin %q", name)
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		log.Fatalf("openlrs-rx: irq pin %q setup: %s", name, err)
	}
	return pin
}

// runIRQLoop blocks forever, calling onIRQ once per falling edge on pin.
func runIRQLoop(pin gpio.PinIO, onIRQ func()) {
	for {
		if pin.WaitForEdge(-1) {
			onIRQ()
		}
	}
}

// openBus wires either a single spi.Conn (direct bus) or, when
// sc.DiversityMux is set, both sides of an spimux.Mux feeding a dual-RFM22B
// diversity front end (SPEC_FULL.md "Domain stack"). secondary is nil
// whenever diversity is disabled.
func openBus(port spi.Port, sc boardcfg.SPIConfig) (primary, secondary collab.SPIBus, err error) {
	if !sc.DiversityMux {
		conn, err := port.Connect(radioMaxHz, spi.Mode0, 8)
		if err != nil {
			return nil, nil, fmt.Errorf("spi connect: %w", err)
		}
		return &directBus{conn: conn}, nil, nil
	}

	selPin := gpioreg.ByName(sc.DiversityMuxPin)
	if selPin == nil {
		return nil, nil, fmt.Errorf("unknown diversity mux pin %q", sc.DiversityMuxPin)
	}
	low, high := spimux.New(port, selPin, radioMaxHz, spi.Mode0, 8)
	return low, high, nil
}

// consoleSink logs every decoded servo frame. Real channel routing (to a
// PWM/PPM output pin or a serial passthrough) is board-specific and left
// to a caller that wraps this command's pieces.
type consoleSink struct{}

func (consoleSink) OnPPM(ppm [model.PPMChannels]uint16) {
	log.Printf("openlrs-rx: ppm %v", ppm)
}

// sampleHistory records RSSI/AFC once a second for later dumping, e.g.
// over a low-bandwidth telemetry return channel a caller wires up.
func sampleHistory(lnk *openlrs.Link, h *diag.History) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		h.Record(int(lnk.RSSISmooth()), int(lnk.AFC()))
	}
}
