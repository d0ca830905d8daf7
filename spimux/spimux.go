// Copyright 2017 by Thorsten von Eicken, see LICENSE file

// Package spimux lets two RFM22B modules share a single SPI bus with a
// demuxed chip select, for diversity-mode dual-receiver wiring (spec's
// DIVERSITY_ENABLED flag, see SPEC_FULL.md "Domain stack"). A sample
// circuit uses a 74LVC1G19 demux with the SPI CS connected to E, the GPIO
// select pin connected to A, and the CS inputs of the two devices
// attached to Y0 and Y1 respectively; a pull-down resistor on A keeps
// both chip selects inactive when the shared CS is not driven.
//
// Unlike the periph.io/x/periph-era version this replaces, Mux exposes
// collab.SPIBus directly instead of periph's own spi.Conn, so either side
// can be handed straight to register.New without an adapter.
package spimux

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Mux is one side of a demuxed SPI bus. Claim locks the shared bus and
// steers the select pin to this side for the duration of the claimed
// sequence; Release unlocks it. A limitation carried over from the
// original implementation: bus speed, mode, and word size are shared
// between both sides, since they are fixed once at the first Connect.
type Mux struct {
	mu     *sync.Mutex
	port   spi.Port
	conn   *spi.Conn // shared, lazily opened on first Transfer
	hz     physic.Frequency
	mode   spi.Mode
	bits   int
	selPin gpio.PinOut
	sel    gpio.Level
}

// New returns two Mux values sharing port, the first steering sel low
// and the second steering sel high. maxHz/mode/bits configure the shared
// connection on first use by either side.
func New(port spi.Port, selPin gpio.PinOut, maxHz physic.Frequency, mode spi.Mode, bits int) (*Mux, *Mux) {
	mu := &sync.Mutex{}
	var conn spi.Conn
	lo := &Mux{mu: mu, port: port, conn: &conn, hz: maxHz, mode: mode, bits: bits, selPin: selPin, sel: gpio.Low}
	hi := &Mux{mu: mu, port: port, conn: &conn, hz: maxHz, mode: mode, bits: bits, selPin: selPin, sel: gpio.High}
	return lo, hi
}

// Claim locks the shared bus and steers the select pin to this side,
// implementing collab.SPIBus.
func (m *Mux) Claim() {
	m.mu.Lock()
	m.selPin.Out(m.sel)
}

// Release unlocks the shared bus.
func (m *Mux) Release() { m.mu.Unlock() }

// Transfer performs one full-duplex exchange, opening the shared
// connection on first use. Must be called between Claim and Release.
func (m *Mux) Transfer(tx []byte) ([]byte, error) {
	if *m.conn == nil {
		c, err := m.port.Connect(m.hz, m.mode, m.bits)
		if err != nil {
			return nil, err
		}
		*m.conn = c
	}
	rx := make([]byte, len(tx))
	if err := (*m.conn).Tx(tx, rx); err != nil {
		return nil, err
	}
	return rx, nil
}
