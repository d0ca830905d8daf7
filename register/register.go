// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package register implements bit-exact SPI register transactions against
// an RFM22B (spec §4.1): single-byte read/write, burst FIFO read/write,
// and the claim/release bus-ownership discipline multi-register sequences
// must be bracketed in. The shape follows tve-devices' sx1231.go/sx1276.go
// readReg/writeReg/readReg16 helpers, generalized to go through a
// collab.SPIBus instead of a periph spi.Conn directly, and extended with
// the explicit Claim/Release bracketing spimux.Conn uses to guard a bus
// shared with other devices.
package register

import (
	"time"

	"github.com/tve/openlrs/collab"
)

// settleDelay is the chip-select-to-first-clock-edge settling time
// required by the RFM22B datasheet (spec §4.1).
const settleDelay = time.Microsecond

// Interface is the bit-exact register-transaction layer over a
// collab.SPIBus.
type Interface struct {
	bus collab.SPIBus
	log collab.LogPrintf
}

// New wraps bus in a register Interface. bus may be nil, in which case
// every operation is a no-op that returns zero values (dry-run mode).
func New(bus collab.SPIBus, log collab.LogPrintf) *Interface {
	if log == nil {
		log = collab.NoopLog
	}
	return &Interface{bus: bus, log: log}
}

// Claim acquires exclusive ownership of the bus for a sequence of register
// transactions that must appear atomic to other bus users. Every multi-
// register sequence in rfm22b.Configurator is bracketed by Claim/Release.
func (r *Interface) Claim() {
	if r.bus != nil {
		r.bus.Claim()
	}
}

// Release gives up bus ownership acquired with Claim.
func (r *Interface) Release() {
	if r.bus != nil {
		r.bus.Release()
	}
}

func (r *Interface) xfer(tx []byte) []byte {
	if r.bus == nil {
		return make([]byte, len(tx))
	}
	time.Sleep(settleDelay)
	rx, err := r.bus.Transfer(tx)
	if err != nil {
		r.log("register: transfer error: %s", err)
		return make([]byte, len(tx))
	}
	return rx
}

// Read clocks out addr&0x7F and returns the byte the chip shifts back.
func (r *Interface) Read(addr byte) byte {
	rx := r.xfer([]byte{addr & 0x7f, 0})
	return rx[1]
}

// Write clocks out addr|0x80 followed by data.
func (r *Interface) Write(addr, data byte) {
	r.xfer([]byte{addr | 0x80, data})
}

// WriteSeq writes a sequence of <addr,data> pairs each as its own single-
// byte transaction, matching the configRegs-table style of
// tve-devices/sx1231/registers.go and sx1276/registers.go.
func (r *Interface) WriteSeq(pairs []byte) {
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Write(pairs[i], pairs[i+1])
	}
}

// BurstRead clocks one opcode for addr followed by n data bytes, returning
// the n bytes read back.
func (r *Interface) BurstRead(addr byte, n int) []byte {
	tx := make([]byte, n+1)
	tx[0] = addr & 0x7f
	rx := r.xfer(tx)
	return rx[1:]
}

// BurstWrite clocks one opcode for addr followed by the given data bytes.
func (r *Interface) BurstWrite(addr byte, data []byte) {
	tx := make([]byte, len(data)+1)
	tx[0] = addr | 0x80
	copy(tx[1:], data)
	r.xfer(tx)
}

// Read16 reads a 16-bit big-endian register pair, for AFC/RSSI-adjacent
// two-byte registers (mirrors sx1231.Radio.readReg16).
func (r *Interface) Read16(addr byte) uint16 {
	rx := r.xfer([]byte{addr & 0x7f, 0, 0})
	return uint16(rx[1])<<8 | uint16(rx[2])
}
