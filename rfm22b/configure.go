// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm22b

import (
	"github.com/tve/openlrs/model"
	"github.com/tve/openlrs/register"
)

// GPIOConfig overrides the default TX/RX GPIO routing (spec §4.2 item 4:
// "direction configurable by board config"). The zero value selects the
// RFM22B's usual TX-state/RX-state routing.
type GPIOConfig struct {
	GPIO0Func byte // defaults to GPIOFuncTXState
	GPIO1Func byte // defaults to GPIOFuncRXState
}

func (g GPIOConfig) resolve() (byte, byte) {
	g0, g1 := g.GPIO0Func, g.GPIO1Func
	if g0 == 0 {
		g0 = GPIOFuncTXState
	}
	if g1 == 0 {
		g1 = GPIOFuncRXState
	}
	return g0, g1
}

// Configurator composes register sequences for the RFM22B (spec §4.2).
type Configurator struct {
	reg  *register.Interface
	gpio GPIOConfig
}

// New returns a Configurator driving reg. gpio may be the zero value to
// use the default TX/RX GPIO routing.
func New(reg *register.Interface, gpio GPIOConfig) *Configurator {
	return &Configurator{reg: reg, gpio: gpio}
}

// Init performs power-on reset and full register programming (spec §4.2
// "init_radio"). When bindMode is true, the bind modem row, BindMagic
// header, and BindingPower are used in place of the operational binding.
func (c *Configurator) Init(bindMode bool, magic uint32, modemRow byte, power byte, channelSpacing byte, diversity bool) {
	r := c.reg
	r.Claim()
	defer r.Release()

	// 1. Clear any latched IRQ.
	r.Read(RegIntStatus1)
	r.Read(RegIntStatus2)

	// 2. Disable all interrupt sources.
	r.Write(RegIntEnable1, 0x00)
	r.Write(RegIntEnable2, 0x00)

	// 3. READY power state, 12.5pF crystal load, enable clock output.
	r.Write(RegOpFuncCtrl1, PowerStateReady)
	r.Write(RegXtalLoadCap, XtalLoad12p5pF)
	r.Write(RegClockOut, ClockOutEnable)

	// 4. Route GPIO0/GPIO1 to TX-state/RX-state.
	g0, g1 := c.gpio.resolve()
	r.Write(RegGPIO0Config, g0)
	r.Write(RegGPIO1Config, g1)

	// 5. Program modem registers.
	row := BindModemRow
	if !bindMode {
		row = int(modemRow)
		if row < 0 || row >= len(ModemTable) {
			row = BindModemRow
		}
	}
	r.WriteSeq(ModemTable[row].regPairs())

	// 6. Packet handler: MSB-first, CRC enabled, 4-byte header checked
	// against magic, 2-byte sync word, variable length.
	r.Write(RegDataAccessCtl, DataAccessCtrlValue)
	r.Write(RegHeaderCtrl1, HeaderCtrl1Value)
	r.Write(RegHeaderCtrl2, HeaderCtrl2Value)
	r.Write(RegSync3, model.SyncWordHi)
	r.Write(RegSync2, model.SyncWordLo)

	// 7. Preamble length.
	preamble := byte(PreambleNibblesNormal)
	if diversity {
		preamble = PreambleNibblesDiversity
	}
	r.Write(RegPreambleLen, preamble)
	r.Write(RegPreambleDet, PreambleDetValue)

	// 8. Transmit-header and check-header from magic, MSB first.
	if bindMode {
		magic = model.BindMagic
	}
	hdr := magicBytes(magic)
	r.BurstWrite(RegTxHeader3, hdr[:])
	r.BurstWrite(RegCheckHeader3, hdr[:])
	r.Write(RegHeaderEnable3, HeaderEnableAll)
	r.Write(RegHeaderEnable2, HeaderEnableAll)
	r.Write(RegHeaderEnable1, HeaderEnableAll)
	r.Write(RegHeaderEnable0, HeaderEnableAll)

	// 9. TX power.
	txPower := power
	if bindMode {
		txPower = model.BindingPower
	}
	r.Write(RegTxPower, txPower)

	// 10. Hop step size, hop channel 0.
	r.Write(RegHopStepSize, channelSpacing)
	r.Write(RegHopChannel, 0)
}

func magicBytes(magic uint32) [4]byte {
	return [4]byte{byte(magic >> 24), byte(magic >> 16), byte(magic >> 8), byte(magic)}
}

// SetCarrier computes and programs the band-select/carrier-frequency
// registers for the given center frequency in Hz (spec §4.2 "set_carrier").
//
// hbsel selects the 10MHz (0) or 20MHz (1) frequency step; fb is the
// integer band number; fc is the 16-bit fractional part. The arithmetic
// mirrors tve-devices/sx1231.Radio.SetFrequency's frf computation, adapted
// to the RFM22B's three-register (band-select, carrier MSB, carrier LSB)
// layout instead of the SX1231's single 24-bit FRF.
func (c *Configurator) SetCarrier(hz uint32) {
	hbsel, fb, fc := CarrierRegs(hz)
	c.reg.Claim()
	defer c.reg.Release()
	c.reg.Write(RegFreqBandSel, 0x40|(hbsel<<5)|fb)
	c.reg.Write(RegCarrierMSB, byte(fc>>8))
	c.reg.Write(RegCarrierLSB, byte(fc))
}

// CarrierRegs computes the (hbsel, fb, fc) register values for hz without
// touching hardware, so the synthesis math can be tested in isolation
// (spec §8 "Carrier synthesis").
func CarrierRegs(hz uint32) (hbsel, fb byte, fc uint16) {
	var hb uint32
	if hz >= 480000000 {
		hb = 1
	}
	step := 10000000 * (1 + hb)
	band := hz/step - 24
	frac := (hz - (band+24)*step) * (4 / (1 + hb)) / 625
	return byte(hb), byte(band), uint16(frac)
}

// SetChannel writes the hop-channel-select register and rotates the
// header identity for this hop: the low byte of the TX header and check
// header is overwritten with (magic&0xFF) XOR ch, so a transmitter that is
// out of phase fails the header check on every other channel (spec §4.2
// "set_channel").
func (c *Configurator) SetChannel(ch byte, channelValue byte, magic uint32) {
	c.reg.Claim()
	defer c.reg.Release()
	c.reg.Write(RegHopChannel, channelValue)
	keyed := byte(magic) ^ ch
	c.reg.Write(RegTxHeader0, keyed)
	c.reg.Write(RegCheckHeader0, keyed)
}

// ClearFIFO strobes the FIFO-clear sequence on RegOpFuncCtrl2 (spec §6.1).
func (c *Configurator) ClearFIFO() {
	c.reg.Claim()
	defer c.reg.Release()
	c.reg.Write(RegOpFuncCtrl2, FIFOClearSet)
	c.reg.Write(RegOpFuncCtrl2, FIFOClearClear)
}
