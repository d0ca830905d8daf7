// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package rfm22b composes the register sequences that configure a Silicon
// Labs RFM22B transceiver: power-on reset, modem parameters, carrier
// synthesis, sync/header programming, TX power, GPIO routing, and FIFO
// clear (spec §4.2). The register-table and readReg/writeReg shape is
// carried over from tve-devices/sx1231 and sx1276 (registers.go,
// SetFrequency, SetRate), generalized to the RFM22B's register map
// (spec §6.1) and to the RFM22B's hop-channel-keyed header scheme, which
// sx1231/sx1276 have no equivalent of.
package rfm22b

// Register addresses (spec §6.1).
const (
	RegIntStatus1    = 0x03
	RegIntStatus2    = 0x04
	RegIntEnable1    = 0x05
	RegIntEnable2    = 0x06
	RegOpFuncCtrl1   = 0x07 // power state
	RegOpFuncCtrl2   = 0x08 // bit1:0 = FIFO clear strobe
	RegXtalLoadCap   = 0x09
	RegClockOut      = 0x0A
	RegGPIO0Config   = 0x0B
	RegGPIO1Config   = 0x0C // also the lockup canary
	RegGPIO2Config   = 0x0D
	RegIOPortConfig  = 0x0E
	RegRSSI          = 0x26
	RegAFC1          = 0x2B
	RegAFC2          = 0x2C
	RegDataAccessCtl = 0x30
	RegHeaderCtrl1   = 0x32
	RegHeaderCtrl2   = 0x33
	RegPreambleLen   = 0x34
	RegPreambleDet   = 0x35
	RegSync3         = 0x36
	RegSync2         = 0x37
	RegSync1         = 0x38
	RegSync0         = 0x39
	RegTxHeader3     = 0x3A
	RegTxHeader2     = 0x3B
	RegTxHeader1     = 0x3C
	RegTxHeader0     = 0x3D
	RegPacketLenTx   = 0x3E
	RegCheckHeader3  = 0x3F
	RegCheckHeader2  = 0x40
	RegCheckHeader1  = 0x41
	RegCheckHeader0  = 0x42
	RegHeaderEnable3 = 0x43
	RegHeaderEnable2 = 0x44
	RegHeaderEnable1 = 0x45
	RegHeaderEnable0 = 0x46
	RegTxPower       = 0x6D
	RegFreqOffset1   = 0x73
	RegFreqOffset2   = 0x74
	RegFreqBandSel   = 0x75
	RegCarrierMSB    = 0x76
	RegCarrierLSB    = 0x77
	RegHopChannel    = 0x79
	RegHopStepSize   = 0x7A
	RegFIFO          = 0x7F
	RegDeviceType    = 0x00

	// Modem-group registers (spec §6.3).
	RegModem1C = 0x1C
	RegModem1D = 0x1D
	RegModem1E = 0x1E
	RegModem20 = 0x20
	RegModem21 = 0x21
	RegModem22 = 0x22
	RegModem23 = 0x23
	RegModem24 = 0x24
	RegModem25 = 0x25
	RegModem2A = 0x2A
	RegModem6E = 0x6E
	RegModem6F = 0x6F
	RegModem70 = 0x70
	RegModem71 = 0x71
	RegModem72 = 0x72
)

const (
	// DeviceTypeMask and DeviceTypeWant implement the required probe of
	// spec §6.2.
	DeviceTypeMask = 0x1F
	DeviceTypeWant = 0x08

	// PowerStateReady is the value programmed into RegOpFuncCtrl1 during
	// init (spec §4.2 item 3).
	PowerStateReady = 0x01

	// PowerStateRXOn and PowerStateTXOn add the receiver-enable and
	// transmitter-enable bits to PowerStateReady's crystal-on bit, per the
	// RFM22B's op-and-func-control-1 bit layout (xton|rxon|txon). The bind
	// listener and hop scheduler toggle between these two when re-arming
	// the radio (spec §4.4, §4.5).
	PowerStateRXOn = 0x05
	PowerStateTXOn = 0x09

	// XtalLoad12p5pF is the crystal load capacitance setting (spec §4.2
	// item 3).
	XtalLoad12p5pF = 0x7F

	// ClockOutEnable enables the microcontroller clock output (spec §4.2
	// item 3).
	ClockOutEnable = 0x05

	// GPIO function codes used to route GPIO0/GPIO1 to TX-state/RX-state
	// (spec §4.2 item 4).
	GPIOFuncTXState = 0x12
	GPIOFuncRXState = 0x15

	// FIFO clear strobe sequence for RegOpFuncCtrl2 (spec §6.1).
	FIFOClearSet   = 0x03
	FIFOClearClear = 0x00

	// DataAccessCtrl, HeaderCtrl1, HeaderCtrl2, and PreambleDet are fixed
	// values given directly by spec §4.2 item 6-7.
	DataAccessCtrlValue = 0x8C
	HeaderCtrl1Value    = 0x0F
	HeaderCtrl2Value    = 0x42
	PreambleDetValue    = 0x2A

	// PreambleNibblesNormal/Diversity are the preamble lengths in nibbles
	// (spec §4.2 item 7).
	PreambleNibblesNormal    = 10
	PreambleNibblesDiversity = 20

	// HeaderEnableAll is written to all four header-enable-mask registers
	// (spec §6.1).
	HeaderEnableAll = 0xFF
)

// ModemParams describes the register tuple for one bit rate (spec §6.3).
type ModemParams struct {
	BitsPerSecond uint32
	R1C, R1D, R1E byte
	R20, R21      byte
	R22, R23      byte
	R24, R25      byte
	R2A           byte
	R6E, R6F      byte
	R70, R71, R72 byte
}

// ModemTable is the fixed modem-parameter table indexed by BindData's
// ModemParams field (spec §6.3). Row 1 (9600bps) is also the bind modem
// profile.
var ModemTable = [5]ModemParams{
	{4800, 0x1a, 0x40, 0x0a, 0xa1, 0x20, 0x4e, 0xa5, 0x00, 0x1b, 0x1e, 0x27, 0x52, 0x2c, 0x23, 0x30},
	{9600, 0x05, 0x40, 0x0a, 0xa1, 0x20, 0x4e, 0xa5, 0x00, 0x20, 0x24, 0x4e, 0xa5, 0x2c, 0x23, 0x30},
	{19200, 0x06, 0x40, 0x0a, 0xd0, 0x00, 0x9d, 0x49, 0x00, 0x7b, 0x28, 0x9d, 0x49, 0x2c, 0x23, 0x30},
	{57600, 0x05, 0x40, 0x0a, 0x45, 0x01, 0xd7, 0xdc, 0x03, 0xb8, 0x1e, 0x0e, 0xbf, 0x00, 0x23, 0x2e},
	{125000, 0x8a, 0x40, 0x0a, 0x60, 0x01, 0x55, 0x55, 0x02, 0xad, 0x1e, 0x20, 0x00, 0x00, 0x23, 0xc8},
}

// BindModemRow is the table row used while BindListening (spec §6.3: "Bind
// modem row = 9600").
const BindModemRow = 1

func (m ModemParams) regPairs() []byte {
	return []byte{
		RegModem1C, m.R1C, RegModem1D, m.R1D, RegModem1E, m.R1E,
		RegModem20, m.R20, RegModem21, m.R21, RegModem22, m.R22,
		RegModem23, m.R23, RegModem24, m.R24, RegModem25, m.R25,
		RegModem2A, m.R2A,
		RegModem6E, m.R6E, RegModem6F, m.R6F,
		RegModem70, m.R70, RegModem71, m.R71, RegModem72, m.R72,
	}
}
