// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm22b

import (
	"testing"

	"github.com/tve/openlrs/register"
)

// recordingBus records the last byte written to each register address, for
// assertions, without modeling chip semantics. It follows the fakeBus
// shape in register/register_test.go.
type recordingBus struct {
	written map[byte]byte
	reads   []byte
}

func (b *recordingBus) Claim()   {}
func (b *recordingBus) Release() {}

func (b *recordingBus) Transfer(tx []byte) ([]byte, error) {
	rx := make([]byte, len(tx))
	addr := tx[0]
	if addr&0x80 != 0 {
		a := addr &^ 0x80
		for i, v := range tx[1:] {
			b.written[a+byte(i)] = v
		}
	} else {
		b.reads = append(b.reads, addr&0x7f)
	}
	return rx, nil
}

func newTestConfigurator() (*Configurator, *recordingBus) {
	bus := &recordingBus{written: map[byte]byte{}}
	return New(register.New(bus, nil), GPIOConfig{}), bus
}

func TestInitProgramsModemAndHeader(t *testing.T) {
	c, bus := newTestConfigurator()
	c.Init(false, 0xAABBCCDD, 2 /* 19200bps row */, 4, 0x01, false)

	if got := bus.written[RegModem1C]; got != ModemTable[2].R1C {
		t.Errorf("modem row not programmed: got %#02x want %#02x", got, ModemTable[2].R1C)
	}
	if got := bus.written[RegDataAccessCtl]; got != DataAccessCtrlValue {
		t.Errorf("RegDataAccessCtl got %#02x want %#02x", got, DataAccessCtrlValue)
	}
	if got := bus.written[RegTxHeader3]; got != 0xAA {
		t.Errorf("RegTxHeader3 got %#02x want 0xAA", got)
	}
	if got := bus.written[RegTxHeader0]; got != 0xDD {
		t.Errorf("RegTxHeader0 got %#02x want 0xDD", got)
	}
	if got := bus.written[RegCheckHeader0]; got != 0xDD {
		t.Errorf("RegCheckHeader0 got %#02x want 0xDD", got)
	}
	if got := bus.written[RegTxPower]; got != 4 {
		t.Errorf("RegTxPower got %d want 4", got)
	}
	if got := bus.written[RegPreambleLen]; got != PreambleNibblesNormal {
		t.Errorf("RegPreambleLen got %d want %d", got, PreambleNibblesNormal)
	}
}

func TestInitBindModeUsesBindRowAndPower(t *testing.T) {
	c, bus := newTestConfigurator()
	c.Init(true, 0x11223344, 4 /* ignored in bind mode */, 0, 0x01, true)

	if got := bus.written[RegModem1C]; got != ModemTable[BindModemRow].R1C {
		t.Errorf("bind mode should use row %d, got reg1C=%#02x", BindModemRow, got)
	}
	if got := bus.written[RegTxPower]; got == 0 {
		t.Errorf("bind mode should force BindingPower, got 0")
	}
	if got := bus.written[RegPreambleLen]; got != PreambleNibblesDiversity {
		t.Errorf("diversity preamble got %d want %d", got, PreambleNibblesDiversity)
	}
}

func TestSetChannelKeysHeaderLSB(t *testing.T) {
	c, bus := newTestConfigurator()
	magic := uint32(0x0000_00F0)
	for ch := byte(0); ch < 8; ch++ {
		c.SetChannel(ch, ch, magic)
		want := byte(magic) ^ ch
		if got := bus.written[RegTxHeader0]; got != want {
			t.Errorf("ch=%d: RegTxHeader0 got %#02x want %#02x", ch, got, want)
		}
		if got := bus.written[RegCheckHeader0]; got != want {
			t.Errorf("ch=%d: RegCheckHeader0 got %#02x want %#02x", ch, got, want)
		}
		if got := bus.written[RegHopChannel]; got != ch {
			t.Errorf("ch=%d: RegHopChannel got %d want %d", ch, got, ch)
		}
	}
}

func TestClearFIFO(t *testing.T) {
	c, bus := newTestConfigurator()
	c.ClearFIFO()
	if got := bus.written[RegOpFuncCtrl2]; got != FIFOClearClear {
		t.Errorf("final RegOpFuncCtrl2 got %#02x want %#02x", got, FIFOClearClear)
	}
}
