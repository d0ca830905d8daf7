// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package register

import "testing"

// fakeBus is an in-memory register file used to exercise the opcode
// framing without real hardware, following the map-literal table-driven
// style of tve-devices' jll_test.go/jeelabs_test.go.
type fakeBus struct {
	regs           [256]byte
	claimed        bool
	claims         int
	transferErr    error
	lastTxLen      int
}

func (f *fakeBus) Claim()   { f.claimed = true; f.claims++ }
func (f *fakeBus) Release() { f.claimed = false }

func (f *fakeBus) Transfer(tx []byte) ([]byte, error) {
	f.lastTxLen = len(tx)
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	rx := make([]byte, len(tx))
	addr := tx[0]
	if addr&0x80 != 0 {
		// write: remaining bytes go into consecutive registers
		a := addr & 0x7f
		for i, b := range tx[1:] {
			f.regs[int(a)+i] = b
		}
	} else {
		for i := range tx[1:] {
			rx[1+i] = f.regs[int(addr)+i]
		}
	}
	return rx, nil
}

func TestReadWrite(t *testing.T) {
	bus := &fakeBus{}
	r := New(bus, nil)

	r.Write(0x07, 0xAB)
	if got := r.Read(0x07); got != 0xAB {
		t.Fatalf("got %#x want %#x", got, 0xAB)
	}
}

func TestWriteSeq(t *testing.T) {
	bus := &fakeBus{}
	r := New(bus, nil)

	r.WriteSeq([]byte{0x10, 0x11, 0x20, 0x22})
	if got := r.Read(0x10); got != 0x11 {
		t.Fatalf("reg 0x10: got %#x want 0x11", got)
	}
	if got := r.Read(0x20); got != 0x22 {
		t.Fatalf("reg 0x20: got %#x want 0x22", got)
	}
}

func TestBurstReadWrite(t *testing.T) {
	bus := &fakeBus{}
	r := New(bus, nil)

	data := []byte{1, 2, 3, 4, 5}
	r.BurstWrite(0x30, data)
	got := r.BurstRead(0x30, len(data))
	if len(got) != len(data) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(data))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("byte %d: got %#x want %#x", i, got[i], data[i])
		}
	}
}

func TestClaimRelease(t *testing.T) {
	bus := &fakeBus{}
	r := New(bus, nil)

	r.Claim()
	if !bus.claimed {
		t.Fatal("expected bus to be claimed")
	}
	r.Write(0x01, 0x02)
	r.Release()
	if bus.claimed {
		t.Fatal("expected bus to be released")
	}
	if bus.claims != 1 {
		t.Fatalf("expected exactly one claim, got %d", bus.claims)
	}
}

func TestNilBusIsDryRun(t *testing.T) {
	r := New(nil, nil)
	r.Claim()
	r.Write(0x07, 0xFF)
	if got := r.Read(0x07); got != 0 {
		t.Fatalf("dry-run read should return 0, got %#x", got)
	}
	r.Release()
}

func TestTransferErrorReturnsZero(t *testing.T) {
	bus := &fakeBus{transferErr: errFake{}}
	r := New(bus, nil)
	if got := r.Read(0x01); got != 0 {
		t.Fatalf("expected 0 on transfer error, got %#x", got)
	}
}

type errFake struct{}

func (errFake) Error() string { return "fake transfer error" }
