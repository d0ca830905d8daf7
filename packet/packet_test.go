// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package packet

import (
	"testing"

	"github.com/tve/openlrs/model"
)

func sampleBindData() model.BindData {
	bd := model.BindData{
		Version:          model.BindingVersion,
		SerialBaudrate:   115200,
		RFFrequency:      433920000,
		RFMagic:          0xAABBCCDD,
		RFPower:          7,
		RFChannelSpacing: 0x01,
		ModemParams:      2,
		Flags:            4, // packet-size group 4
	}
	bd.HopChannel[0] = 3
	bd.HopChannel[1] = 9
	bd.HopChannel[2] = 0
	return bd
}

func TestBindRoundTrip(t *testing.T) {
	bd := sampleBindData()
	buf := EncodeBind(bd)
	if buf[0] != BindMarker {
		t.Fatalf("missing bind marker, got %#02x", buf[0])
	}
	got, err := DecodeBind(buf)
	if err != nil {
		t.Fatalf("DecodeBind: %v", err)
	}
	if got != bd {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, bd)
	}
}

func TestDecodeBindRejectsWrongMarker(t *testing.T) {
	buf := EncodeBind(sampleBindData())
	buf[0] = 'x'
	if _, err := DecodeBind(buf); err != ErrNotBind {
		t.Errorf("got err=%v want ErrNotBind", err)
	}
}

func TestDecodeBindRejectsShortBuffer(t *testing.T) {
	if _, err := DecodeBind([]byte{BindMarker, 1, 2}); err != ErrShortPacket {
		t.Errorf("got err=%v want ErrShortPacket", err)
	}
}

func TestIsServo(t *testing.T) {
	cases := map[string]struct {
		hdr   byte
		servo bool
	}{
		"zero":       {0x00, true},
		"evenbitset": {0x20, false},
		"lowbitonly": {0x01, true}, // bit 0 isn't part of the subtype mask
		"subtype1":   {0x02, false},
	}
	for name, tc := range cases {
		if got := IsServo(tc.hdr); got != tc.servo {
			t.Errorf("%s: IsServo(%#02x) = %v, want %v", name, tc.hdr, got, tc.servo)
		}
	}
}

func TestPackUnpackPPMRoundTrip(t *testing.T) {
	for flags := byte(1); flags <= 6; flags++ {
		var ppm [model.PPMChannels]uint16
		groups := int(flags&0x07) / 2
		odd := flags&0x07&1 != 0
		n := groups * 4
		if odd {
			n += 4
		}
		for i := 0; i < n; i++ {
			if odd && i >= groups*4 {
				// coarse channels only take one of 4 discrete values
				ppm[i] = uint16([]uint16{12, 345, 678, 1011}[i%4])
			} else {
				ppm[i] = uint16(300 + i*7)
			}
		}
		packed := PackPPM(ppm, flags)
		got := UnpackPPM(packed, flags)
		for i := 0; i < n; i++ {
			if got[i] != ppm[i] {
				t.Errorf("flags=%d ch=%d: got %d want %d", flags, i, got[i], ppm[i])
			}
		}
	}
}

func TestUnpackPPMFineChannelsAreTenBit(t *testing.T) {
	// byte4 bits select the high 2 bits of each of 4 channels.
	payload := []byte{0xFF, 0x00, 0x80, 0x40, 0b11_10_01_00}
	ppm := UnpackPPM(payload, 2) // one group, no odd trailer
	want := [4]uint16{0xFF, 0x100, 0x280, 0x340}
	for i, w := range want {
		if ppm[i] != w {
			t.Errorf("ch%d: got %#03x want %#03x", i, ppm[i], w)
		}
	}
}

func TestUnpackPPMCoarseChannelRange(t *testing.T) {
	// flags=1: zero full groups, one odd trailing byte of 4 coarse channels.
	payload := []byte{0b11_10_01_00}
	ppm := UnpackPPM(payload, 1)
	want := [4]uint16{12, 345, 678, 1011}
	for i, w := range want {
		if ppm[i] != w {
			t.Errorf("ch%d: got %d want %d", i, ppm[i], w)
		}
	}
}

func TestIntervalIsWholeMillisecondAndFloor(t *testing.T) {
	bd := sampleBindData()
	for modem := byte(0); modem < 5; modem++ {
		bd.ModemParams = modem
		iv := Interval(bd, false)
		if iv%1000 != 0 {
			t.Errorf("modem=%d: interval %d not a multiple of 1000", modem, iv)
		}
		floor := BytesToUsec(bd.PacketSize(), BitRate(modem), false) + 2000
		if iv < floor {
			t.Errorf("modem=%d: interval %d below floor %d", modem, iv, floor)
		}
	}
}

func TestIntervalTelemetryAddsOverhead(t *testing.T) {
	bd := sampleBindData()
	without := Interval(bd, false)
	bd.Flags |= model.FlagsTelemetryMask
	with := Interval(bd, false)
	if with <= without {
		t.Errorf("telemetry should increase interval: without=%d with=%d", without, with)
	}
}

func TestIntervalLimit50Hz(t *testing.T) {
	bd := sampleBindData()
	bd.ModemParams = 4 // 125000bps, nominally a very short interval
	bd.Flags = 1       // smallest packet size group
	fast := Interval(bd, false)
	clamped := Interval(bd, true)
	if fast >= 20000 {
		t.Skip("fast interval already >= 20ms, clamp not exercised")
	}
	if clamped != 20000 {
		t.Errorf("got %d want 20000", clamped)
	}
}

func TestBitRateClampsOutOfRange(t *testing.T) {
	if got := BitRate(200); got != bpsTable[model.BindModemRow] {
		t.Errorf("got %d want bind-row rate %d", got, bpsTable[model.BindModemRow])
	}
}
