// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package packet implements the over-the-air framing for the bind packet
// and the variable-length data packet, including the 4-channel-per-5-byte
// PPM packing (spec §4.3, §6.4). The bit-packing style follows
// tve-devices/sx1276.JLLEncode/JLLDecode: plain byte-slice shifts, no
// struct tags or reflection.
package packet

import (
	"errors"

	"github.com/tve/openlrs/model"
)

// BindMarker and AckMarker are the first bytes of the bind request and
// bind acknowledgement packets (spec §4.5, §6.4).
const (
	BindMarker byte = 'b'
	AckMarker  byte = 'B'
)

// ErrShortPacket is returned when a buffer is too small to hold the frame
// being decoded.
var ErrShortPacket = errors.New("packet: buffer too short")

// ErrNotBind is returned by DecodeBind when the leading marker byte isn't
// BindMarker.
var ErrNotBind = errors.New("packet: not a bind packet")

// BindDataSize is the wire size of a serialized model.BindData (spec §4.5
// "sizeof(BindData)"): version(1) + baud(4) + freq(4) + magic(4) +
// power(1) + spacing(1) + modem(1) + flags(1) + hopchannel(MaxHops).
const BindDataSize = 1 + 4 + 4 + 4 + 1 + 1 + 1 + 1 + model.MaxHops

// EncodeBind serializes 'b' followed by the BindData layout.
func EncodeBind(bd model.BindData) []byte {
	buf := make([]byte, 1+BindDataSize)
	buf[0] = BindMarker
	putBindData(buf[1:], bd)
	return buf
}

// DecodeBind parses a staging buffer holding a bind packet: the marker
// byte at buf[0] followed by BindDataSize bytes (spec §4.5 "the following
// sizeof(BindData) bytes"). It returns the parsed BindData regardless of
// version; callers check Version == model.BindingVersion themselves.
func DecodeBind(buf []byte) (model.BindData, error) {
	if len(buf) < 1+BindDataSize {
		return model.BindData{}, ErrShortPacket
	}
	if buf[0] != BindMarker {
		return model.BindData{}, ErrNotBind
	}
	return getBindData(buf[1:]), nil
}

func putBindData(b []byte, bd model.BindData) {
	b[0] = bd.Version
	putU32(b[1:5], bd.SerialBaudrate)
	putU32(b[5:9], bd.RFFrequency)
	putU32(b[9:13], bd.RFMagic)
	b[13] = bd.RFPower
	b[14] = bd.RFChannelSpacing
	b[15] = bd.ModemParams
	b[16] = bd.Flags
	copy(b[17:17+model.MaxHops], bd.HopChannel[:])
}

func getBindData(b []byte) model.BindData {
	var bd model.BindData
	bd.Version = b[0]
	bd.SerialBaudrate = getU32(b[1:5])
	bd.RFFrequency = getU32(b[5:9])
	bd.RFMagic = getU32(b[9:13])
	bd.RFPower = b[13]
	bd.RFChannelSpacing = b[14]
	bd.ModemParams = b[15]
	bd.Flags = b[16]
	copy(bd.HopChannel[:], b[17:17+model.MaxHops])
	return bd
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// IsServo reports whether a data-packet header byte carries a servo frame
// (spec §4.3, §4.4 step 2, §6.4: "(hdr & 0x3E) == 0").
func IsServo(hdr byte) bool {
	return hdr&0x3e == 0
}

// UnpackPPM decodes the payload of a servo frame into channel microsecond
// values (spec §4.3 "PPM unpacking"). flags selects the packet-size group;
// payload must be at least model.PacketSizes[flags&7]-1 bytes (the header
// byte is not included here).
func UnpackPPM(payload []byte, flags byte) [model.PPMChannels]uint16 {
	var ppm [model.PPMChannels]uint16
	groups := int(flags&0x07) / 2
	odd := flags&0x07&1 != 0

	pos := 0
	ch := 0
	for g := 0; g < groups && pos+5 <= len(payload); g++ {
		b4 := payload[pos+4]
		for k := 0; k < 4 && ch < model.PPMChannels; k++ {
			ppm[ch] = uint16(payload[pos+k]) | uint16((b4>>(2*uint(k)))&3)<<8
			ch++
		}
		pos += 5
	}
	if odd && pos < len(payload) {
		b := payload[pos]
		for k := 0; k < 4 && ch < model.PPMChannels; k++ {
			ppm[ch] = uint16((b>>(2*uint(k)))&3)*333 + 12
			ch++
		}
	}
	return ppm
}

// PackPPM is the inverse of UnpackPPM, used only by test tooling (spec §8
// round-trip property): pack_ppm(unpack_ppm(p, flags), flags) == p.
func PackPPM(ppm [model.PPMChannels]uint16, flags byte) []byte {
	groups := int(flags&0x07) / 2
	odd := flags&0x07&1 != 0
	size := groups * 5
	if odd {
		size++
	}
	out := make([]byte, size)

	pos := 0
	ch := 0
	for g := 0; g < groups; g++ {
		var b4 byte
		for k := 0; k < 4; k++ {
			v := ppm[ch]
			ch++
			out[pos+k] = byte(v)
			b4 |= byte((v>>8)&3) << (2 * uint(k))
		}
		out[pos+4] = b4
		pos += 5
	}
	if odd {
		var b byte
		for k := 0; k < 4; k++ {
			v := ppm[ch]
			ch++
			coarse := (v - 12) / 333
			if coarse > 3 {
				coarse = 3
			}
			b |= byte(coarse) << (2 * uint(k))
		}
		out[pos] = b
	}
	return out
}

// bpsTable maps model.BindData.ModemParams rows to their nominal bit
// rate, used only for interval computation (spec §4.3 "bytes_to_usec").
// Mirrors the bps column of the modem parameter table (spec §6.3).
var bpsTable = [5]uint32{4800, 9600, 19200, 57600, 125000}

// BitRate returns the nominal bps for a modem table row index, clamping
// out-of-range rows to the bind row (9600bps, spec §6.3 "Bind modem row").
func BitRate(modemRow byte) uint32 {
	if int(modemRow) >= len(bpsTable) {
		return bpsTable[model.BindModemRow]
	}
	return bpsTable[modemRow]
}

// BytesToUsec converts a frame size in bytes to its on-air time in
// microseconds at bps, per spec §4.3's bytes_to_usec formula. The
// constant 15/20-byte padding accounts for preamble, sync and header
// overhead not carried in the logical byte count; it grows to 20 when
// diversity mode doubles the preamble (spec §4.2 item 7).
func BytesToUsec(n int, bps uint32, diversity bool) uint32 {
	pad := 15
	if diversity {
		pad = 20
	}
	return uint32((uint64(n+pad) * 8200000) / uint64(bps))
}

// Interval computes the nominal microsecond gap between receptions for a
// given BindData (spec §4.3 "Interval computation"). limit50Hz clamps the
// result to at least 20ms, matching the LIMIT_50HZ board option.
func Interval(bd model.BindData, limit50Hz bool) uint32 {
	bps := BitRate(bd.ModemParams)
	diversity := bd.Diversity()
	pktSize := bd.PacketSize()

	usec := BytesToUsec(pktSize, bps, diversity) + 2000
	if bd.Telemetry() {
		usec += BytesToUsec(model.TelemetryPacketSize, bps, diversity) + 1000
	}
	usec = ((usec + 999) / 1000) * 1000
	if limit50Hz && usec < 20000 {
		usec = 20000
	}
	return usec
}
