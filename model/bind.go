// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package model holds the wire/persisted data types shared by every layer
// of the link engine (spec §3): BindData and the sizing/protocol
// constants derived from it. It has no dependencies of its own so every
// other package — register, rfm22b, packet, link, bindproto, task, and
// the top-level facade — can import it without risking a cycle.
package model

// Sizing constants (spec §3.1, §3.2, §6.1).
const (
	MaxHops     = 24 // hopchannel[] capacity
	PPMChannels = 16 // PPM vector length; a data packet fills at most 12 of these
	MaxPacket   = 64 // RFM22B FIFO depth; rx staging buffer size

	// BindingVersion must match BindData.Version for a bind packet (or a
	// stored binding) to be accepted.
	BindingVersion = 5

	// BindingFrequency and BindingPower are used only while BindListening;
	// the operational carrier and power come from BindData once bound.
	BindingFrequency = 435000000 // Hz
	BindingPower     = 7         // max TX power index while bind-listening

	// BindMagic is the header/sync identifier used on the bind channel,
	// distinct from any paired transmitter's operational RFMagic.
	BindMagic = 0x5252312e

	// BindModemRow is the modem-table row (9600bps) used while
	// BindListening.
	BindModemRow = 1

	// SyncWordHi/SyncWordLo are the 2-byte over-the-air sync word
	// programmed into every RFM22B regardless of bind state (spec §4.2
	// item 6).
	SyncWordHi = 0x2d
	SyncWordLo = 0xd4

	// TelemetryPacketSize is the airtime accounted for the telemetry
	// uplink slot when Flags&FlagsTelemetryMask is set (spec §4.3). The
	// core does not implement telemetry itself (Non-goal); it only
	// reserves the airtime so hop timing stays correct for a transmitter
	// that does.
	TelemetryPacketSize = 9

	// Flags bitfield (spec §3.1).
	FlagsPacketSizeMask  = 0x07
	FlagsTelemetryMask   = 0x08
	FlagsDiversityEnable = 0x10
)

// PacketSizes is indexed by Flags&FlagsPacketSizeMask (spec §4.3). Groups
// 0 and 7 are reserved and resolve to a zero size.
var PacketSizes = [8]int{0, 7, 11, 12, 16, 17, 21, 0}

// BindData is the persisted, over-the-air-exchanged parameter block that
// identifies a transmitter/receiver pair (spec §3.1).
type BindData struct {
	Version          byte
	SerialBaudrate   uint32
	RFFrequency      uint32
	RFMagic          uint32
	RFPower          byte
	RFChannelSpacing byte
	ModemParams      byte
	Flags            byte
	HopChannel       [MaxHops]byte // zero-terminated; length = hop count
}

// HopCount returns the number of channels before the zero terminator (or
// HopChannel's full length if there is none). Index 0 may legitimately
// hold channel value 0, so only indices 1.. are scanned for the
// terminator, matching the hop-advance check of spec §4.4 step 6.
func (b *BindData) HopCount() int {
	for i, ch := range b.HopChannel {
		if ch == 0 && i > 0 {
			return i
		}
	}
	return len(b.HopChannel)
}

// PacketSize returns the data-packet size selected by Flags (spec §4.3).
func (b *BindData) PacketSize() int {
	return PacketSizes[b.Flags&FlagsPacketSizeMask]
}

// Telemetry reports whether the telemetry uplink slot is reserved.
func (b *BindData) Telemetry() bool {
	return b.Flags&FlagsTelemetryMask != 0
}

// Diversity reports whether the dual-receiver diversity preamble/airtime
// accounting applies.
func (b *BindData) Diversity() bool {
	return b.Flags&FlagsDiversityEnable != 0
}
