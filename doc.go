// Package openlrs implements an OpenLRS receiver-side link engine for a
// Silicon Labs RFM22B transceiver: bind/operational state machine,
// frequency-hopping scheduler, packet framing, and RSSI/AFC/link-quality
// bookkeeping, wired to an external SPI bus, clock, sleeper, watchdog and
// persistent store supplied by the caller. See Init.
package openlrs
