// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package boardcfg loads the board/pin wiring and bench seed data the
// facade needs but the core link engine has no opinion on (spec §1 "Out
// of scope: Board bring-up ... configuration UI"). The TOML-file-plus-
// flag loading pattern and the Config/sub-struct layout follow
// cmd/mqttradio/main.go's Config/RadioConfig/ModuleConfig.
package boardcfg

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/tve/openlrs/model"
)

// Config is the top-level board configuration file layout.
type Config struct {
	Debug     bool
	Limit50Hz bool `toml:"limit_50hz"`
	SPI       SPIConfig
	GPIO      GPIOConfig
	Persist   PersistConfig
	Bench     *BenchConfig
}

// SPIConfig names the bus/chip-select pair the radio is wired to, plus
// the optional diversity mux pin (spec's supplemented diversity wiring,
// see SPEC_FULL.md).
type SPIConfig struct {
	Bus            int    `toml:"bus"`
	ChipSelect     int    `toml:"chip_select"`
	DiversityMux   bool   `toml:"diversity_mux"`
	DiversityMuxPin string `toml:"diversity_mux_pin"`
}

// GPIOConfig names the IRQ and board-specific GPIO function overrides
// (spec §4.2 item 4 "direction configurable by board config").
// SecondaryIRQPin only matters when SPIConfig.DiversityMux is set: the two
// RFM22B modules sharing the muxed bus still interrupt on two independent
// lines, one per module.
type GPIOConfig struct {
	IRQPin          string `toml:"irq_pin"`
	SecondaryIRQPin string `toml:"secondary_irq_pin"`
	GPIO0Func       int    `toml:"gpio0_func"`
	GPIO1Func       int    `toml:"gpio1_func"`
}

// PersistConfig names where bind data is persisted when the board's
// collab.Store implementation is file-backed.
type PersistConfig struct {
	Path string `toml:"path"`
}

// BenchConfig seeds an operational BindData directly, bypassing the bind
// protocol, for software-only bench runs (cmd/openlrs-bench).
type BenchConfig struct {
	Version          byte   `toml:"version"`
	SerialBaudrate   uint32 `toml:"serial_baudrate"`
	RFFrequency      uint32 `toml:"rf_frequency"`
	RFMagic          uint32 `toml:"rf_magic"`
	RFPower          byte   `toml:"rf_power"`
	RFChannelSpacing byte   `toml:"rf_channel_spacing"`
	ModemParams      byte   `toml:"modem_params"`
	Flags            byte   `toml:"flags"`
	HopChannel       []byte `toml:"hop_channel"`
}

// BindData converts a bench seed into an operational model.BindData,
// truncating or zero-padding HopChannel to model.MaxHops.
func (b *BenchConfig) BindData() model.BindData {
	bd := model.BindData{
		Version:          b.Version,
		SerialBaudrate:   b.SerialBaudrate,
		RFFrequency:      b.RFFrequency,
		RFMagic:          b.RFMagic,
		RFPower:          b.RFPower,
		RFChannelSpacing: b.RFChannelSpacing,
		ModemParams:      b.ModemParams,
		Flags:            b.Flags,
	}
	n := len(b.HopChannel)
	if n > model.MaxHops {
		n = model.MaxHops
	}
	copy(bd.HopChannel[:n], b.HopChannel[:n])
	return bd
}

// Load reads and parses a TOML board configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("boardcfg: cannot read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("boardcfg: cannot parse %s: %w", path, err)
	}
	return cfg, nil
}
