// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package boardcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tve/openlrs/model"
)

const sampleTOML = `
debug = true
limit_50hz = true

[spi]
bus = 0
chip_select = 0
diversity_mux = true
diversity_mux_pin = "GPIO17"

[gpio]
irq_pin = "GPIO25"
secondary_irq_pin = "GPIO26"

[persist]
path = "/var/lib/openlrs/bind.dat"

[bench]
version = 5
rf_frequency = 433920000
rf_magic = 287454020
rf_power = 4
rf_channel_spacing = 1
modem_params = 2
flags = 4
hop_channel = [3, 9, 17, 0]
`

func TestLoadParsesAllSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.toml")
	if err := os.WriteFile(path, []byte(sampleTOML), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug || !cfg.Limit50Hz {
		t.Errorf("Debug/Limit50Hz not parsed: %+v", cfg)
	}
	if cfg.SPI.Bus != 0 || cfg.SPI.ChipSelect != 0 || !cfg.SPI.DiversityMux || cfg.SPI.DiversityMuxPin != "GPIO17" {
		t.Errorf("SPI section mismatch: %+v", cfg.SPI)
	}
	if cfg.GPIO.IRQPin != "GPIO25" || cfg.GPIO.SecondaryIRQPin != "GPIO26" {
		t.Errorf("GPIO section mismatch: %+v", cfg.GPIO)
	}
	if cfg.Persist.Path != "/var/lib/openlrs/bind.dat" {
		t.Errorf("Persist section mismatch: %+v", cfg.Persist)
	}
	if cfg.Bench == nil {
		t.Fatal("expected bench section to be present")
	}
}

func TestBenchConfigBindData(t *testing.T) {
	b := &BenchConfig{
		Version:          model.BindingVersion,
		RFFrequency:      433920000,
		RFMagic:          0x11223344,
		RFPower:          4,
		RFChannelSpacing: 1,
		ModemParams:      2,
		Flags:            4,
		HopChannel:       []byte{3, 9, 17, 0},
	}
	bd := b.BindData()
	if bd.Version != model.BindingVersion {
		t.Errorf("Version = %d, want %d", bd.Version, model.BindingVersion)
	}
	if bd.HopCount() != 3 {
		t.Errorf("HopCount() = %d, want 3", bd.HopCount())
	}
	if bd.HopChannel[0] != 3 || bd.HopChannel[1] != 9 || bd.HopChannel[2] != 17 {
		t.Errorf("HopChannel = %v", bd.HopChannel[:4])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/board.toml"); err == nil {
		t.Error("expected an error for a missing config file")
	}
}
