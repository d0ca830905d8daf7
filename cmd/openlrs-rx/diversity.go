// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package main

import (
	"github.com/tve/openlrs"
	"github.com/tve/openlrs/collab"
	"github.com/tve/openlrs/model"
)

// diversitySide implements collab.PPMSink for one leg of a diversity pair.
// spec.md defines the DIVERSITY_ENABLED flag's effect on airtime accounting
// but leaves the selection policy between two concurrent receptions open
// (see DESIGN.md "Diversity selection policy"); this command resolves it as
// best-RSSI-wins: a leg only forwards a decoded frame downstream when its
// own smoothed RSSI is at least as strong as its partner's at that instant,
// so the combined stream carries each frame once, from whichever RFM22B
// currently has the stronger link.
type diversitySide struct {
	self  *openlrs.Link
	other *openlrs.Link
	sink  collab.PPMSink
}

func (d *diversitySide) OnPPM(ppm [model.PPMChannels]uint16) {
	if d.self.RSSISmooth() >= d.other.RSSISmooth() {
		d.sink.OnPPM(ppm)
	}
}
