package emu

import (
	emucore "github.com/user-none/eblitui/api"
)

// Region is an alias for emucore.Region so internal code compiles unchanged.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// Pulldown describes how many scanlines the VDP generates per clock
// pulse to reach a host refresh rate, and the extra lines added on the
// first pulse of each frame.
type Pulldown struct {
	LinesPerCycle         int
	FirstFrameLinesAdjust int
}

// VideoStandard holds the timing of a broadcast standard.
type VideoStandard struct {
	Name        string
	CPUClockHz  int // Z80 clock frequency
	TotalHeight int // Total scanlines per frame
	TargetFPS   int
	Pulldown50  Pulldown
	Pulldown60  Pulldown
}

// NTSC: 3.579545 MHz, 262 scanlines, 60 Hz
var NTSCStandard = VideoStandard{
	Name:        "NTSC",
	CPUClockHz:  3579545,
	TotalHeight: 262,
	TargetFPS:   60,
	Pulldown50:  Pulldown{LinesPerCycle: 314, FirstFrameLinesAdjust: 2},
	Pulldown60:  Pulldown{LinesPerCycle: 262},
}

// PAL: 3.546893 MHz, 313 scanlines, 50 Hz
var PALStandard = VideoStandard{
	Name:        "PAL",
	CPUClockHz:  3546893,
	TotalHeight: 313,
	TargetFPS:   50,
	Pulldown50:  Pulldown{LinesPerCycle: 313},
	Pulldown60:  Pulldown{LinesPerCycle: 261, FirstFrameLinesAdjust: -1},
}

// Pulldown returns the cadence used when the host refreshes at hz.
// Anything other than 50 falls back to the 60 Hz cadence.
func (s VideoStandard) Pulldown(hz int) Pulldown {
	if hz == 50 {
		return s.Pulldown50
	}
	return s.Pulldown60
}

// StandardForRegion returns the video standard of a region.
func StandardForRegion(r Region) VideoStandard {
	if r == RegionPAL {
		return PALStandard
	}
	return NTSCStandard
}

// GetTimingForRegion returns the emucore timing of a region.
func GetTimingForRegion(r Region) emucore.Timing {
	s := StandardForRegion(r)
	return emucore.Timing{FPS: s.TargetFPS, Scanlines: s.TotalHeight}
}

// DefaultRegion returns the default region (NTSC).
// MSX cartridges carry no region marker, so use the --region flag for PAL software.
func DefaultRegion() Region {
	return RegionNTSC
}

// DetectRegionFromROM reports whether the ROM declares a region.
// Cartridge headers never do, so the result is always (NTSC, false).
func DetectRegionFromROM(rom []byte) (Region, bool) {
	return RegionNTSC, false
}

// HasCartridgeHeader reports whether rom starts with the "AB" signature
// MSX BIOSes look for when scanning cartridge slots.
func HasCartridgeHeader(rom []byte) bool {
	return len(rom) >= 16 && rom[0] == 'A' && rom[1] == 'B'
}
