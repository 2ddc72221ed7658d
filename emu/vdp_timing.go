package emu

// VDP base clock is 6x the CPU clock (2147727 Hz on NTSC machines).
const vdpClocksPerCPUCycle = 6

// ClockPulse runs one scheduler cycle: the number of scanlines the
// current pulldown cadence asks for, then hands a finished frame to the
// video signal if one completed.
func (v *VDP) ClockPulse() {
	v.frameEvents()
	if v.refreshPending {
		v.refresh()
	}
}

// Total frame lines: 262 for NTSC, 313 for PAL.
func (v *VDP) frameEvents() {
	totalLines := v.scanlinesPerCycle
	if v.pulldownFirstFrameLinesAdjust != 0 && v.currentScanline == v.startingScanline {
		totalLines += v.pulldownFirstFrameLinesAdjust
	}

	for i := totalLines; i > 0; i-- {
		if v.currentScanline == v.startingActiveScanline {
			v.inActiveDisplay = true
		} else if v.currentScanline == v.startingBottomBorderScanline {
			v.inActiveDisplay = false
		}

		v.lineEvents()

		v.currentScanline++
		if v.currentScanline >= v.finishingScanline {
			v.finishFrame()
		}
	}
}

// lineEvents runs one scanline: 228 CPU cycles and 7 audio pulses.
// The line starts at the right border and ends with the visible display.
func (v *VDP) lineEvents() {
	if v.pendingBlankingChange {
		v.updateLineActiveType()
	}

	// Sync and left erase
	v.cpu.ClockPulses(33)
	v.audio.ClockPulse()

	// Left border
	if v.currentScanline == v.startingActiveScanline-1 {
		v.status[2] &^= 0x40 // VR
	}
	if v.status[1]&0x01 != 0 && v.register[0]&0x10 == 0 {
		v.status[1] &^= 0x01 // FH, when IE1 is off
	}
	if v.currentScanline == v.startingBottomBorderScanline {
		v.triggerVerticalInterrupt()
	}

	v.cpu.ClockPulses(10)

	// Visible display
	v.status[2] &^= 0x20 // HR

	v.cpu.ClockPulses(22)
	v.audio.ClockPulse()
	v.cpu.ClockPulses(33)
	v.audio.ClockPulse()
	v.cpu.ClockPulses(32)
	v.audio.ClockPulse()

	if v.currentScanline >= v.startingTopBorderScanline {
		v.renderLine()
	}

	v.cpu.ClockPulses(33)
	v.audio.ClockPulse()
	v.cpu.ClockPulses(32)
	v.audio.ClockPulse()
	v.cpu.ClockPulses(18)

	v.status[2] |= 0x20 // HR
	if v.currentScanline-v.startingActiveScanline == v.horizontalIntLine {
		v.triggerHorizontalInterrupt()
	}

	// Right border and erase
	v.cpu.ClockPulses(15)
	v.audio.ClockPulse()
}

func (v *VDP) triggerVerticalInterrupt() {
	v.status[2] |= 0x40 // VR
	if !v.verticalIntReached {
		v.verticalIntReached = true // F
		v.updateIRQ()
	}
}

func (v *VDP) triggerHorizontalInterrupt() {
	if v.status[1]&0x01 == 0 {
		v.status[1] |= 0x01 // FH
		v.updateIRQ()
	}
}

// interruptLine reports whether INT is asserted: F with IE0, or FH with IE1.
func (v *VDP) interruptLine() bool {
	return (v.verticalIntReached && v.register[1]&0x20 != 0) ||
		(v.status[1]&0x01 != 0 && v.register[0]&0x10 != 0)
}

func (v *VDP) updateIRQ() {
	if v.interruptLine() {
		v.cpu.SetINT(0)
	} else {
		v.cpu.SetINT(1)
	}
}

func (v *VDP) refresh() {
	v.signal.NewFrame(v.frontBuffer, 0, 0, v.frontWidth, v.frontHeight)
	v.refreshPending = false
}

func (v *VDP) finishFrame() {
	copy(v.frontBuffer, v.frameBuffer)
	v.frontWidth = v.signalWidth
	v.frontHeight = v.signalHeight
	v.refreshPending = true
	v.frame++
	v.beginFrame()
}

func (v *VDP) beginFrame() {
	v.currentScanline = v.startingScanline

	if v.blinkPageDuration > 0 {
		v.blinkPageDuration--
		if v.blinkPageDuration == 0 {
			v.blinkEvenPage = !v.blinkEvenPage
			shift := 0
			if v.blinkEvenPage {
				shift = 4
			}
			v.blinkPageDuration = int((v.register[13]>>shift)&0x0f) * 10 // frames
		}
	}

	// Field alternance
	v.status[2] ^= 0x02 // EO

	if v.register[9]&0x08 != 0 { // IL
		if v.status[2]&0x02 != 0 {
			v.bufferPosition = LineWidth
		} else {
			v.bufferPosition = 0
		}
		v.bufferLineAdvance = LineWidth * 2
	} else {
		v.bufferPosition = 0
		v.bufferLineAdvance = LineWidth
	}

	v.updatePageAlternance()
}

func (v *VDP) updateBlinking() {
	switch {
	case v.register[13]>>4 == 0:
		// fixed on the odd page
		v.blinkEvenPage = false
		v.blinkPageDuration = 0
	case v.register[13]&0x0f == 0:
		// fixed on the even page
		v.blinkEvenPage = true
		v.blinkPageDuration = 0
	default:
		// alternate, starting with the even page
		v.blinkEvenPage = true
		v.blinkPageDuration = 1
	}
}

// updatePageAlternance selects the bitmap page shown this frame from the
// blink state and EO (register 9 bit 2 together with the field flag).
func (v *VDP) updatePageAlternance() {
	if v.blinkEvenPage || (v.register[9]&0x04 != 0 && v.status[2]&0x02 == 0) {
		v.alternativePageOffset = -v.modeData.pageSize
	} else {
		v.alternativePageOffset = 0
	}
}

func (v *VDP) updateSignalMetrics() {
	var height, vertBorderHeight int

	if v.chip == ChipV9918 {
		height, vertBorderHeight = 192, 8
		v.signalWidth = 256 + 8*2
		v.signalHeight = 192 + 8*2
	} else {
		if v.modeData.width == 512 {
			v.signalWidth = 512 + 16*2
		} else {
			v.signalWidth = 256 + 8*2
		}
		if v.register[9]&0x08 != 0 { // IL
			v.signalHeight = 424 + 16*2
		} else {
			v.signalHeight = 212 + 8*2
		}
		if v.register[9]&0x80 != 0 { // LN
			height, vertBorderHeight = 212, 8
		} else {
			height, vertBorderHeight = 192, 18
		}
	}

	v.startingTopBorderScanline = 0
	v.startingActiveScanline = v.startingTopBorderScanline + vertBorderHeight + v.verticalAdjust
	v.startingBottomBorderScanline = v.startingActiveScanline + height
	v.finishingScanline = v.startingBottomBorderScanline + vertBorderHeight - v.verticalAdjust
	v.startingScanline = v.finishingScanline - v.standard.TotalHeight
}

// updateSynchronization picks the pulldown cadence: the host refresh
// rate when it is a known 50 or 60 Hz, else the standard's own rate.
func (v *VDP) updateSynchronization() {
	base := v.standard.TargetFPS
	if v.hostRefresh == 50 || v.hostRefresh == 60 {
		base = v.hostRefresh
	}
	p := v.standard.Pulldown(base)
	v.scanlinesPerCycle = p.LinesPerCycle
	v.pulldownFirstFrameLinesAdjust = p.FirstFrameLinesAdjust
}

// SetVideoStandard switches between NTSC and PAL timing. A scanline
// position made invalid by a shorter frame is pulled forward.
func (v *VDP) SetVideoStandard(std VideoStandard) {
	v.standard = std
	v.updateSynchronization()
	v.updateSignalMetrics()
	if v.currentScanline < v.startingScanline {
		v.currentScanline = v.startingScanline
	}
}

// Standard returns the active timing standard.
func (v *VDP) Standard() VideoStandard {
	return v.standard
}

// SetHostRefresh sets the host display rate used to pick the pulldown
// cadence. Zero, or any rate other than 50 or 60, uses the standard's rate.
func (v *VDP) SetHostRefresh(hz int) {
	v.hostRefresh = hz
	v.updateSynchronization()
}

// CyclesPerSecond returns the rate at which ClockPulse must be called.
func (v *VDP) CyclesPerSecond() int {
	if v.hostRefresh == 50 || v.hostRefresh == 60 {
		return v.hostRefresh
	}
	return v.standard.TargetFPS
}

// ScanlinesPerCycle returns the lines generated by one ClockPulse, not
// counting the first-frame pulldown adjust.
func (v *VDP) ScanlinesPerCycle() int {
	return v.scanlinesPerCycle
}

// UpdateCycles folds the CPU cycles executed since the last call into
// the VDP clock count and returns it.
func (v *VDP) UpdateCycles() int64 {
	cpuCycles := v.cpu.Cycles()
	if cpuCycles == v.lastCPUCyclesComputed {
		return v.cycles
	}
	v.cycles += (cpuCycles - v.lastCPUCyclesComputed) * vdpClocksPerCPUCycle
	v.lastCPUCyclesComputed = cpuCycles
	return v.cycles
}

// ActiveBoundaries returns the first active line, the first bottom border
// line and the line that ends the frame.
func (v *VDP) ActiveBoundaries() (active, bottom, finish int) {
	return v.startingActiveScanline, v.startingBottomBorderScanline, v.finishingScanline
}
