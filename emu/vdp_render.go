package emu

// renderLine paints the current scanline at the buffer cursor and
// advances the cursor by one line, or two when interlaced.
func (v *VDP) renderLine() {
	pos := v.bufferPosition
	v.bufferPosition += v.bufferLineAdvance
	if pos+LineWidth > len(v.frameBuffer) {
		return
	}

	r := renderBorder
	if v.inActiveDisplay {
		r = v.renderLineActive
	}
	realLine := (v.currentScanline - v.startingActiveScanline + int(v.register[23])) & 0xff

	switch r {
	case renderBorder, renderBlanked:
		copy(v.frameBuffer[pos:pos+LineWidth], v.backdropLine[:])
	case renderT1:
		v.renderLineT1(pos, realLine)
	case renderT2:
		v.renderLineT2(pos, realLine)
	case renderMC:
		v.renderLineMC(pos, realLine)
	case renderG1:
		v.renderLineG1(pos, realLine)
	case renderG2, renderG3:
		v.renderLineG2(pos, realLine)
	case renderG4:
		v.renderLineG4(pos, realLine)
	case renderG5:
		v.renderLineG5(pos, realLine)
	case renderG6:
		v.renderLineG6(pos, realLine)
	case renderG7:
		v.renderLineG7(pos, realLine)
	case renderT1Debug:
		v.renderLineT1Debug(pos, realLine)
	case renderMCDebug:
		v.renderLineMCDebug(pos, realLine)
	case renderG1Debug:
		v.renderLineG1Debug(pos, realLine)
	case renderG2Debug:
		v.renderLineG2Debug(pos, realLine)
	}
}

// Text 1 (Screen 0 width 40): 40 columns of 6 pixels, no sprites.
func (v *VDP) renderLineT1(pos, realLine int) {
	v.paintBackdrop(pos, 24)
	v.paintBackdrop(pos+256-8, 24)
	pos += 16 + v.horizontalAdjust

	patPos := v.layoutTableAddress + (realLine>>3)*40
	lineInPattern := v.patternTableAddress + realLine&0x07
	colorCode := v.register[7] // one color pair for the whole screen
	on := v.colorPalette[colorCode>>4]
	off := v.colorPalette[colorCode&0x0f]
	for col := 0; col < 40; col++ {
		name := int(v.vram[(patPos+col)&vramMask])
		pattern := v.vram[((name<<3)+lineInPattern)&vramMask]
		v.paintPattern6(pos, pattern, on, off)
		pos += 6
	}
}

// Text 2 (Screen 0 width 80): 80 columns of 6 pixels. While the even
// blink page is shown, each column with its blink bit set takes the
// register 12 colors.
func (v *VDP) renderLineT2(pos, realLine int) {
	v.paintBackdrop(pos, 48)
	v.paintBackdrop(pos+512-16, 48)
	pos += 32 + v.horizontalAdjust*2

	patPos := v.layoutTableAddress + (realLine>>3)*80
	lineInPattern := v.patternTableAddress + realLine&0x07

	if !v.blinkEvenPage {
		colorCode := v.register[7]
		on := v.colorPalette[colorCode>>4]
		off := v.colorPalette[colorCode&0x0f]
		for col := 0; col < 80; col++ {
			name := int(v.vram[(patPos+col)&v.layoutTableAddressMask])
			pattern := v.vram[((name<<3)+lineInPattern)&vramMask]
			v.paintPattern6(pos, pattern, on, off)
			pos += 6
		}
		return
	}

	blinkPos := v.colorTableAddress + (realLine>>3)*10
	for col := 0; col < 80; col++ {
		blink := (v.vram[(blinkPos+col>>3)&v.colorTableAddressMask]>>(7-col&0x07))&0x01 != 0
		name := int(v.vram[(patPos+col)&v.layoutTableAddressMask])
		pattern := v.vram[((name<<3)+lineInPattern)&vramMask]
		colorCode, bank := v.register[7], 0
		if blink {
			// blink colors are always solid, so read the upper bank
			colorCode, bank = v.register[12], 16
		}
		on := v.colorPalette[int(colorCode>>4)+bank]
		off := v.colorPalette[int(colorCode&0x0f)+bank]
		v.paintPattern6(pos, pattern, on, off)
		pos += 6
	}
}

// Multicolor (Screen 3): each name selects a 4x4 block pair of colors.
func (v *VDP) renderLineMC(pos, realLine int) {
	v.paintBackdrop(pos, 16)
	v.paintBackdrop(pos+256, 16)
	pos += 8 + v.horizontalAdjust
	start := pos

	patPos := v.layoutTableAddress + (realLine>>3)<<5
	extraPatPos := v.patternTableAddress + ((realLine>>3)&0x03)<<1 + (realLine>>2)&0x01
	for col := 0; col < 32; col++ {
		name := int(v.vram[(patPos+col)&vramMask])
		colorCode := v.vram[((name<<3)+extraPatPos)&vramMask]
		v.paintPattern(pos, 0xf0, v.colorPalette[colorCode>>4], v.colorPalette[colorCode&0x0f])
		pos += 8
	}

	v.renderSprites(realLine, start, v.colorPalette[:16])
}

// Graphics 1 (Screen 1): one color byte for each group of 8 names.
func (v *VDP) renderLineG1(pos, realLine int) {
	v.paintBackdrop(pos, 16)
	v.paintBackdrop(pos+256, 16)
	pos += 8 + v.horizontalAdjust
	start := pos

	patPos := v.layoutTableAddress + (realLine>>3)<<5
	lineInPattern := v.patternTableAddress + realLine&0x07
	for col := 0; col < 32; col++ {
		name := int(v.vram[(patPos+col)&vramMask])
		colorCode := v.vram[(v.colorTableAddress+name>>3)&vramMask]
		pattern := v.vram[((name<<3)+lineInPattern)&vramMask]
		v.paintPattern(pos, pattern, v.colorPalette[colorCode>>4], v.colorPalette[colorCode&0x0f])
		pos += 8
	}

	v.renderSprites(realLine, start, v.colorPalette[:16])
}

// Graphics 2 and 3 (Screen 2 and 4): the screen is split in thirds,
// each with its own 256 patterns and a color byte per pattern line. The
// color and pattern masks fold the thirds back when the table registers
// say so.
func (v *VDP) renderLineG2(pos, realLine int) {
	v.paintBackdrop(pos, 16)
	v.paintBackdrop(pos+256, 16)
	pos += 8 + v.horizontalAdjust
	start := pos

	patPos := v.layoutTableAddress + (realLine>>3)<<5
	lineInColor := v.colorTableAddress + realLine&0x07
	lineInPattern := v.patternTableAddress + realLine&0x07
	blockExtra := (realLine & 0xc0) << 2
	for col := 0; col < 32; col++ {
		name := int(v.vram[(patPos+col)&vramMask]) | blockExtra
		colorCode := v.vram[((name<<3)+lineInColor)&v.colorTableAddressMask]
		pattern := v.vram[((name<<3)+lineInPattern)&v.patternTableAddressMask]
		v.paintPattern(pos, pattern, v.colorPalette[colorCode>>4], v.colorPalette[colorCode&0x0f])
		pos += 8
	}

	v.renderSprites(realLine, start, v.colorPalette[:16])
}

// Graphics 4 (Screen 5): 256 pixels of 4 bits, 128 bytes per line.
func (v *VDP) renderLineG4(pos, realLine int) {
	v.paintBackdrop(pos, 16)
	v.paintBackdrop(pos+256, 16)
	pos += 8 + v.horizontalAdjust
	start := pos

	pixelsPos := v.layoutTableAddress + v.alternativePageOffset + realLine<<7
	for i := 0; i < 128; i++ {
		pixels := v.vram[(pixelsPos+i)&v.layoutTableAddressMask]
		v.frameBuffer[pos] = v.colorPalette[pixels>>4]
		v.frameBuffer[pos+1] = v.colorPalette[pixels&0x0f]
		pos += 2
	}

	v.renderSprites(realLine, start, v.colorPalette[:16])
}

// Graphics 5 (Screen 6): 512 pixels of 2 bits, 128 bytes per line.
//
// Sprites are composited as in the 256 pixel modes, into the left half
// of the line at single width. Proper double-width sprites are not
// implemented for this mode.
func (v *VDP) renderLineG5(pos, realLine int) {
	v.paintBackdropG5(pos, 32)
	v.paintBackdropG5(pos+512, 32)
	pos += 16 + v.horizontalAdjust*2
	start := pos

	pixelsPos := v.layoutTableAddress + v.alternativePageOffset + realLine<<7
	for i := 0; i < 128; i++ {
		pixels := v.vram[(pixelsPos+i)&v.layoutTableAddressMask]
		v.frameBuffer[pos] = v.colorPalette[pixels>>6]
		v.frameBuffer[pos+1] = v.colorPalette[(pixels>>4)&0x03]
		v.frameBuffer[pos+2] = v.colorPalette[(pixels>>2)&0x03]
		v.frameBuffer[pos+3] = v.colorPalette[pixels&0x03]
		pos += 4
	}

	v.renderSprites(realLine, start, v.colorPalette[:16])
}

// Graphics 6 (Screen 7): 512 pixels of 4 bits, 256 bytes per line.
// Sprites have the same limitation as in Graphics 5.
func (v *VDP) renderLineG6(pos, realLine int) {
	v.paintBackdrop(pos, 32)
	v.paintBackdrop(pos+512, 32)
	pos += 16 + v.horizontalAdjust*2
	start := pos

	pixelsPos := v.layoutTableAddress + v.alternativePageOffset + realLine<<8
	for i := 0; i < 256; i++ {
		pixels := v.vram[(pixelsPos+i)&v.layoutTableAddressMask]
		v.frameBuffer[pos] = v.colorPalette[pixels>>4]
		v.frameBuffer[pos+1] = v.colorPalette[pixels&0x0f]
		pos += 2
	}

	v.renderSprites(realLine, start, v.colorPalette[:16])
}

// Graphics 7 (Screen 8): 256 pixels of 8 bit direct color. Sprites use
// a fixed palette.
func (v *VDP) renderLineG7(pos, realLine int) {
	v.paintBackdrop(pos, 16)
	v.paintBackdrop(pos+256, 16)
	pos += 8 + v.horizontalAdjust
	start := pos

	pixelsPos := v.layoutTableAddress + v.alternativePageOffset + realLine<<8
	for i := 0; i < 256; i++ {
		v.frameBuffer[pos+i] = colors256[v.vram[(pixelsPos+i)&v.layoutTableAddressMask]]
	}

	v.renderSprites(realLine, start, colorPaletteG7[:])
}

func (v *VDP) paintPattern(pos int, pattern uint8, on, off uint32) {
	line := v.frameBuffer[pos : pos+8]
	for i := range line {
		if pattern&(0x80>>i) != 0 {
			line[i] = on
		} else {
			line[i] = off
		}
	}
}

// paintPattern6 paints the 6 leftmost bits of a text mode pattern.
func (v *VDP) paintPattern6(pos int, pattern uint8, on, off uint32) {
	line := v.frameBuffer[pos : pos+6]
	for i := range line {
		if pattern&(0x80>>i) != 0 {
			line[i] = on
		} else {
			line[i] = off
		}
	}
}

func (v *VDP) paintBackdrop(pos, n int) {
	line := v.frameBuffer[pos : pos+n]
	for i := range line {
		line[i] = v.backdropValue
	}
}

// paintBackdropG5 paints the two alternating 2 bit backdrop pixels.
func (v *VDP) paintBackdropG5(pos, n int) {
	odd, even := v.backdropLine[0], v.backdropLine[1]
	for i := 0; i < n; i += 2 {
		v.frameBuffer[pos+i] = odd
		v.frameBuffer[pos+i+1] = even
	}
}
