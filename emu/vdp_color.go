package emu

// Pixels are packed as 0xAABBGGRR so that the little-endian byte order
// of a frame buffer row is R, G, B, A.

var (
	color2to8 = [4]uint32{0, 73, 146, 255}
	color3to8 = [8]uint32{0, 36, 73, 109, 146, 182, 219, 255}
)

// colors512 holds the packed value of every 9-bit GRB color.
var colors512 = func() (t [512]uint32) {
	for c := range t {
		t[c] = 0xff000000 | color3to8[c&0x07]<<16 | color3to8[c>>6]<<8 | color3to8[(c>>3)&0x07]
	}
	return t
}()

// colors256 holds the packed value of every 8-bit GGGRRRBB color (G7 bitmap).
var colors256 = func() (t [256]uint32) {
	for c := range t {
		t[c] = 0xff000000 | color2to8[c&0x03]<<16 | color3to8[c>>5]<<8 | color3to8[(c>>2)&0x07]
	}
	return t
}()

// Fixed palette used for sprites in G7, where the bitmap carries
// direct colors and the palette registers are ignored.
var colorPaletteG7 = [16]uint32{
	0xff000000, 0xff490000, 0xff00006d, 0xff49006d, 0xff006d00, 0xff496d00, 0xff006d6d, 0xff496d6d,
	0xff4992ff, 0xffff0000, 0xff0000ff, 0xffff00ff, 0xff00ff00, 0xffffff00, 0xff00ffff, 0xffffffff,
}

// TMS9918 colors. The V9918 has no palette registers.
var colorPaletteInitialV9918 = [16]uint32{
	0xff000000, 0xff000000, 0xff28ca07, 0xff65e23d, 0xfff04444, 0xfff46d70, 0xff1330d0, 0xfff0e840,
	0xff4242f3, 0xff7878f4, 0xff30cad0, 0xff89dcdc, 0xff20a906, 0xffc540da, 0xffbcbcbc, 0xffffffff,
}

// Power-on palette of the V9938 as 9-bit GRB values.
var paletteInitialGRBV9938 = [16]uint16{
	0x000, 0x000, 0x189, 0x1db, 0x04f, 0x0d7, 0x069, 0x197,
	0x079, 0x0fb, 0x1b1, 0x1b4, 0x109, 0x0b5, 0x16d, 0x1ff,
}

// Backdrop used while a pattern debug mode is active.
const debugBackdropValue uint32 = 0xff2a2a2a

// paletteGRB folds a palette register value (0000 0GGG 0RRR 0BBB) into 9-bit GRB.
func paletteGRB(val uint16) int {
	return int((val&0x700)>>2 | (val&0x70)>>1 | val&0x07)
}

// paletteRegisterValue expands a 9-bit GRB color into palette register form.
func paletteRegisterValue(grb uint16) uint16 {
	return (grb>>6)<<8 | ((grb>>3)&0x07)<<4 | grb&0x07
}

func (v *VDP) initColorPalette() {
	for c := 0; c < 16; c++ {
		var value uint32
		if v.chip == ChipV9918 {
			v.paletteRegister[c] = 0
			value = colorPaletteInitialV9918[c]
		} else {
			v.paletteRegister[c] = paletteRegisterValue(paletteInitialGRBV9938[c])
			value = colors512[paletteInitialGRBV9938[c]]
		}
		v.colorPalette[c] = value
		v.colorPalette[c+16] = value
	}
}

// writePaletteRegister updates palette entry reg and its derived colors.
// Nothing is recomputed when the raw value does not change.
func (v *VDP) writePaletteRegister(reg int, val uint16) {
	if v.paletteRegister[reg] == val {
		return
	}
	v.paletteRegister[reg] = val

	value := colors512[paletteGRB(val)]
	if reg == 0 {
		if v.color0Solid {
			v.colorPalette[0] = value
		}
	} else {
		v.colorPalette[reg] = value
	}
	v.colorPalette[reg+16] = value

	if reg == int(v.backdropColor) {
		v.updateBackdropValue(false)
	} else if v.mode == 4 && reg <= 3 {
		v.updateBackdropCachesG5()
	}
}

func (v *VDP) updateTransparency() {
	v.color0Solid = v.register[8]&0x20 != 0
	if v.color0Solid {
		v.colorPalette[0] = v.colorPalette[16]
	} else {
		v.colorPalette[0] = v.backdropValue
	}
}

func (v *VDP) updateBackdropColor(force bool) {
	mask := uint8(0x0f)
	if v.mode == 7 {
		mask = 0xff
	}
	v.backdropColor = v.register[7] & mask
	v.updateBackdropValue(force)
}

func (v *VDP) updateBackdropValue(force bool) {
	var value uint32
	switch {
	case v.debugPatternInfo:
		value = debugBackdropValue
	case v.mode == 7:
		value = colors256[v.backdropColor]
	default:
		// solid regardless of TP
		value = v.colorPalette[int(v.backdropColor&0x0f)+16]
	}

	if v.backdropValue == value && !force {
		return
	}
	v.backdropValue = value
	if !v.color0Solid && v.mode != 7 {
		v.colorPalette[0] = value
	}
	v.updateBackdropCaches()
}

func (v *VDP) updateBackdropCaches() {
	if v.mode == 4 && !v.debugPatternInfo {
		v.updateBackdropCachesG5()
		return
	}
	for i := range v.backdropLine {
		v.backdropLine[i] = v.backdropValue
	}
}

// In G5 the 4-bit backdrop color is two 2-bit pixels.
func (v *VDP) updateBackdropCachesG5() {
	odd := v.colorPalette[v.backdropColor>>2]
	even := v.colorPalette[v.backdropColor&0x03]
	for i := 0; i < LineWidth; i += 2 {
		v.backdropLine[i] = odd
		v.backdropLine[i+1] = even
	}
}

// ColorPalette returns the packed pixel value currently used for color c.
// Values 16-31 hold the solid colors regardless of transparency.
func (v *VDP) ColorPalette(c int) uint32 {
	return v.colorPalette[c&0x1f]
}

// BackdropValue returns the packed pixel value of the border color.
func (v *VDP) BackdropValue() uint32 {
	return v.backdropValue
}
