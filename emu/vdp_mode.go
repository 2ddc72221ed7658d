package emu

// lineRenderer identifies the routine that paints one scanline.
type lineRenderer uint8

const (
	renderBorder lineRenderer = iota
	renderBlanked
	renderT1
	renderT2
	renderMC
	renderG1
	renderG2
	renderG3
	renderG4
	renderG5
	renderG6
	renderG7
	renderT1Debug
	renderMCDebug
	renderG1Debug
	renderG2Debug
)

// modeInfo describes one display mode. Table bases are masks applied to
// the register-derived addresses: the low bits they clear are the bits
// the mode does not use from the registers.
type modeInfo struct {
	code         uint8
	name         string
	v9938        bool
	layTBase     int
	colorTBase   int
	patTBase     int
	sprAttrTBase int
	sprPatTBase  int
	width        int
	layLineBytes int
	pageSize     int
	renderer     lineRenderer
	debugRender  lineRenderer
	spriteMode   int
}

// Fixed OR-masks keeping table fetches inside their window.
const (
	layoutTableAddressMaskBase  = 1<<10 - 1
	colorTableAddressMaskBase   = 1<<6 - 1
	patternTableAddressMaskBase = 1<<11 - 1
)

var modeInvalid = modeInfo{
	code: 0xff, name: "Invalid", v9938: true,
	layTBase: -1 << 10, colorTBase: -1 << 6, patTBase: -1 << 11, sprAttrTBase: -1 << 7, sprPatTBase: -1 << 11,
	renderer: renderBorder, debugRender: renderBorder,
}

// modeTable maps every 5-bit mode code to its descriptor. Only 10 codes
// are valid; the rest paint borders only.
var modeTable = func() (t [32]*modeInfo) {
	for i := range t {
		t[i] = &modeInvalid
	}
	t[0x10] = &modeInfo{code: 0x10, name: "T1 (Screen 0)",
		layTBase: -1 << 10, patTBase: -1 << 11,
		width: 256, renderer: renderT1, debugRender: renderT1Debug}
	t[0x12] = &modeInfo{code: 0x12, name: "T2 (Screen 0 width 80)", v9938: true,
		layTBase: -1 << 12, colorTBase: -1 << 9, patTBase: -1 << 11,
		width: 512, renderer: renderT2, debugRender: renderT2}
	t[0x08] = &modeInfo{code: 0x08, name: "MC (Screen 3)",
		layTBase: -1 << 10, patTBase: -1 << 11, sprAttrTBase: -1 << 7, sprPatTBase: -1 << 11,
		width: 256, renderer: renderMC, debugRender: renderMCDebug, spriteMode: 1}
	t[0x00] = &modeInfo{code: 0x00, name: "G1 (Screen 1)",
		layTBase: -1 << 10, colorTBase: -1 << 6, patTBase: -1 << 11, sprAttrTBase: -1 << 7, sprPatTBase: -1 << 11,
		width: 256, renderer: renderG1, debugRender: renderG1Debug, spriteMode: 1}
	t[0x01] = &modeInfo{code: 0x01, name: "G2 (Screen 2)",
		layTBase: -1 << 10, colorTBase: -1 << 13, patTBase: -1 << 13, sprAttrTBase: -1 << 7, sprPatTBase: -1 << 11,
		width: 256, renderer: renderG2, debugRender: renderG2Debug, spriteMode: 1}
	t[0x02] = &modeInfo{code: 0x02, name: "G3 (Screen 4)", v9938: true,
		layTBase: -1 << 10, colorTBase: -1 << 13, patTBase: -1 << 13, sprAttrTBase: -1 << 10, sprPatTBase: -1 << 11,
		width: 256, renderer: renderG3, debugRender: renderG2Debug, spriteMode: 2}
	t[0x03] = &modeInfo{code: 0x03, name: "G4 (Screen 5)", v9938: true,
		layTBase: -1 << 15, sprAttrTBase: -1 << 10, sprPatTBase: -1 << 11,
		width: 256, layLineBytes: 128, pageSize: 32768, renderer: renderG4, debugRender: renderG4, spriteMode: 2}
	t[0x04] = &modeInfo{code: 0x04, name: "G5 (Screen 6)", v9938: true,
		layTBase: -1 << 15, sprAttrTBase: -1 << 10, sprPatTBase: -1 << 11,
		width: 512, layLineBytes: 128, pageSize: 32768, renderer: renderG5, debugRender: renderG5, spriteMode: 2}
	t[0x05] = &modeInfo{code: 0x05, name: "G6 (Screen 7)", v9938: true,
		layTBase: -1 << 16, sprAttrTBase: -1 << 10, sprPatTBase: -1 << 11,
		width: 512, layLineBytes: 256, pageSize: 65536, renderer: renderG6, debugRender: renderG6, spriteMode: 2}
	t[0x07] = &modeInfo{code: 0x07, name: "G7 (Screen 8)", v9938: true,
		layTBase: -1 << 16, sprAttrTBase: -1 << 10, sprPatTBase: -1 << 11,
		width: 256, layLineBytes: 256, pageSize: 65536, renderer: renderG7, debugRender: renderG7, spriteMode: 2}
	return t
}()

// modeCode combines M1/M2 from register 1 with M3/M4/M5 from register 0.
func modeCode(reg0, reg1 uint8) uint8 {
	return (reg1 & 0x18) | (reg0&0x0e)>>1
}

func (v *VDP) updateMode() {
	oldMode := v.mode
	v.mode = modeCode(v.register[0], v.register[1])
	v.modeData = modeTable[v.mode]
	if v.chip == ChipV9918 && v.modeData.v9938 {
		v.modeData = &modeInvalid
	}

	v.updateLayoutTableAddress()
	v.updateColorTableAddress()
	v.updatePatternTableAddress()
	v.updateSpriteAttrTableAddress()
	v.updateSpritePatternTableAddress()

	if v.mode == 7 || oldMode == 7 {
		v.updateBackdropColor(true)
	} else if v.mode == 4 || oldMode == 4 {
		v.updateBackdropCaches()
	}

	v.updateLineActiveType()
	v.updateSpritesLineType()
	v.updateSignalMetrics()
	v.cmd.SetMode(v.mode)
}

// G7 places the layout table A16 bit one position higher than other modes.
func (v *VDP) updateLayoutTableAddress() {
	var add int
	if v.mode == 7 {
		add = (int(v.register[2])<<11 | 0x400) & vramMask
	} else {
		add = int(v.register[2]) << 10 & vramMask
	}
	v.layoutTableAddress = add & v.modeData.layTBase
	v.layoutTableAddressMask = add | layoutTableAddressMaskBase
}

func (v *VDP) updateColorTableAddress() {
	add := (int(v.register[10])<<14 | int(v.register[3])<<6) & vramMask
	v.colorTableAddress = add & v.modeData.colorTBase
	v.colorTableAddressMask = add | colorTableAddressMaskBase
}

func (v *VDP) updatePatternTableAddress() {
	add := int(v.register[4]) << 11 & vramMask
	v.patternTableAddress = add & v.modeData.patTBase
	v.patternTableAddressMask = add | patternTableAddressMaskBase
}

func (v *VDP) updateSpriteAttrTableAddress() {
	add := (int(v.register[11])<<15 | int(v.register[5])<<7) & vramMask
	v.spriteAttrTableAddress = add & v.modeData.sprAttrTBase
}

func (v *VDP) updateSpritePatternTableAddress() {
	add := int(v.register[6]) << 11 & vramMask
	v.spritePatternTableAddress = add & v.modeData.sprPatTBase
}

func (v *VDP) updateLineActiveType() {
	switch {
	case v.register[1]&0x40 == 0:
		v.renderLineActive = renderBlanked
	case v.debugPatternInfo:
		v.renderLineActive = v.modeData.debugRender
	default:
		v.renderLineActive = v.modeData.renderer
	}
	v.pendingBlankingChange = false
}

// updateSpritesLineType selects the sprite generation and size for the
// mode. SPD in register 8 disables generation 2 sprites.
func (v *VDP) updateSpritesLineType() {
	v.spriteSize = int(v.register[1] & 0x03)
	switch v.modeData.spriteMode {
	case 1:
		v.spriteGen = 1
	case 2:
		if v.register[8]&0x02 == 0 {
			v.spriteGen = 2
		} else {
			v.spriteGen = 0
		}
	default:
		v.spriteGen = 0
	}
}

// TableAddresses reports the resolved base addresses of the layout,
// color, pattern, sprite attribute and sprite pattern tables.
func (v *VDP) TableAddresses() (layout, color, pattern, spriteAttr, spritePattern int) {
	return v.layoutTableAddress, v.colorTableAddress, v.patternTableAddress,
		v.spriteAttrTableAddress, v.spritePatternTableAddress
}
