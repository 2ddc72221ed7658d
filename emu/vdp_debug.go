package emu

// Debug modes selected with SetDebugMode.
const (
	DebugOff = iota
	DebugSpritesHighlighted
	DebugSpriteNumbers
	DebugSpriteNames
	DebugSpritesHidden
	DebugPatternBits
	DebugPatternColorBlocks
	DebugPatternNames
	debugModeCount
)

// Sprite debug modes selected with SetSpriteDebugMode.
const (
	SpriteDebugNormal = iota
	SpriteDebugUnlimited
	SpriteDebugNoCollisions
	SpriteDebugUnlimitedNoCollisions
	spriteDebugModeCount
)

var debugModeNames = [debugModeCount]string{
	"OFF", "Sprites Highlighted", "Sprite Numbers", "Sprite Names",
	"Sprites Hidden", "Pattern Bits", "Pattern Color Blocks", "Pattern Names",
}

var spriteDebugModeNames = [spriteDebugModeCount]string{
	"Normal", "Unlimited", "No Collisions", "Unlimited, No Collisions",
}

// 3x5 hex digit glyphs, one string per row.
var debugDigitGlyphs = [16][5]string{
	{"111", "101", "101", "101", "111"}, {"110", "010", "010", "010", "111"},
	{"111", "001", "111", "100", "111"}, {"111", "001", "111", "001", "111"},
	{"101", "101", "111", "001", "001"}, {"111", "100", "111", "001", "111"},
	{"111", "100", "111", "101", "111"}, {"111", "001", "001", "001", "001"},
	{"111", "101", "111", "101", "111"}, {"111", "101", "111", "001", "001"},
	{"110", "001", "111", "101", "111"}, {"100", "100", "111", "101", "110"},
	{"000", "111", "100", "100", "111"}, {"001", "001", "111", "101", "111"},
	{"110", "101", "111", "100", "011"}, {"011", "100", "110", "100", "100"},
}

// debugPatternDigits holds an 8x8 pattern for every name showing its
// value as two hex digits over an underline.
var debugPatternDigits = func() (t [256 * 8]uint8) {
	bits := func(s string) uint8 {
		var b uint8
		for _, c := range s {
			b <<= 1
			if c == '1' {
				b |= 1
			}
		}
		return b
	}
	pos := 0
	for name := 0; name < 256; name++ {
		hi, lo := name>>4, name&0x0f
		for row := 0; row < 5; row++ {
			t[pos] = bits(debugDigitGlyphs[hi][row] + "0" + debugDigitGlyphs[lo][row] + "0")
			pos++
		}
		t[pos] = 0x00
		t[pos+1] = 0x7c
		t[pos+2] = 0x00
		pos += 3
	}
	return t
}()

var debugPatternBlock = [8]uint8{0x00, 0x7e, 0x7e, 0x7e, 0x7e, 0x7e, 0x7e, 0x00}

// SetDebugMode selects one of the eight debug views. Out of range values wrap.
func (v *VDP) SetDebugMode(mode int) {
	v.setDebugMode(wrapMode(mode, debugModeCount))
}

// DebugMode returns the current debug view and its name.
func (v *VDP) DebugMode() (int, string) {
	return v.debugMode, debugModeNames[v.debugMode]
}

// SetSpriteDebugMode selects the sprite limit and collision overrides.
// Out of range values wrap.
func (v *VDP) SetSpriteDebugMode(mode int) {
	v.setSpriteDebugMode(wrapMode(mode, spriteDebugModeCount))
}

// SpriteDebugMode returns the current sprite debug mode and its name.
func (v *VDP) SpriteDebugMode() (int, string) {
	return v.spriteDebugMode, spriteDebugModeNames[v.spriteDebugMode]
}

// DebugModeName returns the name of a debug view. Out of range values wrap.
func DebugModeName(mode int) string {
	return debugModeNames[wrapMode(mode, debugModeCount)]
}

// SpriteDebugModeName returns the name of a sprite debug mode.
func SpriteDebugModeName(mode int) string {
	return spriteDebugModeNames[wrapMode(mode, spriteDebugModeCount)]
}

func wrapMode(mode, count int) int {
	return ((mode % count) + count) % count
}

func (v *VDP) setDebugMode(mode int) {
	v.debugMode = mode
	v.debugPatternInfo = mode >= DebugPatternBits
	v.debugPatternInfoBlocks = mode == DebugPatternColorBlocks
	v.debugPatternInfoNames = mode == DebugPatternNames
	v.debugSpritesHidden = mode == DebugSpritesHidden
	v.updateLineActiveType()
	v.updateSpritesLineType()
	v.updateBackdropValue(true)
}

func (v *VDP) setSpriteDebugMode(mode int) {
	v.spriteDebugMode = mode
	v.spriteDebugLimit = mode == SpriteDebugNormal || mode == SpriteDebugNoCollisions
	v.spriteDebugCollisions = mode < SpriteDebugNoCollisions
}

// Text 1 with names, blocks or raw pattern bits in fixed colors.
func (v *VDP) renderLineT1Debug(pos, realLine int) {
	v.paintBackdrop(pos, 24)
	v.paintBackdrop(pos+256-8, 24)
	pos += 16 + v.horizontalAdjust

	patPos := v.layoutTableAddress + (realLine>>3)*40
	lineInPattern := realLine & 0x07
	for col := 0; col < 40; col++ {
		name := int(v.vram[(patPos+col)&vramMask])
		var colorCode, pattern uint8
		switch {
		case v.debugPatternInfoNames:
			colorCode = 0xf1
			if name == 0x20 {
				colorCode = 0x41
			}
			pattern = debugPatternDigits[name*8+lineInPattern]
			// squeeze the digits into 6 pixels
			if lineInPattern <= 5 {
				pattern = pattern&0xe0 | (pattern&0x0e)<<1
			} else if lineInPattern == 6 {
				pattern = 0x78
			}
		case v.debugPatternInfoBlocks:
			colorCode = v.register[7]
			pattern = debugPatternBlock[lineInPattern]
		default:
			colorCode = 0xf1
			pattern = v.vram[(v.patternTableAddress+name<<3+lineInPattern)&vramMask]
		}
		v.paintPattern6(pos, pattern, v.colorPalette[colorCode>>4], v.colorPalette[colorCode&0x0f])
		pos += 6
	}
}

// Multicolor only has a names view; the other views render normally.
func (v *VDP) renderLineMCDebug(pos, realLine int) {
	if !v.debugPatternInfoNames {
		v.renderLineMC(pos, realLine)
		return
	}

	v.paintBackdrop(pos, 16)
	v.paintBackdrop(pos+256, 16)
	pos += 8 + v.horizontalAdjust
	start := pos

	patPos := v.layoutTableAddress + (realLine>>3)<<5
	on, off := v.colorPalette[0x0f], v.colorPalette[0x01]
	for col := 0; col < 32; col++ {
		name := int(v.vram[(patPos+col)&vramMask])
		v.paintPattern(pos, debugPatternDigits[name*8+realLine&0x07], on, off)
		pos += 8
	}

	v.renderSprites(realLine, start, v.colorPalette[:16])
}

func (v *VDP) renderLineG1Debug(pos, realLine int) {
	v.paintBackdrop(pos, 16)
	v.paintBackdrop(pos+256, 16)
	pos += 8 + v.horizontalAdjust
	start := pos

	patPos := v.layoutTableAddress + (realLine>>3)<<5
	lineInPattern := realLine & 0x07
	for col := 0; col < 32; col++ {
		name := int(v.vram[(patPos+col)&vramMask])
		var colorCode, pattern uint8
		switch {
		case v.debugPatternInfoNames:
			colorCode = 0xf1
			if name == 0 || name == 0x20 {
				colorCode = 0x41
			}
			pattern = debugPatternDigits[name*8+lineInPattern]
		case v.debugPatternInfoBlocks:
			colorCode = v.vram[(v.colorTableAddress+name>>3)&vramMask]
			pattern = debugPatternBlock[lineInPattern]
		default:
			colorCode = 0xf1
			pattern = v.vram[(v.patternTableAddress+name<<3+lineInPattern)&vramMask]
		}
		v.paintPattern(pos, pattern, v.colorPalette[colorCode>>4], v.colorPalette[colorCode&0x0f])
		pos += 8
	}

	v.renderSprites(realLine, start, v.colorPalette[:16])
}

// Graphics 2 and 3 debug views.
func (v *VDP) renderLineG2Debug(pos, realLine int) {
	v.paintBackdrop(pos, 16)
	v.paintBackdrop(pos+256, 16)
	pos += 8 + v.horizontalAdjust
	start := pos

	patPos := v.layoutTableAddress + (realLine>>3)<<5
	lineInPattern := realLine & 0x07
	blockExtra := (realLine & 0xc0) << 2
	for col := 0; col < 32; col++ {
		name := int(v.vram[(patPos+col)&vramMask]) | blockExtra
		var colorCode, pattern uint8
		switch {
		case v.debugPatternInfoNames:
			name &= 0xff
			colorCode = 0xf1
			if name == 0 || name == 0x20 {
				colorCode = 0x41
			}
			pattern = debugPatternDigits[name*8+lineInPattern]
		case v.debugPatternInfoBlocks:
			colorCode = v.vram[(v.colorTableAddress+name<<3+lineInPattern)&v.colorTableAddressMask]
			pattern = debugPatternBlock[lineInPattern]
		default:
			colorCode = 0xf1
			pattern = v.vram[(v.patternTableAddress+name<<3+lineInPattern)&v.patternTableAddressMask]
		}
		v.paintPattern(pos, pattern, v.colorPalette[colorCode>>4], v.colorPalette[colorCode&0x0f])
		pos += 8
	}

	v.renderSprites(realLine, start, v.colorPalette[:16])
}
