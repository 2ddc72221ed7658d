package emu

// spriteMaxPriority is the starting value of the global priority counter.
// Every sprite line takes 32 values off it, so a lower value means a
// more recent, and therefore higher, priority. At one line per 64us the
// counter lasts for millions of years and is never reset while running.
const spriteMaxPriority int64 = 9_000_000_000_000_000

const (
	spriteTerminatorGen1 = 208
	spriteTerminatorGen2 = 216
	spriteLimitGen1      = 4
	spriteLimitGen2      = 8
)

func (v *VDP) initSpritesConflictMap() {
	for i := range v.spritesLinePriorities {
		v.spritesLinePriorities[i] = spriteMaxPriority
	}
	clear(v.spritesLineColors[:])
	v.spritesGlobalPriority = spriteMaxPriority
}

// renderSprites composites the sprites of line into the frame buffer.
// start is the buffer offset of the first active pixel.
func (v *VDP) renderSprites(line, start int, palette []uint32) {
	switch v.spriteGen {
	case 1:
		v.renderSpritesGen1(line, start, palette)
	case 2:
		v.renderSpritesGen2(line, start, palette)
	}
}

// spriteShape returns the pattern size in pixels, the magnification
// shift and the on-screen width for the SI and MAG bits.
func (v *VDP) spriteShape() (size int, mag uint, width int) {
	size = 8
	if v.spriteSize&0x02 != 0 {
		size = 16
	}
	mag = uint(v.spriteSize & 0x01)
	return size, mag, size << mag
}

// spritePattern fetches one pattern row; 16x16 sprites keep the right
// half 16 bytes after the left.
func (v *VDP) spritePattern(name, row, size int) uint16 {
	if size == 16 {
		addr := v.spritePatternTableAddress + (name&0xfc)<<3 + row
		return uint16(v.vram[addr&vramMask])<<8 | uint16(v.vram[(addr+16)&vramMask])
	}
	return uint16(v.vram[(v.spritePatternTableAddress+name<<3+row)&vramMask])
}

// spriteSpan clips a sprite at x to the 256 pixel line. It returns the
// first on-screen x and the range of pattern pixels [s, f) to draw,
// walked from f-1 down to s.
func spriteSpan(x, width int) (first, s, f int) {
	if x > 256-width {
		s = x - (256 - width)
	}
	f = width
	if x < 0 {
		f = width + x
	}
	return x + width - f, s, f
}

// Generation 1: four sprites per line, one color per sprite.
func (v *VDP) renderSpritesGen1(line, start int, palette []uint32) {
	atr := v.spriteAttrTableAddress
	if v.vram[atr&vramMask] == spriteTerminatorGen1 {
		return
	}
	size, mag, width := v.spriteShape()

	v.spritesGlobalPriority -= 32

	sprite, drawn := -1, 0
	for i := 0; i < 32; i++ {
		atrPos := atr + i<<2
		sprite++
		y := int(v.vram[atrPos&vramMask])
		if y == spriteTerminatorGen1 {
			break
		}
		spriteLine := (line - y - 1) & 0xff
		if spriteLine >= width {
			continue
		}
		x := int(v.vram[(atrPos+1)&vramMask])
		color := v.vram[(atrPos+3)&vramMask]
		if color&0x80 != 0 { // EC
			x -= 32
			if x <= -width {
				continue
			}
		}
		drawn++
		if drawn > spriteLimitGen1 {
			if v.spritesInvalid < 0 {
				v.spritesInvalid = sprite
			}
			if v.spriteDebugLimit {
				return
			}
		}
		name := int(v.vram[(atrPos+2)&vramMask])
		pattern := v.spritePattern(name, spriteLine>>mag, size)
		collide := drawn <= spriteLimitGen1 && v.spriteDebugCollisions
		v.paintSpriteGen1(x, line, start, v.spritesGlobalPriority+int64(sprite), pattern, color&0x0f, mag, width, collide, palette)
	}
	if v.spritesInvalid < 0 && sprite > v.spritesMaxComputed {
		v.spritesMaxComputed = sprite
	}
}

// A transparent pixel takes the priority slot but never hides a
// non-transparent pixel of a lower priority sprite painted earlier.
func (v *VDP) paintSpriteGen1(x, y, start int, pri int64, pattern uint16, color uint8, mag uint, width int, collide bool, palette []uint32) {
	x, s, f := spriteSpan(x, width)
	for i := f - 1; i >= s; i, x = i-1, x+1 {
		if (pattern>>(uint(i)>>mag))&0x01 == 0 {
			continue
		}
		if v.spritesLinePriorities[x] < pri {
			if collide && !v.spritesCollided {
				v.setSpritesCollision(x, y)
			}
			if color != 0 && v.spritesLineColors[x] == 0 {
				v.spritesLineColors[x] = color
				v.paintSpritePixel(start+x, palette[color])
			}
			continue
		}
		v.spritesLinePriorities[x] = pri
		v.spritesLineColors[x] = color
		if color != 0 {
			v.paintSpritePixel(start+x, palette[color])
		}
	}
}

// Generation 2: eight sprites per line, a color byte per sprite line
// with EC (0x80), CC (0x40) and IC (0x20) bits.
func (v *VDP) renderSpritesGen2(line, start int, palette []uint32) {
	atr := v.spriteAttrTableAddress
	if v.vram[(atr+512)&vramMask] == spriteTerminatorGen2 {
		return
	}
	size, mag, width := v.spriteShape()

	v.spritesGlobalPriority -= 32

	sprite, drawn := -1, 0
	spritePri := spriteMaxPriority
	for i := 0; i < 32; i++ {
		sprite++
		atrPos := atr + 512 + i<<2
		colorPos := atr + i<<4
		y := int(v.vram[atrPos&vramMask])
		if y == spriteTerminatorGen2 {
			break
		}
		spriteLine := (line - y - 1) & 0xff
		if spriteLine >= width {
			continue
		}

		color := v.vram[(colorPos+spriteLine>>mag)&vramMask]
		cc := color&0x40 != 0
		if cc {
			// needs a preceding main sprite to attach to
			if spritePri == spriteMaxPriority {
				continue
			}
		} else {
			spritePri = v.spritesGlobalPriority + int64(sprite)
		}

		x := int(v.vram[(atrPos+1)&vramMask])
		if color&0x80 != 0 { // EC
			x -= 32
			if x <= -width {
				continue
			}
		}

		drawn++
		if drawn > spriteLimitGen2 {
			if v.spritesInvalid < 0 {
				v.spritesInvalid = sprite
			}
			if v.spriteDebugLimit {
				return
			}
		}

		if color&0x0f == 0 && !v.color0Solid {
			continue // nothing to paint unless TP
		}

		name := int(v.vram[(atrPos+2)&vramMask])
		pattern := v.spritePattern(name, spriteLine>>mag, size)
		if cc {
			v.paintSpriteGen2CC(x, start, spritePri, pattern, color&0x0f, mag, width, palette)
		} else {
			collide := color&0x20 == 0 && drawn <= spriteLimitGen2 && v.spriteDebugCollisions
			v.paintSpriteGen2(x, line, start, spritePri, pattern, color&0x0f, mag, width, collide, palette)
		}
	}
	if v.spritesInvalid < 0 && sprite > v.spritesMaxComputed {
		v.spritesMaxComputed = sprite
	}
}

func (v *VDP) paintSpriteGen2(x, y, start int, pri int64, pattern uint16, color uint8, mag uint, width int, collide bool, palette []uint32) {
	x, s, f := spriteSpan(x, width)
	for i := f - 1; i >= s; i, x = i-1, x+1 {
		if (pattern>>(uint(i)>>mag))&0x01 == 0 {
			continue
		}
		if v.spritesLinePriorities[x] < pri {
			if collide && !v.spritesCollided {
				v.setSpritesCollision(x, y)
			}
			continue
		}
		v.spritesLinePriorities[x] = pri
		v.spritesLineColors[x] = color
		v.paintSpritePixel(start+x, palette[color])
	}
}

// paintSpriteGen2CC paints a color-combined sprite: where it overlaps
// its main sprite the colors are ORed, elsewhere it draws on its own.
// It never collides.
func (v *VDP) paintSpriteGen2CC(x, start int, pri int64, pattern uint16, color uint8, mag uint, width int, palette []uint32) {
	x, s, f := spriteSpan(x, width)
	for i := f - 1; i >= s; i, x = i-1, x+1 {
		if (pattern>>(uint(i)>>mag))&0x01 == 0 {
			continue
		}
		prev := v.spritesLinePriorities[x]
		if prev < pri {
			continue
		}
		final := color
		if prev == pri {
			final |= v.spritesLineColors[x]
		} else {
			v.spritesLinePriorities[x] = pri
		}
		v.spritesLineColors[x] = final
		v.paintSpritePixel(start+x, palette[final])
	}
}

func (v *VDP) paintSpritePixel(pos int, value uint32) {
	if !v.debugSpritesHidden {
		v.frameBuffer[pos] = value
	}
}

// setSpritesCollision latches the first collision point of the frame.
// The coordinates reach status 3-6 only when mouse and light pen are off.
func (v *VDP) setSpritesCollision(x, y int) {
	v.spritesCollided = true
	if v.spritesCollisionX >= 0 {
		return
	}
	v.spritesCollisionX = x + 12
	v.spritesCollisionY = y + 8
	if v.register[8]&0xc0 == 0 { // MS, LP
		v.status[3] = uint8(v.spritesCollisionX)
		v.status[4] = 0xfe | uint8(v.spritesCollisionX>>8)
		v.status[5] = uint8(v.spritesCollisionY)
		v.status[6] = 0xfc | uint8(v.spritesCollisionY>>8)
	}
}

// SpriteCollision returns the latched collision coordinates, or -1, -1.
func (v *VDP) SpriteCollision() (x, y int) {
	return v.spritesCollisionX, v.spritesCollisionY
}
