package emu

import (
	"encoding/binary"
	"errors"
)

const (
	vdpSerializeVersion = 2
	// vdpStateSize is the VDP's own share of the serialized state.
	// version(1) + chip(1) + vram(131072) + registers(47) + status(10) +
	// paletteRegister(32) + colorPalette(128) +
	// currentScanline(4) + bufferPosition(4) + bufferLineAdvance(4) +
	// cycles(8) + lastCPUCycles(8) + frame(8) +
	// vramPointer(4) + dataLatched(1) + dataToWrite(1) + paletteLatched(1) + paletteFirstWrite(1) +
	// horizontalAdjust(4) + verticalAdjust(4) + horizontalIntLine(4) +
	// blinkEvenPage(1) + blinkPageDuration(4) + pendingBlankingChange(1) +
	// spritesCollided(1) + collisionX(4) + collisionY(4) + spritesInvalid(4) + spritesMaxComputed(4) +
	// verticalIntReached(1) + inActiveDisplay(1) +
	// frameBuffer(LineWidth*MaxSignalHeight*4)
	vdpStateSize = 1 + 1 + vramSize + registerCount + statusCount +
		16*2 + 32*4 +
		4*3 +
		8*3 +
		4 + 4 +
		4*3 +
		1 + 4 + 1 +
		1 + 4*4 +
		1 + 1 +
		LineWidth*MaxSignalHeight*4
)

// SerializeSize returns the bytes needed by Serialize, including the
// command processor's state.
func (v *VDP) SerializeSize() int {
	return vdpStateSize + v.cmd.SerializeSize()
}

func putInt32(buf []byte, offset, val int) int {
	binary.LittleEndian.PutUint32(buf[offset:], uint32(int32(val)))
	return offset + 4
}

func getInt32(buf []byte, offset int) (int, int) {
	return int(int32(binary.LittleEndian.Uint32(buf[offset:]))), offset + 4
}

// Serialize writes VDP state to buf. buf must be at least SerializeSize bytes.
func (v *VDP) Serialize(buf []byte) error {
	if len(buf) < v.SerializeSize() {
		return errors.New("VDP serialize buffer too small")
	}

	offset := 0

	// Version
	buf[offset] = vdpSerializeVersion
	offset++
	buf[offset] = uint8(v.chip)
	offset++

	// Memories and banks
	copy(buf[offset:], v.vram[:])
	offset += len(v.vram)
	copy(buf[offset:], v.register[:])
	offset += len(v.register)
	copy(buf[offset:], v.status[:])
	offset += len(v.status)
	for _, p := range v.paletteRegister {
		binary.LittleEndian.PutUint16(buf[offset:], p)
		offset += 2
	}
	for _, c := range v.colorPalette {
		binary.LittleEndian.PutUint32(buf[offset:], c)
		offset += 4
	}

	// Raster position
	offset = putInt32(buf, offset, v.currentScanline)
	offset = putInt32(buf, offset, v.bufferPosition)
	offset = putInt32(buf, offset, v.bufferLineAdvance)
	binary.LittleEndian.PutUint64(buf[offset:], uint64(v.cycles))
	offset += 8
	binary.LittleEndian.PutUint64(buf[offset:], uint64(v.lastCPUCyclesComputed))
	offset += 8
	binary.LittleEndian.PutUint64(buf[offset:], uint64(v.frame))
	offset += 8

	// Port state
	offset = putInt32(buf, offset, v.vramPointer)
	buf[offset] = boolByte(v.dataLatched)
	offset++
	buf[offset] = v.dataToWrite
	offset++
	buf[offset] = boolByte(v.paletteLatched)
	offset++
	buf[offset] = v.paletteFirstWrite
	offset++

	// Adjusts and blinking
	offset = putInt32(buf, offset, v.horizontalAdjust)
	offset = putInt32(buf, offset, v.verticalAdjust)
	offset = putInt32(buf, offset, v.horizontalIntLine)
	buf[offset] = boolByte(v.blinkEvenPage)
	offset++
	offset = putInt32(buf, offset, v.blinkPageDuration)
	buf[offset] = boolByte(v.pendingBlankingChange)
	offset++

	// Sprite status
	buf[offset] = boolByte(v.spritesCollided)
	offset++
	offset = putInt32(buf, offset, v.spritesCollisionX)
	offset = putInt32(buf, offset, v.spritesCollisionY)
	offset = putInt32(buf, offset, v.spritesInvalid)
	offset = putInt32(buf, offset, v.spritesMaxComputed)

	buf[offset] = boolByte(v.verticalIntReached)
	offset++
	buf[offset] = boolByte(v.inActiveDisplay)
	offset++

	// Back buffer. A state taken mid-frame holds lines already painted,
	// and an interlaced frame keeps the other field's lines.
	for _, p := range v.frameBuffer {
		binary.LittleEndian.PutUint32(buf[offset:], p)
		offset += 4
	}

	return v.cmd.Serialize(buf[offset:])
}

// Deserialize restores VDP state from buf and recomputes everything
// derived from the registers. The timing standard is not part of the
// state; the owner restores it.
func (v *VDP) Deserialize(buf []byte) error {
	if len(buf) < v.SerializeSize() {
		return errors.New("VDP deserialize buffer too small")
	}

	offset := 0

	// Version
	version := buf[offset]
	offset++
	if version != vdpSerializeVersion {
		return errors.New("unsupported VDP state version")
	}
	chip := Chip(buf[offset])
	if chip != ChipV9938 && chip != ChipV9918 {
		return errors.New("unknown VDP chip in state")
	}
	v.chip = chip
	offset++

	// Memories and banks
	copy(v.vram[:], buf[offset:offset+len(v.vram)])
	offset += len(v.vram)
	copy(v.register[:], buf[offset:offset+len(v.register)])
	offset += len(v.register)
	copy(v.status[:], buf[offset:offset+len(v.status)])
	offset += len(v.status)
	for i := range v.paletteRegister {
		v.paletteRegister[i] = binary.LittleEndian.Uint16(buf[offset:])
		offset += 2
	}
	for i := range v.colorPalette {
		v.colorPalette[i] = binary.LittleEndian.Uint32(buf[offset:])
		offset += 4
	}

	// Raster position
	v.currentScanline, offset = getInt32(buf, offset)
	v.bufferPosition, offset = getInt32(buf, offset)
	v.bufferLineAdvance, offset = getInt32(buf, offset)
	v.cycles = int64(binary.LittleEndian.Uint64(buf[offset:]))
	offset += 8
	v.lastCPUCyclesComputed = int64(binary.LittleEndian.Uint64(buf[offset:]))
	offset += 8
	v.frame = int64(binary.LittleEndian.Uint64(buf[offset:]))
	offset += 8

	// Port state
	v.vramPointer, offset = getInt32(buf, offset)
	v.vramPointer &= vramMask
	v.dataLatched = buf[offset] != 0
	offset++
	v.dataToWrite = buf[offset]
	offset++
	v.paletteLatched = buf[offset] != 0
	offset++
	v.paletteFirstWrite = buf[offset]
	offset++

	// Adjusts and blinking
	v.horizontalAdjust, offset = getInt32(buf, offset)
	v.verticalAdjust, offset = getInt32(buf, offset)
	v.horizontalIntLine, offset = getInt32(buf, offset)
	v.blinkEvenPage = buf[offset] != 0
	offset++
	v.blinkPageDuration, offset = getInt32(buf, offset)
	v.pendingBlankingChange = buf[offset] != 0
	offset++

	// Sprite status
	v.spritesCollided = buf[offset] != 0
	offset++
	v.spritesCollisionX, offset = getInt32(buf, offset)
	v.spritesCollisionY, offset = getInt32(buf, offset)
	v.spritesInvalid, offset = getInt32(buf, offset)
	v.spritesMaxComputed, offset = getInt32(buf, offset)

	v.verticalIntReached = buf[offset] != 0
	offset++
	v.inActiveDisplay = buf[offset] != 0
	offset++

	for i := range v.frameBuffer {
		v.frameBuffer[i] = binary.LittleEndian.Uint32(buf[offset:])
		offset += 4
	}

	if err := v.cmd.Deserialize(buf[offset:]); err != nil {
		return err
	}
	v.cmd.Connect(v.vram[:], v.register[:], v.status[:])

	v.updateIRQ()
	v.updateMode()
	v.updateBackdropColor(true)
	v.updateTransparency()
	v.updatePageAlternance()
	v.initSpritesConflictMap()
	return nil
}
