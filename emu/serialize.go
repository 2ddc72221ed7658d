package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/user-none/go-chip-sn76489"
	"github.com/user-none/go-chip-z80"
)

// Save state format constants
const (
	stateVersion    = 2
	stateMagic      = "eMSXSState\x00\x00"
	stateHeaderSize = 22 // magic(12) + version(2) + romCRC(4) + dataCRC(4)
)

// Fixed serialization sizes for inline components
const (
	memSerializeSize      = ramSize + 2 // ram + bankSlot
	ioSerializeSize       = 2           // Port1, Port2
	emulatorSerializeSize = 21          // hostCycles(8) + hostDebt(4) + psgLast(8) + pal(1)
)

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SerializeSize returns the total size in bytes needed for a save state.
func SerializeSize() int {
	return stateHeaderSize +
		z80.SerializeSize +
		memSerializeSize +
		vdpStateSize + idleCommandSerializeSize +
		sn76489.SerializeSize +
		ioSerializeSize +
		emulatorSerializeSize
}

// Serialize creates a save state and returns it as a byte slice.
func (e *Emulator) Serialize() ([]byte, error) {
	data := make([]byte, SerializeSize())

	// Write header
	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], e.mem.GetROMCRC32())

	offset := stateHeaderSize

	// Z80 CPU
	if err := e.cpu.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += z80.SerializeSize

	// Memory
	offset = e.serializeMemory(data, offset)

	// VDP and command processor
	if err := e.vdp.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += e.vdp.SerializeSize()

	// PSG
	if err := e.psg.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += sn76489.SerializeSize

	// Input
	offset = e.serializeInput(data, offset)

	// Host clocks
	e.serializeClocks(data, offset)

	// Calculate and write data CRC32 (over everything after header)
	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[18:22], dataCRC)

	return data, nil
}

// Deserialize restores emulator state from a save state byte slice.
// Region is NOT restored - the current region setting is preserved,
// unless the saved machine had switched standards from software.
func (e *Emulator) Deserialize(data []byte) error {
	if err := e.VerifyState(data); err != nil {
		return err
	}

	offset := stateHeaderSize

	// Z80 CPU
	if err := e.cpu.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += z80.SerializeSize

	// Memory
	offset = e.deserializeMemory(data, offset)

	// VDP and command processor
	if err := e.vdp.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += e.vdp.SerializeSize()

	// PSG
	if err := e.psg.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += sn76489.SerializeSize

	// Input
	offset = e.deserializeInput(data, offset)

	// Host clocks
	e.deserializeClocks(data, offset)

	return nil
}

// VerifyState checks if a save state is valid without loading it.
func (e *Emulator) VerifyState(data []byte) error {
	if len(data) < SerializeSize() {
		return errors.New("save state too short")
	}

	if string(data[0:12]) != stateMagic {
		return errors.New("invalid save state magic")
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version > stateVersion {
		return errors.New("unsupported save state version")
	}

	romCRC := binary.LittleEndian.Uint32(data[14:18])
	if romCRC != e.mem.GetROMCRC32() {
		return errors.New("save state is for a different ROM")
	}

	expectedCRC := binary.LittleEndian.Uint32(data[18:22])
	actualCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	if expectedCRC != actualCRC {
		return errors.New("save state data is corrupted")
	}

	return nil
}

func (e *Emulator) serializeMemory(data []byte, offset int) int {
	copy(data[offset:], e.mem.ram[:])
	offset += len(e.mem.ram)
	copy(data[offset:], e.mem.bankSlot[:])
	offset += len(e.mem.bankSlot)
	return offset
}

func (e *Emulator) deserializeMemory(data []byte, offset int) int {
	copy(e.mem.ram[:], data[offset:offset+len(e.mem.ram)])
	offset += len(e.mem.ram)
	copy(e.mem.bankSlot[:], data[offset:offset+len(e.mem.bankSlot)])
	offset += len(e.mem.bankSlot)
	return offset
}

func (e *Emulator) serializeInput(data []byte, offset int) int {
	data[offset] = e.io.Input.Port1
	offset++
	data[offset] = e.io.Input.Port2
	offset++
	return offset
}

func (e *Emulator) deserializeInput(data []byte, offset int) int {
	e.io.Input.Port1 = data[offset]
	offset++
	e.io.Input.Port2 = data[offset]
	offset++
	return offset
}

// serializeClocks writes the cycle accounting shared by the CPU host,
// the PSG clock and the VDP, plus the active standard.
func (e *Emulator) serializeClocks(data []byte, offset int) int {
	binary.LittleEndian.PutUint64(data[offset:], uint64(e.host.cycles))
	offset += 8
	binary.LittleEndian.PutUint32(data[offset:], uint32(int32(e.host.debt)))
	offset += 4
	binary.LittleEndian.PutUint64(data[offset:], uint64(e.psgClock.last))
	offset += 8
	data[offset] = boolByte(e.vdp.Standard().TotalHeight == PALStandard.TotalHeight)
	offset++
	return offset
}

func (e *Emulator) deserializeClocks(data []byte, offset int) int {
	e.host.cycles = int64(binary.LittleEndian.Uint64(data[offset:]))
	offset += 8
	e.host.debt = int(int32(binary.LittleEndian.Uint32(data[offset:])))
	offset += 4
	e.psgClock.last = int64(binary.LittleEndian.Uint64(data[offset:]))
	offset += 8
	std := NTSCStandard
	if data[offset] != 0 {
		std = PALStandard
	}
	offset++
	if std.TotalHeight != e.vdp.Standard().TotalHeight {
		e.vdp.SetVideoStandard(std)
	}
	return offset
}
