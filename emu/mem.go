package emu

import "hash/crc32"

// MapperType identifies how the cartridge ROM is banked.
type MapperType int

const (
	MapperPlain   MapperType = iota // Up to 48KB mapped linearly at $0000
	MapperASCII16                   // 16KB banks selected at $6000 and $7000
)

const (
	ramSize  = 0x4000 // 16KB work RAM at $C000
	romLimit = 0xC000 // End of the cartridge window
)

// Memory implements the test board memory map.
//
//	$0000-$3FFF: ROM bank 0 (fixed)
//	$4000-$7FFF: ROM slot 1 (bankable with ASCII16)
//	$8000-$BFFF: ROM slot 2 (bankable with ASCII16)
//	$C000-$FFFF: RAM (16KB)
type Memory struct {
	rom      []uint8
	ram      [ramSize]uint8
	bankSlot [2]uint8 // Banks mapped at $4000 and $8000
	bankMask uint8    // Mask for valid bank numbers (based on ROM size)
	mapper   MapperType
	romCRC   uint32
}

func NewMemory(rom []byte) *Memory {
	m := &Memory{
		rom: make([]uint8, len(rom)),
	}
	copy(m.rom, rom)
	m.romCRC = crc32.ChecksumIEEE(m.rom)

	// Round the bank count up to a power of 2 for wrapping
	bankCount := (len(rom) + 0x3FFF) / 0x4000
	if bankCount == 0 {
		bankCount = 1
	}
	pow2 := 1
	for pow2 < bankCount {
		pow2 <<= 1
	}
	m.bankMask = uint8(pow2 - 1)

	m.mapper = detectMapper(rom)
	m.Reset()
	return m
}

// detectMapper picks ASCII16 for anything that does not fit the 48KB window.
func detectMapper(rom []byte) MapperType {
	if len(rom) > romLimit {
		return MapperASCII16
	}
	return MapperPlain
}

// Reset restores the power-on bank mapping and clears RAM.
func (m *Memory) Reset() {
	m.bankSlot[0] = 1
	m.bankSlot[1] = 2
	clear(m.ram[:])
}

// Get reads a byte from memory.
func (m *Memory) Get(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		return m.romByte(uint32(addr))
	case addr < 0xC000:
		if m.mapper == MapperPlain {
			return m.romByte(uint32(addr))
		}
		slot := (addr - 0x4000) >> 14
		bank := uint32(m.bankSlot[slot] & m.bankMask)
		return m.romByte(bank*0x4000 + uint32(addr&0x3FFF))
	default:
		return m.ram[addr-0xC000]
	}
}

// Set writes a byte to memory. ROM writes are ignored except for the
// ASCII16 bank select windows.
func (m *Memory) Set(addr uint16, val uint8) {
	switch {
	case addr < 0xC000:
		if m.mapper != MapperASCII16 {
			return
		}
		switch addr & 0xF800 {
		case 0x6000:
			m.bankSlot[0] = val
		case 0x7000:
			m.bankSlot[1] = val
		}
	default:
		m.ram[addr-0xC000] = val
	}
}

func (m *Memory) romByte(addr uint32) uint8 {
	if addr < uint32(len(m.rom)) {
		return m.rom[addr]
	}
	return 0xFF
}

// Mapper returns the detected cartridge mapper.
func (m *Memory) Mapper() MapperType {
	return m.mapper
}

// GetBankSlot returns the bank number mapped to slot 1 ($4000) or 2 ($8000).
func (m *Memory) GetBankSlot(slot int) uint8 {
	return m.bankSlot[slot-1]
}

// GetROMCRC32 returns the CRC32 checksum of the loaded ROM.
// Used for save state verification to ensure states are loaded with the correct ROM.
func (m *Memory) GetROMCRC32() uint32 {
	return m.romCRC
}
