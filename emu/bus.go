package emu

// MSXBus adapts Memory and MSXIO into the go-chip-z80 Bus interface.
type MSXBus struct {
	mem *Memory
	io  *MSXIO
}

// NewMSXBus creates a new MSXBus bridging memory and I/O.
func NewMSXBus(mem *Memory, io *MSXIO) *MSXBus {
	return &MSXBus{mem: mem, io: io}
}

func (b *MSXBus) Fetch(addr uint16) uint8      { return b.mem.Get(addr) }
func (b *MSXBus) Read(addr uint16) uint8       { return b.mem.Get(addr) }
func (b *MSXBus) Write(addr uint16, val uint8) { b.mem.Set(addr, val) }
func (b *MSXBus) In(port uint16) uint8         { return b.io.In(uint8(port)) }
func (b *MSXBus) Out(port uint16, val uint8)   { b.io.Out(uint8(port), val) }
