package emu

import "errors"

// CommandProcessor is the block-transfer engine that shares VRAM and the
// register banks with the VDP. It reports its busy state through status
// register 2 and transfers bytes through register 44 and status 7.
type CommandProcessor interface {
	Connect(vram, registers, status []uint8)
	Reset()
	SetMode(code uint8)
	UpdateStatus()
	CPURead()
	CPUWrite(val uint8)
	StartCommand(val uint8)
	SerializeSize() int
	Serialize(buf []byte) error
	Deserialize(buf []byte) error
}

// IdleCommandProcessor accepts every command and completes it at once
// without touching VRAM. Status 2 always reads not busy.
type IdleCommandProcessor struct {
	status []uint8
	mode   uint8
	last   uint8
}

var _ CommandProcessor = (*IdleCommandProcessor)(nil)

const idleCommandSerializeSize = 2

func (c *IdleCommandProcessor) Connect(vram, registers, status []uint8) {
	c.status = status
}

func (c *IdleCommandProcessor) Reset() {
	c.last = 0
	c.UpdateStatus()
}

func (c *IdleCommandProcessor) SetMode(code uint8) {
	c.mode = code
}

// UpdateStatus clears CE (bit 0) and TR (bit 7) of status register 2.
func (c *IdleCommandProcessor) UpdateStatus() {
	if c.status != nil {
		c.status[2] &^= 0x81
	}
}

func (c *IdleCommandProcessor) CPURead() {}

func (c *IdleCommandProcessor) CPUWrite(val uint8) {}

// StartCommand records the opcode and finishes immediately.
func (c *IdleCommandProcessor) StartCommand(val uint8) {
	c.last = val >> 4
	c.UpdateStatus()
}

// LastCommand returns the opcode (upper nibble of register 46) of the
// most recent command.
func (c *IdleCommandProcessor) LastCommand() uint8 {
	return c.last
}

func (c *IdleCommandProcessor) SerializeSize() int {
	return idleCommandSerializeSize
}

func (c *IdleCommandProcessor) Serialize(buf []byte) error {
	if len(buf) < idleCommandSerializeSize {
		return errors.New("command processor serialize buffer too small")
	}
	buf[0] = c.mode
	buf[1] = c.last
	return nil
}

func (c *IdleCommandProcessor) Deserialize(buf []byte) error {
	if len(buf) < idleCommandSerializeSize {
		return errors.New("command processor deserialize buffer too small")
	}
	c.mode = buf[0]
	c.last = buf[1]
	return nil
}
