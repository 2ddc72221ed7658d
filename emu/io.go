package emu

import "github.com/user-none/go-chip-sn76489"

// I/O ports decoded by the test board.
const (
	portVDPData     = 0x98
	portVDPControl  = 0x99
	portVDPPalette  = 0x9A
	portVDPIndirect = 0x9B
	portPSG         = 0x7E
	portPSGMirror   = 0x7F
	portJoypad1     = 0xDC
	portJoypad2     = 0xDD
)

// Input holds controller state (directly usable as port values)
type Input struct {
	Port1 uint8 // Port $DC - Controller 1 + partial Controller 2
	Port2 uint8 // Port $DD - Controller 2 + misc
}

type MSXIO struct {
	vdp   *VDP
	psg   *sn76489.SN76489
	Input *Input
}

func NewMSXIO(vdp *VDP, psg *sn76489.SN76489) *MSXIO {
	return &MSXIO{
		vdp: vdp,
		psg: psg,
		Input: &Input{
			Port1: 0xFF, // All buttons released (active low)
			Port2: 0xFF,
		},
	}
}

// In handles a CPU port read. Unmapped ports float high.
func (e *MSXIO) In(addr uint8) uint8 {
	switch addr {
	case portVDPData:
		return e.vdp.ReadData()
	case portVDPControl:
		return e.vdp.ReadStatus()
	case portJoypad1:
		return e.Input.Port1
	case portJoypad2:
		return e.Input.Port2
	}
	return 0xFF
}

// Out handles a CPU port write.
func (e *MSXIO) Out(addr uint8, value uint8) {
	switch addr {
	case portVDPData:
		e.vdp.WriteData(value)
	case portVDPControl:
		e.vdp.WriteControl(value)
	case portVDPPalette:
		e.vdp.WritePalette(value)
	case portVDPIndirect:
		e.vdp.WriteIndirect(value)
	case portPSG, portPSGMirror:
		if e.psg != nil {
			e.psg.Write(value)
		}
	}
}

// Reset releases every button.
func (i *Input) Reset() {
	i.Port1 = 0xFF
	i.Port2 = 0xFF
}

// SetP1 updates Player 1 controller state.
// Port $DC bits (active low - 0 = pressed):
//
//	Bit 0: P1 Up
//	Bit 1: P1 Down
//	Bit 2: P1 Left
//	Bit 3: P1 Right
//	Bit 4: P1 Button 1
//	Bit 5: P1 Button 2
//	Bit 6: P2 Up
//	Bit 7: P2 Down
func (i *Input) SetP1(up, down, left, right, btn1, btn2 bool) {
	// Update only P1 bits (0-5), preserve P2 bits (6-7)
	i.Port1 |= 0x3F
	if up {
		i.Port1 &^= 0x01
	}
	if down {
		i.Port1 &^= 0x02
	}
	if left {
		i.Port1 &^= 0x04
	}
	if right {
		i.Port1 &^= 0x08
	}
	if btn1 {
		i.Port1 &^= 0x10
	}
	if btn2 {
		i.Port1 &^= 0x20
	}
}

// SetP2 updates Player 2 controller state
// Port $DC bits 6-7: P2 Up, Down
// Port $DD bits 0-3: P2 Left, Right, Btn1, Btn2
func (i *Input) SetP2(up, down, left, right, btn1, btn2 bool) {
	i.Port1 |= 0xC0
	if up {
		i.Port1 &^= 0x40
	}
	if down {
		i.Port1 &^= 0x80
	}

	i.Port2 |= 0x0F
	if left {
		i.Port2 &^= 0x01
	}
	if right {
		i.Port2 &^= 0x02
	}
	if btn1 {
		i.Port2 &^= 0x04
	}
	if btn2 {
		i.Port2 &^= 0x08
	}
}
