package emu

import (
	"github.com/user-none/go-chip-sn76489"
	"github.com/user-none/go-chip-z80"
)

// HostCPU is the processor the VDP clocks between its line events.
type HostCPU interface {
	// ClockPulses runs the CPU for n of its own clock cycles.
	ClockPulses(n int)
	// SetINT drives the interrupt line: 0 asserts it, 1 releases it.
	SetINT(level int)
	// Cycles returns the total number of CPU cycles executed.
	Cycles() int64
}

// AudioClock receives one pulse per audio slot, seven per scanline.
type AudioClock interface {
	ClockPulse()
}

// VideoSignal receives each finished frame. Pixels are packed 0xAABBGGRR
// with a row stride of LineWidth.
type VideoSignal interface {
	NewFrame(pixels []uint32, x, y, width, height int)
}

type nopHostCPU struct{}

func (nopHostCPU) ClockPulses(int) {}
func (nopHostCPU) SetINT(int)      {}
func (nopHostCPU) Cycles() int64   { return 0 }

type nopAudioClock struct{}

func (nopAudioClock) ClockPulse() {}

type nopVideoSignal struct{}

func (nopVideoSignal) NewFrame([]uint32, int, int, int, int) {}

// Z80Host runs a go-chip-z80 CPU in the bursts the VDP requests.
// Instructions cannot be split, so any overshoot is carried as debt
// into the next burst.
type Z80Host struct {
	cpu    *z80.CPU
	cycles int64
	debt   int
}

// NewZ80Host wraps cpu as a VDP host.
func NewZ80Host(cpu *z80.CPU) *Z80Host {
	return &Z80Host{cpu: cpu}
}

func (h *Z80Host) ClockPulses(n int) {
	budget := n - h.debt
	for budget > 0 {
		consumed := h.cpu.StepCycles(budget)
		if consumed == 0 {
			// halted: the rest of the burst idles
			h.cycles += int64(budget)
			budget = 0
			break
		}
		h.cycles += int64(consumed)
		budget -= consumed
	}
	h.debt = -budget
}

func (h *Z80Host) SetINT(level int) {
	h.cpu.INT(level == 0, 0xFF)
}

func (h *Z80Host) Cycles() int64 {
	return h.cycles
}

// Reset clears the cycle accounting. The CPU itself is reset by its owner.
func (h *Z80Host) Reset() {
	h.cycles = 0
	h.debt = 0
}

// PSGClock advances an SN76489 by the CPU cycles elapsed since its last pulse.
type PSGClock struct {
	psg  *sn76489.SN76489
	host HostCPU
	last int64
}

// NewPSGClock ties psg to the cycle counter of host.
func NewPSGClock(psg *sn76489.SN76489, host HostCPU) *PSGClock {
	return &PSGClock{psg: psg, host: host}
}

func (p *PSGClock) ClockPulse() {
	now := p.host.Cycles()
	if elapsed := now - p.last; elapsed > 0 {
		p.psg.Run(int(elapsed))
	}
	p.last = now
}

// Resync makes the next pulse count from the host's current cycle total.
func (p *PSGClock) Resync() {
	p.last = p.host.Cycles()
}
