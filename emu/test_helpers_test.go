package emu

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"
)

// createTestROM creates a test ROM with the given number of 16KB banks.
// Each bank is filled with its bank number (0, 1, 2, etc.) to allow
// easy verification of which bank is mapped.
func createTestROM(banks int) []byte {
	rom := make([]byte, banks*0x4000)
	for b := 0; b < banks; b++ {
		for i := 0; i < 0x4000; i++ {
			rom[b*0x4000+i] = byte(b)
		}
	}
	return rom
}

// createProgramROM places code at $0000 of a 16KB ROM padded with HALT.
func createProgramROM(code ...byte) []byte {
	rom := make([]byte, 0x4000)
	for i := range rom {
		rom[i] = 0x76
	}
	copy(rom, code)
	return rom
}

// fakeHost records what the VDP does to its host CPU.
type fakeHost struct {
	pulses   int64
	bursts   []int
	intLevel int
	intCalls int
	record   bool
}

func (h *fakeHost) ClockPulses(n int) {
	h.pulses += int64(n)
	if h.record {
		h.bursts = append(h.bursts, n)
	}
}

func (h *fakeHost) SetINT(level int) {
	h.intLevel = level
	h.intCalls++
}

func (h *fakeHost) Cycles() int64 {
	return h.pulses
}

type fakeAudio struct {
	pulses int
}

func (a *fakeAudio) ClockPulse() {
	a.pulses++
}

type fakeSignal struct {
	frames        int
	width, height int
	last          []uint32
}

func (s *fakeSignal) NewFrame(pixels []uint32, x, y, width, height int) {
	s.frames++
	s.width = width
	s.height = height
	s.last = pixels
}

// newTestVDP creates a VDP wired to recording collaborators.
func newTestVDP(chip Chip) (*VDP, *fakeHost, *fakeAudio, *fakeSignal) {
	host := &fakeHost{intLevel: 1}
	audio := &fakeAudio{}
	signal := &fakeSignal{}
	v := NewVDP(chip)
	v.Connect(host, audio, signal)
	return v, host, audio, signal
}

// writeRegister writes a control register through the control port.
func writeRegister(v *VDP, reg int, val uint8) {
	v.WriteControl(val)
	v.WriteControl(0x80 | uint8(reg))
}

// setWriteAddress points the VDP at a 17-bit VRAM address through the ports.
func setWriteAddress(v *VDP, addr int) {
	if v.Chip() == ChipV9938 {
		writeRegister(v, 14, uint8(addr>>14)&0x07)
	}
	v.WriteControl(uint8(addr))
	v.WriteControl(0x40 | uint8(addr>>8)&0x3f)
}

// pixelAt returns the back buffer pixel at column x of frame row y.
func pixelAt(v *VDP, x, y int) uint32 {
	return v.frameBuffer[y*LineWidth+x]
}

// diff fails the test with a go-test/deep report when got and want differ.
func diff(t *testing.T, what string, got, want interface{}) {
	t.Helper()
	if d := deep.Equal(got, want); d != nil {
		t.Errorf("%s mismatch: %v", what, d)
	}
}

// dumpOnFailure adds a spew dump of v's register bank to a failed test.
func dumpOnFailure(t *testing.T, v *VDP) {
	t.Helper()
	if t.Failed() {
		t.Logf("registers:\n%s", spew.Sdump(v.register[:24]))
		t.Logf("status:\n%s", spew.Sdump(v.status))
	}
}
