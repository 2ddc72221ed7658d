package emu

import (
	"encoding/binary"
	"errors"
	"strconv"

	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/go-chip-sn76489"
	"github.com/user-none/go-chip-z80"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.BatterySaver = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

const (
	// ScreenWidth is the width of the output surface: a 512 pixel mode
	// with borders, or a 256 pixel mode doubled horizontally.
	ScreenWidth = LineWidth
	// MaxScreenHeight is the tallest output: interlaced, or doubled vertically.
	MaxScreenHeight = MaxSignalHeight
	sampleRate      = 48000

	// Large enough for a 50 Hz host cycle on an NTSC machine (314 lines).
	psgBufferSize = sampleRate / 50 * 2
)

// Emulator is the test board: a Z80, 16KB of RAM, a cartridge window,
// an SN76489 and the VDP, which also acts as the scheduler.
type Emulator struct {
	cpu      *z80.CPU
	host     *Z80Host
	mem      *Memory
	vdp      *VDP
	psg      *sn76489.SN76489
	psgClock *PSGClock
	io       *MSXIO
	screen   *frameScaler

	region       Region
	chip         Chip
	softStandard bool

	spriteUnlimited    bool
	spriteNoCollisions bool

	// Pre-allocated audio buffer to avoid per-frame allocations
	audioBuffer []int16
}

// NewEmulator creates and initializes the emulator components.
func NewEmulator(rom []byte, region Region) (*Emulator, error) {
	if len(rom) == 0 {
		return nil, errors.New("empty ROM")
	}

	std := StandardForRegion(region)
	vdp := NewVDP(ChipV9938)
	psg := sn76489.New(std.CPUClockHz, sampleRate, psgBufferSize, sn76489.Sega)
	io := NewMSXIO(vdp, psg)
	mem := NewMemory(rom)
	cpu := z80.New(NewMSXBus(mem, io))
	host := NewZ80Host(cpu)

	e := &Emulator{
		cpu:         cpu,
		host:        host,
		mem:         mem,
		vdp:         vdp,
		psg:         psg,
		psgClock:    NewPSGClock(psg, host),
		io:          io,
		screen:      newFrameScaler(),
		region:      region,
		chip:        ChipV9938,
		audioBuffer: make([]int16, 0, psgBufferSize*2),
	}

	vdp.Connect(host, e.psgClock, e.screen)
	vdp.OnSoftStandard(e.softStandardChanged)
	vdp.SetVideoStandard(std)

	return e, nil
}

// Reset restarts the machine. A pending chip option takes effect here.
func (e *Emulator) Reset() {
	e.cpu.Reset()
	e.host.Reset()
	e.mem.Reset()
	e.io.Input.Reset()
	e.vdp.SetChip(e.chip)
	e.vdp.SetVideoStandard(StandardForRegion(e.region))
	e.psgClock.Resync()
	e.psg.ResetBuffer()
}

// softStandardChanged follows the NT bit of register 9 when enabled.
func (e *Emulator) softStandardChanged(pal bool) {
	if !e.softStandard {
		return
	}
	if pal {
		e.vdp.SetVideoStandard(PALStandard)
	} else {
		e.vdp.SetVideoStandard(NTSCStandard)
	}
}

// RunFrame executes one scheduler cycle, which is one frame at the
// native rate of the current standard.
func (e *Emulator) RunFrame() {
	e.audioBuffer = e.audioBuffer[:0]
	e.psg.ResetBuffer()

	e.vdp.ClockPulse()
	e.psgClock.ClockPulse()

	// Convert float32 mono samples to int16 stereo in-place
	// Attenuate by 0.5 to compensate for acoustic summing when both speakers
	// play the same signal (mono duplicated to L+R doubles perceived loudness)
	buffer, count := e.psg.GetBuffer()
	for _, sample := range buffer[:count] {
		intSample := int16(sample * 32767 * 0.5)
		e.audioBuffer = append(e.audioBuffer, intSample, intSample)
	}
}

// GetAudioSamples returns accumulated audio samples as 16-bit stereo PCM.
func (e *Emulator) GetAudioSamples() []int16 {
	return e.audioBuffer
}

// SetInput unpacks a button bitmask and sets controller state for the given player.
func (e *Emulator) SetInput(player int, buttons uint32) {
	up := buttons&(1<<emucore.ButtonUp) != 0
	down := buttons&(1<<emucore.ButtonDown) != 0
	left := buttons&(1<<emucore.ButtonLeft) != 0
	right := buttons&(1<<emucore.ButtonRight) != 0
	btn1 := buttons&(1<<4) != 0
	btn2 := buttons&(1<<5) != 0

	switch player {
	case 0:
		e.io.Input.SetP1(up, down, left, right, btn1, btn2)
	case 1:
		e.io.Input.SetP2(up, down, left, right, btn1, btn2)
	}
}

// GetFramebuffer returns raw RGBA pixel data for the last finished frame.
func (e *Emulator) GetFramebuffer() []byte {
	return e.screen.pix
}

// GetFramebufferStride returns the stride (bytes per row) of the framebuffer.
func (e *Emulator) GetFramebufferStride() int {
	return ScreenWidth * 4
}

// GetActiveHeight returns the height of the last frame on the output surface.
func (e *Emulator) GetActiveHeight() int {
	return e.screen.activeHeight
}

// GetRegion returns the emulator's region setting
func (e *Emulator) GetRegion() Region {
	return e.region
}

// GetTiming returns the rate RunFrame must be called at and the lines
// per frame of the active standard.
func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       e.vdp.CyclesPerSecond(),
		Scanlines: e.vdp.Standard().TotalHeight,
	}
}

// SetRegion updates the emulator's region configuration
func (e *Emulator) SetRegion(region Region) {
	e.region = region
	e.vdp.SetVideoStandard(StandardForRegion(region))
}

// SetOption applies a core option change identified by key.
// Chip changes take effect on the next reset, or at once on a machine
// that has not run yet.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "chip":
		if c, ok := ParseChip(value); ok {
			e.setChip(c)
		}
	case "msx1_vdp":
		if value == "true" {
			e.setChip(ChipV9918)
		} else {
			e.setChip(ChipV9938)
		}
	case "debug_mode":
		if n, err := strconv.Atoi(value); err == nil {
			e.vdp.SetDebugMode(n)
		}
	case "sprite_mode":
		if n, err := strconv.Atoi(value); err == nil {
			e.vdp.SetSpriteDebugMode(n)
			mode, _ := e.vdp.SpriteDebugMode()
			e.spriteUnlimited = mode&SpriteDebugUnlimited != 0
			e.spriteNoCollisions = mode&SpriteDebugNoCollisions != 0
		}
	case "unlimited_sprites":
		e.spriteUnlimited = value == "true"
		e.applySpriteFlags()
	case "no_sprite_collisions":
		e.spriteNoCollisions = value == "true"
		e.applySpriteFlags()
	case "host_refresh":
		hz, _ := strconv.Atoi(value) // "auto" selects the native rate
		e.vdp.SetHostRefresh(hz)
	case "soft_standard":
		e.softStandard = value == "true"
	}
}

func (e *Emulator) setChip(c Chip) {
	e.chip = c
	if e.host.Cycles() == 0 && e.vdp.Chip() != c {
		e.Reset()
	}
}

// applySpriteFlags maps the two boolean sprite options onto a sprite
// debug mode. The mode values are the flag bits.
func (e *Emulator) applySpriteFlags() {
	mode := SpriteDebugNormal
	if e.spriteUnlimited {
		mode |= SpriteDebugUnlimited
	}
	if e.spriteNoCollisions {
		mode |= SpriteDebugNoCollisions
	}
	e.vdp.SetSpriteDebugMode(mode)
}

// ParseChip maps an option value ("v9938", "v9918") to a chip variant.
func ParseChip(s string) (Chip, bool) {
	switch s {
	case "v9938", "V9938":
		return ChipV9938, true
	case "v9918", "V9918":
		return ChipV9918, true
	}
	return ChipV9938, false
}

// VDP exposes the video chip to debugging tools.
func (e *Emulator) VDP() *VDP {
	return e.vdp
}

// Close releases any resources held by the emulator.
func (e *Emulator) Close() {}

// HasSRAM reports whether the loaded ROM uses battery-backed save.
// The test board has no cartridge RAM.
func (e *Emulator) HasSRAM() bool {
	return false
}

// GetSRAM returns nil; there is no battery-backed RAM.
func (e *Emulator) GetSRAM() []byte {
	return nil
}

// SetSRAM is a no-op.
func (e *Emulator) SetSRAM(data []byte) {}

// =============================================================================
// Frame output
// =============================================================================

// frameScaler receives VDP frames and scales them onto the fixed RGBA
// output surface, doubling 256 pixel modes horizontally and
// non-interlaced frames vertically.
type frameScaler struct {
	pix          []byte
	activeHeight int
	frames       int
}

func newFrameScaler() *frameScaler {
	return &frameScaler{
		pix:          make([]byte, ScreenWidth*MaxScreenHeight*4),
		activeHeight: MaxScreenHeight,
	}
}

func (s *frameScaler) NewFrame(pixels []uint32, x, y, width, height int) {
	const stride = ScreenWidth * 4
	sx, sy := 1, 1
	if width*2 <= ScreenWidth {
		sx = 2
	}
	if height*2 <= MaxScreenHeight {
		sy = 2
	}

	for row := 0; row < height; row++ {
		src := pixels[(y+row)*LineWidth+x:]
		dst := s.pix[row*sy*stride : (row*sy+1)*stride]
		o := 0
		for _, p := range src[:width] {
			for k := 0; k < sx; k++ {
				binary.LittleEndian.PutUint32(dst[o:], p)
				o += 4
			}
		}
		if sy == 2 {
			copy(s.pix[(row*2+1)*stride:(row*2+2)*stride], dst)
		}
	}
	s.activeHeight = height * sy
	s.frames++
}

// =============================================================================
// MemoryInspector interface
// =============================================================================

// Flat address boundaries for ReadMemory.
const (
	systemRAMStart = 0x00000
	systemRAMEnd   = 0x03FFF
	vramStart      = 0x04000
	vramEnd        = vramStart + vramSize - 1
)

// ReadMemory reads from a flat address into buf and returns the number
// of bytes read. Flat address mapping:
// 0x00000-0x03FFF -> System RAM (16KB)
// 0x04000-0x23FFF -> VRAM (128KB)
func (e *Emulator) ReadMemory(addr uint32, buf []byte) uint32 {
	var count uint32
	for i := range buf {
		cur := addr + uint32(i)
		switch {
		case cur <= systemRAMEnd:
			buf[i] = e.mem.ram[cur-systemRAMStart]
		case cur >= vramStart && cur <= vramEnd:
			buf[i] = e.vdp.vram[cur-vramStart]
		default:
			return count
		}
		count++
	}
	return count
}

// =============================================================================
// MemoryMapper interface
// =============================================================================

// MemoryMap returns a list of available memory regions with sizes.
func (e *Emulator) MemoryMap() []emucore.MemoryRegion {
	return []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: ramSize},
	}
}

// ReadRegion returns a copy of the specified memory region.
func (e *Emulator) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		out := make([]byte, len(e.mem.ram))
		copy(out, e.mem.ram[:])
		return out
	default:
		return nil
	}
}

// WriteRegion writes data to the specified memory region.
func (e *Emulator) WriteRegion(regionType int, data []byte) {
	switch regionType {
	case emucore.MemorySystemRAM:
		copy(e.mem.ram[:], data)
	}
}
