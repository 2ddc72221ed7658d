package emu

// Chip selects which member of the VDP family is emulated.
type Chip int

const (
	ChipV9938 Chip = iota // MSX2: 128KB VRAM, palette, bitmap modes
	ChipV9918             // MSX1: TMS9918 compatible subset
)

func (c Chip) String() string {
	switch c {
	case ChipV9938:
		return "V9938"
	case ChipV9918:
		return "V9918"
	default:
		return "Unknown"
	}
}

const (
	vramSize      = 0x20000 // 128KB addressable
	vramMask      = vramSize - 1
	registerCount = 47
	statusCount   = 10

	// LineWidth is the stride of the frame buffer in pixels: 512 active
	// pixels plus 16 pixels of border on each side.
	LineWidth = 512 + 16*2

	// MaxSignalHeight is the tallest signal the chip produces (interlaced LN=1).
	MaxSignalHeight = (212 + 8*2) * 2
)

// VDP emulates the V9938/V9918 video display processor.
//
// The chip is driven by ClockPulse, which runs one scheduler cycle of
// scanlines and in turn advances the host CPU and audio collaborators
// in small bursts so that port accesses land at the right point of
// each line. All state lives in this struct; nothing is shared with
// other goroutines.
type VDP struct {
	chip Chip

	cpu    HostCPU
	audio  AudioClock
	signal VideoSignal
	cmd    CommandProcessor

	vram            [vramSize]uint8
	register        [registerCount]uint8
	status          [statusCount]uint8
	paletteRegister [16]uint16

	// Derived palette cache. Entries 0-15 are used for painting with
	// color 0 already resolved for transparency, 16-31 hold the solid values.
	colorPalette [32]uint32

	// Port state
	vramPointer       int
	dataLatched       bool
	dataToWrite       uint8
	paletteLatched    bool
	paletteFirstWrite uint8

	// Mode and resolved table addresses
	mode                      uint8
	modeData                  *modeInfo
	layoutTableAddress        int
	layoutTableAddressMask    int
	colorTableAddress         int
	colorTableAddressMask     int
	patternTableAddress       int
	patternTableAddressMask   int
	spriteAttrTableAddress    int
	spritePatternTableAddress int

	// Backdrop
	backdropColor uint8
	backdropValue uint32
	backdropLine  [LineWidth]uint32
	color0Solid   bool

	horizontalAdjust  int
	verticalAdjust    int
	horizontalIntLine int

	blinkEvenPage         bool
	blinkPageDuration     int
	alternativePageOffset int

	verticalIntReached    bool
	pendingBlankingChange bool

	// Sprites
	spriteGen             int // 0 = none, 1 or 2
	spriteSize            int // register 1 bits SI and MAG
	spritesCollided       bool
	spritesCollisionX     int
	spritesCollisionY     int
	spritesInvalid        int
	spritesMaxComputed    int
	spritesLinePriorities [256]int64
	spritesLineColors     [256]uint8
	spritesGlobalPriority int64

	// Timing
	standard                      VideoStandard
	hostRefresh                   int
	scanlinesPerCycle             int
	pulldownFirstFrameLinesAdjust int
	currentScanline               int
	startingScanline              int
	startingTopBorderScanline     int
	startingActiveScanline        int
	startingBottomBorderScanline  int
	finishingScanline             int
	signalWidth                   int
	signalHeight                  int
	frame                         int64
	cycles                        int64
	lastCPUCyclesComputed         int64

	// Rendering
	inActiveDisplay   bool
	renderLineActive  lineRenderer
	frameBuffer       []uint32
	frontBuffer       []uint32
	frontWidth        int
	frontHeight       int
	refreshPending    bool
	bufferPosition    int
	bufferLineAdvance int

	// Debug
	debugMode              int
	debugPatternInfo       bool
	debugPatternInfoBlocks bool
	debugPatternInfoNames  bool
	debugSpritesHidden     bool
	spriteDebugMode        int
	spriteDebugLimit       bool
	spriteDebugCollisions  bool

	softStandard func(pal bool)
}

// NewVDP creates a VDP of the given chip variant in its power-on state.
// Collaborators default to inert implementations until Connect is called.
func NewVDP(chip Chip) *VDP {
	v := &VDP{
		chip:        chip,
		cpu:         nopHostCPU{},
		audio:       nopAudioClock{},
		signal:      nopVideoSignal{},
		cmd:         &IdleCommandProcessor{},
		standard:    NTSCStandard,
		frameBuffer: make([]uint32, LineWidth*MaxSignalHeight),
		frontBuffer: make([]uint32, LineWidth*MaxSignalHeight),
		modeData:    modeTable[0],
	}
	v.cmd.Connect(v.vram[:], v.register[:], v.status[:])
	v.setDebugMode(0)
	v.setSpriteDebugMode(0)
	v.Reset()
	return v
}

// Connect attaches the host CPU, audio clock and presentation collaborators.
// A nil argument keeps the current collaborator.
func (v *VDP) Connect(cpu HostCPU, audio AudioClock, signal VideoSignal) {
	if cpu != nil {
		v.cpu = cpu
	}
	if audio != nil {
		v.audio = audio
	}
	if signal != nil {
		v.signal = signal
	}
	v.updateIRQ()
}

// SetCommandProcessor replaces the block-transfer engine and grants it
// access to VRAM and the register and status banks.
func (v *VDP) SetCommandProcessor(cp CommandProcessor) {
	v.cmd = cp
	cp.Connect(v.vram[:], v.register[:], v.status[:])
	cp.SetMode(v.mode)
}

// OnSoftStandard registers a callback for writes to the NT bit of
// register 9. The argument is true when software selects PAL timing.
func (v *VDP) OnSoftStandard(fn func(pal bool)) {
	v.softStandard = fn
}

// Reset returns the chip to power-on defaults without reallocating storage.
func (v *VDP) Reset() {
	v.frame = 0
	v.cycles = 0
	v.lastCPUCyclesComputed = 0
	v.dataLatched = false
	v.vramPointer = 0
	v.paletteLatched = false
	v.verticalAdjust = 0
	v.horizontalAdjust = 0
	v.backdropColor = 0
	v.pendingBlankingChange = false
	v.spritesCollided = false
	v.spritesCollisionX = -1
	v.spritesCollisionY = -1
	v.spritesInvalid = -1
	v.spritesMaxComputed = 0
	v.verticalIntReached = false
	v.horizontalIntLine = 0
	v.inActiveDisplay = false
	v.renderLineActive = renderBlanked
	v.refreshPending = false

	v.initRegisters()
	v.initColorPalette()
	v.initSpritesConflictMap()
	v.cmd.Reset()
	v.updateIRQ()
	v.updateMode()
	v.updateBackdropColor(true)
	v.updateSynchronization()
	v.updateBlinking()
	v.updatePageAlternance()
	v.beginFrame()
}

func (v *VDP) initRegisters() {
	clear(v.register[:])
	clear(v.status[:])
	v.status[1] = 0x00 // chip ID: V9938
	v.status[2] = 0x0c // fixed 1 bits
	v.status[4] = 0xfe
	v.status[6] = 0xfc
	v.status[9] = 0xfe
}

// Chip returns the emulated chip variant.
func (v *VDP) Chip() Chip {
	return v.chip
}

// SetChip switches the emulated variant and resets the chip.
func (v *VDP) SetChip(chip Chip) {
	v.chip = chip
	v.Reset()
}

// ReadData handles a CPU read of the data port (0x98).
func (v *VDP) ReadData() uint8 {
	v.dataLatched = false
	res := v.vram[v.vramPointer]
	v.vramPointer++
	v.checkVRAMPointerWrap()
	return res
}

// WriteData handles a CPU write to the data port (0x98).
func (v *VDP) WriteData(val uint8) {
	v.dataLatched = false
	v.vram[v.vramPointer] = val
	v.vramPointer++
	v.checkVRAMPointerWrap()
}

// checkVRAMPointerWrap handles the 14-bit auto-increment overflow.
// In V9938 modes the overflow carries into register 14 (bank). The
// V9918 has no bank and always wraps within 16KB.
func (v *VDP) checkVRAMPointerWrap() {
	if v.vramPointer&0x3fff != 0 {
		return
	}
	if v.chip == ChipV9938 && v.modeData.v9938 {
		v.register[14] = (v.register[14] + 1) & 0x07
	}
	v.vramPointer = int(v.register[14]) << 14
}

// ReadStatus handles a CPU read of the status port (0x99).
func (v *VDP) ReadStatus() uint8 {
	v.dataLatched = false
	reg := v.register[15]
	switch reg {
	case 0:
		return v.getStatus0()
	case 1:
		res := v.status[1]
		v.status[1] &^= 0x80 // FL
		if v.register[0]&0x10 != 0 && v.status[1]&0x01 != 0 {
			v.status[1] &^= 0x01 // FH
			v.updateIRQ()
		}
		return res
	case 2:
		v.cmd.UpdateStatus()
		return v.status[2]
	case 5:
		res := v.status[5]
		v.spritesCollisionX = -1
		v.spritesCollisionY = -1
		v.status[3] = 0
		v.status[4] = 0
		v.status[5] = 0
		v.status[6] = 0
		return res
	case 7:
		res := v.status[7]
		v.cmd.CPURead()
		return res
	case 3, 4, 6, 8, 9:
		return v.status[reg]
	default:
		return 0xff
	}
}

// getStatus0 synthesizes status register 0 from live flags and clears them.
func (v *VDP) getStatus0() uint8 {
	var res uint8
	if v.verticalIntReached {
		res |= 0x80 // F
		v.verticalIntReached = false
		v.updateIRQ()
	}
	if v.spritesCollided {
		res |= 0x20 // C
		v.spritesCollided = false
	}
	if v.spritesInvalid >= 0 {
		res |= 0x40 | uint8(v.spritesInvalid) // 5S + 5th sprite number
		v.spritesInvalid = -1
	} else {
		res |= uint8(v.spritesMaxComputed)
	}
	v.spritesMaxComputed = 0
	return res
}

// WriteControl handles a CPU write to the control port (0x99).
func (v *VDP) WriteControl(val uint8) {
	if v.chip == ChipV9918 {
		v.writeControlV9918(val)
		return
	}
	if !v.dataLatched {
		v.dataToWrite = val
		v.dataLatched = true
		return
	}
	if val&0x80 != 0 {
		// Register write, unless bit 6 is set
		if val&0x40 == 0 {
			v.WriteRegister(int(val&0x3f), v.dataToWrite)
		}
	} else {
		// VRAM pointer setup. Read and write setups behave the same.
		v.vramPointer = (v.vramPointer & 0x1c000) | int(val&0x3f)<<8 | int(v.dataToWrite)
	}
	v.dataLatched = false
}

// The V9918 latches the pointer low byte on the first write and has
// only 8 registers.
func (v *VDP) writeControlV9918(val uint8) {
	if !v.dataLatched {
		v.dataToWrite = val
		v.vramPointer = (v.vramPointer & 0x1ff00) | int(val)
		v.dataLatched = true
		return
	}
	if val&0x80 != 0 {
		v.WriteRegister(int(val&0x07), v.dataToWrite)
	}
	v.vramPointer = (v.vramPointer & 0x1c0ff) | int(val&0x3f)<<8
	v.dataLatched = false
}

// WritePalette handles a CPU write to the palette port (0x9A).
// Two writes form one 16-bit palette value: 0RRR0BBB then 00000GGG.
func (v *VDP) WritePalette(val uint8) {
	if v.chip == ChipV9918 {
		return
	}
	if !v.paletteLatched {
		v.paletteFirstWrite = val
		v.paletteLatched = true
		return
	}
	reg := v.register[16] & 0x0f
	v.writePaletteRegister(int(reg), uint16(val)<<8|uint16(v.paletteFirstWrite))
	v.paletteLatched = false
	v.register[16] = (reg + 1) & 0x0f
}

// WriteIndirect handles a CPU write to the indirect register port (0x9B).
func (v *VDP) WriteIndirect(val uint8) {
	if v.chip == ChipV9918 {
		return
	}
	reg := v.register[17] & 0x3f
	if reg != 17 {
		v.WriteRegister(int(reg), val)
	}
	if v.register[17]&0x80 == 0 {
		v.register[17] = (reg + 1) & 0x3f
	}
}

// WriteRegister stores a control register and fires the side effects of
// the bits that changed. Registers above 46 do not exist and are ignored.
func (v *VDP) WriteRegister(reg int, val uint8) {
	if reg < 0 || reg >= registerCount {
		return
	}
	old := v.register[reg]
	v.register[reg] = val
	mod := old ^ val

	switch reg {
	case 0:
		if mod&0x10 != 0 { // IE1
			v.updateIRQ()
		}
		if mod&0x0e != 0 { // M5, M4, M3
			v.updateMode()
		}
	case 1:
		if mod&0x20 != 0 { // IE0
			v.updateIRQ()
		}
		if mod&0x40 != 0 { // BL, applied at the start of the next line
			v.pendingBlankingChange = true
		}
		if mod&0x18 != 0 { // M1, M2
			v.updateMode()
		} else if mod&0x03 != 0 { // SI, MAG
			v.updateSpritesLineType()
		}
	case 2:
		if mod&0x7f != 0 {
			v.updateLayoutTableAddress()
		}
	case 3, 10:
		if reg == 3 || mod&0x07 != 0 {
			v.updateColorTableAddress()
		}
	case 4:
		if mod&0x3f != 0 {
			v.updatePatternTableAddress()
		}
	case 5, 11:
		if reg == 5 || mod&0x03 != 0 {
			v.updateSpriteAttrTableAddress()
		}
	case 6:
		if mod&0x3f != 0 {
			v.updateSpritePatternTableAddress()
		}
	case 7:
		mask := uint8(0x0f)
		if v.mode == 7 {
			mask = 0xff
		}
		if mod&mask != 0 {
			v.updateBackdropColor(false)
		}
	case 8:
		if mod&0x20 != 0 { // TP
			v.updateTransparency()
		}
		if mod&0x02 != 0 { // SPD
			v.updateSpritesLineType()
		}
	case 9:
		if mod&0x88 != 0 { // LN, IL
			v.updateSignalMetrics()
		}
		if mod&0x04 != 0 { // EO
			v.updatePageAlternance()
		}
		if mod&0x02 != 0 { // NT
			v.updateVideoStandardSoft()
		}
	case 13:
		v.updateBlinking()
	case 14:
		if mod&0x07 != 0 {
			v.vramPointer = int(val&0x07)<<14 | (v.vramPointer & 0x3fff)
		}
	case 16:
		v.paletteLatched = false
	case 18:
		if mod&0x0f != 0 {
			v.horizontalAdjust = -7 + int((val&0x0f)^0x07)
		}
		if mod&0xf0 != 0 {
			v.verticalAdjust = -7 + int((val>>4)^0x07)
			v.updateSignalMetrics()
		}
	case 19:
		v.horizontalIntLine = int(val-v.register[23]) & 0xff
	case 23:
		v.horizontalIntLine = int(v.register[19]-val) & 0xff
	case 44:
		v.cmd.CPUWrite(val)
	case 46:
		v.cmd.StartCommand(val)
	}
}

func (v *VDP) updateVideoStandardSoft() {
	if v.softStandard != nil {
		v.softStandard(v.register[9]&0x02 != 0)
	}
}

// Register returns the raw value of control register n.
func (v *VDP) Register(n int) uint8 {
	if n < 0 || n >= registerCount {
		return 0xff
	}
	return v.register[n]
}

// Status returns status register n without any read side effects.
func (v *VDP) Status(n int) uint8 {
	if n < 0 || n >= statusCount {
		return 0xff
	}
	return v.status[n]
}

// VRAM exposes the video memory for inspection and direct loading.
func (v *VDP) VRAM() []uint8 {
	return v.vram[:]
}

// VRAMPointer returns the current 17-bit VRAM access address.
func (v *VDP) VRAMPointer() int {
	return v.vramPointer
}

// PaletteRegister returns the raw 16-bit value of palette entry n.
func (v *VDP) PaletteRegister(n int) uint16 {
	return v.paletteRegister[n&0x0f]
}

// Mode returns the 5-bit display mode code.
func (v *VDP) Mode() uint8 {
	return v.mode
}

// ModeName returns the name of the current display mode.
func (v *VDP) ModeName() string {
	return v.modeData.name
}

// Frame returns the number of frames finished since reset.
func (v *VDP) Frame() int64 {
	return v.frame
}

// CurrentScanline returns the scheduler's scanline counter. Lines before
// the top border are negative.
func (v *VDP) CurrentScanline() int {
	return v.currentScanline
}

// SignalSize returns the dimensions of the frames currently produced.
func (v *VDP) SignalSize() (width, height int) {
	return v.signalWidth, v.signalHeight
}

// InterruptAsserted reports the current level of the INT line.
func (v *VDP) InterruptAsserted() bool {
	return v.interruptLine()
}
