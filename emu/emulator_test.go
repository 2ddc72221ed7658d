package emu

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"

	emucore "github.com/user-none/eblitui/api"
)

func createTestEmulator() *Emulator {
	e, err := NewEmulator(createTestROM(2), RegionNTSC)
	if err != nil {
		panic(err)
	}
	return e
}

// interruptCounterROM enables the vertical interrupt and halts. The IM 1
// handler stores status 0 at $C000 and counts interrupts at $C001.
func interruptCounterROM() []byte {
	rom := createProgramROM(
		0xF3,             // DI
		0xED, 0x56,       // IM 1
		0x31, 0x00, 0x00, // LD SP,$0000
		0x3E, 0x20, // LD A,$20
		0xD3, 0x99, // OUT ($99),A
		0x3E, 0x81, // LD A,$81
		0xD3, 0x99, // OUT ($99),A   ; r1 = IE0
		0xFB, // EI
		0x76, // HALT
	)
	copy(rom[0x38:], []byte{
		0xDB, 0x99, // IN A,($99)
		0x32, 0x00, 0xC0, // LD ($C000),A
		0x21, 0x01, 0xC0, // LD HL,$C001
		0x34,       // INC (HL)
		0xFB,       // EI
		0xED, 0x4D, // RETI
	})
	return rom
}

// TestEmulator_NewEmulatorEmptyROM tests that an empty ROM is rejected
func TestEmulator_NewEmulatorEmptyROM(t *testing.T) {
	if _, err := NewEmulator(nil, RegionNTSC); err == nil {
		t.Error("NewEmulator should fail with an empty ROM")
	}
}

// TestEmulator_Timing tests the rate reported for each region
func TestEmulator_Timing(t *testing.T) {
	ntsc := createTestEmulator()
	if got := ntsc.GetTiming(); got.FPS != 60 || got.Scanlines != 262 {
		t.Errorf("NTSC timing: got %d fps / %d lines", got.FPS, got.Scanlines)
	}

	pal, err := NewEmulator(createTestROM(2), RegionPAL)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	if got := pal.GetTiming(); got.FPS != 50 || got.Scanlines != 313 {
		t.Errorf("PAL timing: got %d fps / %d lines", got.FPS, got.Scanlines)
	}

	pal.SetRegion(RegionNTSC)
	if pal.GetRegion() != RegionNTSC || pal.GetTiming().Scanlines != 262 {
		t.Error("SetRegion should switch the timing standard")
	}
}

// TestEmulator_RunFrameAudio tests the sample count of one frame
func TestEmulator_RunFrameAudio(t *testing.T) {
	e := createTestEmulator()
	e.RunFrame()

	samples := e.GetAudioSamples()
	// 262 lines of 228 cycles at 3.58MHz is about 801 samples at 48kHz
	if len(samples) < 1560 || len(samples) > 1640 {
		t.Errorf("Audio samples: expected about 1602, got %d", len(samples))
	}
	if len(samples)%2 != 0 {
		t.Errorf("Audio samples should be stereo pairs, got %d", len(samples))
	}

	e.RunFrame()
	if n := len(e.GetAudioSamples()); n < 1560 || n > 1640 {
		t.Errorf("Audio buffer should be reset each frame, got %d", n)
	}
}

// TestEmulator_Framebuffer tests that 256 pixel frames are doubled onto the output
func TestEmulator_Framebuffer(t *testing.T) {
	e := createTestEmulator()
	e.vdp.WriteRegister(7, 0x0F) // white backdrop
	e.RunFrame()

	if got := e.GetActiveHeight(); got != 456 {
		t.Errorf("Active height: expected 456, got %d", got)
	}
	if got := e.GetFramebufferStride(); got != ScreenWidth*4 {
		t.Errorf("Stride: expected %d, got %d", ScreenWidth*4, got)
	}
	fb := e.GetFramebuffer()
	if len(fb) != ScreenWidth*MaxScreenHeight*4 {
		t.Fatalf("Framebuffer length: expected %d, got %d", ScreenWidth*MaxScreenHeight*4, len(fb))
	}
	last := (455*ScreenWidth + 543) * 4
	if !bytes.Equal(fb[last:last+4], []byte{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("Last pixel: expected opaque white, got %v", fb[last:last+4])
	}
}

// TestFrameScaler tests horizontal and vertical doubling
func TestFrameScaler(t *testing.T) {
	s := newFrameScaler()
	pixels := make([]uint32, LineWidth*MaxSignalHeight)
	for x := 0; x < 272; x++ {
		pixels[x] = 0xFF000000 | uint32(x)
		pixels[LineWidth+x] = 0xFF000000 | uint32(x)<<8
	}

	s.NewFrame(pixels, 0, 0, 272, 228)
	if s.activeHeight != 456 {
		t.Errorf("Active height: expected 456, got %d", s.activeHeight)
	}

	pixel := func(x, y int) uint32 {
		return binary.LittleEndian.Uint32(s.pix[(y*ScreenWidth+x)*4:])
	}
	for _, tc := range []struct {
		x, y int
		want uint32
	}{
		{0, 0, 0xFF000000},
		{2, 0, 0xFF000001},
		{3, 0, 0xFF000001},
		{3, 1, 0xFF000001},
		{542, 1, 0xFF000000 | 271},
		{2, 2, 0xFF000100},
		{2, 3, 0xFF000100},
	} {
		if got := pixel(tc.x, tc.y); got != tc.want {
			t.Errorf("Pixel (%d, %d): expected 0x%08X, got 0x%08X", tc.x, tc.y, tc.want, got)
		}
	}

	// Wide interlaced frames are copied as is
	s.NewFrame(pixels, 0, 0, 544, 456)
	if s.activeHeight != 456 {
		t.Errorf("Interlaced active height: expected 456, got %d", s.activeHeight)
	}
	if got := pixel(1, 0); got != 0xFF000001 {
		t.Errorf("Pixel (1, 0): expected 0xFF000001, got 0x%08X", got)
	}
	if got := pixel(1, 1); got != 0xFF000100 {
		t.Errorf("Pixel (1, 1): expected 0xFF000100, got 0x%08X", got)
	}
}

// TestEmulator_ProgramWritesVDP tests that CPU port writes reach the VDP
func TestEmulator_ProgramWritesVDP(t *testing.T) {
	rom := createProgramROM(
		0x3E, 0xF4, // LD A,$F4
		0xD3, 0x99, // OUT ($99),A
		0x3E, 0x87, // LD A,$87
		0xD3, 0x99, // OUT ($99),A
		0x3E, 0x00, // LD A,$00
		0xD3, 0x99, // OUT ($99),A
		0x3E, 0x40, // LD A,$40
		0xD3, 0x99, // OUT ($99),A
		0x3E, 0xAB, // LD A,$AB
		0xD3, 0x98, // OUT ($98),A
	)
	e, err := NewEmulator(rom, RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}

	e.RunFrame()

	if got := e.VDP().Register(7); got != 0xF4 {
		t.Errorf("Register 7: expected 0xF4, got 0x%02X", got)
	}
	if got := e.VDP().VRAM()[0]; got != 0xAB {
		t.Errorf("VRAM[0]: expected 0xAB, got 0x%02X", got)
	}
}

// TestEmulator_VerticalInterrupt tests that the VDP interrupts the Z80 once per frame
func TestEmulator_VerticalInterrupt(t *testing.T) {
	e, err := NewEmulator(interruptCounterROM(), RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}

	e.RunFrame()
	if got := e.mem.Get(0xC001); got != 1 {
		t.Errorf("Interrupts after 1 frame: expected 1, got %d", got)
	}
	if got := e.mem.Get(0xC000); got&0x80 == 0 {
		t.Errorf("Status 0 read in the handler should have F set, got 0x%02X", got)
	}
	if e.vdp.InterruptAsserted() {
		t.Error("INT should be released by the handler's status read")
	}

	e.RunFrame()
	e.RunFrame()
	if got := e.mem.Get(0xC001); got != 3 {
		t.Errorf("Interrupts after 3 frames: expected 3, got %d", got)
	}
}

// TestEmulator_Reset tests that reset restarts the program
func TestEmulator_Reset(t *testing.T) {
	e, err := NewEmulator(interruptCounterROM(), RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	e.RunFrame()
	e.RunFrame()

	e.Reset()
	if got := e.mem.Get(0xC001); got != 0 {
		t.Errorf("RAM after reset: expected 0, got %d", got)
	}
	if e.vdp.Frame() != 0 {
		t.Errorf("VDP frame after reset: expected 0, got %d", e.vdp.Frame())
	}

	e.RunFrame()
	if got := e.mem.Get(0xC001); got != 1 {
		t.Errorf("Interrupts after reset and 1 frame: expected 1, got %d", got)
	}
}

// TestEmulator_SetOption tests the core option keys
func TestEmulator_SetOption(t *testing.T) {
	e := createTestEmulator()
	e.RunFrame()

	e.SetOption("chip", "v9918")
	if e.vdp.Chip() != ChipV9938 {
		t.Error("Chip change on a running machine should wait for reset")
	}
	e.Reset()
	if e.vdp.Chip() != ChipV9918 {
		t.Errorf("Chip after reset: expected V9918, got %s", e.vdp.Chip())
	}
	e.SetOption("chip", "bogus")
	if e.chip != ChipV9918 {
		t.Error("Unknown chip value should be ignored")
	}

	e.SetOption("host_refresh", "50")
	if got := e.GetTiming().FPS; got != 50 {
		t.Errorf("FPS with 50 Hz host: expected 50, got %d", got)
	}
	e.SetOption("host_refresh", "auto")
	if got := e.GetTiming().FPS; got != 60 {
		t.Errorf("FPS with auto host: expected 60, got %d", got)
	}

	e.SetOption("debug_mode", "5")
	if mode, _ := e.vdp.DebugMode(); mode != DebugPatternBits {
		t.Errorf("Debug mode: expected %d, got %d", DebugPatternBits, mode)
	}
	e.SetOption("sprite_mode", "3")
	if mode, _ := e.vdp.SpriteDebugMode(); mode != SpriteDebugUnlimitedNoCollisions {
		t.Errorf("Sprite mode: expected %d, got %d", SpriteDebugUnlimitedNoCollisions, mode)
	}
}

// TestEmulator_ChipOptionBeforeRun tests that a fresh machine switches chips at once
func TestEmulator_ChipOptionBeforeRun(t *testing.T) {
	e := createTestEmulator()

	e.SetOption("msx1_vdp", "true")
	if e.vdp.Chip() != ChipV9918 {
		t.Errorf("Chip: expected V9918, got %s", e.vdp.Chip())
	}
	e.SetOption("msx1_vdp", "false")
	if e.vdp.Chip() != ChipV9938 {
		t.Errorf("Chip: expected V9938, got %s", e.vdp.Chip())
	}
}

// TestEmulator_SpriteOptions tests the boolean sprite limit and collision options
func TestEmulator_SpriteOptions(t *testing.T) {
	e := createTestEmulator()

	testCases := []struct {
		key, value string
		want       int
	}{
		{"unlimited_sprites", "true", SpriteDebugUnlimited},
		{"no_sprite_collisions", "true", SpriteDebugUnlimitedNoCollisions},
		{"unlimited_sprites", "false", SpriteDebugNoCollisions},
		{"no_sprite_collisions", "false", SpriteDebugNormal},
	}
	for _, tc := range testCases {
		e.SetOption(tc.key, tc.value)
		if mode, name := e.vdp.SpriteDebugMode(); mode != tc.want {
			t.Errorf("%s=%s: expected mode %d, got %d (%s)", tc.key, tc.value, tc.want, mode, name)
		}
	}

	// The numeric mode keeps the flags in step
	e.SetOption("sprite_mode", "2")
	e.SetOption("unlimited_sprites", "true")
	if mode, _ := e.vdp.SpriteDebugMode(); mode != SpriteDebugUnlimitedNoCollisions {
		t.Errorf("Combined mode: expected %d, got %d", SpriteDebugUnlimitedNoCollisions, mode)
	}
}

// TestEmulator_SoftStandard tests that register 9 NT switches timing only when enabled
func TestEmulator_SoftStandard(t *testing.T) {
	e := createTestEmulator()

	e.vdp.WriteRegister(9, 0x02)
	if e.GetTiming().Scanlines != 262 {
		t.Error("NT should be ignored while soft_standard is off")
	}

	e.vdp.WriteRegister(9, 0x00)
	e.SetOption("soft_standard", "true")
	e.vdp.WriteRegister(9, 0x02)
	if got := e.GetTiming(); got.Scanlines != 313 || got.FPS != 50 {
		t.Errorf("Timing after NT=1: expected 50 fps / 313 lines, got %d / %d", got.FPS, got.Scanlines)
	}
	if e.GetRegion() != RegionNTSC {
		t.Error("Software standard switch should not change the region setting")
	}
	e.vdp.WriteRegister(9, 0x00)
	if e.GetTiming().Scanlines != 262 {
		t.Error("NT=0 should return to NTSC")
	}
}

func TestParseChip(t *testing.T) {
	testCases := []struct {
		in   string
		want Chip
		ok   bool
	}{
		{"v9938", ChipV9938, true},
		{"V9918", ChipV9918, true},
		{"tms9918", ChipV9938, false},
	}
	for _, tc := range testCases {
		got, ok := ParseChip(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseChip(%q): expected (%s, %v), got (%s, %v)", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}

// TestEmulator_SetInput_Bitmask tests button bitmask unpacking
func TestEmulator_SetInput_Bitmask(t *testing.T) {
	e := createTestEmulator()

	e.SetInput(0, 1<<emucore.ButtonUp|1<<4)
	if got := e.io.Input.Port1; got != 0xEE {
		t.Errorf("Port1 with up and button 1: expected 0xEE, got 0x%02X", got)
	}

	e.SetInput(1, 1<<emucore.ButtonLeft|1<<5)
	if got := e.io.Input.Port2; got != 0xF6 {
		t.Errorf("Port2 with P2 left and button 2: expected 0xF6, got 0x%02X", got)
	}

	e.SetInput(0, 0)
	if got := e.io.Input.Port1; got != 0xFF {
		t.Errorf("Port1 released: expected 0xFF, got 0x%02X", got)
	}
}

func TestSerializeSize(t *testing.T) {
	e := createTestEmulator()
	state, err := e.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if len(state) != SerializeSize() {
		t.Errorf("State length: expected %d, got %d", SerializeSize(), len(state))
	}
}

// TestSerializeDeserializeRoundTrip tests that a restored machine replays identically
func TestSerializeDeserializeRoundTrip(t *testing.T) {
	e, err := NewEmulator(interruptCounterROM(), RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	e.vdp.WriteRegister(7, 0x05)
	e.RunFrame()

	state, err := e.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	e.RunFrame()
	wantFB := append([]byte(nil), e.GetFramebuffer()...)
	wantAudio := len(e.GetAudioSamples())
	wantCount := e.mem.Get(0xC001)

	e.vdp.WriteRegister(7, 0x0A)
	e.mem.Set(0xC001, 0x99)

	if err := e.Deserialize(state); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if got := e.mem.Get(0xC001); got != 1 {
		t.Errorf("Counter after restore: expected 1, got %d", got)
	}
	if got := e.vdp.Register(7); got != 0x05 {
		t.Errorf("Register 7 after restore: expected 0x05, got 0x%02X", got)
	}

	e.RunFrame()
	if got := e.mem.Get(0xC001); got != wantCount {
		t.Errorf("Counter after replay: expected %d, got %d", wantCount, got)
	}
	if !bytes.Equal(e.GetFramebuffer(), wantFB) {
		t.Error("Replayed frame differs")
	}
	if got := len(e.GetAudioSamples()); got != wantAudio {
		t.Errorf("Replayed audio: expected %d samples, got %d", wantAudio, got)
	}
}

// TestVerifyState_ValidState tests that a valid state passes verification
func TestVerifyState_ValidState(t *testing.T) {
	e := createTestEmulator()

	state, err := e.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if err := e.VerifyState(state); err != nil {
		t.Errorf("VerifyState should pass for valid state: %v", err)
	}
}

// TestVerifyState_Rejects tests each header and integrity check
func TestVerifyState_Rejects(t *testing.T) {
	e := createTestEmulator()

	testCases := []struct {
		name    string
		corrupt func([]byte) []byte
	}{
		{"too short", func(s []byte) []byte { return s[:stateHeaderSize-1] }},
		{"truncated", func(s []byte) []byte { return s[:len(s)-1] }},
		{"invalid magic", func(s []byte) []byte { s[0] = 'X'; return s }},
		{"future version", func(s []byte) []byte {
			binary.LittleEndian.PutUint16(s[12:14], 9999)
			return s
		}},
		{"corrupt data", func(s []byte) []byte { s[stateHeaderSize+5] ^= 0xFF; return s }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			state, err := e.Serialize()
			if err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}
			if err := e.VerifyState(tc.corrupt(state)); err == nil {
				t.Error("VerifyState should reject the state")
			}
		})
	}
}

// TestVerifyState_WrongROM tests mismatched ROM CRC32 rejection
func TestVerifyState_WrongROM(t *testing.T) {
	e1 := createTestEmulator()
	state, err := e1.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	e2, err := NewEmulator(createTestROM(3), RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	if err := e2.VerifyState(state); err == nil {
		t.Error("VerifyState should reject state from different ROM")
	}
	if err := e2.Deserialize(state); err == nil {
		t.Error("Deserialize should reject state from different ROM")
	}
}

// TestDeserialize_PreservesRegion tests that region is NOT changed by load
func TestDeserialize_PreservesRegion(t *testing.T) {
	rom := createTestROM(2)
	ntsc, _ := NewEmulator(rom, RegionNTSC)
	state, err := ntsc.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	pal, _ := NewEmulator(rom, RegionPAL)
	if err := pal.Deserialize(state); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if pal.GetRegion() != RegionPAL {
		t.Errorf("Region should be preserved as PAL, got %v", pal.GetRegion())
	}
	// The raster position belongs to the saved standard
	if pal.GetTiming().Scanlines != 262 {
		t.Errorf("Standard should follow the state, got %d lines", pal.GetTiming().Scanlines)
	}
}

// TestSerialize_StateIntegrity tests that serialized state has correct format
func TestSerialize_StateIntegrity(t *testing.T) {
	e := createTestEmulator()

	state, err := e.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	if string(state[0:12]) != stateMagic {
		t.Errorf("Magic bytes: expected %q, got %q", stateMagic, string(state[0:12]))
	}
	if version := binary.LittleEndian.Uint16(state[12:14]); version != stateVersion {
		t.Errorf("Version: expected %d, got %d", stateVersion, version)
	}
	if romCRC := binary.LittleEndian.Uint32(state[14:18]); romCRC != e.mem.GetROMCRC32() {
		t.Errorf("ROM CRC32: expected 0x%08X, got 0x%08X", e.mem.GetROMCRC32(), romCRC)
	}
	dataCRC := binary.LittleEndian.Uint32(state[18:22])
	if calculated := crc32.ChecksumIEEE(state[stateHeaderSize:]); dataCRC != calculated {
		t.Errorf("Data CRC32: expected 0x%08X, got 0x%08X", calculated, dataCRC)
	}
}

// TestEmulator_SRAM tests that the board reports no battery RAM
func TestEmulator_SRAM(t *testing.T) {
	e := createTestEmulator()

	if e.HasSRAM() {
		t.Error("HasSRAM should return false")
	}
	if e.GetSRAM() != nil {
		t.Error("GetSRAM should return nil")
	}
	e.SetSRAM([]byte{1, 2, 3})
}

// TestEmulator_ReadMemory tests flat address memory reading
func TestEmulator_ReadMemory(t *testing.T) {
	e := createTestEmulator()
	e.mem.ram[0] = 0xDE
	e.mem.ram[1] = 0xAD
	e.vdp.VRAM()[0x1FFFF] = 0x77

	buf := make([]byte, 4)
	if n := e.ReadMemory(0, buf); n != 4 {
		t.Errorf("ReadMemory: expected 4 bytes read, got %d", n)
	}
	if buf[0] != 0xDE || buf[1] != 0xAD {
		t.Errorf("ReadMemory: expected [0xDE, 0xAD, ...], got [0x%02X, 0x%02X, ...]", buf[0], buf[1])
	}

	// The last VRAM byte, then the end of the map
	if n := e.ReadMemory(vramEnd, buf); n != 1 || buf[0] != 0x77 {
		t.Errorf("ReadMemory at VRAM end: expected 1 byte 0x77, got %d bytes 0x%02X", n, buf[0])
	}
	if n := e.ReadMemory(vramEnd+1, buf); n != 0 {
		t.Errorf("ReadMemory past VRAM: expected 0 bytes, got %d", n)
	}
}

// TestEmulator_MemoryMap tests memory region listing
func TestEmulator_MemoryMap(t *testing.T) {
	e := createTestEmulator()

	regions := e.MemoryMap()
	if len(regions) != 1 {
		t.Fatalf("MemoryMap: expected 1 region, got %d", len(regions))
	}
	if regions[0].Type != emucore.MemorySystemRAM || regions[0].Size != 0x4000 {
		t.Errorf("System RAM region: got type %d size 0x%X", regions[0].Type, regions[0].Size)
	}
}

// TestEmulator_ReadWriteRegion tests region read/write round-trip
func TestEmulator_ReadWriteRegion(t *testing.T) {
	e := createTestEmulator()

	data := make([]byte, 0x4000)
	data[0] = 0xBE
	data[1] = 0xEF
	e.WriteRegion(emucore.MemorySystemRAM, data)

	result := e.ReadRegion(emucore.MemorySystemRAM)
	if result[0] != 0xBE || result[1] != 0xEF {
		t.Errorf("ReadRegion: expected [0xBE, 0xEF], got [0x%02X, 0x%02X]", result[0], result[1])
	}
	result[0] = 0
	if e.mem.ram[0] != 0xBE {
		t.Error("ReadRegion should return a copy")
	}
	if e.ReadRegion(emucore.MemorySaveRAM) != nil {
		t.Error("Save RAM region should be nil")
	}
}
