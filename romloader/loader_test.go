package romloader

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// createTestROMFile creates a temporary .rom file with test data
func createTestROMFile(t *testing.T, data []byte) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.rom")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to create test ROM file: %v", err)
	}
	return path
}

// createTestZipFile creates a temporary .zip file containing a ROM file
func createTestZipFile(t *testing.T, romData []byte, romName string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.zip")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	fw, err := w.Create(romName)
	if err != nil {
		t.Fatalf("Failed to create file in zip: %v", err)
	}
	if _, err := fw.Write(romData); err != nil {
		t.Fatalf("Failed to write to zip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return path
}

// createTestGzipFile creates a temporary .gz file containing ROM data
func createTestGzipFile(t *testing.T, romData []byte) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.rom.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create gzip file: %v", err)
	}
	defer f.Close()

	w := gzip.NewWriter(f)
	if _, err := w.Write(romData); err != nil {
		t.Fatalf("Failed to write to gzip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close gzip: %v", err)
	}
	return path
}

// TestLoader_RawROMLoad tests loading plain .rom files
func TestLoader_RawROMLoad(t *testing.T) {
	testData := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	path := createTestROMFile(t, testData)

	data, name, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}

	if name != "test.rom" {
		t.Errorf("Name mismatch: expected test.rom, got %s", name)
	}
}

// TestLoader_ZipLoad tests loading ROMs from ZIP archives
func TestLoader_ZipLoad(t *testing.T) {
	testData := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	path := createTestZipFile(t, testData, "game.mx2")

	data, name, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}

	if name != "game.mx2" {
		t.Errorf("Name mismatch: expected game.mx2, got %s", name)
	}
}

// TestLoader_GzipLoad tests loading ROMs from gzip files
func TestLoader_GzipLoad(t *testing.T) {
	testData := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	path := createTestGzipFile(t, testData)

	data, _, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}
}

// TestLoader_FormatDetectionMagic tests detection via magic bytes
func TestLoader_FormatDetectionMagic(t *testing.T) {
	testCases := []struct {
		header   []byte
		path     string
		expected formatType
	}{
		{[]byte{0x50, 0x4B, 0x03, 0x04}, "file.dat", formatZIP},
		{[]byte{0x50, 0x4B, 0x05, 0x06}, "file.dat", formatZIP},
		{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, "file.dat", format7z},
		{[]byte{0x1F, 0x8B}, "file.dat", formatGzip},
		{[]byte{0x52, 0x61, 0x72, 0x21}, "file.dat", formatRAR},
	}

	for _, tc := range testCases {
		result := detectFormat(tc.header, tc.path)
		if result != tc.expected {
			t.Errorf("detectFormat(%v, %s): expected %d, got %d", tc.header, tc.path, tc.expected, result)
		}
	}
}

// TestLoader_FormatDetectionExtension tests fallback to extension
func TestLoader_FormatDetectionExtension(t *testing.T) {
	testCases := []struct {
		path     string
		expected formatType
	}{
		{"game.rom", formatRawROM},
		{"game.ROM", formatRawROM},
		{"game.mx1", formatRawROM},
		{"game.bin", formatRawROM},
		{"game.zip", formatZIP},
		{"game.ZIP", formatZIP},
		{"game.7z", format7z},
		{"game.gz", formatGzip},
		{"game.tgz", formatGzip},
		{"game.tar.gz", formatGzip},
		{"game.rar", formatRAR},
		{"game.unknown", formatUnknown},
	}

	for _, tc := range testCases {
		// Use empty header to force extension-based detection
		result := detectFormat([]byte{}, tc.path)
		if result != tc.expected {
			t.Errorf("detectFormat([], %s): expected %d, got %d", tc.path, tc.expected, result)
		}
	}
}

// TestLoader_NoROMInArchive tests error when no ROM found in archive
func TestLoader_NoROMInArchive(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.zip")

	// Create zip with a non-ROM file
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}

	w := zip.NewWriter(f)
	fw, _ := w.Create("readme.txt")
	fw.Write([]byte("hello"))
	w.Close()
	f.Close()

	_, _, err = LoadROM(path)
	if err == nil {
		t.Error("Expected error when no ROM file in archive")
	}
	if !errors.Is(err, ErrNoROMFile) {
		t.Errorf("Expected ErrNoROMFile, got %v", err)
	}
}

// TestLoader_FileTooLarge tests rejection of files exceeding size limit
func TestLoader_FileTooLarge(t *testing.T) {
	// Create a large file that exceeds maxROMSize
	largeData := make([]byte, maxROMSize+1)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "large.rom")
	if err := os.WriteFile(path, largeData, 0644); err != nil {
		t.Fatalf("Failed to create large file: %v", err)
	}

	// For raw files, the current implementation reads all data
	// The size check is in limitedRead which is used for archives
	// Let's test with a gzip file instead
	gzPath := filepath.Join(tmpDir, "large.rom.gz")
	f, err := os.Create(gzPath)
	if err != nil {
		t.Fatalf("Failed to create gzip: %v", err)
	}

	w := gzip.NewWriter(f)
	w.Write(largeData)
	w.Close()
	f.Close()

	_, _, err = LoadROM(gzPath)
	if err == nil {
		t.Error("Expected error for oversized file")
	}
}

// TestLoader_FileNotFound tests error for missing files
func TestLoader_FileNotFound(t *testing.T) {
	_, _, err := LoadROM("/nonexistent/path/game.rom")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

// TestLoader_IsROMFile tests the cartridge image extension check
func TestLoader_IsROMFile(t *testing.T) {
	testCases := []struct {
		name     string
		expected bool
	}{
		{"game.rom", true},
		{"game.ROM", true},
		{"game.mx1", true},
		{"game.Mx2", true},
		{"game.bin", true},
		{"game.txt", false},
		{"game.rom.bak", false},
		{"game", false},
		{"rom", false},
		{".rom", true},
	}

	for _, tc := range testCases {
		result := isROMFile(tc.name)
		if result != tc.expected {
			t.Errorf("isROMFile(%q): expected %v, got %v", tc.name, tc.expected, result)
		}
	}
}

// TestLoader_ZipWithSubdirectory tests extracting a ROM from a nested directory
func TestLoader_ZipWithSubdirectory(t *testing.T) {
	testData := []byte{0x12, 0x34, 0x56}
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.zip")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}

	w := zip.NewWriter(f)
	// Create file in subdirectory
	fw, _ := w.Create("roms/msx2/test.rom")
	fw.Write(testData)
	w.Close()
	f.Close()

	data, name, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}

	if name != "test.rom" {
		t.Errorf("Name should be just the filename, got %s", name)
	}
}

// TestLoader_EmptyFile tests handling of empty files
func TestLoader_EmptyFile(t *testing.T) {
	path := createTestROMFile(t, []byte{})

	data, _, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	if len(data) != 0 {
		t.Errorf("Expected empty data, got %d bytes", len(data))
	}
}

// TestLoader_MaxROMSizeConstant tests that the size limit is reasonable
func TestLoader_MaxROMSizeConstant(t *testing.T) {
	// The largest megaROMs are 4MB
	if maxROMSize < 4*1024*1024 {
		t.Errorf("maxROMSize too small: %d bytes (should be at least 4MB)", maxROMSize)
	}
	if maxROMSize > 16*1024*1024 {
		t.Errorf("maxROMSize unexpectedly large: %d bytes", maxROMSize)
	}
}

// TestLoader_MagicBytesDefinition tests that magic byte arrays are correct
func TestLoader_MagicBytesDefinition(t *testing.T) {
	// ZIP magic: "PK\x03\x04"
	if !bytes.Equal(magicZIP, []byte{0x50, 0x4B, 0x03, 0x04}) {
		t.Error("ZIP magic bytes incorrect")
	}

	// 7z magic
	if !bytes.Equal(magic7z, []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}) {
		t.Error("7z magic bytes incorrect")
	}

	// Gzip magic
	if !bytes.Equal(magicGzip, []byte{0x1F, 0x8B}) {
		t.Error("Gzip magic bytes incorrect")
	}

	// RAR magic: "Rar!"
	if !bytes.Equal(magicRAR, []byte{0x52, 0x61, 0x72, 0x21}) {
		t.Error("RAR magic bytes incorrect")
	}
}

// TestLoader_GzipName tests that the name stored in the gzip header is used
func TestLoader_GzipName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create gzip: %v", err)
	}
	w := gzip.NewWriter(f)
	w.Name = "dir/stored.mx1"
	w.Write([]byte{0x41, 0x42})
	w.Close()
	f.Close()

	_, name, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if name != "stored.mx1" {
		t.Errorf("Name mismatch: expected stored.mx1, got %s", name)
	}
}

// TestLoader_TarGzLoad tests extracting a ROM from a tarball
func TestLoader_TarGzLoad(t *testing.T) {
	testData := []byte{0xF3, 0xC3, 0x00, 0x40}
	path := filepath.Join(t.TempDir(), "bundle.tar.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create tarball: %v", err)
	}
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	for _, entry := range []struct {
		name string
		data []byte
	}{
		{"README", []byte("docs")},
		{"game/cart.rom", testData},
	} {
		hdr := &tar.Header{Name: entry.name, Mode: 0644, Size: int64(len(entry.data)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("Failed to write tar header: %v", err)
		}
		tw.Write(entry.data)
	}
	tw.Close()
	gw.Close()
	f.Close()

	data, name, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if !bytes.Equal(data, testData) {
		t.Errorf("Data mismatch: expected %v, got %v", testData, data)
	}
	if name != "cart.rom" {
		t.Errorf("Name mismatch: expected cart.rom, got %s", name)
	}
}

// TestLoader_UnknownFormat tests rejection of unrecognized files
func TestLoader_UnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	_, _, err := LoadROM(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

// createMultiZipFile creates a temporary .zip file holding several entries in order
func createMultiZipFile(t *testing.T, entries map[string][]byte, order []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "multi.zip")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, name := range order {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", name, err)
		}
		if _, err := fw.Write(entries[name]); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return path
}

// cartridgeImage returns a 16KB image starting with the "AB" header.
func cartridgeImage() []byte {
	rom := make([]byte, 0x4000)
	rom[0], rom[1] = 'A', 'B'
	rom[2], rom[3] = 0x10, 0x40 // INIT
	return rom
}

// TestLoader_PrefersCartridgeHeader tests that an "AB" image wins over earlier files
func TestLoader_PrefersCartridgeHeader(t *testing.T) {
	cart := cartridgeImage()
	entries := map[string][]byte{
		"bios.bin":  bytes.Repeat([]byte{0xC3}, 0x4000),
		"game.rom":  cart,
		"extra.rom": cartridgeImage()[2:],
	}

	data, name, err := LoadROM(createMultiZipFile(t, entries, []string{"bios.bin", "game.rom", "extra.rom"}))
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if name != "game.rom" {
		t.Errorf("Name mismatch: expected game.rom, got %s", name)
	}
	if !bytes.Equal(data, cart) {
		t.Error("Data should be the cartridge image")
	}
}

// TestLoader_FallsBackToFirstImage tests archives without any cartridge header
func TestLoader_FallsBackToFirstImage(t *testing.T) {
	entries := map[string][]byte{
		"a.rom": {0x01, 0x02},
		"b.rom": {0x03, 0x04},
	}

	data, name, err := LoadROM(createMultiZipFile(t, entries, []string{"a.rom", "b.rom"}))
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if name != "a.rom" || !bytes.Equal(data, entries["a.rom"]) {
		t.Errorf("Expected a.rom, got %s (%v)", name, data)
	}
}

// TestLoader_TarGzPrefersCartridgeHeader tests the same choice inside a tarball
func TestLoader_TarGzPrefersCartridgeHeader(t *testing.T) {
	cart := cartridgeImage()
	path := filepath.Join(t.TempDir(), "set.tgz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create tarball: %v", err)
	}
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	for _, entry := range []struct {
		name string
		data []byte
	}{
		{"disk.rom", []byte{0xFE, 0x00}},
		{"cart.mx2", cart},
	} {
		hdr := &tar.Header{Name: entry.name, Mode: 0644, Size: int64(len(entry.data)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("Failed to write tar header: %v", err)
		}
		tw.Write(entry.data)
	}
	tw.Close()
	gw.Close()
	f.Close()

	data, name, err := LoadROM(path)
	if err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if name != "cart.mx2" || !bytes.Equal(data, cart) {
		t.Errorf("Expected cart.mx2, got %s", name)
	}
}
