package romloader

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// extractFromZIP extracts a cartridge image from a ZIP archive
func extractFromZIP(path string) ([]byte, string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	var c romChooser
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isROMFile(f.Name) {
			continue
		}
		data, err := readEntry(f.Open)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		if c.offer(data, filepath.Base(f.Name)) {
			break
		}
	}

	return c.result()
}

// extractFrom7z extracts a cartridge image from a 7z archive
func extractFrom7z(path string) ([]byte, string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open 7z: %w", err)
	}
	defer r.Close()

	var c romChooser
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isROMFile(f.Name) {
			continue
		}
		data, err := readEntry(f.Open)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		if c.offer(data, filepath.Base(f.Name)) {
			break
		}
	}

	return c.result()
}

// extractFromGzip decompresses a gzip file. A tarball is searched for a
// cartridge image; anything else is taken as the image itself.
func extractFromGzip(r io.Reader, path string) ([]byte, string, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open gzip: %w", err)
	}
	defer gz.Close()

	data, err := limitedRead(gz)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decompress: %w", err)
	}

	if isTarball(path, data) {
		return extractFromTar(data)
	}

	name := filepath.Base(path)
	if gz.Name != "" {
		name = filepath.Base(gz.Name)
	} else {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return data, name, nil
}

// isTarball reports whether decompressed data is a tar stream.
func isTarball(path string, data []byte) bool {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return true
	}
	// POSIX tar magic in the first header block
	return len(data) >= 262 && string(data[257:262]) == "ustar"
}

func extractFromTar(data []byte) ([]byte, string, error) {
	var c romChooser
	tr := tar.NewReader(bytes.NewReader(data))
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg || !isROMFile(header.Name) {
			continue
		}
		rom, err := limitedRead(tr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		if c.offer(rom, filepath.Base(header.Name)) {
			break
		}
	}
	return c.result()
}

func readEntry(open func() (io.ReadCloser, error)) ([]byte, error) {
	rc, err := open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return limitedRead(rc)
}
