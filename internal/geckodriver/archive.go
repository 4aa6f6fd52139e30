package geckodriver

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

var ErrBinaryNotInArchive = errors.New("driver binary not found in archive")

// extractBinary finds the entry named binary in data and writes it to dst
// with mode 0755.
func extractBinary(data []byte, archive, binary, dst string) error {
	var (
		rc  io.Reader
		err error
	)
	switch archive {
	case ".tar.gz":
		rc, err = findInTarGz(data, binary)
	case ".zip":
		rc, err = findInZip(data, binary)
	default:
		return fmt.Errorf("unknown archive type %q", archive)
	}
	if err != nil {
		return err
	}

	tmp := dst + ".part"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", dst, err)
	}
	return nil
}

func matchesBinary(name, binary string) bool {
	return path.Base(strings.ReplaceAll(name, "\\", "/")) == binary
}

func findInTarGz(data []byte, binary string) (io.Reader, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, ErrBinaryNotInArchive
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg && matchesBinary(hdr.Name, binary) {
			return tr, nil
		}
	}
}

func findInZip(data []byte, binary string) (io.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !matchesBinary(f.Name, binary) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		// The archive is fully in memory, so the entry can be read eagerly.
		defer rc.Close()
		buf, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read zip entry %s: %w", f.Name, err)
		}
		return bytes.NewReader(buf), nil
	}
	return nil, ErrBinaryNotInArchive
}
