// Package rpmarchive extracts a single file's shipped-original content
// out of a cached rpm package archive, for the config inspector's
// optional diff mode (spec §4.2). It parses just enough of the rpm lead
// and cpio payload to find one path; it is not a general rpm library.
package rpmarchive

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const leadSize = 96

// ErrNotFound is returned when path isn't present in the archive.
var ErrNotFound = fmt.Errorf("rpmarchive: path not found in payload")

// ExtractFile returns the decompressed, uncompressed body of path (a
// path relative to "/", no leading slash) from the rpm package archive
// rpmBytes.
func ExtractFile(rpmBytes []byte, path string) ([]byte, error) {
	payload, err := cpioPayload(rpmBytes)
	if err != nil {
		return nil, err
	}
	return findInCPIO(payload, path)
}

// cpioPayload skips the rpm lead and header sections and decompresses
// whatever payload compression the package used (gzip, xz, or zstd are
// all in use across RHEL/CentOS/Fedora history).
func cpioPayload(rpmBytes []byte) ([]byte, error) {
	if len(rpmBytes) < leadSize+16 || !bytes.Equal(rpmBytes[:4], []byte{0xed, 0xab, 0xee, 0xdb}) {
		return nil, fmt.Errorf("rpmarchive: not an rpm (bad magic)")
	}
	off := leadSize
	off, err := skipHeader(rpmBytes, off) // signature header
	if err != nil {
		return nil, fmt.Errorf("rpmarchive: signature header: %w", err)
	}
	off = align8(off)
	off, err = skipHeader(rpmBytes, off) // main header
	if err != nil {
		return nil, fmt.Errorf("rpmarchive: main header: %w", err)
	}
	payload := rpmBytes[off:]
	return decompress(payload)
}

// skipHeader reads an rpm header section's index/data lengths and
// returns the offset just past it, without decoding any tags.
func skipHeader(b []byte, off int) (int, error) {
	if off+16 > len(b) || !bytes.Equal(b[off:off+3], []byte{0x8e, 0xad, 0xe8}) {
		return 0, fmt.Errorf("bad header magic at %d", off)
	}
	il := binary.BigEndian.Uint32(b[off+8 : off+12])
	dl := binary.BigEndian.Uint32(b[off+12 : off+16])
	end := off + 16 + int(il)*16 + int(dl)
	if end > len(b) {
		return 0, fmt.Errorf("header section overruns archive")
	}
	return end, nil
}

func align8(off int) int {
	if r := off % 8; r != 0 {
		return off + (8 - r)
	}
	return off
}

func decompress(payload []byte) ([]byte, error) {
	switch {
	case len(payload) >= 2 && payload[0] == 0x1f && payload[1] == 0x8b:
		r, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("rpmarchive: gzip: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case len(payload) >= 4 && bytes.Equal(payload[:4], []byte{0x28, 0xb5, 0x2f, 0xfd}):
		r, err := zstd.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("rpmarchive: zstd: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case len(payload) >= 6 && bytes.Equal(payload[:6], []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}):
		r, err := xz.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("rpmarchive: xz: %w", err)
		}
		return io.ReadAll(r)
	default:
		return nil, fmt.Errorf("rpmarchive: unrecognized payload compression")
	}
}

// findInCPIO scans a "newc" format cpio archive for path and returns
// its body.
func findInCPIO(archive []byte, want string) ([]byte, error) {
	const magic = "070701"
	off := 0
	for off+110 <= len(archive) {
		if string(archive[off:off+6]) != magic {
			return nil, fmt.Errorf("rpmarchive: bad cpio header at %d", off)
		}
		hex := func(start, n int) int {
			v, _ := strconv.ParseInt(string(archive[off+start:off+start+n]), 16, 64)
			return int(v)
		}
		nameSize := hex(94, 8)
		fileSize := hex(54, 8)
		nameStart := off + 110
		name := strings.TrimRight(string(archive[nameStart:nameStart+nameSize]), "\x00")
		dataStart := align4(nameStart + nameSize)
		if name == "TRAILER!!!" {
			break
		}
		trimmed := strings.TrimPrefix(name, "./")
		if trimmed == want {
			return archive[dataStart : dataStart+fileSize], nil
		}
		off = align4(dataStart + fileSize)
	}
	return nil, ErrNotFound
}

func align4(off int) int {
	if r := off % 4; r != 0 {
		return off + (4 - r)
	}
	return off
}
