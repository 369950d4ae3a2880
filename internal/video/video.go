// Package video validates uploaded claim evidence before it is stored or
// sent to the analysis collaborator.
package video

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported video format")
	ErrTooLarge          = errors.New("video file too large")
	ErrTooLong           = errors.New("video too long")
)

// allowedExtensions maps the accepted container formats: MP4, QuickTime,
// AVI and Matroska.
var allowedExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
	".mkv": true,
}

type Validator struct {
	MaxBytes    int64
	MaxDuration time.Duration
}

// Validate checks container format, size and duration. It runs entirely
// on the uploaded bytes so rejection happens before any storage or AI
// call.
func (v Validator) Validate(filename string, data []byte) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if !sniffContainer(data) {
		return fmt.Errorf("%w: content does not match a supported container", ErrUnsupportedFormat)
	}
	if v.MaxBytes > 0 && int64(len(data)) > v.MaxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, len(data), v.MaxBytes)
	}
	if v.MaxDuration > 0 {
		// Duration is probed from MP4/QuickTime movie headers. Other
		// containers carry no cheap duration field and pass this check.
		if d, ok := mp4Duration(data); ok && d > v.MaxDuration {
			return fmt.Errorf("%w: %s exceeds limit of %s", ErrTooLong, d, v.MaxDuration)
		}
	}
	return nil
}

// sniffContainer checks the leading magic bytes of the supported formats:
// ISO BMFF (mp4/mov) "ftyp", RIFF/AVI, and Matroska EBML.
func sniffContainer(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if bytes.Equal(data[4:8], []byte("ftyp")) {
		return true
	}
	if bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("AVI ")) {
		return true
	}
	if bytes.Equal(data[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		return true
	}
	return false
}

// mp4Duration walks top-level ISO BMFF boxes to moov/mvhd and reads
// timescale and duration. Returns false when the header is absent or
// malformed.
func mp4Duration(data []byte) (time.Duration, bool) {
	moov, ok := findBox(data, "moov")
	if !ok {
		return 0, false
	}
	mvhd, ok := findBox(moov, "mvhd")
	if !ok || len(mvhd) < 1 {
		return 0, false
	}

	version := mvhd[0]
	switch version {
	case 0:
		// version(1) flags(3) creation(4) modification(4) timescale(4) duration(4)
		if len(mvhd) < 20 {
			return 0, false
		}
		timescale := binary.BigEndian.Uint32(mvhd[12:16])
		duration := binary.BigEndian.Uint32(mvhd[16:20])
		if timescale == 0 {
			return 0, false
		}
		return time.Duration(float64(duration) / float64(timescale) * float64(time.Second)), true
	case 1:
		// version(1) flags(3) creation(8) modification(8) timescale(4) duration(8)
		if len(mvhd) < 32 {
			return 0, false
		}
		timescale := binary.BigEndian.Uint32(mvhd[20:24])
		duration := binary.BigEndian.Uint64(mvhd[24:32])
		if timescale == 0 {
			return 0, false
		}
		return time.Duration(float64(duration) / float64(timescale) * float64(time.Second)), true
	}
	return 0, false
}

// findBox scans sibling boxes in data and returns the payload of the
// first box with the given type.
func findBox(data []byte, boxType string) ([]byte, bool) {
	offset := 0
	for offset+8 <= len(data) {
		size := int64(binary.BigEndian.Uint32(data[offset : offset+4]))
		typ := string(data[offset+4 : offset+8])
		headerLen := int64(8)
		if size == 1 {
			if offset+16 > len(data) {
				return nil, false
			}
			size = int64(binary.BigEndian.Uint64(data[offset+8 : offset+16]))
			headerLen = 16
		}
		if size < headerLen || int64(offset)+size > int64(len(data)) {
			return nil, false
		}
		if typ == boxType {
			return data[int64(offset)+headerLen : int64(offset)+size], true
		}
		offset += int(size)
	}
	return nil, false
}
