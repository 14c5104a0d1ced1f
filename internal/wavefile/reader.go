// Package wavefile parses RIFF/WAVE (IEEE-float) headers and streams
// samples out of them. It supports exactly the subset of the format the
// clip orchestrator needs: a "fmt " chunk with the IEEE-float format code
// (the header may declare 8, 16, 24 or 32 bits per sample; ReadSamples
// always decodes 32-bit samples), followed by a "fact" chunk, arbitrary
// padding, and a "data" chunk.
package wavefile

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/misterdjules/soundbox/internal/audioinfo"
)

// audioFormatIEEEFloat is the WAVE format-code tag for 32-bit IEEE-float
// PCM. Any other value is rejected.
const audioFormatIEEEFloat = 0x0003

// fmtChunkSize is the only accepted "fmt " chunk size: 16 bytes, the
// classic PCM-format chunk layout with no extension.
const fmtChunkSize = 0x10

// Errors returned by ReadFormat/ReadSamples. Callers that only care about
// success/failure can ignore these; the CLI driver wraps them for
// display.
var (
	ErrMalformedWave   = errors.New("wavefile: malformed or unsupported RIFF/WAVE header")
	ErrInvalidInfo     = errors.New("wavefile: invalid audio info")
	ErrShortSampleRead = errors.New("wavefile: short sample read")
)

// ReadFormat consumes a RIFF/WAVE header from r and returns the parsed
// audio format. It validates the literal tokens "RIFF", "WAVE", "fmt ",
// "fact" and "data" in that order, the IEEE-float format code, the fixed
// 16-byte "fmt " chunk size, and a supported bit depth. Bytes between the
// end of the "fact" chunk's payload and the start of the "data" token are
// skipped one at a time — the original format has no declared bound on
// this gap, so neither does this reader.
func ReadFormat(r io.Reader) (audioinfo.Info, error) {
	var info audioinfo.Info

	if !expectToken(r, "RIFF") {
		return info, ErrMalformedWave
	}
	if _, err := readUint32(r); err != nil { // fileSize, unused
		return info, ErrMalformedWave
	}
	if !expectToken(r, "WAVE") {
		return info, ErrMalformedWave
	}
	if !expectToken(r, "fmt ") {
		return info, ErrMalformedWave
	}

	blockSize, err := readUint32(r)
	if err != nil || blockSize != fmtChunkSize {
		return info, ErrMalformedWave
	}

	audioFormat, err := readUint16(r)
	if err != nil || audioFormat != audioFormatIEEEFloat {
		return info, ErrMalformedWave
	}

	numChannels, err := readUint16(r)
	if err != nil || numChannels == 0 {
		return info, ErrMalformedWave
	}
	info.NumChannels = numChannels

	sampleRate, err := readUint32(r)
	if err != nil || sampleRate == 0 {
		return info, ErrMalformedWave
	}
	info.SampleRate = sampleRate

	bytesPerSec, err := readUint32(r)
	if err != nil || bytesPerSec == 0 {
		return info, ErrMalformedWave
	}

	bytesPerBlock, err := readUint16(r)
	if err != nil || bytesPerBlock == 0 {
		return info, ErrMalformedWave
	}

	bitsPerSample, err := readUint16(r)
	if err != nil {
		return info, ErrMalformedWave
	}
	switch bitsPerSample {
	case 8, 16, 24, 32:
	default:
		return info, ErrMalformedWave
	}
	info.BitsPerSample = bitsPerSample

	if !expectToken(r, "fact") {
		return info, ErrMalformedWave
	}

	chunkSize, err := readUint32(r)
	if err != nil || chunkSize < 4 {
		return info, ErrMalformedWave
	}

	samplesPerChannel, err := readUint32(r)
	if err != nil || samplesPerChannel == 0 {
		return info, ErrMalformedWave
	}

	if err := skipUntilDataToken(r); err != nil {
		return info, ErrMalformedWave
	}

	dataSize, err := readUint32(r)
	if err != nil || dataSize == 0 {
		return info, ErrMalformedWave
	}

	bytesPerSample := uint32(info.BitsPerSample / 8)
	info.TotalSamples = dataSize / (uint32(info.NumChannels) * bytesPerSample)

	return info, nil
}

// ReadSamples reads exactly n samples (32-bit IEEE-float, little-endian)
// from r into out, which must have length >= n. It returns the number of
// samples actually read and an error when fewer than n were available.
func ReadSamples(r io.Reader, info audioinfo.Info, n int, out []float32) (int, error) {
	if !audioinfo.IsValid(info) {
		return 0, ErrInvalidInfo
	}

	buf := make([]byte, n*4)
	read, err := io.ReadFull(r, buf)
	samplesRead := read / 4

	for i := 0; i < samplesRead; i++ {
		bits := binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}

	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return samplesRead, err
	}
	if samplesRead < n {
		return samplesRead, ErrShortSampleRead
	}

	return samplesRead, nil
}

func expectToken(r io.Reader, token string) bool {
	buf := make([]byte, len(token))
	if _, err := io.ReadFull(r, buf); err != nil {
		return false
	}
	return string(buf) == token
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// skipUntilDataToken advances r one byte at a time looking for the first
// 'd' byte, then reads exactly the next four bytes and requires them to
// spell "data" — mirroring the original reader's peek/ignore scan for a
// leading 'd' followed by a single strict strcmp. It does not keep
// scanning past a 'd' that turns out to be a false positive (e.g. stray
// padding like "food" ahead of the real "data" tag): that first strcmp
// failure is reported as malformed, full stop.
func skipUntilDataToken(r io.Reader) error {
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		if b[0] == 'd' {
			break
		}
	}

	var rest [3]byte
	if _, err := io.ReadFull(r, rest[:]); err != nil {
		return err
	}
	if rest[0] != 'a' || rest[1] != 't' || rest[2] != 'a' {
		return ErrMalformedWave
	}

	return nil
}
