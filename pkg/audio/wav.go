package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// bitsPerSample is fixed at 16 for the signed little-endian PCM payload
	// used on the wire.
	bitsPerSample = 16

	// WAVHeaderSize is the size of the canonical RIFF/WAVE header produced by
	// [EncodeWAV].
	WAVHeaderSize = 44
)

// EncodeWAV wraps b in a standard RIFF/WAV container as mono 16-bit PCM.
// A zero-length buffer yields a valid header-only WAV document.
func EncodeWAV(b Buffer) []byte {
	pcm := FloatToPCM16(b.Samples)

	const channels = 1
	byteRate := b.SampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(pcm)

	buf := make([]byte, WAVHeaderSize+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                 // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], 1)                  // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], channels)           // num channels
	binary.LittleEndian.PutUint32(buf[24:28], uint32(b.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}

// DecodeWAV parses a RIFF/WAV document containing 16-bit PCM and returns a
// mono Buffer at the declared sample rate. Stereo input is downmixed by
// averaging channels. Compressed or non-16-bit formats are rejected.
func DecodeWAV(data []byte) (Buffer, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Buffer{}, errors.New("audio: not a RIFF/WAVE document")
	}

	var (
		sampleRate int
		channels   int
		haveFmt    bool
		pcm        []byte
		haveData   bool
	)

	// Walk sub-chunks; "fmt " and "data" may appear in any order and other
	// chunks (LIST, fact) are skipped.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return Buffer{}, fmt.Errorf("audio: truncated %q chunk", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Buffer{}, errors.New("audio: fmt chunk too short")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return Buffer{}, fmt.Errorf("audio: unsupported WAV format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if bits != bitsPerSample {
				return Buffer{}, fmt.Errorf("audio: unsupported bit depth %d (want 16)", bits)
			}
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
			haveData = true
		}

		// Chunks are word-aligned.
		off = body + size + size%2
	}

	if !haveFmt || !haveData {
		return Buffer{}, errors.New("audio: missing fmt or data chunk")
	}

	switch channels {
	case 1:
		// nothing to do
	case 2:
		pcm = StereoToMono(pcm)
	default:
		return Buffer{}, fmt.Errorf("audio: unsupported channel count %d", channels)
	}

	return Buffer{Samples: PCM16ToFloat(pcm), SampleRate: sampleRate}, nil
}
