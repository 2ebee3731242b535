package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	wavFormatPCM       = 1
	wavFormatIEEEFloat = 3
)

// wavInfo describes the decoded header of a WAV file.
type wavInfo struct {
	format        uint16
	channels      int
	sampleRate    int
	bitsPerSample int
	dataOffset    int64
	dataSize      int64
}

// DecodeWAV reads a PCM16 or float32 WAV file into a mono Signal. Multi-channel
// input is downmixed by averaging. When targetRate > 0 the result is resampled.
func DecodeWAV(path string, targetRate int) (Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signal{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	info, err := readWAVHeader(f)
	if err != nil {
		return Signal{}, err
	}

	if _, err := f.Seek(info.dataOffset, io.SeekStart); err != nil {
		return Signal{}, fmt.Errorf("seek wav data: %w", err)
	}
	raw := make([]byte, info.dataSize)
	if _, err := io.ReadFull(f, raw); err != nil {
		return Signal{}, fmt.Errorf("read wav data: %w", err)
	}

	bytesPerSample := info.bitsPerSample / 8
	frameSize := bytesPerSample * info.channels
	frames := len(raw) / frameSize
	samples := make([]float64, frames)

	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < info.channels; c++ {
			offset := i*frameSize + c*bytesPerSample
			switch info.format {
			case wavFormatPCM:
				value := int16(binary.LittleEndian.Uint16(raw[offset:]))
				sum += float64(value) / 32768.0
			case wavFormatIEEEFloat:
				bits := binary.LittleEndian.Uint32(raw[offset:])
				sum += float64(math.Float32frombits(bits))
			}
		}
		samples[i] = sum / float64(info.channels)
	}

	sig := Signal{Samples: samples, SampleRate: info.sampleRate}
	if targetRate > 0 && targetRate != info.sampleRate {
		sig = Resample(sig, targetRate)
	}
	return sig, nil
}

// ProbeWAV returns the duration in seconds and the sample rate without
// decoding sample data.
func ProbeWAV(path string) (float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	info, err := readWAVHeader(f)
	if err != nil {
		return 0, 0, err
	}
	bytesPerFrame := int64(info.bitsPerSample/8) * int64(info.channels)
	if bytesPerFrame == 0 {
		return 0, 0, errors.New("wav: zero frame size")
	}
	frames := info.dataSize / bytesPerFrame
	return float64(frames) / float64(info.sampleRate), info.sampleRate, nil
}

// EncodeWAV writes a mono Signal as a PCM16 WAV file. Samples are clipped to
// [-1, 1] before conversion.
func EncodeWAV(path string, sig Signal) error {
	if sig.SampleRate <= 0 {
		return errors.New("wav: sample rate must be positive")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	dataSize := len(sig.Samples) * 2
	header := make([]byte, 44)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(36+dataSize))
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], wavFormatPCM)
	binary.LittleEndian.PutUint16(header[22:], 1)
	binary.LittleEndian.PutUint32(header[24:], uint32(sig.SampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(sig.SampleRate*2))
	binary.LittleEndian.PutUint16(header[32:], 2)
	binary.LittleEndian.PutUint16(header[34:], 16)
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(dataSize))
	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}

	buf := make([]byte, dataSize)
	for i, sample := range sig.Samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		value := int16(math.Round(sample * 32767))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(value))
	}
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}

func readWAVHeader(f *os.File) (wavInfo, error) {
	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return wavInfo{}, fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return wavInfo{}, errors.New("wav: not a RIFF/WAVE file")
	}

	var info wavInfo
	haveFmt := false
	offset := int64(12)
	for {
		var chunk [8]byte
		if _, err := f.ReadAt(chunk[:], offset); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return wavInfo{}, fmt.Errorf("read chunk header: %w", err)
		}
		chunkID := string(chunk[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch chunkID {
		case "fmt ":
			var fmtData [16]byte
			if _, err := f.ReadAt(fmtData[:], offset+8); err != nil {
				return wavInfo{}, fmt.Errorf("read fmt chunk: %w", err)
			}
			info.format = binary.LittleEndian.Uint16(fmtData[0:])
			info.channels = int(binary.LittleEndian.Uint16(fmtData[2:]))
			info.sampleRate = int(binary.LittleEndian.Uint32(fmtData[4:]))
			info.bitsPerSample = int(binary.LittleEndian.Uint16(fmtData[14:]))
			haveFmt = true
		case "data":
			info.dataOffset = offset + 8
			info.dataSize = chunkSize
		}

		// chunks are word-aligned
		offset += 8 + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
		if haveFmt && info.dataOffset > 0 {
			break
		}
	}

	if !haveFmt || info.dataOffset == 0 {
		return wavInfo{}, errors.New("wav: missing fmt or data chunk")
	}
	if info.format != wavFormatPCM && info.format != wavFormatIEEEFloat {
		return wavInfo{}, fmt.Errorf("wav: unsupported format code %d", info.format)
	}
	if info.format == wavFormatPCM && info.bitsPerSample != 16 {
		return wavInfo{}, fmt.Errorf("wav: unsupported PCM bit depth %d", info.bitsPerSample)
	}
	if info.format == wavFormatIEEEFloat && info.bitsPerSample != 32 {
		return wavInfo{}, fmt.Errorf("wav: unsupported float bit depth %d", info.bitsPerSample)
	}
	if info.channels <= 0 || info.sampleRate <= 0 {
		return wavInfo{}, errors.New("wav: invalid fmt chunk")
	}
	return info, nil
}
