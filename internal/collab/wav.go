package collab

import (
	"bytes"
	"encoding/binary"
	"math"
)

// EncodeWAV renders mono float samples as a 16-bit PCM RIFF/WAVE file.
// Samples outside [-1, 1] are clipped.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataLen := len(samples) * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + dataLen)
	buf.WriteString("RIFF")
	le32(&buf, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	le32(&buf, 16)
	le16(&buf, 1) // PCM
	le16(&buf, channels)
	le32(&buf, uint32(sampleRate))
	le32(&buf, uint32(sampleRate*blockAlign))
	le16(&buf, uint16(blockAlign))
	le16(&buf, bitsPerSample)

	buf.WriteString("data")
	le32(&buf, uint32(dataLen))
	for _, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		le16(&buf, uint16(int16(math.Round(v*math.MaxInt16))))
	}
	return buf.Bytes()
}

func le16(buf *bytes.Buffer, v uint16) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}

func le32(buf *bytes.Buffer, v uint32) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}
