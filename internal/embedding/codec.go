// Package embedding serializes face embeddings for storage and interchange.
//
// Two formats exist. The text format is a comma-separated decimal float list,
// kept for interchange with rosters enrolled by the mobile app. The binary
// format carries a magic tag, a version and the vector dimension, so a future
// model swap (different embedding length) is detected and rejected instead of
// silently mis-scored.
package embedding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// binaryMagic marks the start of a binary-encoded embedding.
	binaryMagic = "RCEM"
	// binaryVersion is the current binary format version.
	binaryVersion = 1

	headerLen = 4 + 1 + 2 // magic + version + dim
)

var (
	// ErrCorrupt indicates a non-numeric or non-finite token in a text
	// embedding. Corrupt stored embeddings are excluded from matching.
	ErrCorrupt = errors.New("corrupt embedding")

	// ErrVersion indicates a binary embedding with an unknown format version.
	ErrVersion = errors.New("unsupported embedding version")

	// ErrDimension indicates a binary embedding whose declared dimension does
	// not match the payload or the expected model dimension.
	ErrDimension = errors.New("embedding dimension mismatch")
)

// FormatText serializes a vector as comma-separated decimal floats.
func FormatText(v []float32) string {
	var sb strings.Builder
	for i, x := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	}
	return sb.String()
}

// ParseText parses a comma-separated float list. Non-numeric and non-finite
// tokens make the whole embedding corrupt.
func ParseText(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrCorrupt)
	}

	tokens := strings.Split(s, ",")
	v := make([]float32, 0, len(tokens))
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(strings.TrimSpace(tok), 32)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d %q", ErrCorrupt, i, tok)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: non-finite token %d", ErrCorrupt, i)
		}
		v = append(v, float32(f))
	}
	return v, nil
}

// EncodeBinary serializes a vector with a versioned header.
func EncodeBinary(v []float32) []byte {
	buf := make([]byte, headerLen+4*len(v))
	copy(buf, binaryMagic)
	buf[4] = binaryVersion
	binary.LittleEndian.PutUint16(buf[5:7], uint16(len(v)))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[headerLen+4*i:], math.Float32bits(x))
	}
	return buf
}

// DecodeBinary parses a versioned binary embedding. expectedDim guards
// against reading vectors produced by a different model; pass 0 to accept
// any dimension.
func DecodeBinary(data []byte, expectedDim int) ([]float32, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}
	if string(data[:4]) != binaryMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if data[4] != binaryVersion {
		return nil, fmt.Errorf("%w: version %d", ErrVersion, data[4])
	}

	dim := int(binary.LittleEndian.Uint16(data[5:7]))
	if len(data) != headerLen+4*dim {
		return nil, fmt.Errorf("%w: declared dim %d, payload %d bytes", ErrDimension, dim, len(data)-headerLen)
	}
	if expectedDim > 0 && dim != expectedDim {
		return nil, fmt.Errorf("%w: got %d, model expects %d", ErrDimension, dim, expectedDim)
	}

	v := make([]float32, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[headerLen+4*i:]))
	}
	return v, nil
}
