// Package layout writes and reads per-theme layout artifacts.
//
// An artifact is a small container:
//
//	magic "PPSIR1\n" | uint32 header length | CBOR header | zstd(CBOR body)
//
// The header names the theme and target and carries the BLAKE3 digest of the
// uncompressed body, so readers can detect truncated or mixed writes.
package layout

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// Magic prefixes every artifact.
const Magic = "PPSIR1\n"

// FormatVersion is bumped on incompatible body changes.
const FormatVersion = 1

// MaxBodySize bounds the decompressed body a header may announce.
const MaxBodySize = 64 << 20

var (
	ErrBadMagic       = errors.New("layout: not a layout artifact")
	ErrDigestMismatch = errors.New("layout: body digest mismatch")
	ErrTruncated      = errors.New("layout: truncated artifact")
)

// Header is stored uncompressed so it can be inspected cheaply.
type Header struct {
	Version  int    `cbor:"version"`
	Theme    string `cbor:"theme"`
	Target   string `cbor:"target"`
	Style    string `cbor:"style"`
	BodySize int    `cbor:"body_size"`
	Digest   string `cbor:"digest"`
}

// Body is the themed page content.
type Body struct {
	Title string   `cbor:"title"`
	HTML  string   `cbor:"html"`
	Fonts []string `cbor:"fonts,omitempty"`
}

// Artifact is a decoded layout artifact.
type Artifact struct {
	Header Header
	Body   Body
}

var (
	encMode     cbor.EncMode
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	// Deterministic encoding keeps artifacts byte-stable for identical input.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("layout: CBOR encoder initialization failed: " + err.Error())
	}
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("layout: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("layout: zstd decoder initialization failed: " + err.Error())
	}
}

// Digest returns the hex BLAKE3 digest of b.
func Digest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Encode serializes an artifact. Header.Digest and Header.BodySize are
// computed from the body and need not be set.
func Encode(a Artifact) ([]byte, error) {
	body, err := encMode.Marshal(a.Body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	h := a.Header
	h.Version = FormatVersion
	h.BodySize = len(body)
	h.Digest = Digest(body)

	header, err := encMode.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(Magic)
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(header))) // #nosec G115 -- header is a handful of short strings
	buf.Write(size[:])
	buf.Write(header)
	buf.Write(zstdEncoder.EncodeAll(body, nil))
	return buf.Bytes(), nil
}

// DecodeHeader parses only the header.
func DecodeHeader(data []byte) (Header, []byte, error) {
	var h Header
	if !bytes.HasPrefix(data, []byte(Magic)) {
		return h, nil, ErrBadMagic
	}
	data = data[len(Magic):]
	if len(data) < 4 {
		return h, nil, ErrTruncated
	}
	n := int(binary.BigEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) < n {
		return h, nil, ErrTruncated
	}
	if err := cbor.Unmarshal(data[:n], &h); err != nil {
		return h, nil, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != FormatVersion {
		return h, nil, fmt.Errorf("layout: unsupported format version %d", h.Version)
	}
	return h, data[n:], nil
}

// Decode parses and verifies a full artifact.
func Decode(data []byte) (*Artifact, error) {
	h, rest, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if h.BodySize < 0 || h.BodySize > MaxBodySize {
		return nil, ErrTruncated
	}
	body, err := zstdDecoder.DecodeAll(rest, make([]byte, 0, h.BodySize))
	if err != nil {
		return nil, fmt.Errorf("decompress body: %w", err)
	}
	if len(body) != h.BodySize {
		return nil, ErrTruncated
	}
	if Digest(body) != h.Digest {
		return nil, ErrDigestMismatch
	}
	a := &Artifact{Header: h}
	if err := cbor.Unmarshal(body, &a.Body); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return a, nil
}

// Read loads and verifies the artifact at path.
func Read(path string) (*Artifact, error) {
	// #nosec G304 -- path is an artifact path derived from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
