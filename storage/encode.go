package storage

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ArtifactEncoding defines the encoding formats for artifacts. There are two
// supported formats: ArtifactEncodingCBOR and ArtifactEncodingJSON.
type ArtifactEncoding int

const (
	// ArtifactEncodingCBOR is the CBOR encoding format.
	ArtifactEncodingCBOR ArtifactEncoding = iota
	// ArtifactEncodingJSON is the JSON encoding format.
	ArtifactEncodingJSON
)

// EncodeArtifact encodes an artifact into the specified encoding format. If
// no format is specified, CBOR is used by default.
func EncodeArtifact(a any, encoding ...ArtifactEncoding) ([]byte, error) {
	if len(encoding) > 0 {
		switch encoding[0] {
		case ArtifactEncodingCBOR:
			return EncodeArtifactCBOR(a)
		case ArtifactEncodingJSON:
			return json.Marshal(a)
		default:
			return nil, fmt.Errorf("unknown artifact encoding: %d", encoding[0])
		}
	}
	return EncodeArtifactCBOR(a)
}

// DecodeArtifact decodes an artifact from the specified format. If no format
// is specified, CBOR is used by default.
func DecodeArtifact(data []byte, out any, encoding ...ArtifactEncoding) error {
	if len(encoding) > 0 {
		switch encoding[0] {
		case ArtifactEncodingCBOR:
			return cbor.Unmarshal(data, out)
		case ArtifactEncodingJSON:
			return json.Unmarshal(data, out)
		default:
			return fmt.Errorf("unknown artifact encoding: %d", encoding[0])
		}
	}
	return cbor.Unmarshal(data, out)
}

// EncodeArtifactCBOR encodes an artifact with deterministic CBOR options, so
// the same artifact always produces the same bytes.
func EncodeArtifactCBOR(a any) ([]byte, error) {
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return em.Marshal(a)
}
