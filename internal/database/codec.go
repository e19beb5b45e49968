package database

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Codec encodes ledger tables for the file store
type Codec interface {
	Name() string
	Extension() string
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// NewCodec returns the codec registered under name
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "cbor":
		return newCBORCodec()
	default:
		return nil, fmt.Errorf("unknown ledger codec %q (must be 'json' or 'cbor')", name)
	}
}

// JSONCodec writes indented JSON documents
type JSONCodec struct{}

func (JSONCodec) Name() string      { return "json" }
func (JSONCodec) Extension() string { return ".json" }

func (JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func (JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// CBORCodec writes CBOR using core deterministic encoding, so the same
// ledger always produces identical bytes
type CBORCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() (*CBORCodec, error) {
	encOptions := cbor.CoreDetEncOptions()
	// Keep sub-second booking timestamps and their zone offset
	encOptions.Time = cbor.TimeRFC3339Nano
	enc, err := encOptions.EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR decoder: %w", err)
	}

	return &CBORCodec{enc: enc, dec: dec}, nil
}

func (c *CBORCodec) Name() string      { return "cbor" }
func (c *CBORCodec) Extension() string { return ".cbor" }

func (c *CBORCodec) Marshal(v interface{}) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c *CBORCodec) Unmarshal(data []byte, v interface{}) error {
	return c.dec.Unmarshal(data, v)
}
