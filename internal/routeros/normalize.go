package routeros

import (
	"github.com/mitchellh/mapstructure"
)

// The REST API is loosely typed: booleans arrive as "true"/"false" strings
// or real booleans depending on RouterOS version, and numbers often arrive
// as strings. All decoding funnels through here so the rest of the system
// only ever sees typed structs.

func decodeRecord(raw map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return &ProtocolError{Op: "decode record", Err: err}
	}
	return nil
}
