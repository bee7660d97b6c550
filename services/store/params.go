package store

import (
	"badge-go/errcode"

	"github.com/andreyvit/tinyjson"
)

// decodeParams parses the parameter file into a generic map. The file lives
// on flash and survives firmware upgrades, so treat it as untrusted input:
// a malformed file falls back to defaults instead of wedging boot.
func decodeParams(data []byte) (m map[string]any, err error) {
	defer func() {
		if recover() != nil {
			m, err = nil, errcode.InvalidPayload
		}
	}()

	r := tinyjson.Raw(data)
	val := r.Value()
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return nil, errcode.InvalidPayload
	}
	return m, nil
}
