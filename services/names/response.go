package names

import (
	"strings"

	"github.com/andreyvit/tinyjson"

	"badge-go/errcode"
)

// parseNameResponse validates the server's JSON body. The server replies
// either {"id": "...", "name": "..."} or {"error": "..."}. IDs compare
// case-insensitively.
func parseNameResponse(body []byte, deviceID string) (string, error) {
	m, err := decodeObject(body)
	if err != nil {
		return "", err
	}

	if e, ok := m["error"].(string); ok {
		return "", &errcode.E{C: errcode.FetchFailed, Op: "names.response", Msg: e}
	}

	id, _ := m["id"].(string)
	name, ok := m["name"].(string)
	if !ok || !strings.EqualFold(id, deviceID) {
		return "", &errcode.E{C: errcode.InvalidResponse, Op: "names.response", Msg: "unexpected response"}
	}
	return strings.TrimSpace(name), nil
}

func decodeObject(data []byte) (m map[string]any, err error) {
	defer func() {
		if recover() != nil {
			m, err = nil, errcode.InvalidResponse
		}
	}()

	r := tinyjson.Raw(data)
	val := r.Value()
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return nil, errcode.InvalidResponse
	}
	return m, nil
}
