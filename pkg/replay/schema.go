package replay

import (
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// captureSchema constrains capture files before decoding. Payloads stay
// opaque; only the envelope is validated.
const captureSchema = `{
	"type": "object",
	"required": ["version", "store_id", "actions"],
	"properties": {
		"version": {"type": "string"},
		"store_id": {"type": "string"},
		"actions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["seq", "kind", "origin", "at"],
				"properties": {
					"seq": {"type": "integer", "minimum": 1},
					"kind": {"type": "string", "minLength": 1},
					"origin": {"enum": ["external", "effect", "failure"]},
					"at": {"type": "string"}
				}
			}
		}
	}
}`

// ValidateCapture checks raw capture JSON against the embedded schema and
// verifies the entries are strictly seq-ascending.
func ValidateCapture(data []byte) error {
	c := jsonschema.NewCompiler()
	var doc any
	if err := json.Unmarshal([]byte(captureSchema), &doc); err != nil {
		return err
	}
	if err := c.AddResource("mem://capture.json", doc); err != nil {
		return err
	}
	sch, err := c.Compile("mem://capture.json")
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("capture is not valid JSON: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return err
	}

	var c2 Capture
	if err := json.Unmarshal(data, &c2); err != nil {
		return err
	}
	var last uint64
	for i, e := range c2.Actions {
		if e.Seq <= last {
			return fmt.Errorf("entry %d: seq %d not greater than previous %d", i, e.Seq, last)
		}
		last = e.Seq
	}
	return nil
}
