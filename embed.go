package transferstate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The state travels inside the document as an inert JSON script element,
// mirroring how the hydrating side expects to find it.
const (
	scriptOpen  = `<script id="transfer-state" type="application/json">`
	scriptClose = `</script>`
	bodyClose   = `</body>`
)

// Embed serializes the cache and inserts it into the rendered document as a
// script element, immediately before the closing body tag. Documents without
// a closing body tag get the element appended at the end.
//
// encoding/json escapes "<", ">" and "&" (also inside raw values), so the
// payload cannot terminate the script element early.
func Embed(doc []byte, c *Cache) ([]byte, error) {
	state, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("serializing transfer state: %w", err)
	}

	element := make([]byte, 0, len(scriptOpen)+len(state)+len(scriptClose))
	element = append(element, scriptOpen...)
	element = append(element, state...)
	element = append(element, scriptClose...)

	idx := bytes.LastIndex(doc, []byte(bodyClose))
	if idx < 0 {
		return append(doc, element...), nil
	}

	out := make([]byte, 0, len(doc)+len(element))
	out = append(out, doc[:idx]...)
	out = append(out, element...)
	out = append(out, doc[idx:]...)
	return out, nil
}

// Extract locates the embedded transfer state in a document and deserializes
// it into a new Cache, leaving the document itself untouched. It returns
// ErrNotEmbedded if the document carries no state element.
func Extract(doc []byte) (*Cache, error) {
	start := bytes.Index(doc, []byte(scriptOpen))
	if start < 0 {
		return nil, ErrNotEmbedded
	}
	payload := doc[start+len(scriptOpen):]
	end := bytes.Index(payload, []byte(scriptClose))
	if end < 0 {
		return nil, ErrNotEmbedded
	}

	c := NewCache()
	if err := json.Unmarshal(payload[:end], c); err != nil {
		return nil, fmt.Errorf("deserializing transfer state: %w", err)
	}
	return c, nil
}
