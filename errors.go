package transferstate

import "errors"

// ErrNotEmbedded is returned by Extract when the document does not carry a
// transfer-state script element.
var ErrNotEmbedded = errors.New("document has no embedded transfer state")
