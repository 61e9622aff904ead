package export

import "encoding/json"

// Event is one export message: a webhook-shaped payload tagged with the
// integration it belongs to. Payload may be a single record object or an
// array of records.
type Event struct {
	Integration string          `json:"integration"`
	Payload     json.RawMessage `json:"payload"`
	Force       bool            `json:"force"`
}
