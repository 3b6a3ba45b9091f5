// Package badge renders shields-compatible endpoint badge payloads.
package badge

import "encoding/json"

// Colors understood by the shields endpoint renderer.
const (
	ColorGreen     = "brightgreen"
	ColorRed       = "red"
	ColorBlue      = "blue"
	ColorLightGrey = "lightgrey"
	ColorOrange    = "orange"
)

// Badge is the shields endpoint JSON schema, version 1.
type Badge struct {
	SchemaVersion int    `json:"schemaVersion"`
	Label         string `json:"label"`
	Message       string `json:"message"`
	Color         string `json:"color"`
	IsError       bool   `json:"isError,omitempty"`
}

// New creates a badge with the given label, message, and color.
func New(label, message, color string) Badge {
	return Badge{
		SchemaVersion: 1,
		Label:         label,
		Message:       message,
		Color:         color,
	}
}

// NotFound creates the badge shown when the underlying data is missing.
func NotFound(label string) Badge {
	b := New(label, "not found", ColorLightGrey)
	b.IsError = true
	return b
}

// Unavailable creates the badge shown when a backing lookup failed.
func Unavailable(label string) Badge {
	b := New(label, "unavailable", ColorLightGrey)
	b.IsError = true
	return b
}

// JSON renders the badge payload.
func (b Badge) JSON() []byte {
	payload, _ := json.Marshal(b)
	return payload
}
