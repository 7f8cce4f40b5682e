package events

import "domaauction/core/types"

// Payload extracts the structured event carried by evt. Engines either emit
// *types.Event directly or wrap it in a value exposing Event().
func Payload(evt Event) (*types.Event, bool) {
	switch v := evt.(type) {
	case *types.Event:
		return v, v != nil
	case interface{ Event() *types.Event }:
		payload := v.Event()
		return payload, payload != nil
	default:
		return nil, false
	}
}
