// Package nats exposes the light dispatcher over NATS request/reply so that
// other processes on the device can drive the LEDs.
//
// # Architecture
//
//   - Server: optional embedded NATS server in the daemon (lightnode serve)
//   - Service: answers set and types requests by calling a led.Controller
//   - Bridge: publishes applied light states from the event bus
//   - Client: used by the CLI (lightnode set, lightnode types)
//
// # Subject Hierarchy
//
//	lightnode.lights.set              # SetLightRequest -> SetLightReply
//	lightnode.lights.types            # empty -> TypesReply
//	lightnode.lights.state.{type}     # StateMessage after each applied request
//
// Request subjects use the "lightnode" queue group, so a request is answered
// by exactly one daemon.
//
// # Debugging with nats CLI
//
// Follow every applied state:
//
//	nats sub "lightnode.lights.state.>"
//
// Turn the attention light on:
//
//	nats req lightnode.lights.set '{"type":"attention","color":4294967295}'
//
// Blink the battery light at 1 Hz:
//
//	nats req lightnode.lights.set \
//	  '{"type":"battery","color":4278255360,"flash_mode":"timed","flash_on_ms":500,"flash_off_ms":500}'
//
// List supported types:
//
//	nats req lightnode.lights.types ''
//
// # Message Formats
//
// SetLightReply:
//
//	{"status": "SUCCESS"}
//	{"status": "LIGHT_NOT_SUPPORTED"}
//	{"error": "unknown flash mode: \"strobe\""}
//
// StateMessage (lightnode.lights.state.{type}):
//
//	{
//	  "type": "battery",
//	  "applied_type": "attention",
//	  "color": 4278255360,
//	  "flash_mode": "timed",
//	  "flash_on_ms": 500,
//	  "flash_off_ms": 500,
//	  "timestamp": "2025-01-01T12:00:00Z"
//	}
package nats
