package led

// Controller is the light service surface shared by the HTTP and NATS transports.
type Controller interface {
	// SetLight caches state for lightType and drives the hardware.
	// Returns LightNotSupported for types the board does not have.
	SetLight(lightType Type, state State) Status

	// SupportedTypes returns the light types in priority order
	SupportedTypes() []Type

	// State returns the last requested state for lightType
	State(lightType Type) (State, bool)
}
