package entities

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all entity providers with the DIG container.
// Settings requires a config file path and flags, so it is built by the controllers layer.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(func() Clock {
		return RealClock{}
	}); err != nil {
		return err
	}
	return container.Provide(func() IDGenerator {
		return UUIDGenerator{}
	})
}
