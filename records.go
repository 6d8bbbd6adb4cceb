package records

import "github.com/goliatone/go-records/service"

// Re-export the service package entry point so consumers can do
// `records.New(...)` without importing the wiring packages.
type (
	Service  = service.Service
	Config   = service.Config
	Commands = service.Commands
	Queries  = service.Queries
)

// New constructs the go-records runtime using the provided configuration.
func New(cfg Config) *Service {
	return service.New(cfg)
}
