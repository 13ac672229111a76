package server

import "context"

type Server interface {
	Options() Options
	// Run serves until Stop is called.
	Run() error
	Stop(ctx context.Context) error
}
