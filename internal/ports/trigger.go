package ports

// Trigger is a long-running component started and stopped with the engine,
// such as a cycle scheduler or the ops HTTP server
type Trigger interface {
	// Name identifies the trigger in logs
	Name() string

	// Start starts the trigger without blocking
	Start() error

	// Stop stops the trigger and waits for in-flight work
	Stop() error
}
