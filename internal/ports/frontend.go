package ports

// Frontend presents processed emails to a user
type Frontend interface {
	// Start starts the frontend. Long-running frontends return once they
	// are serving; one-shot frontends return when done.
	Start() error

	// Stop stops the frontend
	Stop() error
}
