package ports

// Link is one side of the bridge: a byte stream carrying newline terminated
// lines.
type Link interface {
	// Name identifies the link in logs and errors ("mesher", "lmic").
	Name() string

	// Pending reports whether ReadLine would return without waiting,
	// either with a line or with a latched transport error.
	Pending() bool

	// ReadLine returns the next line without its terminator.
	// It returns a *domain.TransportError when the underlying stream failed.
	ReadLine() ([]byte, error)

	// Write sends p as-is. Callers append the terminator.
	Write(p []byte) error

	// Close releases the underlying stream. Pending lines are discarded.
	Close() error
}
