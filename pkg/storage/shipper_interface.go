package storage

// LogShipperInterface forwards encoded log records to a remote store
type LogShipperInterface interface {
	// Write ships one encoded record; trailing newlines are stripped
	Write(p []byte) (int, error)
	// Close close the remote client
	Close() error
}
