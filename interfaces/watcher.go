package interfaces

type WatcherService interface {
	// StartWatcher begins fast polling for a domain. Starting a domain that
	// is already watched restarts its watcher.
	StartWatcher(domainID uint64, domainName string)

	// StopWatcher cancels the watcher for a domain if one is running.
	StopWatcher(domainID uint64)

	// StopAll cancels every active watcher and waits for them to exit.
	StopAll()

	IsWatching(domainID uint64) bool
	ActiveCount() int
}
