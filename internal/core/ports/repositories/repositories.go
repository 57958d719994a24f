package repositories

// RepositoryProvider holds the storage interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	Local  KeyValueStore
	Remote RemoteStore
}
