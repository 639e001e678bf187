package config

const (
	defaultStateFile          = "~/.local/share/bookshelf/state.json"
	defaultBooksDir           = "~/.local/share/bookshelf/best-books"
	defaultLogDir             = "~/.local/share/bookshelf/logs"
	defaultNPRBaseURL         = "https://apps.npr.org/best-books"
	defaultNPRTimeoutSeconds  = 15
	defaultReadarrTimeout     = 30
	defaultRootFolderPath     = "/data/media/books"
	defaultSearchCachePath    = "~/.local/share/bookshelf/cache/search.db"
	defaultSearchCacheTTLDays = 7
	defaultTrackerLimit       = 10
	defaultTrackerMaxAttempts = 5
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateFile: defaultStateFile,
			BooksDir:  defaultBooksDir,
			LogDir:    defaultLogDir,
		},
		NPR: NPR{
			BaseURL:        defaultNPRBaseURL,
			TimeoutSeconds: defaultNPRTimeoutSeconds,
		},
		Readarr: Readarr{
			TimeoutSeconds: defaultReadarrTimeout,
			RootFolderPath: defaultRootFolderPath,
		},
		SearchCache: SearchCache{
			Enabled: true,
			Path:    defaultSearchCachePath,
			TTLDays: defaultSearchCacheTTLDays,
		},
		Tracker: Tracker{
			Limit:       defaultTrackerLimit,
			MaxAttempts: defaultTrackerMaxAttempts,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
