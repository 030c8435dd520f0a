package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./librarium.db"

	// DefaultFilesDir is the default directory for uploaded book files
	DefaultFilesDir = "./files"
)
