package logger

// Component-specific logger functions

// Handbook returns a logger for handbook page parsing
func Handbook() Logger {
	return WithField("component", "handbook")
}

// Registry returns a logger for schema registry operations
func Registry() Logger {
	return WithField("component", "registry")
}

// Validate returns a logger for row validation
func Validate() Logger {
	return WithField("component", "validate")
}

// Atlas returns a logger for Atlas operations
func Atlas() Logger {
	return WithField("component", "atlas")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}

// DB returns a logger for database operations
func DB() Logger {
	return WithField("component", "db")
}

// Server returns a logger for the HTTP API
func Server() Logger {
	return WithField("component", "server")
}
