package logger

// Console configures logging to stdout and stderr.
type Console struct {
	Enabled bool `toml:"enabled"`
	// UseConsoleWriter switches from JSON lines to human readable output.
	UseConsoleWriter bool `toml:"useConsoleWriter"`
}

// Rotation configures a lumberjack rolling file.
type Rotation struct {
	File       string `toml:"file"`
	MaxSize    int    `toml:"maxSize"`    // megabytes
	MaxBackups int    `toml:"maxBackups"` // rotated files kept
	MaxAge     int    `toml:"maxAge"`     // days
}

// LogFile configures file based logging, one rolling file per level group.
type LogFile struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`

	Access Rotation `toml:"access"`
	Error  Rotation `toml:"error"`
	Info   Rotation `toml:"info"`
	Trace  Rotation `toml:"trace"`
	Warn   Rotation `toml:"warn"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string `validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"` // trace, debug, info, warn, error
	LogEnv   string

	// EnableAccessLogToConsole writes the access log to stdout.
	// Has no effect unless Console.Enabled is set.
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log /checkalive calls

	AppName     string
	ServiceName string

	Console Console

	File LogFile `toml:"file"`
}
