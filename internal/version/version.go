// Package version отдаёт сведения о сборке, проставленные через -ldflags.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	builtAt = "unknown"
)

// Build описывает собранный бинарник.
type Build struct {
	Version string
	Commit  string
	BuiltAt string
}

// Info возвращает сведения о текущей сборке.
func Info() Build {
	return Build{Version: version, Commit: commit, BuiltAt: builtAt}
}

// String возвращает сведения о сборке одной строкой для логов и health-ответов.
func String() string {
	b := Info()
	return fmt.Sprintf("%s (commit %s, built %s)", b.Version, b.Commit, b.BuiltAt)
}
