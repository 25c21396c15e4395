// ABOUTME: Help display for the specserve CLI with flags, examples, and environment overrides.
package main

import (
	"fmt"
	"io"
	"os"
)

// envKeys lists every variable config.ApplyEnv reads.
var envKeys = []string{
	"SPECSERVE_ADDR",
	"SPECSERVE_DIR",
	"SPECSERVE_ENTRY",
	"SPECSERVE_IGNORE",
	"SPECSERVE_MARKDOWN",
	"SPECSERVE_WATCH",
	"SPECSERVE_POLL_INTERVAL",
	"SPECSERVE_DEBOUNCE",
	"SPECSERVE_REQUEST_LOGGING",
}

// printHelp writes usage, flags, examples, and the state of SPECSERVE_* variables to w.
func printHelp(w io.Writer, ver string) {
	fmt.Fprintf(w, "specserve %s: serve a spec runner directory, gated on the latest good build\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  specserve [flags] [dir]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <file>        YAML or TOML config file")
	fmt.Fprintln(w, "  -addr <host:port>     Listen address (default: 127.0.0.1:8888)")
	fmt.Fprintln(w, "  -entry <file>         File served at / (default: specRunner.html)")
	fmt.Fprintln(w, "  -markdown             Render *.md files to HTML")
	fmt.Fprintln(w, "  -no-watch             Load the directory once; do not poll for changes")
	fmt.Fprintln(w, "  -quiet                Disable per-request logging")
	fmt.Fprintln(w, "  -version              Print version and exit")
	fmt.Fprintln(w, "  -help                 Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  specserve ./spec-build")
	fmt.Fprintln(w, "  specserve -addr 127.0.0.1:9000 -entry index.html ./public")
	fmt.Fprintln(w, "  specserve -config specserve.yaml")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	for _, key := range envKeys {
		fmt.Fprintf(w, "  %-27s %s\n", key, envStatus(key))
	}
	fmt.Fprintln(w)
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
