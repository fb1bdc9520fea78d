// Package browser opens URLs in the user's default browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Command returns the command that opens url on goos, or nil when goos has
// no known opener.
func Command(goos, url string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	}
	return nil
}

// Open starts the default browser on url without waiting for it.
func Open(url string) error {
	cmd := Command(runtime.GOOS, url)
	if cmd == nil {
		return fmt.Errorf("opening urls is not supported on %s", runtime.GOOS)
	}
	return cmd.Start()
}

// OpenAll opens every url in order and stops at the first failure.
func OpenAll(open func(string) error, urls []string) (int, error) {
	for i, u := range urls {
		if err := open(u); err != nil {
			return i, fmt.Errorf("open %s: %w", u, err)
		}
	}
	return len(urls), nil
}
