package server

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserOpener opens url in the user's browser.
type BrowserOpener func(ctx context.Context, url string) error

// BrowserCommand returns the command line that opens url on goos.
func BrowserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "cmd", []string{"/c", "start", "", url}
	default:
		return "xdg-open", []string{url}
	}
}

// OpenBrowser starts the platform opener for url without waiting for the
// browser to exit.
func OpenBrowser(ctx context.Context, url string) error {
	name, args := BrowserCommand(runtime.GOOS, url)

	cmd := exec.CommandContext(context.WithoutCancel(ctx), name, args...)

	err := cmd.Start()
	if err != nil {
		return fmt.Errorf("open browser with %s: %w", name, err)
	}

	go func() {
		// Reap the opener; its exit status says nothing about the browser.
		_ = cmd.Wait()
	}()

	return nil
}
