// Package browser opens payment and verification pages in the user's
// default browser, falling back to platform-specific commands when the
// open-golang library cannot handle the environment.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// OpenURL opens a URL in the default browser.
func OpenURL(url string) error {
	log.Debugf("Attempting to open URL in browser: %s", url)

	if err := open.Run(url); err == nil {
		return nil
	} else {
		log.Debugf("open-golang failed: %v, trying platform-specific commands", err)
	}

	return openURLPlatformSpecific(url)
}

// openURLPlatformSpecific opens URL using platform-specific commands.
func openURLPlatformSpecific(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux":
		for _, browser := range []string{"xdg-open", "x-www-browser", "www-browser", "firefox", "chromium", "google-chrome"} {
			if _, err := exec.LookPath(browser); err == nil {
				cmd = exec.Command(browser, url)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("no suitable browser found on Linux system")
		}
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser command: %w", err)
	}
	return nil
}
