// Package browser opens article links in the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Launcher starts an external command without waiting for it.
type Launcher func(name string, args ...string) error

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Opener opens http and https links; any other scheme is refused.
type Opener struct {
	goos   string
	launch Launcher
}

func New() *Opener {
	return &Opener{goos: runtime.GOOS, launch: startCommand}
}

func (o *Opener) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("refusing to open URL without host: %q", rawURL)
	}

	switch o.goos {
	case "darwin":
		return o.launch("open", rawURL)
	case "windows":
		// rundll32 avoids cmd /c start shell interpretation.
		return o.launch("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return o.launch("xdg-open", rawURL)
	}
}
