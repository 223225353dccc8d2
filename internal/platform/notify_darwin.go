//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
)

// Notify displays a desktop notification using macOS Notification Center.
// Notification Center picks its own timeout, so opts.Timeout is ignored.
func Notify(title, body string, opts Options) error {
	script := fmt.Sprintf("display notification %q with title %q", body, title)
	if opts.Subtitle != "" {
		script += fmt.Sprintf(" subtitle %q", opts.Subtitle)
	}
	return exec.Command("osascript", "-e", script).Run()
}
