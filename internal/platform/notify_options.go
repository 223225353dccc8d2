package platform

import "time"

// AppName identifies the sender of desktop notifications.
const AppName = "MagicDraw"

// DefaultTimeout is how long a notification stays up when Options leaves
// Timeout unset.
const DefaultTimeout = 5 * time.Second

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Subtitle is a short second heading, usually the drawing's file name.
	Subtitle string
	// Category is a freedesktop notification category such as
	// "transfer.complete". Platforms without categories ignore it.
	Category string
	Timeout  time.Duration
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}
