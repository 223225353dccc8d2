//go:build !linux && !darwin && !windows

package platform

// Notify is a no-op on platforms without a notification service.
func Notify(title, body string, opts Options) error {
	return nil
}
