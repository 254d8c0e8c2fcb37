package indicator

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
)

// desktopNotifyFunc posts a freedesktop notification. Replaced in tests.
var desktopNotifyFunc = func(title string, message string) error {
	if err := beeep.Notify(title, message, ""); err != nil {
		return fmt.Errorf("desktop notify failed: %w", err)
	}
	return nil
}

// desktopNotify returns when the notification is posted or ctx is done. A
// post still in flight at the deadline finishes in the background.
func desktopNotify(ctx context.Context, title string, message string) error {
	post := desktopNotifyFunc
	result := make(chan error, 1)
	go func() {
		result <- post(title, message)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("desktop notify: %w", ctx.Err())
	}
}
