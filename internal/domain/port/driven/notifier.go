package driven

import "context"

// Notifier defines the driven port for posting a message to a team channel.
// Messages may contain HTML anchors.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
