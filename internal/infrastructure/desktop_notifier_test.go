package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quickdl-go/internal/domain"
)

type capturedCommand struct {
	name string
	args []string
}

func newCapturingNotifier(method string, desktop bool) (*DesktopNotifier, *[]capturedCommand) {
	var calls []capturedCommand
	n := NewDesktopNotifier(domain.NotificationConfig{Desktop: desktop, Method: method}, "quickdl", nil)
	n.run = func(ctx context.Context, name string, args ...string) error {
		calls = append(calls, capturedCommand{name: name, args: args})
		return nil
	}
	return n, &calls
}

func TestDesktopNotifier_Disabled(t *testing.T) {
	n, calls := newCapturingNotifier("notify-send", false)
	require.NoError(t, n.Send(domain.Notification{Severity: domain.SeveritySuccess, Message: "ok"}))
	assert.Empty(t, *calls)
}

func TestDesktopNotifier_NotifySend(t *testing.T) {
	n, calls := newCapturingNotifier("notify-send", true)
	n.Deliver(domain.Notification{Severity: domain.SeverityError, Message: "Failed to download file"})

	require.Len(t, *calls, 1)
	assert.Equal(t, "notify-send", (*calls)[0].name)
	assert.Equal(t, []string{"--urgency=critical", "--app-name=quickdl", "quickdl - error", "Failed to download file"}, (*calls)[0].args)
}

func TestDesktopNotifier_OSAScriptQuotesMessage(t *testing.T) {
	n, calls := newCapturingNotifier("osascript", true)
	n.Deliver(domain.Notification{Severity: domain.SeveritySuccess, Message: `Saved "clip".mp4`})

	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"-e", `display notification "Saved \"clip\".mp4" with title "quickdl"`}, (*calls)[0].args)
}

func TestDesktopNotifier_UnknownMethodAndFailure(t *testing.T) {
	n, calls := newCapturingNotifier("growl", true)
	require.NoError(t, n.Send(domain.Notification{Message: "ok"}))
	assert.Empty(t, *calls)

	n, _ = newCapturingNotifier("notify-send", true)
	n.run = func(ctx context.Context, name string, args ...string) error {
		return errors.New("executable file not found")
	}
	assert.Error(t, n.Send(domain.Notification{Message: "ok"}))
}
