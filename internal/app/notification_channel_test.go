package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quickdl-go/internal/domain"
)

func TestNotificationChannel_LastWriteWins(t *testing.T) {
	sink := &recordingSink{}
	c := NewNotificationChannel(time.Minute, sink)
	defer c.Dismiss()

	c.Success("first")
	c.Error("second")

	n, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "second", n.Message)
	assert.Equal(t, domain.SeverityError, n.Severity)
	assert.Len(t, sink.all(), 2)
}

func TestNotificationChannel_Dismiss(t *testing.T) {
	c := NewNotificationChannel(time.Minute)
	c.Success("done")
	c.Dismiss()

	_, ok := c.Current()
	assert.False(t, ok)
}

func TestNotificationChannel_AutoDismiss(t *testing.T) {
	c := NewNotificationChannel(20 * time.Millisecond)
	c.Success("done")

	assert.Eventually(t, func() bool {
		_, ok := c.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestNotificationChannel_StaleTimerKeepsNewerNotification(t *testing.T) {
	c := NewNotificationChannel(time.Minute)
	defer c.Dismiss()

	first := c.Success("first")
	second := c.Error("second")

	// the first notification's timer firing late must not hide the second
	c.expire(first.Seq)
	n, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, second.Seq, n.Seq)

	c.expire(second.Seq)
	_, ok = c.Current()
	assert.False(t, ok)
}

func TestNotificationChannel_DefaultDuration(t *testing.T) {
	c := NewNotificationChannel(0)
	assert.Equal(t, DefaultAutoDismiss, c.autoDismiss)
}
