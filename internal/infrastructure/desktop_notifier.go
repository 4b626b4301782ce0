package infrastructure

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/yourusername/quickdl-go/internal/domain"
	"go.uber.org/zap"
)

const desktopNotifyTimeout = 5 * time.Second

// DesktopNotifier mirrors workflow notifications to the desktop
type DesktopNotifier struct {
	config domain.NotificationConfig
	title  string
	logger *zap.Logger
	run    func(ctx context.Context, name string, args ...string) error
}

// NewDesktopNotifier creates a notifier using config.Method
func NewDesktopNotifier(config domain.NotificationConfig, title string, logger *zap.Logger) *DesktopNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DesktopNotifier{
		config: config,
		title:  title,
		logger: logger,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// Deliver implements domain.NotificationSink
func (n *DesktopNotifier) Deliver(notification domain.Notification) {
	if err := n.Send(notification); err != nil {
		n.logger.Debug("Desktop notification not delivered", zap.Error(err))
	}
}

// Send shows one notification on the desktop
func (n *DesktopNotifier) Send(notification domain.Notification) error {
	if !n.config.Desktop || notification.Message == "" {
		return nil
	}

	title := n.title
	if notification.Severity == domain.SeverityError {
		title += " - error"
	}

	var name string
	var args []string
	switch n.config.Method {
	case "osascript":
		name = "osascript"
		args = []string{"-e", fmt.Sprintf("display notification %s with title %s",
			appleScriptString(notification.Message), appleScriptString(title))}
	case "notify-send":
		name = "notify-send"
		args = []string{"--app-name=quickdl", title, notification.Message}
		if notification.Severity == domain.SeverityError {
			args = append([]string{"--urgency=critical"}, args...)
		}
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), desktopNotifyTimeout)
	defer cancel()

	if err := n.run(ctx, name, args...); err != nil {
		n.logger.Warn("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.String("command", commandLine(name, args...)),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("command", commandLine(name, args...)))
	return nil
}
