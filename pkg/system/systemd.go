package system

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	wifiscan "github.com/dogeorg/wifiscan/pkg"
	"github.com/sirupsen/logrus"
)

var _ wifiscan.Notifier = &SystemdNotifier{}

// SystemdNotifier speaks sd_notify when we're running as a Type=notify
// unit. Outside systemd every call is a no-op.
type SystemdNotifier struct {
	log    logrus.FieldLogger
	notify func(unsetEnvironment bool, state string) (bool, error)
}

func NewSystemdNotifier(log logrus.FieldLogger) *SystemdNotifier {
	return &SystemdNotifier{
		log:    log,
		notify: daemon.SdNotify,
	}
}

func (t *SystemdNotifier) Ready() {
	t.send(daemon.SdNotifyReady)
}

func (t *SystemdNotifier) Status(status string) {
	t.send("STATUS=" + status)
}

func (t *SystemdNotifier) Stopping() {
	t.send(daemon.SdNotifyStopping)
}

// Watchdog pings systemd at half the unit's WatchdogSec until ctx is done.
// It returns straight away when no watchdog is configured.
func (t *SystemdNotifier) Watchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		t.log.WithError(err).Warn("Could not read systemd watchdog settings")
		return
	}
	if interval == 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.send(daemon.SdNotifyWatchdog)
			}
		}
	}()
}

func (t *SystemdNotifier) send(state string) {
	sent, err := t.notify(false, state)
	if err != nil {
		t.log.WithError(err).WithField("state", state).Warn("Failed to notify systemd")
		return
	}
	if sent {
		t.log.WithField("state", state).Debug("Notified systemd")
	}
}
