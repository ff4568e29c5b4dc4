package core

import (
	"github.com/coreos/go-systemd/v22/daemon"

	"hookrelay/pkg/logx"
)

// notifyReady tells systemd the service is up. A no-op outside a
// Type=notify unit (NOTIFY_SOCKET unset).
func notifyReady(log logx.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Warn("sd_notify failed", logx.Err(err))
		return
	}
	if sent {
		log.Debug("sd_notify ready sent")
	}
}

func notifyStopping(log logx.Logger) {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		log.Warn("sd_notify failed", logx.Err(err))
	}
}
