package update

import (
	"os"
	"strings"
	"time"

	"github.com/ruishinor/reaperd/internal/model"
)

// RuntimeConfig is the slice of configuration the UI layer cares
// about. The caller maps it from the resolved app config.
type RuntimeConfig struct {
	DefaultLifespan      time.Duration
	Presets              []model.Preset
	DesktopNotifications bool
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DefaultLifespan:      time.Hour,
		Presets:              model.DefaultPresets(),
		DesktopNotifications: false,
	}
}

func DesktopNotificationsEnabledFromEnv() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("REAPERD_DESKTOP_NOTIFICATIONS")))
	return v == "1" || v == "true" || v == "yes"
}
