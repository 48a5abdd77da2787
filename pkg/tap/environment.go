package tap

import (
	"runtime"

	"github.com/offlinefirst/fnsolo/pkg/permissions"
)

// Environment summarises event tap backend support.
type Environment struct {
	Provider   string
	Available  bool
	Intercept  bool
	Permission string
	Message    string
	Guidance   string
}

const (
	providerQuartz = "quartz_event_tap"
	providerGohook = "gohook"
)

// DetectEnvironment reports which backend would serve a tap on this host
// and whether the accessibility permission stands in the way.
func DetectEnvironment() Environment {
	accessibility := permissions.ProbeAccessibility(nil)
	env := Environment{
		Permission: accessibility.StatusString(),
		Message:    accessibility.Message,
		Guidance:   accessibility.Guidance,
		Available:  true,
	}

	if runtime.GOOS == "darwin" {
		env.Provider = providerQuartz
		env.Intercept = true
		env.Available = accessibility.Status != permissions.StatusDenied
		if !env.Available && env.Message == "" {
			env.Message = "accessibility permission missing"
		}
	} else {
		env.Provider = providerGohook
		env.Intercept = false
		if env.Message == "" {
			env.Message = "gohook keyboard hook (observe-only)"
		}
	}

	return env
}
