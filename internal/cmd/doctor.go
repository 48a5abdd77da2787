package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/offlinefirst/fnsolo/pkg/permissions"
	"github.com/offlinefirst/fnsolo/pkg/tap"
)

func newDoctorCommand() command {
	return command{
		name:        "doctor",
		description: "Diagnose permissions and event tap support on this host",
		run:         runDoctor,
	}
}

func runDoctor(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	probe := permissions.ProbeAccessibility(nil)
	env := tap.DetectEnvironment()

	fmt.Fprintf(stdout, "Configuration source: %s\n", ctx.Config.Source)
	fmt.Fprintf(stdout, "Trigger delay: %s\n", ctx.Config.Engine.TriggerDelay())
	fmt.Fprintf(stdout, "Intercept mode: %s\n", ctx.Config.Engine.InterceptMode)
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, "Accessibility permission: %s\n", probe.StatusString())
	if probe.Message != "" {
		fmt.Fprintf(stdout, "  %s\n", probe.Message)
	}
	if probe.Guidance != "" {
		fmt.Fprintf(stdout, "  %s\n", probe.Guidance)
	}

	fmt.Fprintf(stdout, "Event tap provider: %s\n", env.Provider)
	fmt.Fprintf(stdout, "  available: %t\n", env.Available)
	fmt.Fprintf(stdout, "  intercept supported: %t\n", env.Intercept)
	if env.Message != "" {
		fmt.Fprintf(stdout, "  %s\n", env.Message)
	}

	if !env.Available {
		return fmt.Errorf("event tap unavailable: %s", env.Message)
	}
	return nil
}
