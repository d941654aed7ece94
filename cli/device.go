package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Identities are either ip:port for Wi-Fi devices or the serial of the one
// attached USB device.
const identityHelp = "<id> is ip:port for a Wi-Fi device or the serial of the single USB device."

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "info <id>",
		Short:   "Show serial, model and Android version",
		Long:    identityHelp,
		Example: `  droidkit info 192.168.1.20:5555`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.dm.Report(args[0])
			if err != nil {
				return fmt.Errorf("failed to read device report: %w", err)
			}
			r := newStdRenderer(jsonOut)
			return output(r, report, func() { r.Report(report) })
		},
	}
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls <id> [path]",
		Short:   "List a directory on the device",
		Long:    identityHelp,
		Example: `  droidkit ls 192.168.1.20:5555 /sdcard/DCIM`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "/sdcard"
			if len(args) == 2 {
				dir = args[1]
			}
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.dm.ListFiles(args[0], dir)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", dir, err)
			}
			r := newStdRenderer(jsonOut)
			return output(r, entries, func() { r.Files(entries) })
		},
	}
}

func pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "pull <id> <remote> <local>",
		Short:   "Copy a file from the device",
		Long:    identityHelp,
		Example: `  droidkit pull 192.168.1.20:5555 /sdcard/notes.txt ./notes.txt`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.dm.PullFile(args[0], args[1], args[2])
			if err != nil {
				return fmt.Errorf("failed to pull %s: %w", args[1], err)
			}
			r := newStdRenderer(jsonOut)
			return output(r, res, func() { r.Success("Pulled %s (%d bytes)", res.Local, res.Bytes) })
		},
	}
}

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell <id> <command>...",
		Short: "Run a shell command on the device",
		Long:  identityHelp,
		Example: `  droidkit shell 192.168.1.20:5555 getprop ro.product.model
  droidkit shell R58M123ABC -- ls -la /sdcard`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.dm.RunCommand(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			r := newStdRenderer(jsonOut)
			return output(r, res, func() {
				r.Text(res.Output)
				if res.ExitCode != 0 {
					r.Warning("Command exited with status %d", res.ExitCode)
				}
			})
		},
	}
}

var sysinfoSections = []string{"hardware", "display", "battery", "build", "network"}

var sectionTitles = map[string]string{
	"hardware": "Hardware",
	"display":  "Display",
	"battery":  "Battery",
	"build":    "Build",
	"network":  "Network",
}

func sysinfoCmd() *cobra.Command {
	var section string

	cmd := &cobra.Command{
		Use:   "sysinfo <id>",
		Short: "Show hardware, display, battery, build and network details",
		Long:  identityHelp + "\nFields the device does not report are shown as a dash.",
		Example: `  droidkit sysinfo 192.168.1.20:5555
  droidkit sysinfo 192.168.1.20:5555 --section network`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			id := args[0]
			r := newStdRenderer(jsonOut)

			var v any
			switch section {
			case "":
				report, err := a.dm.System(id)
				if err != nil {
					return err
				}
				return output(r, report, func() { r.System(report) })
			case "hardware":
				v, err = a.dm.Hardware(id)
			case "display":
				v, err = a.dm.Display(id)
			case "battery":
				battery, berr := a.dm.Battery(id)
				if berr == nil && battery == nil {
					r.Warning("Device reports no battery")
					return nil
				}
				v, err = battery, berr
			case "build":
				v, err = a.dm.Build(id)
			case "network":
				v, err = a.dm.Network(id)
			default:
				return fmt.Errorf("unknown section %q (want one of %s)", section, strings.Join(sysinfoSections, ", "))
			}
			if err != nil {
				return err
			}
			return output(r, v, func() { r.Section(sectionTitles[section], v) })
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "", "Only one section: "+strings.Join(sysinfoSections, ", "))
	return cmd
}

func packagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "packages <id>",
		Short: "List installed packages",
		Long:  identityHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			pkgs, err := a.dm.Packages(args[0])
			if err != nil {
				return err
			}
			r := newStdRenderer(jsonOut)
			return output(r, pkgs, func() {
				for _, p := range pkgs {
					fmt.Fprintln(r.out, p)
				}
			})
		},
	}
}

func logcatCmd() *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:     "logcat <id>",
		Short:   "Dump recent device log lines",
		Long:    identityHelp,
		Example: `  droidkit logcat 192.168.1.20:5555 -n 500`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.dm.Logcat(args[0], lines)
			if err != nil {
				return err
			}
			r := newStdRenderer(jsonOut)
			return output(r, map[string]string{"output": out}, func() { r.Text(out) })
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 200, "Number of lines")
	return cmd
}
