package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavi2410/droidkit/adb"
	"github.com/pavi2410/droidkit/pairing"
)

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices attached to the adb server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			devices, err := a.dm.ListDevices()
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}
			r := newStdRenderer(jsonOut)
			return output(r, devices, func() { r.Devices(devices) })
		},
	}
}

func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "connect <ip> <port>",
		Short:   "Connect to a device over Wi-Fi",
		Example: `  droidkit connect 192.168.1.20 5555`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parsePort(args[1])
			if err != nil {
				return err
			}
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			r := newStdRenderer(jsonOut)
			r.StartSpinner("Connecting to %s...", adb.JoinAddress(args[0], port))
			report, err := a.dm.Connect(cmd.Context(), args[0], port)
			r.StopSpinner()
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			return output(r, report, func() {
				r.Success("Connected to %s", report.Serial)
				r.Report(report)
			})
		},
	}
}

func disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "disconnect <ip:port>",
		Short:   "Drop a Wi-Fi connection",
		Example: `  droidkit disconnect 192.168.1.20:5555`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.dm.Disconnect(args[0]); err != nil {
				return fmt.Errorf("failed to disconnect: %w", err)
			}
			newStdRenderer(jsonOut).Success("Disconnected %s", args[0])
			return nil
		},
	}
}

func discoverCmd() *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find devices advertising wireless debugging",
		Example: `  droidkit discover
  droidkit discover --window 10s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			r := newStdRenderer(jsonOut)
			r.StartSpinner("Listening for devices...")
			devices, err := a.dm.Discover(cmd.Context(), window)
			r.StopSpinner()
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}
			return output(r, devices, func() { r.Discovered(devices) })
		},
	}

	cmd.Flags().DurationVarP(&window, "window", "w", 0, "How long to listen (default from config)")
	return cmd
}

func pairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pair <ip> <port> <code>",
		Short: "Pair with a six-digit code and connect",
		Long: `Pair with a device using the code and port shown under
Developer options > Wireless debugging > Pair device with pairing code.`,
		Example: `  droidkit pair 192.168.1.20 41877 123456`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parsePort(args[1])
			if err != nil {
				return err
			}
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			r := newStdRenderer(jsonOut)
			r.StartSpinner("Pairing with %s...", adb.JoinAddress(args[0], port))
			report, err := a.dm.Pair(cmd.Context(), args[0], port, args[2])
			r.StopSpinner()
			if err != nil {
				var perr *pairing.PairingError
				if errors.As(err, &perr) {
					r.Error("%s", perr.Message())
				}
				return err
			}
			return output(r, report, func() {
				r.Success("Paired and connected to %s", report.Serial)
				r.Report(report)
			})
		},
	}
}

func pairedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paired",
		Short: "List devices connected or paired before",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			devices, err := a.dm.PairedDevices(cmd.Context())
			if err != nil {
				return err
			}
			r := newStdRenderer(jsonOut)
			return output(r, devices, func() { r.Paired(devices) })
		},
	}
}

func forgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "forget <id>",
		Short:   "Remove a device from the paired list",
		Example: `  droidkit forget 6f1c2a4e-8d0b-4f7e-9a51-3c2d1e0f9b7a`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.dm.ForgetDevice(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to forget device: %w", err)
			}
			newStdRenderer(jsonOut).Success("Forgot %s", args[0])
			return nil
		},
	}
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: port %q", adb.ErrInvalidAddress, s)
	}
	return port, nil
}
