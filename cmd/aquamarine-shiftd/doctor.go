package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardos-os/aquamarine-shift/internal/shiftclient"
)

// newDoctorCmd builds a one-shot diagnostic: connect to the session,
// report what it advertises, then disconnect. It exists for the common
// "why won't my backend start" triage step, separate from serve's
// long-running loop.
func newDoctorCmd() *cobra.Command {
	var (
		socketPath  string
		waitTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose a Shift session connection without running a backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), socketPath, waitTimeout)
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", envOrDefault("SHIFT_SESSION_SOCKET", "/run/shift/session.sock"), "path to the Shift session socket")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 5*time.Second, "how long to wait for the session socket to appear before giving up")

	return cmd
}

func runDoctor(ctx context.Context, socketPath string, waitTimeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()

	fmt.Printf("waiting for session socket at %s...\n", socketPath)
	if err := shiftclient.WaitForSocket(waitCtx, socketPath); err != nil {
		return fmt.Errorf("session socket never appeared: %w", err)
	}
	fmt.Println("socket present")

	token := shiftclient.EnvToken()
	if token == "" {
		fmt.Println("SHIFT_SESSION_TOKEN not set; connecting with library default")
	} else {
		fmt.Println("SHIFT_SESSION_TOKEN set; forwarding to connect")
	}

	client, err := shiftclient.Connect(token)
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	defer client.Disconnect()

	fmt.Printf("connected: socket_fd=%d drm_fd=%d\n", client.SocketFD(), client.DRMFD())

	count := client.MonitorCount()
	fmt.Printf("monitors reported: %d\n", count)
	for i := 0; i < count; i++ {
		id := client.MonitorIDAt(i)
		if id == "" {
			fmt.Printf("  [%d] <empty id, skipped>\n", i)
			continue
		}
		info, ok := client.MonitorInfo(id)
		if !ok {
			fmt.Printf("  [%d] %s: info unavailable\n", i, id)
			continue
		}
		fmt.Printf("  [%d] %s %q %dx%d @%dHz\n", i, info.ID, info.Name, info.Width, info.Height, info.RefreshHz)
	}

	return nil
}
