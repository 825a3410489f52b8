package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/wppdesk/internal/lock"
	"github.com/matheus3301/wppdesk/internal/profile"
	"github.com/matheus3301/wppdesk/internal/tui"
	"github.com/matheus3301/wppdesk/internal/tui/client"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	noStart := flag.Bool("no-start", false, "fail instead of starting wppdeskd when it is not running")
	flag.Parse()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	socketPath := profile.SocketPath(name)

	if !probeDaemon(socketPath) {
		if *noStart {
			fmt.Fprintf(os.Stderr, "daemon not running for profile %q\n", name)
			os.Exit(1)
		}
		if lock.IsHeld(profile.Dir(name)) {
			fmt.Fprintf(os.Stderr, "daemon for profile %q holds its lock but is not answering, waiting...\n", name)
		} else {
			fmt.Fprintf(os.Stderr, "daemon not running for profile %q, starting...\n", name)
			if err := startDaemon(name); err != nil {
				fmt.Fprintf(os.Stderr, "failed to start daemon: %v\n", err)
				os.Exit(1)
			}
		}
		if !waitForDaemon(socketPath, 10*time.Second) {
			fmt.Fprintf(os.Stderr, "daemon did not become ready, see %s\n", profile.LogPath(name))
			os.Exit(1)
		}
	}

	c, err := client.New(socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to daemon: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	if err := tui.NewApp(c, name).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// probeDaemon reports whether a daemon answers GetSnapshot on socketPath.
func probeDaemon(socketPath string) bool {
	if _, err := os.Stat(socketPath); err != nil {
		return false
	}
	c, err := client.New(socketPath)
	if err != nil {
		return false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Snapshot(ctx)
	return err == nil
}

// startDaemon launches wppdeskd from next to this binary, or from PATH.
func startDaemon(name string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	bin := filepath.Join(filepath.Dir(executable), "wppdeskd")
	if _, err := os.Stat(bin); err != nil {
		bin = "wppdeskd"
	}

	cmd := exec.Command(bin, "--profile", name)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

func waitForDaemon(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probeDaemon(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
