package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/yourusername/media-fetch-go/internal/infrastructure"
)

const (
	serverBinaryName   = "mediafetch-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

// isServerRunning reports whether a mediafetch server answers on serverURL
func isServerRunning() bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	var health struct {
		Status string `json:"status"`
	}
	return json.NewDecoder(resp.Body).Decode(&health) == nil && health.Status != ""
}

// findServerBinary locates mediafetch-server next to this binary, on PATH or
// in the usual install directories
func findServerBinary() (string, error) {
	return infrastructure.NewBinaryLocator(nil).Locate(serverBinaryName)
}

// startServerBackground starts the server as a detached background process
func startServerBackground() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	// Skip the server's own daemon fork, the process is detached here
	args := []string{"-server-mode"}
	if configPath != "" {
		args = append(args, "-config", configPath)
	}
	cmd := exec.Command(serverPath, args...)
	cmd.Env = os.Environ()

	// nil stdio is /dev/null; the server logs to its own files
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", serverPath, err)
	}

	// Reap the child if it exits while we are still running
	go cmd.Wait()

	return nil
}

// waitForServerReady polls the health endpoint until it answers or timeout passes
func waitForServerReady(timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(serverPollInterval)
	defer poll.Stop()

	for {
		if isServerRunning() {
			return nil
		}
		select {
		case <-deadline.C:
			return fmt.Errorf("server did not start within %v", timeout)
		case <-poll.C:
		}
	}
}

// ensureServerRunning checks if server is running, starts it if not
func ensureServerRunning() error {
	if isServerRunning() {
		return nil
	}

	fmt.Fprintf(os.Stderr, "No server at %s, starting %s...\n", serverURL, serverBinaryName)

	if err := startServerBackground(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	if err := waitForServerReady(serverStartTimeout); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Server started")
	return nil
}
