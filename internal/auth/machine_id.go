package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

const passwordSalt = "lazyca-keyring-salt-v1"

// deriveFilePassword derives the file backend password from the machine id
// and the user name, so it is stable across restarts but differs per machine
func deriveFilePassword() (string, error) {
	machineID, err := machineID()
	if err != nil || machineID == "" {
		machineID, _ = os.Hostname()
	}

	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	if username == "" {
		username = fmt.Sprintf("uid-%d", os.Getuid())
	}

	hash := sha256.Sum256([]byte(machineID + username + passwordSalt))
	return base64.StdEncoding.EncodeToString(hash[:]), nil
}

func machineID() (string, error) {
	switch runtime.GOOS {
	case "linux":
		for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
			if data, err := os.ReadFile(path); err == nil {
				return strings.TrimSpace(string(data)), nil
			}
		}
	case "darwin":
		out, err := exec.Command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
		if err == nil {
			for _, line := range strings.Split(string(out), "\n") {
				if !strings.Contains(line, "IOPlatformUUID") {
					continue
				}
				if parts := strings.Split(line, "="); len(parts) == 2 {
					return strings.Trim(strings.TrimSpace(parts[1]), "\""), nil
				}
			}
		}
	case "windows":
		out, err := exec.Command("wmic", "csproduct", "get", "UUID").Output()
		if err == nil {
			for _, line := range strings.Split(string(out), "\n") {
				if line = strings.TrimSpace(line); line != "" && line != "UUID" {
					return line, nil
				}
			}
		}
	}
	return os.Hostname()
}
