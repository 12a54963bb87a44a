package commands

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform selects the command syntax family.
type Platform int

const (
	Unix Platform = iota
	Windows
)

func (p Platform) String() string {
	if p == Windows {
		return "windows"
	}
	return "unix"
}

// Current reports the platform of the running process.
func Current() Platform {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a GOOS value onto a platform family.
func FromGOOS(goos string) Platform {
	if goos == "windows" {
		return Windows
	}
	return Unix
}

// ParsePlatform accepts "auto", "unix" or "windows".
func ParsePlatform(value string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return Current(), nil
	case "unix", "linux", "darwin":
		return Unix, nil
	case "windows":
		return Windows, nil
	}
	return Unix, fmt.Errorf("commands: unknown platform %q (want auto, unix or windows)", value)
}
