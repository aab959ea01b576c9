package printer

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tarm/serial"
)

// scanSerial returns the serial ports that can be opened right now.
func scanSerial() []string {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = scanMacOSPorts()
	case "linux":
		candidates = scanLinuxPorts()
	case "windows":
		candidates = scanWindowsPorts()
	}

	var ports []string
	for _, path := range candidates {
		port, err := serial.OpenPort(&serial.Config{Name: path, Baud: defaultBaud})
		if err != nil {
			continue
		}
		port.Close()
		ports = append(ports, path)
	}
	return ports
}

func scanMacOSPorts() []string {
	// Skip Bluetooth and other non-printer devices
	skip := []string{"Bluetooth", "debug-console", "KeySerial", "Modem", "SPP"}

	var ports []string
	matches, _ := filepath.Glob("/dev/cu.*")
	for _, match := range matches {
		if !containsAny(match, skip) {
			ports = append(ports, match)
		}
	}
	return ports
}

func scanLinuxPorts() []string {
	var ports []string
	for _, pattern := range []string{"/dev/ttyUSB*", "/dev/ttyACM*"} {
		matches, _ := filepath.Glob(pattern)
		ports = append(ports, matches...)
	}
	return ports
}

func scanWindowsPorts() []string {
	ports := make([]string, 0, 256)
	for i := 1; i <= 256; i++ {
		ports = append(ports, fmt.Sprintf("COM%d", i))
	}
	return ports
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
