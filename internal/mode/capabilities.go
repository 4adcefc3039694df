package mode

import (
	"bufio"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Capabilities is a coarse picture of what the host can sustain.
// Exact hardware identifiers are often unavailable, so Year and MemoryGB
// are estimates derived from OS-level signals.
type Capabilities struct {
	Platform string
	Year     int
	MemoryGB int
}

// Probe supplies device capabilities. Implementations must not panic on
// unknown platforms; returning an error yields the conservative default.
type Probe interface {
	Probe() (Capabilities, error)
}

// HostProbe estimates capabilities from the local OS.
type HostProbe struct{}

// Probe reads total memory and a kernel-release-derived year estimate.
// Fields it cannot determine stay zero, which the mode heuristic treats
// conservatively.
func (HostProbe) Probe() (Capabilities, error) {
	caps := Capabilities{Platform: runtime.GOOS}

	switch runtime.GOOS {
	case "linux":
		caps.MemoryGB = linuxMemoryGB()
		caps.Year = kernelYear(osRelease())
	case "darwin":
		caps.MemoryGB = darwinMemoryGB()
		caps.Year = darwinYear(sysctlString("kern.osrelease"))
	}

	return caps, nil
}

// linuxMemoryGB reads MemTotal from /proc/meminfo, rounded down to whole
// gigabytes. Returns 0 if the file is unreadable.
func linuxMemoryGB() int {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return int(kb / (1024 * 1024))
	}
	return 0
}

// sysctlString reads one sysctl value. Returns "" on any failure.
func sysctlString(name string) string {
	out, err := exec.Command("sysctl", "-n", name).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// darwinMemoryGB reads hw.memsize, rounded down to whole gigabytes.
func darwinMemoryGB() int {
	b, err := strconv.ParseInt(sysctlString("hw.memsize"), 10, 64)
	if err != nil {
		return 0
	}
	return int(b / (1 << 30))
}

// darwinYear maps a Darwin kernel major version to a release-year
// estimate. Darwin 14 shipped in 2014 and the major has tracked the year
// since, so recent releases map to 2000 + major.
func darwinYear(release string) int {
	major, err := strconv.Atoi(strings.SplitN(release, ".", 2)[0])
	if err != nil || major < 14 {
		return 0
	}
	return 2000 + major
}

func osRelease() string {
	data, err := os.ReadFile("/proc/sys/kernel/osrelease")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// kernelYear maps a kernel release string to a coarse release-year
// estimate. Unknown or unparsable releases map to 0.
func kernelYear(release string) int {
	parts := strings.SplitN(release, ".", 3)
	if len(parts) < 2 {
		return 0
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minor, _ := strconv.Atoi(strings.TrimFunc(parts[1], func(r rune) bool {
		return r < '0' || r > '9'
	}))

	switch {
	case major >= 6:
		return 2022
	case major == 5 && minor >= 8:
		return 2020
	case major == 5:
		return 2019
	case major == 4:
		return 2016
	default:
		return 0
	}
}
