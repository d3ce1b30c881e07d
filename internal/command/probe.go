package command

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

const probeTimeout = 5 * time.Second

// Probe checks the search binary by running "<executable> --version".
// It returns whether the binary is usable and its version string, taken from
// the second whitespace-separated token of the first output line
// (e.g. "ripgrep 14.1.0" -> "14.1.0"). A missing binary or non-zero exit
// reports unavailable.
func Probe(ctx context.Context, executable string) (bool, string) {
	if executable == "" {
		executable = DefaultExecutable
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, executable, "--version").Output()
	if err != nil {
		return false, ""
	}
	lines := strings.SplitN(string(out), "\n", 2)
	fields := strings.Fields(lines[0])
	if len(fields) < 2 {
		return true, ""
	}
	return true, fields[1]
}
