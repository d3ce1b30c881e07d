package process

import (
	"strings"

	"github.com/CloudShih/ripsearch/internal/models"
)

// Search binary exit codes.
const (
	// ExitMatchesFound: clean run, at least one match.
	ExitMatchesFound = 0
	// ExitNoMatches: clean run, zero matches. Not an error.
	ExitNoMatches = 1
	// ExitToolError: parameter or search error; stderr decides severity.
	ExitToolError = 2
)

// benignStderr lists exit-2 stderr fragments that do not indicate a real
// failure (matched case-insensitively).
var benignStderr = []string{
	"no files to search",
	"no files were searched",
}

// ClassifyExit maps an exit code plus captured stderr onto the error taxonomy.
// 0 and 1 are clean runs. 2 is fatal unless stderr matches a known benign
// message. Anything else is fatal.
func ClassifyExit(code int, stderr string) error {
	switch code {
	case ExitMatchesFound, ExitNoMatches:
		return nil
	case ExitToolError:
		lower := strings.ToLower(stderr)
		for _, benign := range benignStderr {
			if strings.Contains(lower, benign) {
				return nil
			}
		}
		return &models.ToolReportedError{ExitCode: code, Stderr: strings.TrimSpace(stderr)}
	default:
		return &models.ToolReportedError{ExitCode: code, Stderr: strings.TrimSpace(stderr)}
	}
}
