package deps

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Status represents the installation status of an external tool
type Status struct {
	Name      string
	Installed bool
	Path      string
	Version   string
	Required  bool
}

// Tool is an external program the daemon shells out to.
type Tool struct {
	Name        string
	VersionArgs []string
	Required    bool
}

// Tools lists the programs the daemon uses: pw-record for capture, and
// notify-send for desktop notifications.
var Tools = []Tool{
	{Name: "pw-record", VersionArgs: []string{"--version"}, Required: true},
	{Name: "notify-send", VersionArgs: []string{"--version"}},
}

// Check looks tool up in PATH and reads the first line of its version output.
func Check(ctx context.Context, tool Tool) Status {
	status := Status{Name: tool.Name, Required: tool.Required}

	path, err := exec.LookPath(tool.Name)
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	if len(tool.VersionArgs) == 0 {
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	output, err := exec.CommandContext(ctx, path, tool.VersionArgs...).Output()
	if err == nil {
		line, _, _ := strings.Cut(string(output), "\n")
		status.Version = strings.TrimSpace(line)
	}

	return status
}

// CheckAll checks every tool in Tools.
func CheckAll(ctx context.Context) []Status {
	out := make([]Status, 0, len(Tools))
	for _, tool := range Tools {
		out = append(out, Check(ctx, tool))
	}
	return out
}

// Missing returns the required tools that are not installed.
func Missing(statuses []Status) []string {
	var names []string
	for _, s := range statuses {
		if s.Required && !s.Installed {
			names = append(names, s.Name)
		}
	}
	return names
}
