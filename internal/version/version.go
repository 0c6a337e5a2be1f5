// Package version reports the calc CLI's build identity.
package version

import "github.com/fatih/color"

var (
	major = color.New(color.FgYellow, color.Bold)
	minor = color.New(color.FgGreen, color.Bold)
	patch = color.New(color.FgBlue, color.Bold)
)

// Version is the semantic version of the CLI. Overridable at build time
// via -ldflags.
var Version = "0.1.0"

// GitCommit is an optional git commit hash, set at build time.
var GitCommit = ""

// String renders the colored version banner printed by -v.
func String() string {
	parts := splitSemver(Version)
	banner := major.Sprint(parts[0]) + "." + minor.Sprint(parts[1]) + "." + patch.Sprint(parts[2])
	if GitCommit != "" {
		banner += " (" + GitCommit + ")"
	}
	return "calc " + banner
}

func splitSemver(v string) [3]string {
	var out [3]string
	i, field := 0, 0
	for field < 3 && i <= len(v) {
		j := i
		for j < len(v) && v[j] != '.' {
			j++
		}
		out[field] = v[i:j]
		i = j + 1
		field++
	}
	return out
}
