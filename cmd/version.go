package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/ginjaninja78/loan-anomaly-detector/cmd.Version=...".
var (
	Version   = "1.0.0"
	Commit    = ""
	BuildDate = "unknown"
)

var versionShort bool

type buildInfo struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	Platform  string
}

// currentBuild collects the linked-in version values. A missing commit is
// taken from the VCS stamp of the binary, if any.
func currentBuild() buildInfo {
	info := buildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.Commit == "" {
		info.Commit = vcsRevision()
	}
	return info
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "none"
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return "none"
}

func (b buildInfo) write(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, b.Version)
		return
	}
	fmt.Fprintf(w, "loan-anomaly-detector %s (commit %s, built %s)\n", b.Version, b.Commit, b.BuildDate)
	fmt.Fprintf(w, "%s %s\n", b.GoVersion, b.Platform)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		currentBuild().write(cmd.OutOrStdout(), versionShort)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
}
