package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	blade "github.com/itsatony/go-blade"
)

// versionOutput represents JSON output for version
type versionOutput struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	GoVersion string   `json:"go_version"`
	Drivers   []string `json:"storage_drivers"`
}

func (a *app) versionCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   CmdNameVersion,
		Short: HelpVersionShort,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			info := getVersionInfo()
			if format == OutputFormatJSON {
				return a.printJSON(info)
			}
			fmt.Fprintf(a.stdout, FmtVersionText, CLIName, info.Version, info.Commit, info.GoVersion)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, HelpFlagFormat)
	return cmd
}

func getVersionInfo() versionOutput {
	info := versionOutput{
		Version:   blade.Version,
		Commit:    VersionUnknown,
		GoVersion: runtime.Version(),
		Drivers:   blade.ListStorageDrivers(),
	}
	if build, ok := debug.ReadBuildInfo(); ok {
		for _, s := range build.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				info.Commit = s.Value
			}
		}
	}
	return info
}
