/*
Copyright © 2018-2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/apex/log"
	"github.com/blacktop/machofix/pkg/macho"
	semver "github.com/hashicorp/go-version"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(minosCmd)

	minosCmd.Flags().String("at-least", "", "Fail if the min OS version is below the given version")
}

// minosCmd represents the minos command
var minosCmd = &cobra.Command{
	Use:           "minos <BINARY>",
	Short:         "Show the -macosx-version-min a binary was compiled with",
	Long:          "Show the minimum OS version a binary claims to support. For fat binaries the smallest version across the arch slices is reported.",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		if Verbose {
			log.SetLevel(log.DebugLevel)
		}

		atLeast, _ := cmd.Flags().GetString("at-least")

		machoPath := filepath.Clean(args[0])

		minOS, err := macho.GetMinOSVersion(machoPath)
		if err != nil {
			return err
		}
		fmt.Println(minOS)

		if atLeast != "" {
			floor, err := semver.NewVersion(atLeast)
			if err != nil {
				return fmt.Errorf("failed to parse version %q: %w", atLeast, err)
			}
			got, err := semver.NewVersion(minOS.String())
			if err != nil {
				return err
			}
			if got.LessThan(floor) {
				return fmt.Errorf("%s targets macOS %s, older than required %s", machoPath, minOS, floor)
			}
		}

		return nil
	},
}
