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
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/machofix/internal/prefix"
	"github.com/blacktop/machofix/pkg/macho"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolP("env", "e", false, "Report if the binary came from a Homebrew/MacPorts prefix")
}

var colorBold = color.New(color.Bold).SprintFunc()
var colorArch = color.New(color.FgHiCyan).SprintFunc()

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:           "info <BINARY>",
	Short:         "Show the architecture slices of a thin or fat Mach-O binary",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		if Verbose {
			log.SetLevel(log.DebugLevel)
		}
		color.NoColor = !Color

		showEnv, _ := cmd.Flags().GetBool("env")

		machoPath := filepath.Clean(args[0])

		isFat, archs, err := macho.GetArchitectures(machoPath)
		if err != nil {
			return err
		}

		kind := "thin"
		if isFat {
			kind = fmt.Sprintf("fat (%d slices)", len(archs))
		}
		fmt.Printf("%s: %s binary [%s]\n", colorBold(machoPath), kind, colorArch(strings.Join(archs, ", ")))

		if showEnv {
			switch {
			case prefix.IsHomebrew(machoPath):
				log.Info("binary lives under the Homebrew prefix")
			case prefix.IsMacPorts(machoPath):
				log.Info("binary lives under the MacPorts prefix")
			default:
				log.Info("binary is not from a known package manager prefix")
			}
		}

		return nil
	},
}
