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
	"path/filepath"

	"github.com/apex/log"
	"github.com/blacktop/machofix/internal/commands/binary"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(thinCmd)

	thinCmd.Flags().StringP("arch", "a", "", "Target architecture (e.g. arm64, x86_64, universal2)")
	thinCmd.Flags().String("name", "", "Display name to use in error messages")
	thinCmd.MarkFlagRequired("arch")
}

// thinCmd represents the thin command
var thinCmd = &cobra.Command{
	Use:           "thin <BINARY>",
	Short:         "Check a binary against a target arch, thinning it with lipo if needed",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		if Verbose {
			log.SetLevel(log.DebugLevel)
		}

		targetArch, _ := cmd.Flags().GetString("arch")
		displayName, _ := cmd.Flags().GetString("name")

		machoPath := filepath.Clean(args[0])

		fixer := binary.New(nil, log.Log)
		if err := fixer.RequireArchitecture(machoPath, targetArch, displayName); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"binary": machoPath,
			"arch":   targetArch,
		}).Info("Binary satisfies target architecture")
		return nil
	},
}
