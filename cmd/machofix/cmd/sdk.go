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
	rootCmd.AddCommand(sdkCmd)

	sdkCmd.Flags().StringP("set", "s", "", "Overwrite the SDK version (e.g. 11.3.0)")
}

// sdkCmd represents the sdk command
var sdkCmd = &cobra.Command{
	Use:           "sdk <BINARY>",
	Short:         "Get or set the macOS SDK version a binary was built against",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		if Verbose {
			log.SetLevel(log.DebugLevel)
		}

		setVer, _ := cmd.Flags().GetString("set")

		machoPath := filepath.Clean(args[0])

		if setVer == "" {
			sdk, err := macho.GetSDKVersion(machoPath)
			if err != nil {
				return err
			}
			fmt.Println(sdk)
			return nil
		}

		v, err := semver.NewVersion(setVer)
		if err != nil {
			return fmt.Errorf("failed to parse version %q: %w", setVer, err)
		}
		segs := v.Segments() // always has at least 3 segments

		sdk := macho.Version{Major: segs[0], Minor: segs[1], Revision: segs[2]}
		if err := macho.SetSDKVersion(machoPath, sdk); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"binary": machoPath,
			"sdk":    sdk.String(),
		}).Info("Overwrote SDK version")
		return nil
	},
}
