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
	"github.com/blacktop/machofix/internal/tools"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(unsignCmd)

	signCmd.Flags().StringP("identity", "i", "", "Signing identity (default is ad-hoc)")
	signCmd.Flags().String("entitlements", "", "Entitlements file")
	signCmd.Flags().Bool("deep", false, "Sign nested content")
}

// signCmd represents the sign command
var signCmd = &cobra.Command{
	Use:           "sign <BINARY>",
	Short:         "Sign a binary with codesign (ad-hoc by default)",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		if Verbose {
			log.SetLevel(log.DebugLevel)
		}

		identity, _ := cmd.Flags().GetString("identity")
		entitlements, _ := cmd.Flags().GetString("entitlements")
		deep, _ := cmd.Flags().GetBool("deep")

		machoPath := filepath.Clean(args[0])

		tc := tools.NewExec(log.Log)
		if err := tc.Sign(machoPath, tools.SignConfig{
			Identity:     identity,
			Entitlements: entitlements,
			Deep:         deep,
		}); err != nil {
			return err
		}

		log.WithField("binary", machoPath).Info("Signed binary")
		return nil
	},
}

// unsignCmd represents the unsign command
var unsignCmd = &cobra.Command{
	Use:           "unsign <BINARY>",
	Short:         "Remove the signature from all arch slices of a binary",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		if Verbose {
			log.SetLevel(log.DebugLevel)
		}

		machoPath := filepath.Clean(args[0])

		tc := tools.NewExec(log.Log)
		if err := tc.RemoveSignature(machoPath); err != nil {
			return err
		}

		log.WithField("binary", machoPath).Info("Removed signature")
		return nil
	},
}
