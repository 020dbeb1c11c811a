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
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/apex/log"
	"github.com/blacktop/machofix/internal/commands/binary"
	"github.com/blacktop/machofix/internal/tools"
	"github.com/blacktop/machofix/pkg/macho"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(patchCmd)

	patchCmd.Flags().BoolP("unsign", "u", false, "Remove an existing signature before patching (no prompt)")
	patchCmd.Flags().BoolP("resign", "r", false, "Ad-hoc sign (or sign with --identity) after patching")
	patchCmd.Flags().StringP("identity", "i", "", "Signing identity to use with --resign")
	patchCmd.Flags().String("entitlements", "", "Entitlements file to use with --resign")
	patchCmd.Flags().Bool("deep", false, "Sign nested content with --resign")
	viper.BindPFlag("patch.unsign", patchCmd.Flags().Lookup("unsign"))
	viper.BindPFlag("patch.resign", patchCmd.Flags().Lookup("resign"))
	viper.BindPFlag("patch.identity", patchCmd.Flags().Lookup("identity"))
	viper.BindPFlag("patch.entitlements", patchCmd.Flags().Lookup("entitlements"))
	viper.BindPFlag("patch.deep", patchCmd.Flags().Lookup("deep"))
}

// patchCmd represents the patch command
var patchCmd = &cobra.Command{
	Use:           "patch <BINARY>",
	Short:         "Fix up the Mach-O headers after data was appended to a binary",
	Long:          "Grow the string table and __LINKEDIT segment of the last arch slice to cover data appended past the original end of file, so the binary stays code-signable.",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		if Verbose {
			log.SetLevel(log.DebugLevel)
		}

		// flags
		unsign := viper.GetBool("patch.unsign")
		resign := viper.GetBool("patch.resign")
		signConf := tools.SignConfig{
			Identity:     viper.GetString("patch.identity"),
			Entitlements: viper.GetString("patch.entitlements"),
			Deep:         viper.GetBool("patch.deep"),
		}
		if !resign {
			var setFlags []string
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				if f.Changed && slices.Contains([]string{"identity", "entitlements", "deep"}, f.Name) {
					setFlags = append(setFlags, f.Name)
				}
			})
			if len(setFlags) > 0 {
				log.Warnf("flag(s) [ --%s ] have no effect without --resign", strings.Join(setFlags, ", --"))
			}
		}

		machoPath := filepath.Clean(args[0])

		if !unsign {
			signed, err := macho.HasSignature(machoPath)
			if err != nil {
				return err
			}
			if signed {
				cont := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("%s is signed and patching would corrupt the signature. Remove it and continue?", machoPath),
				}
				survey.AskOne(prompt, &cont, nil)
				if !cont {
					return fmt.Errorf("refusing to patch signed binary %s", machoPath)
				}
				unsign = true
			}
		}

		fixer := binary.New(nil, log.Log)
		if err := fixer.PrepareForSigning(machoPath, binary.PrepareConfig{
			StripSignature: unsign,
			Resign:         resign,
			Sign:           signConf,
		}); err != nil {
			return err
		}

		fi, err := os.Stat(machoPath)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"binary": machoPath,
			"size":   fmt.Sprintf("%d bytes (%s)", fi.Size(), humanize.IBytes(uint64(fi.Size()))),
		}).Info("Patched link-edit metadata")
		return nil
	},
}
