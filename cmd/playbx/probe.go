// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ik5/playbx"
)

func newProbeCommand(a *app) *cobra.Command {
	var formats bool

	cmd := &cobra.Command{
		Use:   "probe [id...]",
		Short: "Decode assets and print their format",
		RunE: withApp(a, func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if formats {
				fmt.Fprintln(out, strings.Join(playbx.DefaultRegistry().Formats(), " "))
			}
			if len(args) == 0 {
				if !formats {
					return cmd.Usage()
				}
				return nil
			}

			lib, err := a.library()
			if err != nil {
				return err
			}

			for _, id := range args {
				buf, err := lib.Decode(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d Hz, %d ch, %d frames, %v\n",
					id, buf.SampleRate(), buf.Channels(), buf.Frames(), buf.Duration())
			}

			return nil
		}),
	}

	cmd.Flags().BoolVar(&formats, "formats", false, "list the supported file extensions")

	return cmd
}
