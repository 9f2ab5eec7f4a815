package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netslice/pkg/cli"
	"github.com/newtron-network/netslice/pkg/satz3"
	"github.com/newtron-network/netslice/pkg/scenario"
	"github.com/newtron-network/netslice/pkg/verifier"
)

func newIsolateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "isolate [scenario.yaml]",
		Short: "Report pairwise isolation between every slice's policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := requireScenario(args)
			if err != nil {
				return err
			}
			built, err := scenario.Parse(path)
			if err != nil {
				return err
			}

			v := verifier.New(satz3.NewSolver)
			ctx := context.Background()

			t := cli.NewTable("SLICE A", "SLICE B", "ISOLATED", "DETAIL")
			violations := 0
			for i := 0; i < len(built.Slices); i++ {
				for j := i + 1; j < len(built.Slices); j++ {
					a, b := built.Slices[i], built.Slices[j]
					pa, pb := built.Policies[a.ID], built.Policies[b.ID]

					separate, err := v.Separate(ctx, a.Physical, pa, pb)
					if err != nil {
						t.Row(a.ID, b.ID, red("INDETERMINATE"), err.Error())
						continue
					}
					if separate.Outcome != verifier.Holds {
						violations++
						t.Row(a.ID, b.ID, red("NO"), separate.Witness.Query)
						continue
					}

					if !verifier.DisjointObservations(pa, pb) {
						violations++
						t.Row(a.ID, b.ID, red("NO"), "shared observation labels")
						continue
					}

					t.Row(a.ID, b.ID, green("YES"), "")
				}
			}
			t.Flush()

			if violations > 0 {
				return fmt.Errorf("%d slice pair(s) are not isolated", violations)
			}
			return nil
		},
	}
	return cmd
}
