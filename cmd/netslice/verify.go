package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netslice/pkg/cli"
	"github.com/newtron-network/netslice/pkg/compiler"
	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/satz3"
	"github.com/newtron-network/netslice/pkg/scenario"
	"github.com/newtron-network/netslice/pkg/verifier"
	"github.com/newtron-network/netslice/pkg/verifycache"
)

func newVerifyCmd() *cobra.Command {
	var useEdge bool
	var field string

	cmd := &cobra.Command{
		Use:   "verify [scenario.yaml]",
		Short: "Check that every slice's compiled policy simulates its own logical policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := requireScenario(args)
			if err != nil {
				return err
			}
			built, err := scenario.Parse(path)
			if err != nil {
				return err
			}

			perSlice := make(map[string]*netcore.Policy, len(built.Slices))
			if useEdge {
				_, edgeTags, err := compiler.CompileAllEdge(built.Slices, built.Policies)
				if err != nil {
					return err
				}
				for _, s := range built.Slices {
					compiled, err := compiler.CompileEdge(s, built.Policies[s.ID], edgeTags)
					if err != nil {
						return err
					}
					perSlice[s.ID] = compiled
				}
			} else {
				_, tags, err := compiler.CompileAllGlobal(built.Slices, built.Policies)
				if err != nil {
					return err
				}
				for _, s := range built.Slices {
					compiled, err := compiler.CompileGlobal(s, built.Policies[s.ID], tags[s.ID])
					if err != nil {
						return err
					}
					perSlice[s.ID] = compiled
				}
			}

			v := verifier.New(satz3.NewSolver)
			cache, closeCache, err := openCache()
			if err != nil {
				return err
			}
			defer closeCache()

			t := cli.NewTable("SLICE", "RESULT", "DETAIL")
			ctx := context.Background()
			failed := 0
			for _, s := range built.Slices {
				orig := built.Policies[s.ID]
				result := perSlice[s.ID]

				run := func() (*verifier.Verdict, error) {
					return v.CompiledCorrectly(ctx, s.Physical, orig, result, field)
				}
				var verdict *verifier.Verdict
				if cache != nil {
					key := verifycache.Key("compiled_correctly:"+s.ID, orig, result)
					verdict, err = cache.Memoize(key, run)
				} else {
					verdict, err = run()
				}

				if err != nil {
					failed++
					t.Row(s.ID, red("INDETERMINATE"), err.Error())
					continue
				}
				if verdict.Outcome == verifier.Holds {
					t.Row(s.ID, green("OK"), "")
				} else {
					failed++
					detail := verdict.Witness.Query
					t.Row(s.ID, red("VIOLATED"), detail)
				}
			}
			t.Flush()

			if failed > 0 {
				return fmt.Errorf("%d of %d slice(s) failed verification", failed, len(built.Slices))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&useEdge, "edge", false, "verify against the per-edge VLAN compiler instead of the global one")
	cmd.Flags().StringVar(&field, "field", "vlan", "header field the compiler uses to separate slice traffic")
	return cmd
}
