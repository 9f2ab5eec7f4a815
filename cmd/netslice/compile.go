package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netslice/pkg/compiler"
	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/scenario"
)

func newCompileCmd() *cobra.Command {
	var useEdge bool

	cmd := &cobra.Command{
		Use:   "compile [scenario.yaml]",
		Short: "Compile every slice in a scenario onto its physical network",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := requireScenario(args)
			if err != nil {
				return err
			}
			built, err := scenario.Parse(path)
			if err != nil {
				return err
			}

			var global *netcore.Policy
			if useEdge {
				global, _, err = compiler.CompileAllEdge(built.Slices, built.Policies)
			} else {
				global, _, err = compiler.CompileAllGlobal(built.Slices, built.Policies)
			}
			if err != nil {
				return fmt.Errorf("compile: %w", err)
			}

			mode := "global VLAN"
			if useEdge {
				mode = "per-edge VLAN"
			}
			fmt.Printf("%s: compiled %d slice(s) (%s), %d primitive clause(s)\n",
				built.Name, len(built.Slices), mode, countPrimitives(global))
			return nil
		},
	}

	cmd.Flags().BoolVar(&useEdge, "edge", false, "use the per-edge VLAN compiler instead of one tag per slice")
	return cmd
}

// countPrimitives counts the PolicyPrimitive leaves of a compiled policy,
// for a quick sanity summary without dumping the whole tree.
func countPrimitives(p *netcore.Policy) int {
	if p == nil {
		return 0
	}
	switch p.Kind {
	case netcore.PolicyPrimitive:
		return 1
	case netcore.PolicyUnion:
		return countPrimitives(p.Left) + countPrimitives(p.Right)
	case netcore.PolicyRestriction:
		return countPrimitives(p.Left)
	default:
		return 0
	}
}
