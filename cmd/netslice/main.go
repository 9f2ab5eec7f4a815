// Netslice — a NetCore-based slice compiler and verifier
//
// netslice compiles a set of virtual network slices, each described by its
// own logical topology and forwarding policy, onto a shared physical
// network, and verifies that the compiled result behaves exactly like the
// slice's own policy would on its own logical topology.
//
// Usage:
//
//	netslice compile scenario.yaml              # compile every slice, global VLAN
//	netslice compile scenario.yaml --edge       # compile with per-edge VLAN tags
//	netslice verify scenario.yaml                # check every slice compiled correctly
//	netslice isolate scenario.yaml               # report pairwise slice isolation
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netslice/pkg/cli"
	"github.com/newtron-network/netslice/pkg/util"
	"github.com/newtron-network/netslice/pkg/verifycache"
	"github.com/newtron-network/netslice/pkg/version"
)

var (
	scenarioPath string
	verbose      bool
	cacheAddr    string
	cacheSSHHost string
	cacheSSHPort int
	cacheSSHUser string
	cacheSSHPass string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "netslice",
	Short:             "Compile and verify NetCore network slices",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Netslice compiles virtual network slices onto a shared physical
network and verifies the compiled policy simulates each slice's own
logical policy.

  netslice compile scenario.yaml        # compile every slice, global VLAN
  netslice compile scenario.yaml --edge # compile with per-edge VLAN tags
  netslice verify scenario.yaml         # check compiled-correctly for every slice
  netslice isolate scenario.yaml        # pairwise isolation report
  netslice version                      # print build info`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario YAML file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&cacheAddr, "cache", "", "verdict cache Redis address (host:port); disabled if unset")
	rootCmd.PersistentFlags().StringVar(&cacheSSHHost, "cache-ssh-host", "", "reach the verdict cache through an SSH tunnel via this host")
	rootCmd.PersistentFlags().IntVar(&cacheSSHPort, "cache-ssh-port", 0, "SSH port for --cache-ssh-host (default 22)")
	rootCmd.PersistentFlags().StringVar(&cacheSSHUser, "cache-ssh-user", "", "SSH user for --cache-ssh-host")
	rootCmd.PersistentFlags().StringVar(&cacheSSHPass, "cache-ssh-pass", "", "SSH password for --cache-ssh-host")

	rootCmd.AddCommand(
		newCompileCmd(),
		newVerifyCmd(),
		newIsolateCmd(),
		newVersionCmd(),
	)
}

func requireScenario(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if scenarioPath != "" {
		return scenarioPath, nil
	}
	return "", fmt.Errorf("scenario file required: pass it as an argument or with -s/--scenario")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Info())
		},
	}
}

// openCache builds the verdict cache from the --cache flags: nil when
// caching is disabled, dialed directly when only --cache is set, or through
// an SSH tunnel to --cache-ssh-host when the cache Redis is only reachable
// from a bastion or lab host. The returned closer tears down both the cache
// connection and the tunnel.
func openCache() (*verifycache.Cache, func(), error) {
	if cacheAddr == "" {
		return nil, func() {}, nil
	}

	var cache *verifycache.Cache
	closer := func() {}
	if cacheSSHHost != "" {
		tunnel, err := verifycache.DialTunnel(cacheSSHHost, cacheSSHUser, cacheSSHPass, cacheSSHPort, cacheAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("verdict cache: %w", err)
		}
		cache = tunnel.Cache(time.Hour)
		closer = func() {
			cache.Close()
			tunnel.Close()
		}
	} else {
		cache = verifycache.New(cacheAddr, time.Hour)
		closer = func() { cache.Close() }
	}

	if err := cache.Connect(); err != nil {
		closer()
		return nil, nil, fmt.Errorf("verdict cache: %w", err)
	}
	return cache, closer, nil
}

// Color helpers — delegate to pkg/cli
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
