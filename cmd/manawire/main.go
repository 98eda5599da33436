// manawire is a headless client core for ManaPlus-compatible servers.
//
// It connects to TmwAthena and Hercules/eAthena login servers, frames and
// dispatches the binary packet stream according to the negotiated
// protocol version, and exposes the session over a REST API, MQTT
// telemetry and an interactive console.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  _ __ ___   __ _ _ __   __ ___      _(_)_ __ ___
 | '_ ' _ \ / _' | '_ \ / _' \ \ /\ / / | '__/ _ \
 | | | | | | (_| | | | | (_| |\ V  V /| | | |  __/
 |_| |_| |_|\__,_|_| |_|\__,_| \_/\_/ |_|_|  \___|  %s
`

var configDir string

func main() {
	rootCmd := &cobra.Command{
		Use:   "manawire",
		Short: "Headless ManaPlus protocol client",
		Long: `manawire speaks the TmwAthena and Hercules/eAthena client protocol.

It negotiates the packet version with the server, frames and dispatches
inbound messages, rate limits outbound ones and reports everything it
sees through a REST API, MQTT and a packet journal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "config", "configuration directory")

	rootCmd.AddCommand(
		runCmd(),
		limitsCmd(),
		opcodesCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Printf(banner, version)
	fmt.Println()
}
