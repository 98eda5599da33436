package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manawire-project/manawire/internal/cli"
	"github.com/manawire-project/manawire/internal/dispatch"
	"github.com/manawire-project/manawire/internal/eathena"
	"github.com/manawire-project/manawire/internal/protocol"
	"github.com/manawire-project/manawire/internal/tmwa"
)

func opcodesCmd() *cobra.Command {
	var (
		family string
		flavor string
		number int
	)

	cmd := &cobra.Command{
		Use:   "opcodes",
		Short: "List the handler table for a server family and packet version",
		Example: `  manawire opcodes --family tmwathena
  manawire opcodes --family eathena --flavor re --version 20180704`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := protocol.ParseServerType(family)
			if err != nil {
				return err
			}
			f, err := protocol.ParseFlavor(flavor)
			if err != nil {
				return err
			}

			catalog := dispatch.NewCatalog()
			catalog.Register(protocol.ServerTmwAthena, tmwa.Table)
			catalog.Register(protocol.ServerEAthena, eathena.Table)

			v := protocol.Version{Flavor: f, Number: number}
			if st == protocol.ServerTmwAthena {
				v.Flavor = protocol.FlavorMain
			}
			table, err := catalog.Table(st, v)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s: %d handlers, item ids %d bytes\n\n", st, v, table.Len(), v.ItemIDLen())
			cli.RenderHandlers(os.Stdout, table.Entries(v.ItemIDLen()))
			return nil
		},
	}

	cmd.Flags().StringVar(&family, "family", "tmwathena", "server family (tmwathena, eathena)")
	cmd.Flags().StringVar(&flavor, "flavor", "main", "eathena protocol flavor (main, re, zero)")
	cmd.Flags().IntVar(&number, "version", 0, "packet version, 0 for the oldest layout")

	return cmd
}
