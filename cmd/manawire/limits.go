package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/manawire-project/manawire/internal/config"
	"github.com/manawire-project/manawire/internal/limiter"
)

func limitsCmd() *cobra.Command {
	var set []string

	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Show or edit the outbound packet limits file",
		Example: `  manawire limits
  manawire limits --set whisper=80 --set emote=300`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			file := cfg.PacketLimits.File
			if file == "" {
				return fmt.Errorf("packet_limits.file is not set in %s", cfg.Path())
			}

			l := limiter.New()
			if err := l.Load(file); err != nil {
				return err
			}

			for _, kv := range set {
				name, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("expected type=ticks, got %q", kv)
				}
				t, err := limiter.ParsePacketType(name)
				if err != nil {
					return err
				}
				ticks, err := strconv.Atoi(value)
				if err != nil || ticks < 0 {
					return fmt.Errorf("invalid ticks for %s: %q", name, value)
				}
				if err := l.SetTicks(t, ticks); err != nil {
					return err
				}
			}
			if len(set) > 0 {
				if err := l.Save(file); err != nil {
					return err
				}
				fmt.Printf("\033[32m✓\033[0m saved %s\n", file)
			}

			tw := tablewriter.NewWriter(os.Stdout)
			tw.SetHeader([]string{"Type", "Ticks", "Interval"})
			tw.SetBorder(true)
			for _, t := range limiter.Types() {
				ticks := l.Ticks(t)
				tw.Append([]string{t.String(), strconv.Itoa(ticks), (time.Duration(ticks) * limiter.Tick).String()})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&set, "set", nil, "set a limit as type=ticks (repeatable)")

	return cmd
}
