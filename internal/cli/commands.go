// Package cli implements the interactive console of a running client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"

	"github.com/manawire-project/manawire/internal/config"
	"github.com/manawire-project/manawire/internal/db"
	"github.com/manawire-project/manawire/internal/dispatch"
	"github.com/manawire-project/manawire/internal/events"
	"github.com/manawire-project/manawire/internal/limiter"
	"github.com/manawire-project/manawire/internal/session"
)

// Journal is the read side of the packet journal.
type Journal interface {
	Recent(limit int, kind string) ([]db.Entry, error)
	TopUnknown(limit int) ([]db.OpcodeCount, error)
}

// CLI provides an interactive command-line interface.
type CLI struct {
	cfg      *config.Config
	eventBus *events.EventBus
	session  *session.Session
	journal  Journal

	in  io.Reader
	out io.Writer
}

// NewCLI creates a console reading commands from in and writing to out.
// journal may be nil.
func NewCLI(cfg *config.Config, eventBus *events.EventBus, sess *session.Session, journal Journal, in io.Reader, out io.Writer) *CLI {
	return &CLI{
		cfg:      cfg,
		eventBus: eventBus,
		session:  sess,
		journal:  journal,
		in:       in,
		out:      out,
	}
}

// Start runs the command loop until ctx is cancelled or input ends.
func (c *CLI) Start(ctx context.Context) {
	fmt.Fprintln(c.out, "\nmanawire console ready. Type 'help' for available commands.")
	fmt.Fprintln(c.out, "─────────────────────────────────────────────────────")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(c.out, "manawire> ")
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			parts := strings.Fields(line)
			if len(parts) == 0 {
				continue
			}
			if err := c.execute(ctx, strings.ToLower(parts[0]), parts[1:]); err != nil {
				fmt.Fprintf(c.out, "Error: %v\n", err)
			}
		}
	}
}

// execute processes a single command.
func (c *CLI) execute(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "h", "?":
		c.printHelp()
	case "status", "s":
		c.printStatus()
	case "counters", "c":
		c.printCounters()
	case "protocol", "p":
		c.printProtocol()
	case "limits":
		return c.cmdLimits(args)
	case "journal", "j":
		return c.cmdJournal(args)
	case "unknown":
		return c.cmdUnknown()
	case "say":
		return c.cmdSay(args)
	case "connect":
		if err := c.session.Connect(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Connected")
	case "disconnect":
		c.session.Disconnect()
		fmt.Fprintln(c.out, "Disconnected")
	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Shutting down manawire...")
		if c.eventBus != nil {
			c.eventBus.Emit(ctx, events.Event{
				Type:   events.EventShutdown,
				Source: "cli",
			})
		}
	default:
		fmt.Fprintf(c.out, "Unknown command: '%s'. Type 'help' for available commands.\n", cmd)
	}
	return nil
}

func (c *CLI) printHelp() {
	fmt.Fprintln(c.out, "\n╔══════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(c.out, "║                   manawire console commands                  ║")
	fmt.Fprintln(c.out, "╠══════════════════════════════════════════════════════════════╣")
	fmt.Fprintln(c.out, "║  status             Show connections and world summary       ║")
	fmt.Fprintln(c.out, "║  counters           Show packet traffic                      ║")
	fmt.Fprintln(c.out, "║  protocol           Show negotiated version and handlers     ║")
	fmt.Fprintln(c.out, "║  limits [type n]    Show or set outbound packet limits       ║")
	fmt.Fprintln(c.out, "║  journal [n]        Show recent packet diagnostics           ║")
	fmt.Fprintln(c.out, "║  unknown            Show most frequent unknown opcodes       ║")
	fmt.Fprintln(c.out, "║  say <text>         Send a public chat line                  ║")
	fmt.Fprintln(c.out, "║  connect            Connect to the login server              ║")
	fmt.Fprintln(c.out, "║  disconnect         Close all connections                    ║")
	fmt.Fprintln(c.out, "║  quit               Shutdown manawire                        ║")
	fmt.Fprintln(c.out, "╚══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(c.out)
}

func (c *CLI) newTable(header ...string) *tablewriter.Table {
	tw := tablewriter.NewWriter(c.out)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)
	return tw
}

func (c *CLI) printStatus() {
	st := c.session.Status(5)

	fmt.Fprintf(c.out, "\n  Session:      %s\n", st.ID)
	fmt.Fprintf(c.out, "  Uptime:       %s\n", durafmt.Parse(time.Since(st.StartedAt)).LimitFirstN(2))
	fmt.Fprintf(c.out, "  Server:       %s %s\n", st.Protocol.ServerType, st.Protocol.Version)
	fmt.Fprintf(c.out, "  Item ids:     %d bytes\n", st.Protocol.ItemIDLen)
	if st.World.ServerVersion != 0 {
		fmt.Fprintf(c.out, "  Server ver:   %d\n", st.World.ServerVersion)
	}
	if st.World.Problem != "" {
		fmt.Fprintf(c.out, "  Problem:      %s\n", st.World.Problem)
	}
	fmt.Fprintln(c.out)

	if len(st.Connections) > 0 {
		tw := c.newTable("Role", "Server", "State", "Connected", "Buffered", "Pending", "Error")
		for _, conn := range st.Connections {
			connected := "-"
			if !conn.ConnectedAt.IsZero() {
				connected = humanize.Time(conn.ConnectedAt)
			}
			tw.Append([]string{
				string(conn.Role),
				conn.Server,
				conn.State.String(),
				connected,
				humanize.Bytes(uint64(conn.Buffered)),
				humanize.Bytes(uint64(conn.Pending)),
				conn.Error,
			})
		}
		tw.Render()
	} else {
		fmt.Fprintln(c.out, "  No connections")
	}

	for _, line := range st.World.RecentChat {
		fmt.Fprintf(c.out, "  [%s] %s: %s\n", line.Channel, line.From, line.Text)
	}
	fmt.Fprintln(c.out)
}

func (c *CLI) printCounters() {
	snap := c.session.Counters().Snapshot()

	tw := c.newTable("Direction", "Packets", "Bytes")
	tw.Append([]string{"in", humanize.Comma(snap.InPackets), humanize.Bytes(uint64(snap.InBytes))})
	tw.Append([]string{"out", humanize.Comma(snap.OutPackets), humanize.Bytes(uint64(snap.OutBytes))})
	tw.Render()

	fmt.Fprintf(c.out, "  Rates:          %s\n", snap.HumanRates())
	fmt.Fprintf(c.out, "  Unknown:        %d\n", snap.Unknown)
	fmt.Fprintf(c.out, "  Short reads:    %d\n", snap.ShortReads)
	fmt.Fprintf(c.out, "  Framing errors: %d\n\n", snap.FramingErrors)
}

func (c *CLI) printProtocol() {
	state := c.session.Protocol()
	fmt.Fprintf(c.out, "\n  %s %s, item ids %d bytes\n\n", state.ServerType, state.Version, state.ItemIDLen)
	if t := c.session.Table(); t != nil {
		RenderHandlers(c.out, t.Entries(state.ItemIDLen))
	}
}

// RenderHandlers writes a handler table listing to w.
func RenderHandlers(w io.Writer, entries []dispatch.Entry) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Opcode", "Name", "Size"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)
	for _, e := range entries {
		tw.Append([]string{fmt.Sprintf("0x%04x", e.Opcode), e.Name, FormatSize(e.Size)})
	}
	tw.Render()
}

// FormatSize renders a size table value.
func FormatSize(size int) string {
	switch {
	case size < 0:
		return "var"
	case size == 0:
		return "?"
	default:
		return strconv.Itoa(size)
	}
}

func (c *CLI) cmdLimits(args []string) error {
	l := c.session.Limiter()

	if len(args) == 0 {
		tw := c.newTable("Type", "Ticks", "Interval")
		for _, t := range limiter.Types() {
			ticks := l.Ticks(t)
			tw.Append([]string{t.String(), strconv.Itoa(ticks), (time.Duration(ticks) * limiter.Tick).String()})
		}
		tw.Render()
		return nil
	}

	if len(args) != 2 {
		return errors.New("usage: limits <type> <ticks>")
	}
	t, err := limiter.ParsePacketType(args[0])
	if err != nil {
		return err
	}
	ticks, err := strconv.Atoi(args[1])
	if err != nil || ticks < 0 {
		return fmt.Errorf("invalid ticks: %s", args[1])
	}

	if err := l.SetTicks(t, ticks); err != nil {
		return err
	}
	if file := c.cfg.PacketLimits.File; file != "" {
		if err := l.Save(file); err != nil {
			log.Warn().Err(err).Str("path", file).Msg("failed to save packet limits")
		}
	}
	fmt.Fprintf(c.out, "Limit updated: %s = %d ticks\n", t, ticks)
	return nil
}

func (c *CLI) cmdJournal(args []string) error {
	if c.journal == nil {
		return errors.New("journal disabled")
	}
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count: %s", args[0])
		}
		limit = n
	}

	entries, err := c.journal.Recent(limit, "")
	if err != nil {
		return err
	}
	tw := c.newTable("When", "Kind", "Opcode", "Length", "Detail")
	for _, e := range entries {
		tw.Append([]string{
			humanize.Time(e.CreatedAt),
			e.Kind,
			fmt.Sprintf("0x%04x", e.Opcode),
			strconv.Itoa(e.Length),
			e.Detail,
		})
	}
	tw.Render()
	return nil
}

func (c *CLI) cmdUnknown() error {
	if c.journal == nil {
		return errors.New("journal disabled")
	}
	top, err := c.journal.TopUnknown(10)
	if err != nil {
		return err
	}
	tw := c.newTable("Opcode", "Count", "Last seen")
	for _, oc := range top {
		tw.Append([]string{fmt.Sprintf("0x%04x", oc.Opcode), humanize.Comma(int64(oc.Count)), humanize.Time(oc.Last)})
	}
	tw.Render()
	return nil
}

func (c *CLI) cmdSay(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: say <text>")
	}
	text := strings.Join(args, " ")
	if err := c.session.Say(text); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Sent: %s\n", text)
	return nil
}
