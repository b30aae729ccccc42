// Package cli implements the interactive command-line interface for
// teracodecd: schema introspection, ad-hoc encode/decode against files on
// disk, and registry reload/stats, all driven from the same Codec the
// debug API uses.
package cli

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/teracodec-project/teracodec/internal/codec"
	"github.com/teracodec-project/teracodec/internal/config"
	"github.com/teracodec-project/teracodec/internal/events"
	"github.com/teracodec-project/teracodec/internal/util"
)

var log = util.ComponentLogger("cli")

// CLI provides an interactive command-line interface over a Codec.
type CLI struct {
	cfg      *config.Config
	eventBus *events.EventBus
	codec    *codec.Codec
}

// NewCLI creates a new CLI handler.
func NewCLI(cfg *config.Config, eventBus *events.EventBus, c *codec.Codec) *CLI {
	return &CLI{
		cfg:      cfg,
		eventBus: eventBus,
		codec:    c,
	}
}

// Start begins the interactive CLI loop, reading commands from stdin
// until ctx is cancelled or the user quits.
func (c *CLI) Start(ctx context.Context) {
	fmt.Println("\nteracodecd CLI ready. Type 'help' for available commands.")
	fmt.Println("─────────────────────────────────────────────────────")

	reader := bufio.NewScanner(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print("teracodec> ")
		if !reader.Scan() {
			if err := reader.Err(); err != nil {
				log.Warn().Err(err).Msg("CLI: input read error")
			}
			return
		}

		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		if err := c.execute(ctx, cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
		}

		if cmd == "quit" || cmd == "exit" || cmd == "q" {
			return
		}
	}
}

// execute processes a single CLI command.
func (c *CLI) execute(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "h", "?":
		c.printHelp()
	case "schemas":
		c.printSchemas()
	case "schema":
		return c.cmdSchema(args)
	case "encode":
		return c.cmdEncode(ctx, args)
	case "decode":
		return c.cmdDecode(ctx, args)
	case "reload":
		return c.cmdReload(ctx, args)
	case "stats":
		c.printStats()
	case "quit", "exit", "q":
		fmt.Println("Shutting down teracodecd...")
		c.eventBus.Emit(ctx, events.Event{
			Type:   events.EventShutdown,
			Source: "cli",
		})
	default:
		fmt.Printf("Unknown command: '%s'. Type 'help' for available commands.\n", cmd)
	}
	return nil
}

func (c *CLI) printHelp() {
	fmt.Println("\n╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                   teracodecd CLI Commands                    ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Println("║  schemas                 List every registered (name,ver)   ║")
	fmt.Println("║  schema <name> [ver]     Show one schema's fields            ║")
	fmt.Println("║  encode <name> <file>    Encode a JSON field file to hex     ║")
	fmt.Println("║  decode <name> <file>    Decode a hex file to JSON fields    ║")
	fmt.Println("║  reload [path]           Rebuild the registry from disk      ║")
	fmt.Println("║  stats                   Registry, uptime and host stats     ║")
	fmt.Println("║  quit                    Shutdown teracodecd                 ║")
	fmt.Println("║  help                    Show this help message               ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func (c *CLI) printSchemas() {
	reg := c.codec.Registry()
	schemas := reg.Schemas()

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Name", "Version", "Opcode", "Fields", "Explicit Meta"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, sc := range schemas {
		opcode := "-"
		if resolved, _, err := reg.Resolve(sc.Name, sc.Version, ""); err == nil && resolved.Code != nil {
			opcode = fmt.Sprintf("%d", *resolved.Code)
		}
		tw.Append([]string{
			sc.Name,
			fmt.Sprintf("%d", sc.Version),
			opcode,
			fmt.Sprintf("%d", sc.FieldCount()),
			fmt.Sprintf("%v", sc.ExplicitMeta),
		})
	}

	tw.Render()
	fmt.Println()
}

func (c *CLI) cmdSchema(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: schema <name> [version]")
	}

	name := args[0]
	var version any
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version: %s", args[1])
		}
		version = v
	}

	resolved, warnings, err := c.codec.Registry().Resolve(name, version, "")
	if err != nil {
		return err
	}
	printWarnings(warnings)

	fmt.Printf("\n  Name:          %s\n", resolved.Name)
	fmt.Printf("  Version:       %d\n", resolved.Version)
	if resolved.Code != nil {
		fmt.Printf("  Opcode:        %d\n", *resolved.Code)
	} else {
		fmt.Printf("  Opcode:        (none)\n")
	}
	fmt.Printf("  Fields:        %d\n", resolved.Schema.FieldCount())
	if resolved.Schema.Root != nil {
		for _, f := range resolved.Schema.Root.Children {
			fmt.Printf("    - %-16s %s\n", f.Name, f.Kind.String())
		}
	}
	fmt.Println()
	return nil
}

func (c *CLI) cmdEncode(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: encode <name> <json-file>")
	}
	name, path := args[0], args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var fields codec.Record
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to parse %s as JSON: %w", path, err)
	}

	buf, warnings, err := c.codec.Write(name, nil, fields, "")
	if err != nil {
		c.eventBus.Emit(ctx, events.Event{
			Type:    events.EventEncodeError,
			Source:  "cli",
			Payload: events.EncodeErrorPayload{SchemaName: name, Message: err.Error()},
		})
		return err
	}
	printWarnings(warnings)

	fmt.Printf("%s (%d bytes)\n", hex.EncodeToString(buf), len(buf))
	return nil
}

func (c *CLI) cmdDecode(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: decode <name> <hex-file>")
	}
	name, path := args[0], args[1]

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	buf, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return fmt.Errorf("failed to parse %s as hex: %w", path, err)
	}

	rec, warnings, err := c.codec.Parse(name, nil, buf, "")
	if err != nil {
		c.eventBus.Emit(ctx, events.Event{
			Type:    events.EventDecodeError,
			Source:  "cli",
			Payload: events.DecodeErrorPayload{SchemaName: name, Message: err.Error()},
		})
		return err
	}
	printWarnings(warnings)

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func (c *CLI) cmdReload(ctx context.Context, args []string) error {
	path := c.cfg.GetSchemaData().Path
	if len(args) > 0 {
		path = args[0]
	}

	if err := c.codec.Load(path); err != nil {
		return err
	}

	reg := c.codec.Registry()
	schemas := reg.Schemas()
	warnings := reg.Warnings()

	// Wait until every SchemaReloaded subscriber (the MQTT publisher, when
	// telemetry is enabled) has handled the notification before printing
	// "Reloaded".
	if err := c.eventBus.EmitSync(ctx, events.Event{
		Type:   events.EventSchemaReloaded,
		Source: "cli",
		Payload: events.SchemaReloadedPayload{
			Path:         path,
			SchemaCount:  len(schemas),
			WarningCount: len(warnings),
		},
	}); err != nil {
		log.Warn().Err(err).Msg("a schema-reload subscriber failed")
	}

	fmt.Printf("Reloaded %d schemas from %s (%d warnings)\n", len(schemas), path, len(warnings))
	return nil
}

func (c *CLI) printStats() {
	reg := c.codec.Registry()
	schemas := reg.Schemas()
	warnings := reg.Warnings()

	byName := map[string]int{}
	for _, sc := range schemas {
		byName[sc.Name]++
	}

	fmt.Printf("\n  Registered names:    %d\n", len(byName))
	fmt.Printf("  Registered versions: %d\n", len(schemas))
	fmt.Printf("  Load warnings:       %d\n", len(warnings))
	for _, w := range warnings {
		fmt.Printf("    - %s\n", w.String())
	}
	fmt.Printf("  Uptime:              %s\n", util.Uptime().Round(time.Second))

	sysInfo := util.GetSystemInfo()
	fmt.Printf("  Host:                %s (%s)\n", sysInfo.Hostname, sysInfo.OS)
	fmt.Printf("  CPU:                 %s (%d cores)\n", sysInfo.CPUModel, sysInfo.CPUCores)

	if cpuPct, err := util.GetCPUUsage(); err == nil {
		fmt.Printf("  CPU usage:           %.1f%%\n", cpuPct)
	} else {
		log.Warn().Err(err).Msg("failed to read CPU usage")
	}

	if memUsage, err := util.GetMemoryUsage(); err == nil {
		fmt.Printf("  Memory:              %d/%d MB used (%.1f%%)\n", memUsage.Used, memUsage.Total, memUsage.UsedPercent)
	} else {
		log.Warn().Err(err).Msg("failed to read memory usage")
	}

	fmt.Println()
}

func printWarnings[T fmt.Stringer](warnings []T) {
	for _, w := range warnings {
		fmt.Printf("warning: %s\n", w.String())
	}
}
