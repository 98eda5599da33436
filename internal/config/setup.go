package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// RunSetupWizard guides the user through first-time configuration,
// reading answers from in and printing prompts to out.
func RunSetupWizard(cfg *Config, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	for {
		fmt.Fprintln(out, "╔══════════════════════════════════════════════╗")
		fmt.Fprintln(out, "║          manawire - First Run Setup          ║")
		fmt.Fprintln(out, "╚══════════════════════════════════════════════╝")
		fmt.Fprintln(out)

		fmt.Fprintln(out, "── Login Server ──")
		s := cfg.GetServer()
		s.Hostname = promptString(reader, out, "Login server hostname", s.Hostname)
		s.Port = promptInt(reader, out, "Login server port", s.Port)
		s.Type = promptString(reader, out, "Server type (tmwathena/eathena)", s.Type)
		if strings.HasPrefix(strings.ToLower(s.Type), "e") || strings.EqualFold(s.Type, "hercules") {
			s.Flavor = promptString(reader, out, "Protocol flavor (main/re/zero)", s.Flavor)
			s.PacketVersion = promptInt(reader, out, "Packet version (0 = negotiate)", s.PacketVersion)
		}
		s.StringEncoding = promptString(reader, out, "String encoding (blank for utf-8)", s.StringEncoding)
		s.CharacterName = promptString(reader, out, "Character name", s.CharacterName)
		cfg.SetServer(s)

		fmt.Fprintln(out)
		fmt.Fprintln(out, "── Services ──")
		cfg.mu.Lock()
		cfg.API.Enabled = promptBool(reader, out, "Enable status API", cfg.API.Enabled)
		cfg.MQTT.Enabled = promptBool(reader, out, "Enable MQTT telemetry", cfg.MQTT.Enabled)
		if cfg.MQTT.Enabled {
			cfg.MQTT.BrokerURL = promptString(reader, out, "MQTT broker URL", cfg.MQTT.BrokerURL)
		}
		cfg.mu.Unlock()

		result := Validate(cfg)
		if result.IsValid() {
			for _, w := range result.Warnings {
				log.Warn().Str("field", w.Field).Msg(w.Message)
			}
			break
		}

		fmt.Fprintln(out, "\n⚠ Configuration has errors:")
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  - [%s] %s\n", e.Field, e.Message)
		}
		retry := promptString(reader, out, "Would you like to try again? (yes/no)", "yes")
		if strings.ToLower(retry) != "yes" {
			return fmt.Errorf("configuration validation failed")
		}
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✓ Configuration saved successfully!")
	fmt.Fprintln(out)
	return nil
}

func promptString(reader *bufio.Reader, out io.Writer, prompt string, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "  %s [%s]: ", prompt, defaultVal)
	} else {
		fmt.Fprintf(out, "  %s: ", prompt)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func promptInt(reader *bufio.Reader, out io.Writer, prompt string, defaultVal int) int {
	fmt.Fprintf(out, "  %s [%d]: ", prompt, defaultVal)

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(input)
	if err != nil {
		fmt.Fprintf(out, "    Invalid number, using default: %d\n", defaultVal)
		return defaultVal
	}
	return val
}

func promptBool(reader *bufio.Reader, out io.Writer, prompt string, defaultVal bool) bool {
	defaultStr := "no"
	if defaultVal {
		defaultStr = "yes"
	}

	fmt.Fprintf(out, "  %s [%s]: ", prompt, defaultStr)

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))

	if input == "" {
		return defaultVal
	}

	return input == "yes" || input == "y" || input == "true" || input == "1"
}
