package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/auravoice/aura/internal/classify"
	"github.com/auravoice/aura/internal/config"
	"github.com/auravoice/aura/internal/directive"
	"github.com/auravoice/aura/internal/llm"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <utterance>",
	Short: "Run one utterance through the running assistant",
	Long: `Run one utterance through the running assistant's classify-and-dispatch
pipeline and print the response.

Examples:
  aura ask how are you doing
  aura ask "open chrome and tell me the time in Tokyo"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		utterance := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/ask", map[string]string{"utterance": utterance})
		if err != nil {
			return err
		}

		var out struct {
			Handler  string `json:"handler"`
			Response string `json:"response"`
			Exited   bool   `json:"exited"`
		}
		if err := decodeJSON(resp, &out); err != nil {
			return err
		}

		fmt.Println(out.Response)
		printStatus("Handler", "%s", out.Handler)
		if out.Exited {
			printWarning("The assistant is shutting down.")
		}
		return nil
	},
}

// --- classify ---

var classifyCmd = &cobra.Command{
	Use:   "classify <utterance>",
	Short: "Classify an utterance and print the parsed directives (debug)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		utterance := strings.Join(args, " ")

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		classifier := classify.New(llm.NewClient(cfg.LLM.OpenRouterAPIKey), cfg.LLM.ClassifierModel, nil, 0)
		raws := classifier.Classify(cmd.Context(), utterance)

		for _, raw := range raws {
			d, ok := directive.Parse(raw)
			if !ok {
				fmt.Printf("  %s  %q\n", colorize(colorYellow, "unparseable"), raw)
				continue
			}
			fmt.Printf("  %s  %q\n", colorize(colorCyan, d.Category.String()), d.Argument)
		}
		return nil
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversation turns",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/history?limit=%d", limit))
		if err != nil {
			return err
		}

		var turns []struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			CreatedAt string `json:"created_at"`
		}
		if err := decodeJSON(resp, &turns); err != nil {
			return err
		}

		if len(turns) == 0 {
			fmt.Println("No conversation yet.")
			return nil
		}

		for _, turn := range turns {
			role := colorize(colorCyan, turn.Role)
			if turn.Role == "assistant" {
				role = colorize(colorGreen, turn.Role)
			}
			fmt.Printf("%s  %s\n  %s\n", role, turn.CreatedAt, turn.Content)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of turns to show")
}

// --- mic ---

var micCmd = &cobra.Command{
	Use:   "mic <on|off>",
	Short: "Toggle the assistant's microphone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var on bool
		switch args[0] {
		case "on":
			on = true
		case "off":
			on = false
		default:
			return fmt.Errorf("argument must be on or off, got %q", args[0])
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/mic", map[string]bool{"on": on})
		if err != nil {
			return err
		}

		var out map[string]bool
		if err := decodeJSON(resp, &out); err != nil {
			return err
		}

		printSuccess("Microphone %s", args[0])
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
