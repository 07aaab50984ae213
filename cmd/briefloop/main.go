package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/briefloop/briefloop/internal/config"
	"github.com/briefloop/briefloop/internal/schema"
	"github.com/briefloop/briefloop/internal/store"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "briefloop",
		Short: "Adaptive intake interviews for AI agents",
		Long: `briefloop runs adaptive intake conversations: it calibrates the
confidence of AI-extracted answers, picks the most informative next
question, and stops as soon as enough is known (or the respondent is
clearly done).`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")

	// Add subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newSchemaCmd(),
		newStartCmd(),
		newTurnCmd(),
		newStatusCmd(),
		newAuditCmd(),
		newSimulateCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("briefloop version %s\n", version)
			}
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a .briefloop directory in the project root",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			dir := store.LocalBriefloopPath(root)

			if err := store.EnsureBriefloopDir(dir); err != nil {
				return err
			}

			installed, err := schema.Install(dir)
			if err != nil {
				return err
			}

			// Write default engine config once; user edits survive.
			cfgPath := filepath.Join(dir, config.FileName)
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				if err := config.Default().Save(cfgPath); err != nil {
					return err
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"status":    "initialized",
					"path":      dir,
					"templates": installed,
				})
			} else {
				fmt.Printf("Initialized .briefloop/ in %s\n", root)
				for _, name := range installed {
					fmt.Printf("  installed template: %s\n", name)
				}
			}
			return nil
		},
	}
}

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [template]",
		Short: "Show a survey template, or list available templates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			dir := store.LocalBriefloopPath(root)

			if len(args) == 0 {
				names := builtinNames()
				if jsonOut {
					json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
						"templates": names,
					})
				} else {
					fmt.Println("Available templates:")
					for _, name := range names {
						fmt.Printf("  %s\n", name)
					}
				}
				return nil
			}

			tmpl, err := schema.Load(args[0], dir)
			if err != nil {
				return err
			}
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(tmpl)
				return nil
			}
			fmt.Printf("Template %s (v%s)\n", tmpl.Name, tmpl.Version)
			if tmpl.Description != "" {
				fmt.Printf("  %s\n", tmpl.Description)
			}
			fmt.Printf("\nSlots (%d):\n", len(tmpl.Slots))
			for _, s := range tmpl.Slots {
				fmt.Printf("  %-20s %-10s threshold %.2f", s.Name, s.Priority, s.Threshold())
				if s.NoInference {
					fmt.Print("  no-inference")
				}
				if s.RequiresExplicitQuestion != "" && s.RequiresExplicitQuestion != "none" {
					fmt.Print("  must-ask-once")
				}
				fmt.Println()
			}
			fmt.Printf("\nQuestions (%d):\n", len(tmpl.Questions))
			for _, q := range tmpl.Questions {
				fmt.Printf("  [%s] %s -> %s\n", q.Topic, q.Text, q.Slot)
			}
			return nil
		},
	}
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [conversation-id]",
		Short: "Show conversation progress, or list all conversations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			st, err := openStore(root)
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := cmd.Context()

			if len(args) == 0 {
				summaries, err := st.List(ctx)
				if err != nil {
					return err
				}
				if jsonOut {
					json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
						"conversations": summaries,
						"count":         len(summaries),
					})
					return nil
				}
				if len(summaries) == 0 {
					fmt.Println("No conversations yet. Run 'briefloop start' to begin one.")
					return nil
				}
				fmt.Printf("Conversations (%d):\n\n", len(summaries))
				for _, s := range summaries {
					fmt.Printf("  %s  %-12s turn %-2d coverage %.0f%%  %s\n",
						s.ID, s.Status, s.Turn, s.Coverage*100, s.Template)
					if s.StopReason != "" {
						fmt.Printf("    stopped: %s\n", s.StopReason)
					}
				}
				return nil
			}

			state, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(state)
				return nil
			}
			fmt.Printf("Conversation %s (%s)\n", state.ID, state.Template)
			fmt.Printf("  Status:   %s\n", state.Status)
			if state.StopReason != "" {
				fmt.Printf("  Stopped:  %s\n", state.StopReason)
			}
			fmt.Printf("  Turn:     %d\n", state.Turn)
			fmt.Printf("  Coverage: %.0f%%\n", state.Coverage()*100)
			fmt.Println("\nSlots:")
			for _, s := range state.Schema {
				slot := state.Slots[s.Name]
				switch {
				case slot == nil || !slot.Filled():
					fmt.Printf("  %-20s (empty)\n", s.Name)
				case slot.Provisional:
					fmt.Printf("  %-20s %.2f* %s\n", s.Name, slot.Confidence, slot.Value.String())
				default:
					fmt.Printf("  %-20s %.2f  %s\n", s.Name, slot.Confidence, slot.Value.String())
				}
			}
			return nil
		},
	}
	return cmd
}

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <conversation-id>",
		Short: "Show the extraction audit trail for a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			st, err := openStore(root)
			if err != nil {
				return err
			}
			defer st.Close()

			trail, err := st.AuditTrail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"audit": trail,
					"count": len(trail),
				})
				return nil
			}
			if len(trail) == 0 {
				fmt.Println("No audit records.")
				return nil
			}
			for _, rec := range trail {
				outcome := "accepted"
				if rec.Provisional {
					outcome = "provisional"
				}
				if !rec.Accepted {
					outcome = "rejected"
				}
				fmt.Printf("turn %-2d %-20s %.2f %-11s (threshold %.2f)\n",
					rec.Turn, rec.Slot, rec.Confidence, outcome, rec.Threshold)
			}
			return nil
		},
	}
}

// openStore opens the SQLite store under root's .briefloop directory,
// failing if the project was never initialized.
func openStore(root string) (*store.SQLiteStore, error) {
	dir := store.LocalBriefloopPath(root)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf(".briefloop not initialized. Run 'briefloop init' first")
	}
	return store.OpenAt(dir)
}

// loadEngineConfig reads the project config, falling back to defaults
// when none was written.
func loadEngineConfig(root string) (config.Config, error) {
	path := filepath.Join(store.LocalBriefloopPath(root), config.FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func builtinNames() []string {
	var names []string
	for _, t := range schema.Builtins() {
		names = append(names, t.Name)
	}
	return names
}
