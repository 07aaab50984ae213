package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/briefloop/briefloop/internal/schema"
	"github.com/briefloop/briefloop/internal/simulation"
	"github.com/briefloop/briefloop/internal/store"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scripted conversation against a template",
		Long: `Simulate a whole conversation with a scripted persona and print the
transcript. Useful for tuning thresholds and checking how a template
behaves before wiring it to a live agent.

The answers file is YAML mapping slot names to answer text:

  project_goal: "A dashboard for live shipment status"
  budget: "Around $50,000 for the first phase"

Slots without a scripted answer get "I don't know".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			templateName, _ := cmd.Flags().GetString("template")
			answersPath, _ := cmd.Flags().GetString("answers")
			confidence, _ := cmd.Flags().GetFloat64("confidence")

			tmpl, err := schema.Load(templateName, store.LocalBriefloopPath(root))
			if err != nil {
				return err
			}

			persona := simulation.ScriptedPersona{
				BySlot:  map[string]simulation.Answer{},
				Default: simulation.DontKnow(),
			}
			if answersPath != "" {
				data, err := os.ReadFile(answersPath)
				if err != nil {
					return fmt.Errorf("reading answers: %w", err)
				}
				var answers map[string]string
				if err := yaml.Unmarshal(data, &answers); err != nil {
					return fmt.Errorf("parsing answers: %w", err)
				}
				for slot, text := range answers {
					persona.BySlot[slot] = simulation.TextAnswer(text, confidence)
				}
			}

			cfg, err := loadEngineConfig(root)
			if err != nil {
				return err
			}

			result, err := simulation.Run(cmd.Context(), simulation.Scenario{
				Name:     tmpl.Name,
				Template: tmpl,
				Persona:  persona,
				Config:   &cfg,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(result)
				return nil
			}
			for _, turn := range result.Turns {
				fmt.Printf("turn %d  Q[%s]: %s\n", turn.Turn, turn.Slot, turn.Question)
				fmt.Printf("        A: %s\n", turn.Answer)
				if turn.Accepted {
					fmt.Printf("        accepted at %.2f, fatigue %.2f\n", turn.Confidence, turn.Fatigue)
				} else {
					fmt.Printf("        rejected, fatigue %.2f\n", turn.Fatigue)
				}
			}
			fmt.Printf("\nStopped after %d turns: %s\n", len(result.Turns), result.StopReason)
			fmt.Printf("Coverage: %.0f%%\n", result.State.Coverage()*100)
			fmt.Printf("Transcript tokens: ~%d questions, ~%d answers\n",
				result.QuestionTokens, result.AnswerTokens)
			return nil
		},
	}

	cmd.Flags().String("template", "project-brief", "Survey template name or YAML path")
	cmd.Flags().String("answers", "", "YAML file mapping slot names to scripted answers")
	cmd.Flags().Float64("confidence", 0.85, "Self-confidence for scripted answers")
	return cmd
}
