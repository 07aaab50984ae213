package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/briefloop/briefloop/internal/engine"
	"github.com/briefloop/briefloop/internal/llm"
	"github.com/briefloop/briefloop/internal/models"
	"github.com/briefloop/briefloop/internal/schema"
	"github.com/briefloop/briefloop/internal/scoring"
	"github.com/briefloop/briefloop/internal/store"
	"github.com/briefloop/briefloop/internal/vectorindex"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new intake conversation",
		Long: `Start a conversation from a survey template and print the first
question. Advance it with 'briefloop turn'.

Example:
  briefloop start --template project-brief`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			templateName, _ := cmd.Flags().GetString("template")

			st, err := openStore(root)
			if err != nil {
				return err
			}
			defer st.Close()

			tmpl, err := schema.Load(templateName, store.LocalBriefloopPath(root))
			if err != nil {
				return err
			}
			eng, err := newEngine(root)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			state := models.NewConversationState(uuid.New().String(), tmpl.Name, tmpl.Slots)
			action, err := eng.Start(ctx, tmpl.Questions, state)
			if err != nil {
				return err
			}
			if err := st.Put(ctx, state); err != nil {
				return err
			}

			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"conversation_id": state.ID,
					"template":        tmpl.Name,
					"action":          action,
				})
				return nil
			}
			fmt.Printf("Started conversation %s (%s)\n\n", state.ID, tmpl.Name)
			printAction(action)
			return nil
		},
	}

	cmd.Flags().String("template", "project-brief", "Survey template name or YAML path")
	return cmd
}

func newTurnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "turn <conversation-id>",
		Short: "Submit an answer and get the next question",
		Long: `Process one turn: the user's answer to the current question together
with the extracted slot value and the extractor's confidence.

The extracted value defaults to the answer text; pass --value to
override it, or --list to submit a semicolon-separated list value.

Example:
  briefloop turn 4f2c... --slot budget --answer "around $50k" --confidence 0.8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			slot, _ := cmd.Flags().GetString("slot")
			answer, _ := cmd.Flags().GetString("answer")
			valueText, _ := cmd.Flags().GetString("value")
			listValue, _ := cmd.Flags().GetString("list")
			confidence, _ := cmd.Flags().GetFloat64("confidence")

			st, err := openStore(root)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			state, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			tmpl, err := schema.Load(state.Template, store.LocalBriefloopPath(root))
			if err != nil {
				return err
			}
			eng, err := newEngine(root)
			if err != nil {
				return err
			}

			value := models.TextValue(answer)
			if valueText != "" {
				value = models.TextValue(valueText)
			}
			if listValue != "" {
				var items []string
				for _, item := range strings.Split(listValue, ";") {
					if trimmed := strings.TrimSpace(item); trimmed != "" {
						items = append(items, trimmed)
					}
				}
				value = models.ListValue(items)
			}

			result, err := eng.ProcessTurn(ctx, engine.TurnInput{
				Slot:           slot,
				Answer:         answer,
				Value:          value,
				SelfConfidence: confidence,
				Candidates:     tmpl.Questions,
			}, state)
			if err != nil {
				return err
			}

			if err := st.Put(ctx, state); err != nil {
				return err
			}
			if u := result.Update; u != nil {
				rec := store.AuditRecord{
					ConversationID: state.ID,
					Turn:           u.Turn,
					Slot:           u.Slot,
					Accepted:       u.Accepted,
					Provisional:    u.Provisional,
					Confidence:     u.Confidence,
					Threshold:      u.Threshold,
					Features:       u.Features,
				}
				if err := st.AppendAudit(ctx, rec); err != nil {
					return err
				}
			}

			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"conversation_id": state.ID,
					"result":          result,
					"coverage":        state.Coverage(),
				})
				return nil
			}
			if result.Accepted {
				marker := ""
				if result.Update.Provisional {
					marker = " (provisional)"
				}
				fmt.Printf("Accepted %s at %.2f%s\n", result.Update.Slot, result.Update.Confidence, marker)
			} else {
				fmt.Println("Answer did not raise confidence enough to fill the slot.")
			}
			fmt.Printf("Coverage: %.0f%%\n\n", state.Coverage()*100)
			printAction(result.NextAction)
			return nil
		},
	}

	cmd.Flags().String("slot", "", "Slot the answered question targeted (required)")
	cmd.Flags().String("answer", "", "The user's raw answer text (required)")
	cmd.Flags().String("value", "", "Extracted value (defaults to the answer text)")
	cmd.Flags().String("list", "", "Extracted list value, semicolon-separated")
	cmd.Flags().Float64("confidence", 0.7, "Extractor self-confidence in [0,1]")
	cmd.MarkFlagRequired("slot")
	cmd.MarkFlagRequired("answer")

	return cmd
}

// newEngine builds an engine over the project config with the best
// scoring suite the environment supports.
func newEngine(root string) (*engine.Engine, error) {
	cfg, err := loadEngineConfig(root)
	if err != nil {
		return nil, err
	}
	eng := engine.New(cfg, llm.DetectSuite(), os.Stderr)
	if emb := llm.DetectEmbedder(); emb != nil {
		idx, err := vectorindex.NewTieredIndex(vectorindex.TieredConfig{
			HNSW: vectorindex.HNSWConfig{Dir: store.LocalBriefloopPath(root)},
		})
		if err != nil {
			return nil, fmt.Errorf("opening question index: %w", err)
		}
		eng.WithQuestionBank(scoring.NewQuestionBank(emb, idx))
	}
	return eng, nil
}

func printAction(action models.NextAction) {
	if action.Kind == models.ActionStop {
		fmt.Printf("Conversation complete: %s\n", action.Reason)
		return
	}
	fmt.Printf("Next question [%s]: %s\n", action.Question.Slot, action.Question.Text)
}
