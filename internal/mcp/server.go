// Package mcp exposes the intake engine over the Model Context
// Protocol so AI agents can drive conversations as tool calls.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/briefloop/briefloop/internal/config"
	"github.com/briefloop/briefloop/internal/engine"
	"github.com/briefloop/briefloop/internal/llm"
	"github.com/briefloop/briefloop/internal/models"
	"github.com/briefloop/briefloop/internal/schema"
	"github.com/briefloop/briefloop/internal/scoring"
	"github.com/briefloop/briefloop/internal/store"
	"github.com/briefloop/briefloop/internal/vectorindex"
)

// Config holds server configuration.
type Config struct {
	// Name is the server name reported to clients.
	Name string

	// Version is the server version.
	Version string

	// Root is the project root containing (or receiving) the
	// .briefloop directory.
	Root string
}

// Server wraps the MCP server with the conversation store and engine.
type Server struct {
	server *mcp.Server
	store  store.ConversationStore
	engine *engine.Engine
	root   string
	dir    string
}

// NewServer creates a new MCP server rooted at cfg.Root, opening the
// local .briefloop store and installing built-in templates.
func NewServer(cfg *Config) (*Server, error) {
	dir := store.LocalBriefloopPath(cfg.Root)
	st, err := store.OpenAt(dir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if _, err := schema.Install(dir); err != nil {
		st.Close()
		return nil, fmt.Errorf("installing templates: %w", err)
	}

	engineCfg := config.Default()
	if path := filepath.Join(dir, config.FileName); fileExists(path) {
		engineCfg, err = config.Load(path)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	eng := engine.New(engineCfg, llm.DetectSuite(), os.Stderr)
	if emb := llm.DetectEmbedder(); emb != nil {
		idx, err := vectorindex.NewTieredIndex(vectorindex.TieredConfig{
			HNSW: vectorindex.HNSWConfig{Dir: dir},
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("opening question index: %w", err)
		}
		eng.WithQuestionBank(scoring.NewQuestionBank(emb, idx))
	}

	s := &Server{
		store:  st,
		engine: eng,
		root:   cfg.Root,
		dir:    dir,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)
	s.registerTools()

	return s, nil
}

// Run starts the server over stdio and blocks until the context is
// cancelled or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close releases the server's resources. Safe to call more than once.
func (s *Server) Close() error {
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// StartInput starts a new conversation from a template.
type StartInput struct {
	Template string `json:"template" jsonschema:"template name, path to a YAML template, or empty for project-brief"`
}

// StartOutput reports the new conversation and its opening question.
type StartOutput struct {
	ConversationID string            `json:"conversation_id"`
	Template       string            `json:"template"`
	Action         models.NextAction `json:"action"`
}

// TurnInput carries one answer and its extraction for a conversation.
type TurnInput struct {
	ConversationID string           `json:"conversation_id" jsonschema:"the conversation to advance"`
	Slot           string           `json:"slot" jsonschema:"the slot the answered question targeted"`
	Answer         string           `json:"answer" jsonschema:"the user's raw answer text"`
	Value          models.SlotValue `json:"value" jsonschema:"the extracted slot value"`
	SelfConfidence float64          `json:"self_confidence" jsonschema:"the extractor's self-reported confidence in [0,1]"`
}

// TurnOutput reports the engine's decision for the turn.
type TurnOutput struct {
	ConversationID string            `json:"conversation_id"`
	Accepted       bool              `json:"accepted"`
	Confidence     float64           `json:"confidence,omitempty"`
	Provisional    bool              `json:"provisional,omitempty"`
	Coverage       float64           `json:"coverage"`
	Fatigue        float64           `json:"fatigue"`
	Action         models.NextAction `json:"action"`
}

// StateInput asks for a conversation's current state.
type StateInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"the conversation to inspect"`
}

// StateOutput is the full conversation state.
type StateOutput struct {
	State *models.ConversationState `json:"state"`
}

// SchemaInput asks for a template definition.
type SchemaInput struct {
	Template string `json:"template,omitempty" jsonschema:"template name; empty lists available templates"`
}

// SchemaOutput returns either one template or the available names.
type SchemaOutput struct {
	Template  *schema.Template `json:"template,omitempty"`
	Available []string         `json:"available,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "briefloop_start",
		Description: "Start a new intake conversation from a template. Returns the conversation ID and the first question to ask the user.",
	}, s.handleStart)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "briefloop_turn",
		Description: "Submit the user's answer to the current question together with the extracted slot value and your confidence in the extraction. Returns whether the value was accepted and the next question (or a stop).",
	}, s.handleTurn)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "briefloop_state",
		Description: "Inspect a conversation: filled slots, confidences, coverage, and status.",
	}, s.handleState)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "briefloop_schema",
		Description: "Show a survey template's slots and question bank, or list available templates.",
	}, s.handleSchema)
}

func (s *Server) handleStart(ctx context.Context, _ *mcp.CallToolRequest, input StartInput) (*mcp.CallToolResult, StartOutput, error) {
	name := input.Template
	if name == "" {
		name = "project-brief"
	}
	tmpl, err := schema.Load(name, s.dir)
	if err != nil {
		return nil, StartOutput{}, err
	}

	state := models.NewConversationState(uuid.New().String(), tmpl.Name, tmpl.Slots)
	action, err := s.engine.Start(ctx, tmpl.Questions, state)
	if err != nil {
		return nil, StartOutput{}, err
	}
	if err := s.store.Put(ctx, state); err != nil {
		return nil, StartOutput{}, err
	}

	return nil, StartOutput{
		ConversationID: state.ID,
		Template:       tmpl.Name,
		Action:         action,
	}, nil
}

func (s *Server) handleTurn(ctx context.Context, _ *mcp.CallToolRequest, input TurnInput) (*mcp.CallToolResult, TurnOutput, error) {
	state, err := s.store.Get(ctx, input.ConversationID)
	if err != nil {
		return nil, TurnOutput{}, err
	}
	tmpl, err := schema.Load(state.Template, s.dir)
	if err != nil {
		return nil, TurnOutput{}, err
	}

	result, err := s.engine.ProcessTurn(ctx, engine.TurnInput{
		Slot:           input.Slot,
		Answer:         input.Answer,
		Value:          input.Value,
		SelfConfidence: input.SelfConfidence,
		Candidates:     tmpl.Questions,
	}, state)
	if err != nil {
		return nil, TurnOutput{}, err
	}

	if err := s.store.Put(ctx, state); err != nil {
		return nil, TurnOutput{}, err
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
		if err := s.store.AppendAudit(ctx, rec); err != nil {
			return nil, TurnOutput{}, err
		}
	}

	out := TurnOutput{
		ConversationID: state.ID,
		Accepted:       result.Accepted,
		Coverage:       state.Coverage(),
		Fatigue:        result.Fatigue,
		Action:         result.NextAction,
	}
	if result.Accepted {
		out.Confidence = result.Update.Confidence
		out.Provisional = result.Update.Provisional
	}
	return nil, out, nil
}

func (s *Server) handleState(ctx context.Context, _ *mcp.CallToolRequest, input StateInput) (*mcp.CallToolResult, StateOutput, error) {
	state, err := s.store.Get(ctx, input.ConversationID)
	if err != nil {
		return nil, StateOutput{}, err
	}
	return nil, StateOutput{State: state}, nil
}

func (s *Server) handleSchema(_ context.Context, _ *mcp.CallToolRequest, input SchemaInput) (*mcp.CallToolResult, SchemaOutput, error) {
	if input.Template == "" {
		var names []string
		for _, t := range schema.Builtins() {
			names = append(names, t.Name)
		}
		return nil, SchemaOutput{Available: names}, nil
	}
	tmpl, err := schema.Load(input.Template, s.dir)
	if err != nil {
		return nil, SchemaOutput{}, err
	}
	return nil, SchemaOutput{Template: tmpl}, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
