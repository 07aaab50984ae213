// Package llm provides model-backed implementations of the scoring
// capabilities: a subagent client that reuses the parent CLI's LLM
// session, and an optional embedded-model embedder.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/briefloop/briefloop/internal/models"
)

// SubagentClient scores via the parent CLI's LLM session. When
// briefloop runs inside Claude Code, Codex, or similar tools, it spawns
// lightweight subagents that share the parent session's authentication.
type SubagentClient struct {
	// cliPath is the path to the CLI executable (e.g., "claude")
	cliPath string

	// model specifies which model to use for subagent requests
	model string

	// timeout is the maximum duration to wait for a subagent response
	timeout time.Duration

	// available caches the result of CLI detection
	available     bool
	availableOnce bool
}

// SubagentConfig configures the subagent client.
type SubagentConfig struct {
	// CLIPath overrides the default CLI path detection
	CLIPath string

	// Model specifies the model to use (default: "haiku")
	Model string

	// Timeout is the maximum duration for requests (default: 30s)
	Timeout time.Duration
}

// DefaultSubagentConfig returns a SubagentConfig with sensible defaults.
func DefaultSubagentConfig() SubagentConfig {
	return SubagentConfig{
		CLIPath: "",
		Model:   "haiku",
		Timeout: 30 * time.Second,
	}
}

// NewSubagentClient creates a new SubagentClient with the given configuration.
func NewSubagentClient(cfg SubagentConfig) *SubagentClient {
	if cfg.Model == "" {
		cfg.Model = "haiku"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &SubagentClient{
		cliPath: cfg.CLIPath,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

// ScoreValidator asks the subagent how precise and actionable an
// extracted value is for its slot.
func (c *SubagentClient) ScoreValidator(ctx context.Context, slot string, value models.SlotValue, _ *models.ConversationState) (float64, error) {
	if !c.Available() {
		return 0, fmt.Errorf("subagent client not available")
	}
	response, err := c.runSubagent(ctx, ValidatorPrompt(slot, value.String()))
	if err != nil {
		return 0, fmt.Errorf("running validator subagent: %w", err)
	}
	return ParseScore(response)
}

// ScoreAnswerQuality asks the subagent to rate an answer's usable detail.
func (c *SubagentClient) ScoreAnswerQuality(ctx context.Context, answer string) (float64, error) {
	if !c.Available() {
		return 0, fmt.Errorf("subagent client not available")
	}
	response, err := c.runSubagent(ctx, QualityPrompt(answer))
	if err != nil {
		return 0, fmt.Errorf("running quality subagent: %w", err)
	}
	return ParseScore(response)
}

// ScoreSimilarity asks the subagent how semantically similar two
// questions are.
func (c *SubagentClient) ScoreSimilarity(ctx context.Context, a, b string) (float64, error) {
	if !c.Available() {
		return 0, fmt.Errorf("subagent client not available")
	}
	response, err := c.runSubagent(ctx, SimilarityPrompt(a, b))
	if err != nil {
		return 0, fmt.Errorf("running similarity subagent: %w", err)
	}
	return ParseScore(response)
}

// Available returns true if the subagent client can be used.
// It checks if running inside a CLI session and if the CLI is accessible.
func (c *SubagentClient) Available() bool {
	if c.availableOnce {
		return c.available
	}

	c.availableOnce = true
	c.available = c.detectAvailability()
	return c.available
}

// detectAvailability checks if we're running inside a CLI session.
func (c *SubagentClient) detectAvailability() bool {
	if !c.inCLISession() {
		return false
	}

	cliPath := c.findCLI()
	if cliPath == "" {
		return false
	}

	c.cliPath = cliPath
	return true
}

// inCLISession checks if we're running inside a CLI agent session.
func (c *SubagentClient) inCLISession() bool {
	// These are set by various agent CLIs when running subprocesses.
	if os.Getenv("CLAUDE_CODE") != "" {
		return true
	}
	if os.Getenv("CLAUDE_SESSION_ID") != "" {
		return true
	}
	if os.Getenv("ANTHROPIC_CLI") != "" {
		return true
	}
	return false
}

// findCLI locates the CLI executable.
func (c *SubagentClient) findCLI() string {
	// If explicitly configured, use that
	if c.cliPath != "" {
		if _, err := exec.LookPath(c.cliPath); err == nil {
			return c.cliPath
		}
	}

	// Try common CLI names in order of preference
	cliNames := []string{
		"claude",
		"anthropic",
		"opencode",
		"codex",
	}

	for _, name := range cliNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}

// runSubagent executes a prompt using the CLI and returns the response.
func (c *SubagentClient) runSubagent(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// --print for non-interactive output, -p for the prompt
	args := []string{
		"--print",
		"-p", prompt,
		"--model", c.model,
	}

	cmd := exec.CommandContext(ctx, c.cliPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("subagent timed out after %v", c.timeout)
		}
		return "", fmt.Errorf("subagent failed: %w (stderr: %s)", err, stderr.String())
	}

	response := strings.TrimSpace(stdout.String())
	if response == "" {
		return "", fmt.Errorf("subagent returned empty response")
	}

	return response, nil
}

// DetectAndCreate attempts to create a SubagentClient if running in a
// CLI session. Returns nil if not in a CLI session or detection fails.
func DetectAndCreate() *SubagentClient {
	client := NewSubagentClient(DefaultSubagentConfig())
	if client.Available() {
		return client
	}
	return nil
}
