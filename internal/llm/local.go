//go:build llamacpp

package llm

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	llama "github.com/tcpipuk/llama-go"

	"github.com/briefloop/briefloop/internal/scoring"
)

// localSimilarity returns an embedding-backed similarity scorer over
// the model at path, or nil when the model file is missing.
func localSimilarity(path string) scoring.SimilarityScorer {
	e := NewLocalEmbedder(LocalConfig{ModelPath: path})
	if !e.Available() {
		return nil
	}
	return scoring.NewEmbeddingSimilarity(e)
}

// localEmbedder returns the raw embedder over the model at path, or
// nil when the model file is missing.
func localEmbedder(path string) scoring.Embedder {
	e := NewLocalEmbedder(LocalConfig{ModelPath: path})
	if !e.Available() {
		return nil
	}
	return e
}

// LocalEmbedder produces embeddings from an embedded GGUF model via
// llama-go, with no external API dependency. Thread-safe: all
// model/context access is serialized via mutex.
type LocalEmbedder struct {
	modelPath   string
	gpuLayers   int
	contextSize int

	// mu serializes all llama context access (contexts are not thread-safe)
	mu sync.Mutex

	// Lazy-loaded resources
	model   *llama.Model
	embCtx  *llama.Context
	loadErr error
	once    sync.Once
}

// LocalConfig configures the local embedder.
type LocalConfig struct {
	// ModelPath is the path to the GGUF embedding model file.
	ModelPath string

	// GPULayers is the number of layers to offload to GPU (0 = CPU only).
	GPULayers int

	// ContextSize is the context window size in tokens.
	ContextSize int
}

// NewLocalEmbedder creates a LocalEmbedder. The model is not loaded
// until first use.
func NewLocalEmbedder(cfg LocalConfig) *LocalEmbedder {
	ctxSize := cfg.ContextSize
	if ctxSize <= 0 {
		ctxSize = 512
	}
	return &LocalEmbedder{
		modelPath:   cfg.ModelPath,
		gpuLayers:   cfg.GPULayers,
		contextSize: ctxSize,
	}
}

// loadModel lazy-loads the model and context on first use.
func (c *LocalEmbedder) loadModel() error {
	c.once.Do(func() {
		if c.modelPath == "" {
			c.loadErr = fmt.Errorf("no model path configured")
			return
		}

		model, err := llama.LoadModel(c.modelPath,
			llama.WithGPULayers(c.gpuLayers),
			llama.WithMMap(true),
			llama.WithSilentLoading(),
		)
		if err != nil {
			c.loadErr = fmt.Errorf("loading model %s: %w", c.modelPath, err)
			return
		}
		c.model = model

		ctx, err := model.NewContext(
			llama.WithEmbeddings(),
			llama.WithContext(c.contextSize),
			llama.WithThreads(runtime.NumCPU()),
		)
		if err != nil {
			model.Close()
			c.model = nil
			c.loadErr = fmt.Errorf("creating embedding context: %w", err)
			return
		}
		c.embCtx = ctx
	})
	return c.loadErr
}

// Available returns true if the model file exists on disk. This is a
// cheap check that does not load the model.
func (c *LocalEmbedder) Available() bool {
	if c.modelPath == "" {
		return false
	}
	_, err := os.Stat(c.modelPath)
	return err == nil
}

// Embed returns a dense vector embedding for the given text.
func (c *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.loadModel(); err != nil {
		return nil, fmt.Errorf("local embed: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	emb, err := c.embCtx.GetEmbeddings(text)
	if err != nil {
		return nil, fmt.Errorf("getting embeddings: %w", err)
	}
	return emb, nil
}

// Close releases the model and context resources.
// Safe to call multiple times.
func (c *LocalEmbedder) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.embCtx != nil {
		c.embCtx.Close()
		c.embCtx = nil
	}
	if c.model != nil {
		c.model.Close()
		c.model = nil
	}
	return nil
}
