package aigen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const (
	geminiBatchSize = 50
	// geminiMaxRounds bounds the calls made for one request when the model
	// keeps returning duplicates.
	geminiMaxRounds = 20
)

// contentModel is the part of genai.Models the generator uses.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator writes texts with Gemini and stores them as mission tasks.
type GeminiGenerator struct {
	models contentModel
	model  string
	store  TaskStore
	logger *slog.Logger
}

// NewGeminiGenerator connects to the Gemini API with apiKey.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, store TaskStore, logger *slog.Logger) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiGenerator(client.Models, model, store, logger), nil
}

func newGeminiGenerator(models contentModel, model string, store TaskStore, logger *slog.Logger) *GeminiGenerator {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiGenerator{
		models: models,
		model:  model,
		store:  store,
		logger: logger.With("component", "ai_gemini"),
	}
}

// GenerateComments asks for distinct texts in batches until Quantity are
// collected, then stores them in one call.
func (g *GeminiGenerator) GenerateComments(ctx context.Context, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}

	seen := make(map[string]struct{}, req.Quantity)
	texts := make([]string, 0, req.Quantity)
	for round := 0; len(texts) < req.Quantity && round < geminiMaxRounds; round++ {
		want := req.Quantity - len(texts)
		if want > geminiBatchSize {
			want = geminiBatchSize
		}
		batch, err := g.generateBatch(ctx, req, want, texts)
		if err != nil {
			if len(texts) == 0 {
				return Result{}, err
			}
			g.logger.Warn("gemini batch failed, keeping partial result", "mission_id", req.MissionID, "have", len(texts), "error", err)
			break
		}
		for _, t := range batch {
			key := strings.ToLower(t)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			texts = append(texts, t)
			if len(texts) == req.Quantity {
				break
			}
		}
	}
	if len(texts) == 0 {
		return Result{}, fmt.Errorf("gemini returned no usable texts")
	}

	n, err := g.store.InsertMissionTasks(ctx, req.MissionID, texts)
	if err != nil {
		return Result{}, fmt.Errorf("store generated texts: %w", err)
	}
	g.logger.Debug("gemini generation done", "mission_id", req.MissionID, "count", n)
	return Result{Count: n}, nil
}

func (g *GeminiGenerator) generateBatch(ctx context.Context, req Request, n int, avoid []string) ([]string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(buildPrompt(req, n, avoid), genai.RoleUser),
	}
	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](1.0),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return parseTexts(resp.Text())
}

func buildPrompt(req Request, n int, avoid []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tulis %d komentar berbeda dalam Bahasa Indonesia untuk %s.\n", n, req.Platform)
	fmt.Fprintf(&b, "Gaya bahasa: %s.\n", req.Tone)
	if isShop(req.Platform) {
		b.WriteString("Tulis sebagai pembeli yang puas memberi testimoni produk atau toko, sebut pengalaman nyata seperti pengiriman, kualitas, atau pelayanan.\n")
	} else {
		b.WriteString("Tulis sebagai penonton biasa yang merespons konten, singkat dan natural, boleh pakai emoji secukupnya.\n")
	}
	b.WriteString("Konteks:\n")
	b.WriteString(strings.TrimSpace(req.Context))
	b.WriteString("\n")
	if len(avoid) > 0 {
		tail := avoid
		if len(tail) > 20 {
			tail = tail[len(tail)-20:]
		}
		b.WriteString("Jangan ulangi komentar berikut:\n")
		for _, a := range tail {
			b.WriteString("- " + a + "\n")
		}
	}
	b.WriteString("Balas hanya dengan JSON array berisi string, tanpa teks lain.")
	return b.String()
}

// parseTexts accepts a bare JSON array, optionally inside a code fence.
func parseTexts(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("gemini response is not a json array")
	}
	var items []string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("decode gemini texts: %w", err)
	}
	out := items[:0]
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out, nil
}
