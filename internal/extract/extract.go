// Package extract turns relevant document text into structured DocumentRecords
// via the Anthropic API. Extraction is two-pass: a broad pass over the full
// field set, then an optional focused pass that hunts for critical financial
// metrics the first pass missed. Extraction failures degrade to absent fields
// rather than errors, so one bad document never aborts a run.
package extract

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/orebase/mining-intel/internal/model"
	"github.com/orebase/mining-intel/internal/resilience"
	"github.com/orebase/mining-intel/pkg/anthropic"
)

// Context identifies the document being extracted. It seasons the prompts and
// stamps the resulting record.
type Context struct {
	ProjectName string
	CompanyName string
	SourceURL   string
}

// PassPolicy decides when a focused second pass runs.
type PassPolicy struct {
	// TriggerFields are the record fields whose absence after the broad pass
	// triggers a focused pass. Names match the record's JSON keys.
	TriggerFields []string

	// MinTextLen skips the focused pass for short inputs; a brief document
	// the broad pass already read in full has nothing left to find.
	MinTextLen int

	// MaxPasses is the total pass count including the broad pass.
	MaxPasses int
}

// DefaultPassPolicy retries for NPV, IRR, and capex on documents of at least
// 1000 characters.
func DefaultPassPolicy() PassPolicy {
	return PassPolicy{
		TriggerFields: []string{"npv", "irr", "capex"},
		MinTextLen:    1000,
		MaxPasses:     2,
	}
}

// Config controls the extractor's model and call behavior.
type Config struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	CallTimeout time.Duration
	Retry       resilience.RetryConfig
	Policy      PassPolicy
}

// DefaultConfig returns extraction settings suitable for production runs.
func DefaultConfig() Config {
	return Config{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   2048,
		Temperature: 0,
		CallTimeout: 120 * time.Second,
		Retry:       resilience.DefaultRetryConfig(),
		Policy:      DefaultPassPolicy(),
	}
}

// Extractor runs LLM extraction passes over document text.
type Extractor struct {
	client anthropic.Client
	cfg    Config
	usage  anthropic.TokenUsage
}

// New creates an Extractor. Zero-valued Config fields fall back to defaults.
func New(client anthropic.Client, cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = def.Retry
	}
	if len(cfg.Policy.TriggerFields) == 0 {
		cfg.Policy = def.Policy
	}
	if cfg.Policy.MaxPasses <= 0 {
		cfg.Policy.MaxPasses = 2
	}
	return &Extractor{client: client, cfg: cfg}
}

// Usage returns accumulated token usage across all calls made so far.
func (e *Extractor) Usage() anthropic.TokenUsage { return e.usage }

// Extract runs up to Policy.MaxPasses extraction passes over text and returns
// the best record it could assemble. It never returns an error: a failed pass
// is logged and contributes nothing, and an empty text yields an empty record.
func (e *Extractor) Extract(ctx context.Context, text string, doc Context) *model.DocumentRecord {
	rec := &model.DocumentRecord{SourceURL: doc.SourceURL}
	if text == "" {
		return rec
	}

	broad, err := e.runPass(ctx, "broad", systemPrompt, broadPrompt(text, doc), doc)
	if err != nil {
		zap.L().Warn("broad extraction pass failed",
			zap.String("source_url", doc.SourceURL),
			zap.Error(err),
		)
		return rec
	}
	rec = broad
	rec.SourceURL = doc.SourceURL

	for pass := 2; pass <= e.cfg.Policy.MaxPasses; pass++ {
		missing := e.missingTriggerFields(rec)
		if len(missing) == 0 || len(text) < e.cfg.Policy.MinTextLen {
			break
		}

		zap.L().Info("running focused extraction pass",
			zap.String("source_url", doc.SourceURL),
			zap.Int("pass", pass),
			zap.Strings("missing_fields", missing),
		)

		focused, err := e.runPass(ctx, "focused", systemPrompt, focusedPrompt(text, doc, missing), doc)
		if err != nil {
			zap.L().Warn("focused extraction pass failed",
				zap.String("source_url", doc.SourceURL),
				zap.Int("pass", pass),
				zap.Error(err),
			)
			break
		}
		overlayTriggerFields(rec, focused, e.cfg.Policy.TriggerFields)
	}

	return rec
}

// runPass makes one model call with retry and parses its response.
func (e *Extractor) runPass(ctx context.Context, phase, system, prompt string, doc Context) (*model.DocumentRecord, error) {
	cfg := e.cfg.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("anthropic", phase+" extraction")
	}

	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.CompletionResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
		return e.client.Complete(callCtx, anthropic.CompletionRequest{
			Model:       e.cfg.Model,
			MaxTokens:   e.cfg.MaxTokens,
			System:      system,
			Prompt:      prompt,
			Temperature: model.Float(e.cfg.Temperature),
		})
	})
	if err != nil {
		return nil, err
	}

	e.usage.Add(resp.Usage)
	resp.Usage.LogCost(e.cfg.Model, phase)

	return ParseRecord(resp.Text, doc.SourceURL)
}

// missingTriggerFields lists the policy's trigger fields still nil on rec.
func (e *Extractor) missingTriggerFields(rec *model.DocumentRecord) []string {
	var missing []string
	for _, f := range e.cfg.Policy.TriggerFields {
		get, ok := numericFieldGetters[f]
		if !ok {
			continue
		}
		if get(rec) == nil {
			missing = append(missing, f)
		}
	}
	return missing
}

// overlayTriggerFields copies non-nil trigger-field values from the focused
// pass onto the base record. A nil focused value never clears an existing
// one, and non-trigger fields are untouched.
func overlayTriggerFields(base, focused *model.DocumentRecord, fields []string) {
	for _, f := range fields {
		get, ok := numericFieldGetters[f]
		if !ok {
			continue
		}
		if v := get(focused); v != nil {
			numericFieldSetters[f](base, v)
		}
	}
}

var numericFieldGetters = map[string]func(*model.DocumentRecord) *float64{
	"npv":           func(r *model.DocumentRecord) *float64 { return r.NPV },
	"irr":           func(r *model.DocumentRecord) *float64 { return r.IRR },
	"capex":         func(r *model.DocumentRecord) *float64 { return r.Capex },
	"opex":          func(r *model.DocumentRecord) *float64 { return r.Opex },
	"payback_years": func(r *model.DocumentRecord) *float64 { return r.PaybackYears },
	"discount_rate": func(r *model.DocumentRecord) *float64 { return r.DiscountRate },
	"mine_life":     func(r *model.DocumentRecord) *float64 { return r.MineLife },
}

var numericFieldSetters = map[string]func(*model.DocumentRecord, *float64){
	"npv":           func(r *model.DocumentRecord, v *float64) { r.NPV = v },
	"irr":           func(r *model.DocumentRecord, v *float64) { r.IRR = v },
	"capex":         func(r *model.DocumentRecord, v *float64) { r.Capex = v },
	"opex":          func(r *model.DocumentRecord, v *float64) { r.Opex = v },
	"payback_years": func(r *model.DocumentRecord, v *float64) { r.PaybackYears = v },
	"discount_rate": func(r *model.DocumentRecord, v *float64) { r.DiscountRate = v },
	"mine_life":     func(r *model.DocumentRecord, v *float64) { r.MineLife = v },
}
