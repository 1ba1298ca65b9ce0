// Package advisor asks a language model for short strategic commentary on a
// calculation result.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/iwvelando/fincalc/pkg/format"
	"github.com/iwvelando/fincalc/pkg/output"
	"github.com/iwvelando/fincalc/pkg/pricing"
	"go.uber.org/zap"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = string(anthropic.ModelClaudeSonnet4_20250514)

const systemPrompt = "You are a senior financial consultant for digital and subscription businesses. " +
	"Be concise, direct and strategic, and speak to the entrepreneur. Answer in markdown. Do not invent figures."

var (
	// ErrNotConfigured is returned when no API key is available.
	ErrNotConfigured = errors.New("ANTHROPIC_API_KEY not configured")
	// ErrInvalidResult is returned for results the engine rejected.
	ErrInvalidResult = errors.New("cannot analyze an invalid result")
	// ErrEmptyResponse is returned when the model answers without text.
	ErrEmptyResponse = errors.New("model returned no text")
)

// Config controls the advisor.
type Config struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Model     string `yaml:"model" json:"model"`
	MaxTokens int64  `yaml:"maxTokens" json:"maxTokens"`
}

// AnthropicMessager is the subset of the Anthropic client used here.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// Advisor produces commentary for calculation results.
type Advisor struct {
	logger    *zap.Logger
	messages  AnthropicMessager
	model     string
	maxTokens int64
}

// Request describes the calculation to comment on. Currency and Locale only
// affect how figures are written in the prompt.
type Request struct {
	Mode     pricing.Mode
	Inputs   pricing.Inputs
	Result   pricing.Result
	Currency string
	Locale   string
}

// NewFromEnv builds an Advisor using the ANTHROPIC_API_KEY environment
// variable.
func NewFromEnv(logger *zap.Logger, cfg Config) (*Advisor, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	return New(logger, newAnthropicClient(apiKey), cfg), nil
}

// New builds an Advisor around an existing client.
func New(logger *zap.Logger, messages AnthropicMessager, cfg Config) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Advisor{logger: logger, messages: messages, model: model, maxTokens: maxTokens}
}

// Model returns the model name requests are sent to.
func (a *Advisor) Model() string {
	return a.model
}

// Analyze returns markdown commentary for req.
func (a *Advisor) Analyze(ctx context.Context, req Request) (string, error) {
	if !req.Result.Valid {
		return "", ErrInvalidResult
	}
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}

	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0.3),
	})
	if err != nil {
		a.logger.Error("model request failed",
			zap.String("op", "advisor.Analyze"),
			zap.String("model", a.model),
			zap.Error(err),
		)
		return "", fmt.Errorf("request commentary: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// BuildPrompt renders the user prompt for req.
func BuildPrompt(req Request) (string, error) {
	display := output.Options{Currency: req.Currency, Locale: req.Locale}.WithDefaults()
	p, err := format.Printer(display.Locale)
	if err != nil {
		return "", err
	}
	money := func(v float64) string {
		s, err := format.Currency(v, display.Currency, display.Locale)
		if err != nil {
			return format.Number(p, v, 2)
		}
		return s
	}
	percent := func(v float64) string {
		return format.Number(p, v, 1) + "%"
	}
	value := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}

	in, r := req.Inputs, req.Result

	var b strings.Builder
	b.WriteString("Analyze the following business scenario.\n\n")
	fmt.Fprintf(&b, "Calculation mode: %s\n\n", output.ModeLabel(req.Mode))

	b.WriteString("Assumptions:\n")
	fmt.Fprintf(&b, "- Product cost (CP): %s\n", money(value(in.CP)))
	fmt.Fprintf(&b, "- Fixed fee per sale (TxF): %s\n", money(value(in.TxF)))
	fmt.Fprintf(&b, "- Variable fee (TxP): %s\n", percent(value(in.TxP)))
	fmt.Fprintf(&b, "- Monthly fixed cost (CF): %s\n", money(value(in.CF)))
	if in.Marketing != nil && in.Marketing.Value() != 0 {
		if in.Marketing.IsPercent() {
			fmt.Fprintf(&b, "- Marketing: %s of revenue\n", percent(in.Marketing.Value()))
		} else {
			fmt.Fprintf(&b, "- Marketing: %s per period\n", money(in.Marketing.Value()))
		}
	}
	switch req.Mode {
	case pricing.ModeTargetPrice:
		fmt.Fprintf(&b, "- Sales target: %s units\n", format.Number(p, value(in.Meta), 0))
	case pricing.ModeTargetVolume:
		fmt.Fprintf(&b, "- Sale price (PVS): %s\n", money(value(in.PVS)))
	}
	if in.MLLD != nil && *in.MLLD != 0 {
		fmt.Fprintf(&b, "- Desired net margin: %s\n", percent(*in.MLLD))
	}

	b.WriteString("\nResults:\n")
	fmt.Fprintf(&b, "- Price (PVS): %s\n", money(r.Price))
	fmt.Fprintf(&b, "- Volume (Meta): %s units\n", format.Number(p, r.Volume, 0))
	fmt.Fprintf(&b, "- Contribution margin (MC_Real): %s\n", money(r.ContributionMargin))
	fmt.Fprintf(&b, "- Break-even: %s units\n", format.Number(p, r.BreakEvenUnits, 0))
	fmt.Fprintf(&b, "- Net profit (LL): %s\n", money(r.NetProfit))
	fmt.Fprintf(&b, "- Net margin: %s\n", percent(r.NetMargin))

	b.WriteString("\nTasks:\n")
	fmt.Fprintf(&b, "1. Interpret the main result (%s).\n", mainResult(req.Mode))
	fmt.Fprintf(&b, "2. Assess the risk: compare the break-even point (%s) with the volume (%s). How hard is it to reach?\n",
		format.Number(p, r.BreakEvenUnits, 0), format.Number(p, r.Volume, 0))
	b.WriteString("3. Give one practical tip to improve the contribution margin in this scenario.\n")
	return b.String(), nil
}

func mainResult(mode pricing.Mode) string {
	switch mode {
	case pricing.ModeTargetPrice:
		return "the suggested price"
	case pricing.ModeTargetVolume:
		return "the required volume"
	default:
		return "the projected profit"
	}
}
