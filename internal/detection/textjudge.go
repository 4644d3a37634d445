package detection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/artfolio/backend/internal/logger"
	"github.com/artfolio/backend/internal/metrics"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const defaultJudgeModel = "gpt-4o"

// judgeTemperature keeps the judge's scoring reproducible across identical
// inputs. A behavioral requirement, not a performance knob.
const judgeTemperature = 0.1

const judgePrompt = `You are an expert AI-generated text detector. Analyze the following text and determine the probability that it was written by an AI language model rather than a human.

Consider these factors:
- Repetitive or formulaic phrasing
- Lack of personal voice, anecdotes, or unique perspective
- Overly balanced or hedging language ("on one hand... on the other hand")
- Perfect grammar and structure without natural human errors
- Generic examples or explanations
- Lack of specific, verifiable details or citations
- Unusual consistency in paragraph length and structure

Respond with ONLY a JSON object in this exact format:
{"ai_probability": 0.XX, "reasoning": "brief explanation"}

Where ai_probability is a number between 0.0 (definitely human) and 1.0 (definitely AI).`

// TextDetector is the text-modality scoring interface.
type TextDetector interface {
	CheckText(ctx context.Context, text string) (Result, error)
}

// TextJudge scores essay text by asking an LLM judge for a structured
// verdict and defensively parsing it out of the free-form reply.
type TextJudge struct {
	client   *openai.Client
	model    string
	provider string
	mode     Mode
}

// judgeVerdict is the JSON object the judge is instructed to emit.
type judgeVerdict struct {
	AIProbability *float64 `json:"ai_probability"`
	Reasoning     string   `json:"reasoning"`
}

// NewTextJudge creates the text detector from gate config. A nil client is
// kept when credentials are absent; CheckText then applies the configured
// missing-credentials policy.
func NewTextJudge(cfg Config) *TextJudge {
	j := &TextJudge{
		model:    cfg.TextModel,
		provider: "llm-judge",
		mode:     cfg.mode(),
	}
	if j.model == "" {
		j.model = defaultJudgeModel
	}
	if cfg.TextCreds != nil {
		clientCfg := openai.DefaultConfig(cfg.TextCreds.Secret)
		if cfg.TextBaseURL != "" {
			clientCfg.BaseURL = cfg.TextBaseURL
		}
		j.client = openai.NewClientWithConfig(clientCfg)
	}
	return j
}

// CheckText scores essay text. Error handling follows a fixed priority:
// input too short is an InputError; missing credentials follow the Mode
// policy; a failed provider call is a ServiceError; a reply with no
// parseable JSON fails open with a warning so an unreliable judge never
// blocks a legitimate writer.
func (j *TextJudge) CheckText(ctx context.Context, text string) (Result, error) {
	if len(text) < MinTextLength {
		return Result{}, &InputError{
			Reason: fmt.Sprintf("text must be at least %d characters for AI detection", MinTextLength),
		}
	}

	if j.client == nil {
		if j.mode == ModePermissive {
			logger.Log.Warn("text detection skipped: provider not configured",
				zap.String("provider", j.provider),
			)
			return Result{
				Modality:  ModalityText,
				Passed:    true,
				Threshold: TextThreshold,
				Provider:  j.provider,
				Warning:   "AI detection skipped (provider not configured)",
			}, nil
		}
		return Result{}, &ServiceError{
			Provider: j.provider,
			Err:      errors.New("credentials not configured"),
		}
	}

	start := time.Now()
	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       j.model,
		Temperature: judgeTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: judgePrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Analyze this text:\n\n" + text},
		},
	})
	metrics.ObserveProviderLatency(j.provider, time.Since(start).Seconds())
	if err != nil {
		return Result{}, &ServiceError{Provider: j.provider, Err: err}
	}
	if len(resp.Choices) == 0 {
		return Result{}, &ServiceError{Provider: j.provider, Err: errors.New("empty completion")}
	}

	reply := resp.Choices[0].Message.Content
	verdict, ok := parseJudgeReply(reply)
	if !ok {
		logger.Log.Warn("text detection degraded: judge reply not parseable",
			zap.String("provider", j.provider),
			zap.String("reply", reply),
		)
		return Result{
			Modality:  ModalityText,
			Passed:    true,
			Score:     0,
			Threshold: TextThreshold,
			Provider:  j.provider,
			Warning:   "detection parsing failed",
		}, nil
	}

	score := 0.0
	if verdict.AIProbability != nil {
		score = *verdict.AIProbability
	}

	return Result{
		Modality:  ModalityText,
		Passed:    Passes(score, TextThreshold),
		Score:     score,
		Threshold: TextThreshold,
		Provider:  j.provider,
		Reasoning: verdict.Reasoning,
	}, nil
}

// parseJudgeReply extracts the structured verdict from a free-form model
// reply. The model is not guaranteed to omit prose or code fences.
func parseJudgeReply(reply string) (judgeVerdict, bool) {
	obj, ok := ExtractJSONObject(reply)
	if !ok {
		return judgeVerdict{}, false
	}
	var v judgeVerdict
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return judgeVerdict{}, false
	}
	// A missing ai_probability defaults to 0 ("human") rather than failing
	// the parse; only a reply with no JSON object at all is degraded.
	return v, true
}
