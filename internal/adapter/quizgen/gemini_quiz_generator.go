package quizgen

import (
	"context"
	"os"
	"tichmi/internal/domain"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// responseSchema is the fixed structured-output schema the model must
// conform to: an object with a non-empty cards array.
var responseSchema = &genai.Schema{
	Type:     genai.TypeObject,
	Required: []string{"cards"},
	Properties: map[string]*genai.Schema{
		"cards": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type:     genai.TypeObject,
				Required: []string{"cardId", "question", "answers"},
				Properties: map[string]*genai.Schema{
					"cardId":   {Type: genai.TypeInteger},
					"question": {Type: genai.TypeString},
					"answers": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type:     genai.TypeObject,
							Required: []string{"id", "text", "isCorrect", "hint", "explanation"},
							Properties: map[string]*genai.Schema{
								"id":          {Type: genai.TypeString},
								"text":        {Type: genai.TypeString},
								"isCorrect":   {Type: genai.TypeBoolean},
								"hint":        {Type: genai.TypeString},
								"explanation": {Type: genai.TypeString},
							},
						},
					},
				},
			},
		},
	},
}

// GeminiQuizGenerator implements domain.QuizGenerator against the Gemini
// API. The client is created and the credential resolved per call, so a key
// exported to the environment after startup is picked up without a restart.
type GeminiQuizGenerator struct {
	apiKey    string
	modelName string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewGeminiQuizGenerator creates a new GeminiQuizGenerator. An empty apiKey
// is allowed here; generation calls report it as a per-call failure.
func NewGeminiQuizGenerator(apiKey, modelName string, timeout time.Duration, logger *zap.Logger) domain.QuizGenerator {
	return &GeminiQuizGenerator{
		apiKey:    apiKey,
		modelName: modelName,
		timeout:   timeout,
		logger:    logger,
	}
}

// Generate implements domain.QuizGenerator in single-shot mode.
func (g *GeminiQuizGenerator) Generate(ctx context.Context, topic string, doc *domain.DocumentPayload) ([]domain.Card, error) {
	return g.generate(ctx, topic, doc, nil)
}

// GenerateStream implements domain.QuizGenerator in streaming mode. Chunks
// reach the sink strictly in arrival order; the assembled text is the exact
// concatenation of the delivered chunks.
func (g *GeminiQuizGenerator) GenerateStream(ctx context.Context, topic string, doc *domain.DocumentPayload, sink domain.StreamSink) ([]domain.Card, error) {
	return g.generate(ctx, topic, doc, sink)
}

func (g *GeminiQuizGenerator) generate(ctx context.Context, topic string, doc *domain.DocumentPayload, sink domain.StreamSink) ([]domain.Card, error) {
	apiKey := g.resolveAPIKey()
	if apiKey == "" {
		return nil, domain.NewAPIKeyMissingError()
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, domain.NewLLMServiceError(err)
	}

	contents, err := g.buildContents(topic, doc)
	if err != nil {
		return nil, err
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema,
		// Extended reasoning disabled: the structured output needs no
		// thinking tokens and they inflate latency.
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(0))},
	}

	g.logger.Info("Requesting quiz generation",
		zap.String("model", g.modelName),
		zap.String("topic", topic),
		zap.Bool("with_document", doc != nil),
		zap.Bool("streaming", sink != nil))

	var text string
	if sink != nil {
		text, err = g.callStream(ctx, client, contents, config, sink)
	} else {
		text, err = g.call(ctx, client, contents, config)
	}
	if err != nil {
		return nil, err
	}

	cards, err := parseCards(text)
	if err != nil {
		g.logger.Error("Failed to parse generated quiz",
			zap.Error(err),
			zap.String("response_text", truncate(text, 500)))
		return nil, err
	}

	g.logger.Info("Quiz generation succeeded", zap.Int("cards", len(cards)))
	return cards, nil
}

// resolveAPIKey reads the credential per call. The environment wins so a
// key exported after startup takes effect immediately; the boot-time
// config value is the fallback.
func (g *GeminiQuizGenerator) resolveAPIKey() string {
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		return key
	}
	return g.apiKey
}

func (g *GeminiQuizGenerator) call(ctx context.Context, client *genai.Client, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	resp, err := client.Models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		return "", domain.NewLLMServiceError(err)
	}
	text := resp.Text()
	if text == "" {
		return "", domain.NewLLMEmptyResponseError()
	}
	return text, nil
}

func (g *GeminiQuizGenerator) callStream(ctx context.Context, client *genai.Client, contents []*genai.Content, config *genai.GenerateContentConfig, sink domain.StreamSink) (string, error) {
	var assembled string
	for resp, err := range client.Models.GenerateContentStream(ctx, g.modelName, contents, config) {
		if err != nil {
			return "", domain.NewLLMServiceError(err)
		}
		chunk := resp.Text()
		assembled += chunk
		sink(chunk)
	}
	if assembled == "" {
		return "", domain.NewLLMEmptyResponseError()
	}
	return assembled, nil
}

// buildContents assembles the single user turn: the topic text plus, when a
// document payload is present, its bytes attached inline.
func (g *GeminiQuizGenerator) buildContents(topic string, doc *domain.DocumentPayload) ([]*genai.Content, error) {
	parts := []*genai.Part{{Text: userTurnText(topic, doc != nil)}}
	if doc != nil {
		data, err := decodeDocument(doc)
		if err != nil {
			return nil, domain.NewInvalidInputError(err.Error())
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: doc.MIMEType, Data: data},
		})
	}
	return []*genai.Content{{Role: genai.RoleUser, Parts: parts}}, nil
}

var _ domain.QuizGenerator = (*GeminiQuizGenerator)(nil)
