package quizgen

import (
	"context"
	"net/http"
	"tichmi/internal/domain"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

// OllamaQuizGenerator implements domain.QuizGenerator against a local
// Ollama server, for running fully offline against a local model. The
// structured-output schema is carried by the system prompt and JSON mode
// rather than a server-enforced schema.
type OllamaQuizGenerator struct {
	serverURL string
	modelName string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewOllamaQuizGenerator creates a new OllamaQuizGenerator.
func NewOllamaQuizGenerator(serverURL, modelName string, timeout time.Duration, logger *zap.Logger) domain.QuizGenerator {
	return &OllamaQuizGenerator{
		serverURL: serverURL,
		modelName: modelName,
		timeout:   timeout,
		logger:    logger,
	}
}

// Generate implements domain.QuizGenerator in single-shot mode.
func (g *OllamaQuizGenerator) Generate(ctx context.Context, topic string, doc *domain.DocumentPayload) ([]domain.Card, error) {
	return g.generate(ctx, topic, doc, nil)
}

// GenerateStream implements domain.QuizGenerator in streaming mode.
func (g *OllamaQuizGenerator) GenerateStream(ctx context.Context, topic string, doc *domain.DocumentPayload, sink domain.StreamSink) ([]domain.Card, error) {
	return g.generate(ctx, topic, doc, sink)
}

func (g *OllamaQuizGenerator) generate(ctx context.Context, topic string, doc *domain.DocumentPayload, sink domain.StreamSink) ([]domain.Card, error) {
	if g.serverURL == "" {
		return nil, domain.NewAPIKeyMissingError()
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	httpClient := &http.Client{Timeout: g.timeout}
	llm, err := ollama.New(
		ollama.WithServerURL(g.serverURL),
		ollama.WithModel(g.modelName),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, domain.NewLLMServiceError(err)
	}

	messages, err := g.buildMessages(topic, doc)
	if err != nil {
		return nil, err
	}

	opts := []llms.CallOption{
		llms.WithJSONMode(),
		llms.WithTemperature(0.1),
	}
	if sink != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			sink(string(chunk))
			return nil
		}))
	}

	g.logger.Info("Requesting quiz generation",
		zap.String("model", g.modelName),
		zap.String("topic", topic),
		zap.Bool("with_document", doc != nil),
		zap.Bool("streaming", sink != nil))

	resp, err := llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, domain.NewLLMServiceError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return nil, domain.NewLLMEmptyResponseError()
	}

	cards, err := parseCards(resp.Choices[0].Content)
	if err != nil {
		g.logger.Error("Failed to parse generated quiz",
			zap.Error(err),
			zap.String("response_text", truncate(resp.Choices[0].Content, 500)))
		return nil, err
	}

	g.logger.Info("Quiz generation succeeded", zap.Int("cards", len(cards)))
	return cards, nil
}

func (g *OllamaQuizGenerator) buildMessages(topic string, doc *domain.DocumentPayload) ([]llms.MessageContent, error) {
	userParts := []llms.ContentPart{llms.TextPart(userTurnText(topic, doc != nil))}
	if doc != nil {
		data, err := decodeDocument(doc)
		if err != nil {
			return nil, domain.NewInvalidInputError(err.Error())
		}
		userParts = append(userParts, llms.BinaryPart(doc.MIMEType, data))
	}
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		{Role: llms.ChatMessageTypeHuman, Parts: userParts},
	}, nil
}

var _ domain.QuizGenerator = (*OllamaQuizGenerator)(nil)
