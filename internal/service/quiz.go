package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"tichmi/internal/domain"
	"tichmi/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// QuizService defines quiz generation, persistence and result recording.
type QuizService interface {
	GenerateQuiz(ctx context.Context, topic string, doc *domain.DocumentPayload) (*domain.Quiz, error)
	GenerateQuizStream(ctx context.Context, topic string, doc *domain.DocumentPayload, sink domain.StreamSink) (*domain.Quiz, error)
	GetAllQuizzes(ctx context.Context) ([]*domain.Quiz, error)
	GetQuizByID(ctx context.Context, id int64) (*domain.Quiz, error)
	GetQuizWithResults(ctx context.Context, id int64) (*domain.Quiz, []*domain.QuizResult, error)
	DeleteQuiz(ctx context.Context, id int64) error
	SaveQuizResult(ctx context.Context, quizID int64, score, totalQuestions int, answers []domain.UserAnswer) (*domain.QuizResult, error)
	GetQuizResults(ctx context.Context, quizID int64) ([]*domain.QuizResult, error)
	IsGenerating() bool
	LastError() string
}

type quizService struct {
	repo       domain.QuizRepository
	resultRepo domain.QuizResultRepository
	generator  domain.QuizGenerator
	genCache   GenerationCacheService

	generating atomic.Bool
	mu         sync.Mutex
	lastErr    string
}

// NewQuizService creates a new quizService. genCache may be backed by a nil
// cache, in which case generation always goes to the model.
func NewQuizService(
	repo domain.QuizRepository,
	resultRepo domain.QuizResultRepository,
	generator domain.QuizGenerator,
	genCache GenerationCacheService,
) QuizService {
	return &quizService{
		repo:       repo,
		resultRepo: resultRepo,
		generator:  generator,
		genCache:   genCache,
	}
}

// GenerateQuiz implements QuizService in single-shot mode.
func (s *quizService) GenerateQuiz(ctx context.Context, topic string, doc *domain.DocumentPayload) (*domain.Quiz, error) {
	return s.generate(ctx, topic, doc, nil)
}

// GenerateQuizStream implements QuizService in streaming mode. The
// in-progress flag covers the entire stream lifetime.
func (s *quizService) GenerateQuizStream(ctx context.Context, topic string, doc *domain.DocumentPayload, sink domain.StreamSink) (*domain.Quiz, error) {
	return s.generate(ctx, topic, doc, sink)
}

// generate runs one generation call end to end: cache probe, model call,
// parse-then-validate, atomic persist, cache fill. Overlapping calls are not
// fenced; the in-progress flag is advisory only.
func (s *quizService) generate(ctx context.Context, topic string, doc *domain.DocumentPayload, sink domain.StreamSink) (*domain.Quiz, error) {
	s.generating.Store(true)
	s.setLastError("")
	defer s.generating.Store(false)

	if cached, err := s.genCache.GetCards(ctx, topic, doc); err == nil && cached != nil {
		logger.Get().Info("Serving generation from cache", zap.String("topic", topic))
		if sink != nil {
			replayCards(cached, sink)
		}
		return s.persistQuiz(ctx, topic, cached)
	}

	var cards []domain.Card
	var err error
	if sink != nil {
		cards, err = s.generator.GenerateStream(ctx, topic, doc, sink)
	} else {
		cards, err = s.generator.Generate(ctx, topic, doc)
	}
	if err != nil {
		s.setLastError(err.Error())
		return nil, err
	}

	quiz, err := s.persistQuiz(ctx, topic, cards)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.genCache.PutCards(ctx, topic, doc, cards); cacheErr != nil {
		// A cache write failure never fails the generation.
		logger.Get().Warn("Failed to cache generated cards",
			zap.Error(cacheErr), zap.String("topic", topic))
	}
	return quiz, nil
}

// replayCards feeds a cached card set through the stream sink as a single
// chunk, so a streaming client still receives response text on a cache hit.
func replayCards(cards []domain.Card, sink domain.StreamSink) {
	raw, err := json.Marshal(struct {
		Cards []domain.Card `json:"cards"`
	}{Cards: cards})
	if err != nil {
		logger.Get().Warn("Failed to encode cached cards for replay", zap.Error(err))
		return
	}
	sink(string(raw))
}

// persistQuiz validates the card set against the documented shapes and
// inserts the quiz as one atomic row.
func (s *quizService) persistQuiz(ctx context.Context, topic string, cards []domain.Card) (*domain.Quiz, error) {
	quiz := domain.NewQuiz(topic, cards)
	if err := quiz.Validate(); err != nil {
		s.setLastError(err.Error())
		logger.Get().Error("Generated quiz failed validation",
			zap.Error(err), zap.String("topic", topic))
		return nil, err
	}

	if err := s.repo.CreateQuiz(ctx, quiz); err != nil {
		s.setLastError(err.Error())
		return nil, domain.NewInternalError("Failed to persist quiz", err)
	}

	logger.Get().Info("Quiz persisted",
		zap.Int64("quiz_id", quiz.ID),
		zap.String("topic", topic),
		zap.Int("cards", len(quiz.Cards)))
	return quiz, nil
}

// GetAllQuizzes implements QuizService.
func (s *quizService) GetAllQuizzes(ctx context.Context) ([]*domain.Quiz, error) {
	quizzes, err := s.repo.GetAllQuizzes(ctx)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quizzes", err)
	}
	return quizzes, nil
}

// GetQuizByID implements QuizService.
func (s *quizService) GetQuizByID(ctx context.Context, id int64) (*domain.Quiz, error) {
	quiz, err := s.repo.GetQuizByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(id)
	}
	return quiz, nil
}

// GetQuizWithResults fetches a quiz and its recorded attempts concurrently.
func (s *quizService) GetQuizWithResults(ctx context.Context, id int64) (*domain.Quiz, []*domain.QuizResult, error) {
	var (
		quiz    *domain.Quiz
		results []*domain.QuizResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quiz, err = s.repo.GetQuizByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		results, err = s.resultRepo.GetQuizResults(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, domain.NewInternalError("Failed to get quiz with results", err)
	}
	if quiz == nil {
		return nil, nil, domain.NewQuizNotFoundError(id)
	}
	return quiz, results, nil
}

// DeleteQuiz implements QuizService. The repository removes the quiz row and
// its result rows transactionally.
func (s *quizService) DeleteQuiz(ctx context.Context, id int64) error {
	quiz, err := s.repo.GetQuizByID(ctx, id)
	if err != nil {
		return domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return domain.NewQuizNotFoundError(id)
	}
	if err := s.repo.DeleteQuiz(ctx, id); err != nil {
		return domain.NewInternalError("Failed to delete quiz", err)
	}
	logger.Get().Info("Quiz deleted", zap.Int64("quiz_id", id))
	return nil
}

// SaveQuizResult implements QuizService. TotalQuestions must equal the
// referenced quiz's card count at completion time; the recorded correctness
// flags are stored as submitted, not re-derived.
func (s *quizService) SaveQuizResult(ctx context.Context, quizID int64, score, totalQuestions int, answers []domain.UserAnswer) (*domain.QuizResult, error) {
	quiz, err := s.repo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}

	result := domain.NewQuizResult(quizID, score, totalQuestions, answers)
	if err := result.Validate(); err != nil {
		return nil, err
	}
	if totalQuestions != len(quiz.Cards) {
		return nil, domain.NewValidationFailure("totalQuestions must equal the quiz's card count")
	}

	if err := s.resultRepo.SaveQuizResult(ctx, result); err != nil {
		return nil, domain.NewInternalError("Failed to save quiz result", err)
	}
	logger.Get().Info("Quiz result saved",
		zap.Int64("quiz_id", quizID),
		zap.Int64("result_id", result.ID),
		zap.Int("score", score),
		zap.Int("total", totalQuestions))
	return result, nil
}

// GetQuizResults implements QuizService.
func (s *quizService) GetQuizResults(ctx context.Context, quizID int64) ([]*domain.QuizResult, error) {
	results, err := s.resultRepo.GetQuizResults(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz results", err)
	}
	return results, nil
}

// IsGenerating reports whether a generation call is in flight. Advisory
// only; overlapping calls are not serialized.
func (s *quizService) IsGenerating() bool {
	return s.generating.Load()
}

// LastError returns the message of the most recent generation failure, or
// "" if the last generation succeeded.
func (s *quizService) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *quizService) setLastError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}
