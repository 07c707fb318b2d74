package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"tichmi/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func generatedCards(count int) []domain.Card {
	cards := make([]domain.Card, 0, count)
	for i := 1; i <= count; i++ {
		cards = append(cards, domain.Card{
			CardID:   i,
			Question: fmt.Sprintf("Question %d?", i),
			Answers: []domain.Answer{
				{ID: "A", Text: "Right", IsCorrect: true, Hint: "hint", Explanation: "explanation"},
				{ID: "B", Text: "Wrong", IsCorrect: false, Hint: "hint", Explanation: "explanation"},
				{ID: "C", Text: "Also wrong", IsCorrect: false, Hint: "hint", Explanation: "explanation"},
			},
		})
	}
	return cards
}

func newTestService(t *testing.T) (*quizService, *MockQuizRepository, *MockQuizResultRepository, *MockQuizGenerator) {
	t.Helper()
	repo := new(MockQuizRepository)
	resultRepo := new(MockQuizResultRepository)
	generator := new(MockQuizGenerator)
	svc := NewQuizService(repo, resultRepo, generator, NewGenerationCacheService(nil, 0)).(*quizService)
	return svc, repo, resultRepo, generator
}

func TestGenerateQuiz(t *testing.T) {
	ctx := context.Background()

	t.Run("generates, validates and persists", func(t *testing.T) {
		svc, repo, _, generator := newTestService(t)
		generator.On("Generate", ctx, "Go", (*domain.DocumentPayload)(nil)).
			Return(generatedCards(5), nil)
		repo.On("CreateQuiz", ctx, mock.AnythingOfType("*domain.Quiz")).Return(nil)

		quiz, err := svc.GenerateQuiz(ctx, "Go", nil)

		require.NoError(t, err)
		require.NotNil(t, quiz)
		assert.Equal(t, "Go Quiz", quiz.Title)
		assert.Equal(t, int64(1), quiz.ID)
		assert.Len(t, quiz.Cards, 5)
		assert.Empty(t, svc.LastError())
		assert.False(t, svc.IsGenerating())
		repo.AssertExpectations(t)
		generator.AssertExpectations(t)
	})

	t.Run("generator failure sets last error and persists nothing", func(t *testing.T) {
		svc, repo, _, generator := newTestService(t)
		genErr := domain.NewLLMServiceError(errors.New("rate limited"))
		generator.On("Generate", ctx, "Go", (*domain.DocumentPayload)(nil)).
			Return(nil, genErr)

		quiz, err := svc.GenerateQuiz(ctx, "Go", nil)

		assert.Nil(t, quiz)
		assert.ErrorIs(t, err, genErr)
		assert.Contains(t, svc.LastError(), "rate limited")
		repo.AssertNotCalled(t, "CreateQuiz", mock.Anything, mock.Anything)
	})

	t.Run("invalid card set is rejected before the store", func(t *testing.T) {
		svc, repo, _, generator := newTestService(t)
		bad := generatedCards(2)
		bad[1].Answers = bad[1].Answers[:1]
		generator.On("Generate", ctx, "Go", (*domain.DocumentPayload)(nil)).
			Return(bad, nil)

		quiz, err := svc.GenerateQuiz(ctx, "Go", nil)

		assert.Nil(t, quiz)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeValidation, domainErr.Code)
		assert.NotEmpty(t, svc.LastError())
		repo.AssertNotCalled(t, "CreateQuiz", mock.Anything, mock.Anything)
	})

	t.Run("store failure wraps as internal error", func(t *testing.T) {
		svc, repo, _, generator := newTestService(t)
		generator.On("Generate", ctx, "Go", (*domain.DocumentPayload)(nil)).
			Return(generatedCards(5), nil)
		repo.On("CreateQuiz", ctx, mock.AnythingOfType("*domain.Quiz")).
			Return(errors.New("disk full"))

		quiz, err := svc.GenerateQuiz(ctx, "Go", nil)

		assert.Nil(t, quiz)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeInternal, domainErr.Code)
		assert.Contains(t, svc.LastError(), "disk full")
	})

	t.Run("success clears previous last error", func(t *testing.T) {
		svc, repo, _, generator := newTestService(t)
		generator.On("Generate", ctx, "Bad", (*domain.DocumentPayload)(nil)).
			Return(nil, domain.NewLLMEmptyResponseError()).Once()
		generator.On("Generate", ctx, "Good", (*domain.DocumentPayload)(nil)).
			Return(generatedCards(5), nil).Once()
		repo.On("CreateQuiz", ctx, mock.AnythingOfType("*domain.Quiz")).Return(nil)

		_, err := svc.GenerateQuiz(ctx, "Bad", nil)
		require.Error(t, err)
		require.NotEmpty(t, svc.LastError())

		_, err = svc.GenerateQuiz(ctx, "Good", nil)
		require.NoError(t, err)
		assert.Empty(t, svc.LastError())
	})
}

func TestGenerateQuizStream(t *testing.T) {
	ctx := context.Background()

	t.Run("chunks reach the sink in order and assemble the response", func(t *testing.T) {
		svc, repo, _, generator := newTestService(t)
		generator.chunks = []string{`{"ca`, `rds": []}`}
		generator.On("GenerateStream", ctx, "Go", (*domain.DocumentPayload)(nil)).
			Return(generatedCards(5), nil)
		repo.On("CreateQuiz", ctx, mock.AnythingOfType("*domain.Quiz")).Return(nil)

		var received []string
		quiz, err := svc.GenerateQuizStream(ctx, "Go", nil, func(chunk string) {
			received = append(received, chunk)
		})

		require.NoError(t, err)
		require.NotNil(t, quiz)
		require.Equal(t, []string{`{"ca`, `rds": []}`}, received)
		assert.Equal(t, `{"cards": []}`, received[0]+received[1])
	})

	t.Run("stream failure sets last error", func(t *testing.T) {
		svc, _, _, generator := newTestService(t)
		generator.On("GenerateStream", ctx, "Go", (*domain.DocumentPayload)(nil)).
			Return(nil, domain.NewLLMServiceError(errors.New("connection reset")))

		quiz, err := svc.GenerateQuizStream(ctx, "Go", nil, func(string) {})

		assert.Nil(t, quiz)
		require.Error(t, err)
		assert.Contains(t, svc.LastError(), "connection reset")
	})
}

func TestGenerateQuizUsesCache(t *testing.T) {
	ctx := context.Background()

	repo := new(MockQuizRepository)
	generator := new(MockQuizGenerator)
	cache := new(MockCache)
	svc := NewQuizService(repo, new(MockQuizResultRepository), generator, NewGenerationCacheService(cache, 0))

	cached := generatedCards(5)
	raw := mustMarshalCards(t, cached)
	cache.On("Get", ctx, mock.AnythingOfType("string")).Return(raw, nil)
	repo.On("CreateQuiz", ctx, mock.AnythingOfType("*domain.Quiz")).Return(nil)

	quiz, err := svc.GenerateQuiz(ctx, "Go", nil)

	require.NoError(t, err)
	assert.Len(t, quiz.Cards, 5)
	generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateQuizStreamCacheHitReplaysToSink(t *testing.T) {
	ctx := context.Background()

	repo := new(MockQuizRepository)
	generator := new(MockQuizGenerator)
	cache := new(MockCache)
	svc := NewQuizService(repo, new(MockQuizResultRepository), generator, NewGenerationCacheService(cache, 0))

	cached := generatedCards(5)
	cache.On("Get", ctx, mock.AnythingOfType("string")).Return(mustMarshalCards(t, cached), nil)
	repo.On("CreateQuiz", ctx, mock.AnythingOfType("*domain.Quiz")).Return(nil)

	var received []string
	quiz, err := svc.GenerateQuizStream(ctx, "Go", nil, func(chunk string) {
		received = append(received, chunk)
	})

	require.NoError(t, err)
	assert.Len(t, quiz.Cards, 5)
	generator.AssertNotCalled(t, "GenerateStream", mock.Anything, mock.Anything, mock.Anything)

	// The cached card set reaches the sink as one chunk of response text.
	require.Len(t, received, 1)
	var payload struct {
		Cards []domain.Card `json:"cards"`
	}
	require.NoError(t, json.Unmarshal([]byte(received[0]), &payload))
	assert.Equal(t, cached, payload.Cards)
}

func TestGetQuizByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		repo.On("GetQuizByID", ctx, int64(7)).
			Return(domain.NewQuiz("Go", generatedCards(5)), nil)

		quiz, err := svc.GetQuizByID(ctx, 7)

		require.NoError(t, err)
		assert.Equal(t, "Go Quiz", quiz.Title)
	})

	t.Run("missing quiz maps to not found", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		repo.On("GetQuizByID", ctx, int64(99)).Return(nil, nil)

		quiz, err := svc.GetQuizByID(ctx, 99)

		assert.Nil(t, quiz)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeQuizNotFound, domainErr.Code)
	})
}

func TestGetQuizWithResults(t *testing.T) {
	ctx := context.Background()

	t.Run("returns both", func(t *testing.T) {
		svc, repo, resultRepo, _ := newTestService(t)
		repo.On("GetQuizByID", mock.Anything, int64(7)).
			Return(domain.NewQuiz("Go", generatedCards(5)), nil)
		resultRepo.On("GetQuizResults", mock.Anything, int64(7)).
			Return([]*domain.QuizResult{{ID: 1, QuizID: 7}}, nil)

		quiz, results, err := svc.GetQuizWithResults(ctx, 7)

		require.NoError(t, err)
		assert.NotNil(t, quiz)
		assert.Len(t, results, 1)
	})

	t.Run("missing quiz maps to not found", func(t *testing.T) {
		svc, repo, resultRepo, _ := newTestService(t)
		repo.On("GetQuizByID", mock.Anything, int64(99)).Return(nil, nil)
		resultRepo.On("GetQuizResults", mock.Anything, int64(99)).
			Return([]*domain.QuizResult{}, nil)

		_, _, err := svc.GetQuizWithResults(ctx, 99)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeQuizNotFound, domainErr.Code)
	})
}

func TestDeleteQuiz(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes an existing quiz", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		repo.On("GetQuizByID", ctx, int64(7)).
			Return(domain.NewQuiz("Go", generatedCards(5)), nil)
		repo.On("DeleteQuiz", ctx, int64(7)).Return(nil)

		require.NoError(t, svc.DeleteQuiz(ctx, 7))
		repo.AssertExpectations(t)
	})

	t.Run("missing quiz is not found, delete never issued", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		repo.On("GetQuizByID", ctx, int64(99)).Return(nil, nil)

		err := svc.DeleteQuiz(ctx, 99)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeQuizNotFound, domainErr.Code)
		repo.AssertNotCalled(t, "DeleteQuiz", mock.Anything, mock.Anything)
	})
}

func TestSaveQuizResult(t *testing.T) {
	ctx := context.Background()
	answers := []domain.UserAnswer{
		{CardID: 1, SelectedAnswerID: "A", IsCorrect: true},
		{CardID: 2, SelectedAnswerID: "B", IsCorrect: false},
	}

	t.Run("saves a valid result", func(t *testing.T) {
		svc, repo, resultRepo, _ := newTestService(t)
		repo.On("GetQuizByID", ctx, int64(7)).
			Return(domain.NewQuiz("Go", generatedCards(2)), nil)
		resultRepo.On("SaveQuizResult", ctx, mock.AnythingOfType("*domain.QuizResult")).Return(nil)

		result, err := svc.SaveQuizResult(ctx, 7, 1, 2, answers)

		require.NoError(t, err)
		assert.Equal(t, int64(1), result.ID)
		assert.False(t, result.CompletedAt.IsZero())
	})

	t.Run("total must match the quiz card count", func(t *testing.T) {
		svc, repo, resultRepo, _ := newTestService(t)
		repo.On("GetQuizByID", ctx, int64(7)).
			Return(domain.NewQuiz("Go", generatedCards(5)), nil)

		_, err := svc.SaveQuizResult(ctx, 7, 1, 2, answers)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeValidation, domainErr.Code)
		resultRepo.AssertNotCalled(t, "SaveQuizResult", mock.Anything, mock.Anything)
	})

	t.Run("missing quiz is not found", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		repo.On("GetQuizByID", ctx, int64(99)).Return(nil, nil)

		_, err := svc.SaveQuizResult(ctx, 99, 1, 2, answers)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeQuizNotFound, domainErr.Code)
	})

	t.Run("out of range score is rejected", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		repo.On("GetQuizByID", ctx, int64(7)).
			Return(domain.NewQuiz("Go", generatedCards(2)), nil)

		_, err := svc.SaveQuizResult(ctx, 7, 5, 2, answers)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeValidation, domainErr.Code)
	})
}
