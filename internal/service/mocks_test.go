package service

import (
	"context"
	"tichmi/internal/domain"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	args := m.Called(ctx, quiz)
	if args.Error(0) == nil {
		quiz.ID = 1
		quiz.CreatedAt = time.Now()
		quiz.UpdatedAt = quiz.CreatedAt
	}
	return args.Error(0)
}

func (m *MockQuizRepository) GetAllQuizzes(ctx context.Context) ([]*domain.Quiz, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetQuizByID(ctx context.Context, id int64) (*domain.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

func (m *MockQuizRepository) DeleteQuiz(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockQuizResultRepository struct {
	mock.Mock
}

func (m *MockQuizResultRepository) SaveQuizResult(ctx context.Context, result *domain.QuizResult) error {
	args := m.Called(ctx, result)
	if args.Error(0) == nil {
		result.ID = 1
		result.CompletedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockQuizResultRepository) GetQuizResults(ctx context.Context, quizID int64) ([]*domain.QuizResult, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QuizResult), args.Error(1)
}

type MockQuizGenerator struct {
	mock.Mock

	// chunks are delivered to the sink in order during GenerateStream.
	chunks []string
}

func (m *MockQuizGenerator) Generate(ctx context.Context, topic string, doc *domain.DocumentPayload) ([]domain.Card, error) {
	args := m.Called(ctx, topic, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Card), args.Error(1)
}

func (m *MockQuizGenerator) GenerateStream(ctx context.Context, topic string, doc *domain.DocumentPayload, sink domain.StreamSink) ([]domain.Card, error) {
	args := m.Called(ctx, topic, doc)
	if sink != nil {
		for _, chunk := range m.chunks {
			sink(chunk)
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Card), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
