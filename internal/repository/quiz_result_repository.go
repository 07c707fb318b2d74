package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"tichmi/internal/domain"
	"tichmi/internal/repository/models"
	"time"

	"github.com/jmoiron/sqlx"
)

// QuizResultDatabaseAdapter implements domain.QuizResultRepository.
type QuizResultDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizResultDatabaseAdapter creates a new instance of
// QuizResultDatabaseAdapter.
func NewQuizResultDatabaseAdapter(db *sqlx.DB) domain.QuizResultRepository {
	return &QuizResultDatabaseAdapter{db: db}
}

// SaveQuizResult implements domain.QuizResultRepository. The assigned
// identity and completion timestamp are written back onto the passed result.
func (a *QuizResultDatabaseAdapter) SaveQuizResult(ctx context.Context, result *domain.QuizResult) error {
	modelResult, err := toModelQuizResult(result)
	if err != nil {
		return err
	}
	modelResult.CompletedAt = time.Now()

	query := `INSERT INTO quiz_results (quiz_id, score, total_questions, answers, completed_at)
		VALUES (?, ?, ?, ?, ?)`

	res, err := a.db.ExecContext(ctx, query,
		modelResult.QuizID,
		modelResult.Score,
		modelResult.TotalQuestions,
		modelResult.Answers,
		modelResult.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save quiz result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read assigned result id: %w", err)
	}

	result.ID = id
	result.CompletedAt = modelResult.CompletedAt
	return nil
}

// GetQuizResults implements domain.QuizResultRepository. Rows come back in
// store order, which is effectively insertion order.
func (a *QuizResultDatabaseAdapter) GetQuizResults(ctx context.Context, quizID int64) ([]*domain.QuizResult, error) {
	var modelResults []*models.QuizResult
	query := `SELECT id, quiz_id, score, total_questions, answers, completed_at
		FROM quiz_results WHERE quiz_id = ?`

	if err := a.db.SelectContext(ctx, &modelResults, query, quizID); err != nil {
		return nil, fmt.Errorf("failed to query results for quiz %d: %w", quizID, err)
	}

	results := make([]*domain.QuizResult, 0, len(modelResults))
	for _, mr := range modelResults {
		dr, err := toDomainQuizResult(mr)
		if err != nil {
			return nil, fmt.Errorf("failed to convert result row %d: %w", mr.ID, err)
		}
		results = append(results, dr)
	}
	return results, nil
}

// Helper functions for model conversion

func toDomainQuizResult(m *models.QuizResult) (*domain.QuizResult, error) {
	if m == nil {
		return nil, fmt.Errorf("cannot convert nil model.QuizResult to domain.QuizResult")
	}
	var answers []domain.UserAnswer
	if err := json.Unmarshal([]byte(m.Answers), &answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers column: %w", err)
	}
	return &domain.QuizResult{
		ID:             m.ID,
		QuizID:         m.QuizID,
		Score:          m.Score,
		TotalQuestions: m.TotalQuestions,
		Answers:        answers,
		CompletedAt:    m.CompletedAt,
	}, nil
}

func toModelQuizResult(d *domain.QuizResult) (*models.QuizResult, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot save nil quiz result")
	}
	answersJSON, err := json.Marshal(d.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}
	return &models.QuizResult{
		ID:             d.ID,
		QuizID:         d.QuizID,
		Score:          d.Score,
		TotalQuestions: d.TotalQuestions,
		Answers:        string(answersJSON),
		CompletedAt:    d.CompletedAt,
	}, nil
}
