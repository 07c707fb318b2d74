package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"tichmi/internal/domain"
	"tichmi/internal/repository/models"
	"time"

	"github.com/jmoiron/sqlx"
)

// QuizDatabaseAdapter implements domain.QuizRepository over the shared
// embedded-store handle.
type QuizDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter.
func NewQuizDatabaseAdapter(db *sqlx.DB) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

// CreateQuiz implements domain.QuizRepository. The row is inserted in one
// statement; the assigned identity and timestamps are written back onto the
// passed quiz.
func (a *QuizDatabaseAdapter) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	modelQuiz, err := toModelQuiz(quiz)
	if err != nil {
		return err
	}
	now := time.Now()
	modelQuiz.CreatedAt = now
	modelQuiz.UpdatedAt = now

	query := `INSERT INTO quizzes (title, topic, cards, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	res, err := a.db.ExecContext(ctx, query,
		modelQuiz.Title,
		modelQuiz.Topic,
		modelQuiz.Cards,
		modelQuiz.CreatedAt,
		modelQuiz.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read assigned quiz id: %w", err)
	}

	quiz.ID = id
	quiz.CreatedAt = modelQuiz.CreatedAt
	quiz.UpdatedAt = modelQuiz.UpdatedAt
	return nil
}

// GetAllQuizzes implements domain.QuizRepository.
func (a *QuizDatabaseAdapter) GetAllQuizzes(ctx context.Context) ([]*domain.Quiz, error) {
	var modelQuizzes []*models.Quiz
	query := `SELECT id, title, topic, cards, created_at, updated_at FROM quizzes`

	if err := a.db.SelectContext(ctx, &modelQuizzes, query); err != nil {
		return nil, fmt.Errorf("failed to query quizzes: %w", err)
	}

	quizzes := make([]*domain.Quiz, 0, len(modelQuizzes))
	for _, mq := range modelQuizzes {
		dq, err := toDomainQuiz(mq)
		if err != nil {
			return nil, fmt.Errorf("failed to convert quiz row %d: %w", mq.ID, err)
		}
		quizzes = append(quizzes, dq)
	}
	return quizzes, nil
}

// GetQuizByID implements domain.QuizRepository. A missing row is (nil, nil),
// not an error.
func (a *QuizDatabaseAdapter) GetQuizByID(ctx context.Context, id int64) (*domain.Quiz, error) {
	var modelQuiz models.Quiz
	query := `SELECT id, title, topic, cards, created_at, updated_at FROM quizzes WHERE id = ?`

	err := a.db.GetContext(ctx, &modelQuiz, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by ID %d: %w", id, err)
	}
	return toDomainQuiz(&modelQuiz)
}

// DeleteQuiz implements domain.QuizRepository. The quiz row and every result
// row referencing it are removed in one transaction, so a crash cannot leave
// orphaned result rows behind.
func (a *QuizDatabaseAdapter) DeleteQuiz(ctx context.Context, id int64) error {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete quiz %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_results WHERE quiz_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete results for quiz %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of quiz %d: %w", id, err)
	}
	return nil
}

// Helper functions for model conversion

func toDomainQuiz(m *models.Quiz) (*domain.Quiz, error) {
	if m == nil {
		return nil, fmt.Errorf("cannot convert nil model.Quiz to domain.Quiz")
	}
	var cards []domain.Card
	if err := json.Unmarshal([]byte(m.Cards), &cards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cards column: %w", err)
	}
	return &domain.Quiz{
		ID:        m.ID,
		Title:     m.Title,
		Topic:     m.Topic,
		Cards:     cards,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func toModelQuiz(d *domain.Quiz) (*models.Quiz, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot save nil quiz")
	}
	cardsJSON, err := json.Marshal(d.Cards)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cards: %w", err)
	}
	return &models.Quiz{
		ID:        d.ID,
		Title:     d.Title,
		Topic:     d.Topic,
		Cards:     string(cardsJSON),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}
