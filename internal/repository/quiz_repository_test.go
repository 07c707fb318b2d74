package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"tichmi/internal/domain"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func sampleCards() []domain.Card {
	return []domain.Card{
		{
			CardID:   1,
			Question: "What is the capital of France?",
			Answers: []domain.Answer{
				{ID: "A", Text: "Paris", IsCorrect: true, Hint: "City of light", Explanation: "Paris is the capital."},
				{ID: "B", Text: "Lyon", IsCorrect: false, Hint: "City of light", Explanation: "Lyon is not the capital."},
				{ID: "C", Text: "Nice", IsCorrect: false, Hint: "City of light", Explanation: "Nice is not the capital."},
			},
		},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestCreateQuiz(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)

	quiz := domain.NewQuiz("Geography", sampleCards())

	mock.ExpectExec("INSERT INTO quizzes").
		WithArgs(quiz.Title, quiz.Topic, mustJSON(t, quiz.Cards), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))

	err := adapter.CreateQuiz(context.Background(), quiz)

	require.NoError(t, err)
	assert.Equal(t, int64(42), quiz.ID)
	assert.False(t, quiz.CreatedAt.IsZero())
	assert.Equal(t, quiz.CreatedAt, quiz.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateQuizExecFailure(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)

	mock.ExpectExec("INSERT INTO quizzes").
		WillReturnError(errors.New("disk I/O error"))

	err := adapter.CreateQuiz(context.Background(), domain.NewQuiz("Geography", sampleCards()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create quiz")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetQuizByID(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "title", "topic", "cards", "created_at", "updated_at"}).
			AddRow(7, "Geography Quiz", "Geography", mustJSON(t, sampleCards()), now, now)
		mock.ExpectQuery("SELECT id, title, topic, cards, created_at, updated_at FROM quizzes WHERE id = \\?").
			WithArgs(int64(7)).
			WillReturnRows(rows)

		quiz, err := adapter.GetQuizByID(context.Background(), 7)

		require.NoError(t, err)
		require.NotNil(t, quiz)
		assert.Equal(t, int64(7), quiz.ID)
		assert.Equal(t, "Geography Quiz", quiz.Title)
		require.Len(t, quiz.Cards, 1)
		assert.Equal(t, "What is the capital of France?", quiz.Cards[0].Question)
	})

	t.Run("missing row is nil, nil", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, title, topic, cards, created_at, updated_at FROM quizzes WHERE id = \\?").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "topic", "cards", "created_at", "updated_at"}))

		quiz, err := adapter.GetQuizByID(context.Background(), 99)

		assert.NoError(t, err)
		assert.Nil(t, quiz)
	})

	t.Run("corrupt cards column", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "title", "topic", "cards", "created_at", "updated_at"}).
			AddRow(8, "Broken Quiz", "Broken", "{not json", now, now)
		mock.ExpectQuery("SELECT id, title, topic, cards, created_at, updated_at FROM quizzes WHERE id = \\?").
			WithArgs(int64(8)).
			WillReturnRows(rows)

		quiz, err := adapter.GetQuizByID(context.Background(), 8)

		assert.Nil(t, quiz)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllQuizzes(t *testing.T) {
	db, mock := newMockDB(t)
	adapter := NewQuizDatabaseAdapter(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "title", "topic", "cards", "created_at", "updated_at"}).
		AddRow(1, "Geography Quiz", "Geography", mustJSON(t, sampleCards()), now, now).
		AddRow(2, "History Quiz", "History", mustJSON(t, sampleCards()), now, now)
	mock.ExpectQuery("SELECT id, title, topic, cards, created_at, updated_at FROM quizzes").
		WillReturnRows(rows)

	quizzes, err := adapter.GetAllQuizzes(context.Background())

	require.NoError(t, err)
	require.Len(t, quizzes, 2)
	assert.Equal(t, "Geography Quiz", quizzes[0].Title)
	assert.Equal(t, "History Quiz", quizzes[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteQuiz(t *testing.T) {
	t.Run("deletes quiz and its results in one transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		adapter := NewQuizDatabaseAdapter(db)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM quizzes WHERE id = \\?").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM quiz_results WHERE quiz_id = \\?").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		err := adapter.DeleteQuiz(context.Background(), 7)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the second delete fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		adapter := NewQuizDatabaseAdapter(db)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM quizzes WHERE id = \\?").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM quiz_results WHERE quiz_id = \\?").
			WithArgs(int64(7)).
			WillReturnError(errors.New("database is locked"))
		mock.ExpectRollback()

		err := adapter.DeleteQuiz(context.Background(), 7)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete results")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
