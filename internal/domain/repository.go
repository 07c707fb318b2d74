package domain

import "context"

// QuizRepository is the persistence gateway for quizzes. Identity and
// timestamps are assigned at insert time; GetQuizByID returns (nil, nil)
// when no row matches.
type QuizRepository interface {
	// CreateQuiz inserts one row atomically and fills in the assigned ID
	// and timestamps on the passed quiz.
	CreateQuiz(ctx context.Context, quiz *Quiz) error

	GetAllQuizzes(ctx context.Context) ([]*Quiz, error)
	GetQuizByID(ctx context.Context, id int64) (*Quiz, error)

	// DeleteQuiz removes the quiz row and every result row referencing it
	// in a single transaction.
	DeleteQuiz(ctx context.Context, id int64) error
}

// QuizResultRepository persists completed attempts. Result rows are
// insert-only; GetQuizResults returns rows in store order (effectively
// insertion order).
type QuizResultRepository interface {
	SaveQuizResult(ctx context.Context, result *QuizResult) error
	GetQuizResults(ctx context.Context, quizID int64) ([]*QuizResult, error)
}
