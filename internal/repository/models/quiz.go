package models

import "time"

// Quiz is the database row shape for the quizzes table. Cards holds the
// card set serialized as JSON text.
type Quiz struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Topic     string    `db:"topic"`
	Cards     string    `db:"cards"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// QuizResult is the database row shape for the quiz_results table. Answers
// holds the recorded selections serialized as JSON text.
type QuizResult struct {
	ID             int64     `db:"id"`
	QuizID         int64     `db:"quiz_id"`
	Score          int       `db:"score"`
	TotalQuestions int       `db:"total_questions"`
	Answers        string    `db:"answers"`
	CompletedAt    time.Time `db:"completed_at"`
}
