package dto

import (
	"tichmi/internal/domain"
	"time"
)

// ErrorResponse is the minimal error body for handler-level failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DocumentPayloadResponse is the encoded document returned by the upload
// endpoint, ready to be passed back on a generation request.
type DocumentPayloadResponse struct {
	Payload  string `json:"payload"`
	MIMEType string `json:"mimeType"`
}

// GenerateQuizRequest asks for a quiz on a topic, optionally grounded on a
// previously uploaded document payload.
type GenerateQuizRequest struct {
	Topic    string                  `json:"topic"`
	Document *domain.DocumentPayload `json:"document,omitempty"`
}

// QuizResponse is a persisted quiz as returned by the API.
type QuizResponse struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Topic     string        `json:"topic"`
	Cards     []domain.Card `json:"cards"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// QuizListResponse wraps the quiz collection.
type QuizListResponse struct {
	Quizzes []QuizResponse `json:"quizzes"`
}

// SaveQuizResultRequest records one completed attempt.
type SaveQuizResultRequest struct {
	Score          int                 `json:"score"`
	TotalQuestions int                 `json:"totalQuestions"`
	Answers        []domain.UserAnswer `json:"answers"`
}

// QuizResultResponse is a persisted result row.
type QuizResultResponse struct {
	ID             int64               `json:"id"`
	QuizID         int64               `json:"quizId"`
	Score          int                 `json:"score"`
	TotalQuestions int                 `json:"totalQuestions"`
	Answers        []domain.UserAnswer `json:"answers"`
	CompletedAt    time.Time           `json:"completedAt"`
}

// QuizResultListResponse wraps the result rows of one quiz.
type QuizResultListResponse struct {
	Results []QuizResultResponse `json:"results"`
}

// QuizWithResultsResponse pairs a quiz with its recorded attempts.
type QuizWithResultsResponse struct {
	Quiz    QuizResponse         `json:"quiz"`
	Results []QuizResultResponse `json:"results"`
}

// NewQuizResponse converts a domain quiz to its API shape.
func NewQuizResponse(q *domain.Quiz) QuizResponse {
	return QuizResponse{
		ID:        q.ID,
		Title:     q.Title,
		Topic:     q.Topic,
		Cards:     q.Cards,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}

// NewQuizResultResponse converts a domain result to its API shape.
func NewQuizResultResponse(r *domain.QuizResult) QuizResultResponse {
	return QuizResultResponse{
		ID:             r.ID,
		QuizID:         r.QuizID,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		Answers:        r.Answers,
		CompletedAt:    r.CompletedAt,
	}
}
