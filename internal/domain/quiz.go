package domain

import (
	"fmt"
	"time"
)

const (
	// MinAnswersPerCard and MaxAnswersPerCard bound the answer set of a card.
	MinAnswersPerCard = 3
	MaxAnswersPerCard = 5
)

// Quiz is a generated quiz as persisted in the store. ID and timestamps are
// assigned by the persistence gateway on creation; a quiz is never partially
// written and is read-only afterwards except for deletion.
type Quiz struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Topic     string    `json:"topic"`
	Cards     []Card    `json:"cards"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Card is one quiz question with its possible answers.
type Card struct {
	CardID   int      `json:"cardId"`
	Question string   `json:"question"`
	Answers  []Answer `json:"answers"`
}

// Answer is one selectable option on a card. The hint is shown before the
// user commits to a selection, the explanation after.
type Answer struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	IsCorrect   bool   `json:"isCorrect"`
	Hint        string `json:"hint"`
	Explanation string `json:"explanation"`
}

// QuizResult records one completed attempt at a quiz. It is created once and
// never mutated.
type QuizResult struct {
	ID             int64        `json:"id"`
	QuizID         int64        `json:"quizId"`
	Score          int          `json:"score"`
	TotalQuestions int          `json:"totalQuestions"`
	Answers        []UserAnswer `json:"answers"`
	CompletedAt    time.Time    `json:"completedAt"`
}

// UserAnswer records the selection made for one card. IsCorrect is computed
// at submission time and stored as-is; it is not re-derived later.
type UserAnswer struct {
	CardID           int    `json:"cardId"`
	SelectedAnswerID string `json:"selectedAnswerId"`
	IsCorrect        bool   `json:"isCorrect"`
}

// NewQuiz builds an unsaved quiz around a generated card set. The title is
// always derived from the topic.
func NewQuiz(topic string, cards []Card) *Quiz {
	return &Quiz{
		Title: topic + " Quiz",
		Topic: topic,
		Cards: cards,
	}
}

// Validate checks the quiz against the documented shape before it is allowed
// anywhere near the store. Generated output is parsed then validated; a
// malformed card set is rejected here rather than trusted implicitly.
func (q *Quiz) Validate() error {
	if q.Topic == "" {
		return NewValidationFailure("topic is required")
	}
	if q.Title == "" {
		return NewValidationFailure("title is required")
	}
	if len(q.Cards) == 0 {
		return NewValidationFailure("quiz must contain at least one card")
	}
	for i, card := range q.Cards {
		if card.CardID != i+1 {
			return NewValidationFailure(fmt.Sprintf("card %d: cardId must be sequential starting at 1, got %d", i+1, card.CardID))
		}
		if err := card.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single card: question text present, 3-5 answers, exactly
// one marked correct, ids unique within the card, hint and explanation on
// every answer.
func (c *Card) Validate() error {
	if c.Question == "" {
		return NewValidationFailure(fmt.Sprintf("card %d: question is required", c.CardID))
	}
	if len(c.Answers) < MinAnswersPerCard || len(c.Answers) > MaxAnswersPerCard {
		return NewValidationFailure(fmt.Sprintf("card %d: expected %d-%d answers, got %d",
			c.CardID, MinAnswersPerCard, MaxAnswersPerCard, len(c.Answers)))
	}
	correct := 0
	seen := make(map[string]struct{}, len(c.Answers))
	for _, a := range c.Answers {
		if a.ID == "" {
			return NewValidationFailure(fmt.Sprintf("card %d: answer id is required", c.CardID))
		}
		if _, dup := seen[a.ID]; dup {
			return NewValidationFailure(fmt.Sprintf("card %d: duplicate answer id %q", c.CardID, a.ID))
		}
		seen[a.ID] = struct{}{}
		if a.Text == "" {
			return NewValidationFailure(fmt.Sprintf("card %d: answer %q has no text", c.CardID, a.ID))
		}
		if a.Hint == "" || a.Explanation == "" {
			return NewValidationFailure(fmt.Sprintf("card %d: answer %q must carry both a hint and an explanation", c.CardID, a.ID))
		}
		if a.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return NewValidationFailure(fmt.Sprintf("card %d: expected exactly one correct answer, got %d", c.CardID, correct))
	}
	return nil
}

// NewQuizResult builds an unsaved result row for a completed attempt.
func NewQuizResult(quizID int64, score, totalQuestions int, answers []UserAnswer) *QuizResult {
	return &QuizResult{
		QuizID:         quizID,
		Score:          score,
		TotalQuestions: totalQuestions,
		Answers:        answers,
	}
}

// Validate checks the result against its invariants: score within
// [0, totalQuestions] and one recorded answer per question.
func (r *QuizResult) Validate() error {
	if r.QuizID == 0 {
		return NewValidationFailure("quiz id is required")
	}
	if r.TotalQuestions <= 0 {
		return NewValidationFailure("total questions must be positive")
	}
	if r.Score < 0 || r.Score > r.TotalQuestions {
		return NewValidationFailure(fmt.Sprintf("score %d out of range [0, %d]", r.Score, r.TotalQuestions))
	}
	if len(r.Answers) == 0 {
		return NewValidationFailure("at least one answer is required")
	}
	for _, a := range r.Answers {
		if a.CardID <= 0 {
			return NewValidationFailure("answer references an invalid card id")
		}
		if a.SelectedAnswerID == "" {
			return NewValidationFailure(fmt.Sprintf("card %d: selected answer id is required", a.CardID))
		}
	}
	return nil
}
