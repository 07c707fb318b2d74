package validation

import (
	"strings"
	"tichmi/internal/domain"
)

const maxTopicLength = 500

// Validator provides request validation functionality.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateGenerateQuizRequest validates a quiz generation request.
func (v *Validator) ValidateGenerateQuizRequest(topic string, doc *domain.DocumentPayload) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(topic) == "" {
		errors = append(errors, domain.NewMissingFieldError("topic"))
	} else if len(topic) > maxTopicLength {
		errors = append(errors, domain.NewOutOfRangeError("topic", len(topic), 1, maxTopicLength))
	}

	if doc != nil {
		if doc.Payload == "" {
			errors = append(errors, domain.NewMissingFieldError("document.payload"))
		}
		if doc.MIMEType == "" {
			errors = append(errors, domain.NewMissingFieldError("document.mimeType"))
		}
	}

	return errors
}

// ValidateSaveResultRequest validates a result submission before it reaches
// the service layer. The score bound against the referenced quiz's card
// count is checked there, where the quiz row is available.
func (v *Validator) ValidateSaveResultRequest(quizID int64, score, totalQuestions, answerCount int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if quizID <= 0 {
		errors = append(errors, domain.NewInvalidFormatError("quiz_id", "must be a positive integer"))
	}
	if totalQuestions <= 0 {
		errors = append(errors, domain.NewOutOfRangeError("totalQuestions", totalQuestions, 1, domain.MaxAnswersPerCard*100))
	} else if score < 0 || score > totalQuestions {
		errors = append(errors, domain.NewOutOfRangeError("score", score, 0, totalQuestions))
	}
	if answerCount == 0 {
		errors = append(errors, domain.NewMissingFieldError("answers"))
	}

	return errors
}
