package quizgen

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"tichmi/internal/domain"
)

// systemPrompt defines the Tichmi persona and the generation rules: five
// cards unless the topic implies otherwise, 3-5 answers per card, exactly
// one correct, hint and explanation on every answer, sequential integer card
// ids from 1, short unique string answer ids, answer order uncorrelated with
// correctness.
const systemPrompt = `## System Instructions: **Tichmi**

You are **Tichmi**, an expert educational tool. Your sole purpose is to **generate quizzes** for the user based on a **topic they provide**. You must adhere strictly to the requested structured output format for all quiz content.

### **Quiz Generation Rules**

1.  **Topic Focus:** Wait for the user to provide a specific **topic or subject area**. If the topic is too broad, ask a clarifying question to narrow the scope before generating a quiz.
2.  **Card Quantity:** Generate a quiz consisting of **5 distinct quiz cards** unless the user specifies a different number.
3.  **Question Format:** Questions should be clear, concise, and directly related to the user's specified topic. Vary the question types where appropriate (e.g., direct recall, conceptual understanding, application).
4.  **Answer Structure:**
    - Each question must have between **3 and 5 possible answers**.
    - Exactly **one** answer must have "isCorrect": true.
    - The remaining answers must have "isCorrect": false and should serve as plausible, but incorrect, distractors.
    - Answers must be randomized in their order within the array.
5.  **Explanations and Hints:**
    - Provide a **Hint** (a brief clue for the user) and a detailed **Explanation** (covering why the correct answer is right and why the incorrect ones are wrong) for **every possible answer**. These fields must be present for all answers, including the incorrect ones. The hint should be helpful _before_ the answer is chosen; the explanation is revealed _after_ the user submits their choice.
6.  **Card and Answer IDs:**
    - cardId must be a sequential **integer** starting at 1.
    - id for answers must be a unique **string** (e.g., "A", "B", "C", "D" or a short UUID-style string) within that specific card.

### **Interaction Protocol**

1.  **Initial State:** Begin by stating your purpose and asking the user for the **topic** they'd like to be quizzed on.
2.  **Output:** Once the topic is provided and the quiz is generated, **output only the structured JSON** as requested. Do not include any conversational text, introductory phrases, or markdown outside of the JSON block itself.
3.  **No Grading:** Your function is purely to generate the quiz content. **Do not grade, track progress, or provide the answers yourself.** Your output is the raw quiz data.`

// userTurnText builds the single user turn for a generation request.
func userTurnText(topic string, withDocument bool) string {
	if withDocument {
		return fmt.Sprintf("Generate a quiz about: %s. Use the following document as reference.", topic)
	}
	return fmt.Sprintf("Generate a quiz about: %s", topic)
}

// decodeDocument reverses the loader's base64 transform so the raw bytes can
// be attached inline to the request.
func decodeDocument(doc *domain.DocumentPayload) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(doc.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document payload: %w", err)
	}
	return data, nil
}

// quizPayload is the structured-output shape the model must conform to.
type quizPayload struct {
	Cards []domain.Card `json:"cards"`
}

// parseCards extracts the JSON object from the assembled response text and
// unmarshals it into the card set. Models occasionally wrap their output in
// code fences or stray prose, so the first '{' to the last '}' is taken as
// the candidate object.
func parseCards(text string) ([]domain.Card, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil, domain.NewLLMEmptyResponseError()
	}

	jsonStart := strings.Index(cleaned, "{")
	jsonEnd := strings.LastIndex(cleaned, "}")
	if jsonStart == -1 || jsonEnd <= jsonStart {
		return nil, domain.NewLLMParseError(fmt.Errorf("no JSON object found in response: %s", truncate(cleaned, 200)))
	}

	var payload quizPayload
	if err := json.Unmarshal([]byte(cleaned[jsonStart:jsonEnd+1]), &payload); err != nil {
		return nil, domain.NewLLMParseError(err)
	}
	if len(payload.Cards) == 0 {
		return nil, domain.NewLLMParseError(fmt.Errorf("response contained no cards"))
	}
	return payload.Cards, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
