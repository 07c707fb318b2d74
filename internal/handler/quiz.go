package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"tichmi/internal/dto"
	"tichmi/internal/logger"
	"tichmi/internal/service"
	"tichmi/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// QuizHandler handles quiz-related HTTP requests.
type QuizHandler struct {
	service   service.QuizService
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance.
func NewQuizHandler(svc service.QuizService, validator *validation.Validator) *QuizHandler {
	return &QuizHandler{service: svc, validator: validator}
}

// GenerateQuiz godoc
// @Summary Generate and persist a quiz
// @Description Generates a quiz for the given topic, optionally grounded on an uploaded document payload, validates it and stores it
// @Tags quizzes
// @Accept json
// @Produce json
// @Param request body dto.GenerateQuizRequest true "Generation request"
// @Success 201 {object} dto.QuizResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /quizzes/generate [post]
func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	var req dto.GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if errs := h.validator.ValidateGenerateQuizRequest(req.Topic, req.Document); len(errs) > 0 {
		return errs
	}

	quiz, err := h.service.GenerateQuiz(c.UserContext(), req.Topic, req.Document)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewQuizResponse(quiz))
}

// GenerateQuizStream godoc
// @Summary Generate a quiz, streaming the model output
// @Description Streams raw model text chunks as server-sent events, then emits the persisted quiz as a final "quiz" event
// @Tags quizzes
// @Accept json
// @Produce text/event-stream
// @Param request body dto.GenerateQuizRequest true "Generation request"
// @Success 200 {string} string "SSE stream"
// @Failure 400 {object} middleware.ErrorResponse
// @Router /quizzes/generate/stream [post]
func (h *QuizHandler) GenerateQuizStream(c *fiber.Ctx) error {
	var req dto.GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if errs := h.validator.ValidateGenerateQuizRequest(req.Topic, req.Document); len(errs) > 0 {
		return errs
	}

	// The request context dies with this handler, before the stream writer
	// runs, so the generation gets its own context.
	ctx := context.WithoutCancel(c.UserContext())

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sink := func(chunk string) {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			w.Flush()
		}

		quiz, err := h.service.GenerateQuizStream(ctx, req.Topic, req.Document, sink)
		if err != nil {
			logger.Get().Error("Streaming generation failed",
				zap.Error(err), zap.String("topic", req.Topic))
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", err.Error())
			w.Flush()
			return
		}

		resp := dto.NewQuizResponse(quiz)
		fmt.Fprintf(w, "event: quiz\ndata: ")
		writeJSON(w, resp)
		fmt.Fprintf(w, "\n\n")
		w.Flush()
	}))
	return nil
}

// GetAllQuizzes godoc
// @Summary List all quizzes
// @Tags quizzes
// @Produce json
// @Success 200 {object} dto.QuizListResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /quizzes [get]
func (h *QuizHandler) GetAllQuizzes(c *fiber.Ctx) error {
	quizzes, err := h.service.GetAllQuizzes(c.UserContext())
	if err != nil {
		return err
	}

	resp := dto.QuizListResponse{Quizzes: make([]dto.QuizResponse, 0, len(quizzes))}
	for _, q := range quizzes {
		resp.Quizzes = append(resp.Quizzes, dto.NewQuizResponse(q))
	}
	return c.JSON(resp)
}

// GetQuizByID godoc
// @Summary Get a quiz with its recorded attempts
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} dto.QuizWithResultsResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuizByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	quiz, results, err := h.service.GetQuizWithResults(c.UserContext(), id)
	if err != nil {
		return err
	}

	resp := dto.QuizWithResultsResponse{
		Quiz:    dto.NewQuizResponse(quiz),
		Results: make([]dto.QuizResultResponse, 0, len(results)),
	}
	for _, r := range results {
		resp.Results = append(resp.Results, dto.NewQuizResultResponse(r))
	}
	return c.JSON(resp)
}

// DeleteQuiz godoc
// @Summary Delete a quiz and all results referencing it
// @Tags quizzes
// @Param id path int true "Quiz ID"
// @Success 204 {string} string ""
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteQuiz(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SaveQuizResult godoc
// @Summary Record a completed quiz attempt
// @Tags results
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param request body dto.SaveQuizResultRequest true "Attempt result"
// @Success 201 {object} dto.QuizResultResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id}/results [post]
func (h *QuizHandler) SaveQuizResult(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.SaveQuizResultRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if errs := h.validator.ValidateSaveResultRequest(id, req.Score, req.TotalQuestions, len(req.Answers)); len(errs) > 0 {
		return errs
	}

	result, err := h.service.SaveQuizResult(c.UserContext(), id, req.Score, req.TotalQuestions, req.Answers)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewQuizResultResponse(result))
}

// GetQuizResults godoc
// @Summary List all recorded attempts for a quiz
// @Tags results
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} dto.QuizResultListResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /quizzes/{id}/results [get]
func (h *QuizHandler) GetQuizResults(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	results, err := h.service.GetQuizResults(c.UserContext(), id)
	if err != nil {
		return err
	}

	resp := dto.QuizResultListResponse{Results: make([]dto.QuizResultResponse, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, dto.NewQuizResultResponse(r))
	}
	return c.JSON(resp)
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

func writeJSON(w *bufio.Writer, v interface{}) {
	enc, err := json.Marshal(v)
	if err != nil {
		logger.Get().Error("Failed to encode stream payload", zap.Error(err))
		return
	}
	w.Write(enc)
}
