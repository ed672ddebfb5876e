package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/abhisek/borderdrill/internal/catalog"
	"github.com/abhisek/borderdrill/internal/evaluation"
	"github.com/abhisek/borderdrill/internal/logger"
	"github.com/abhisek/borderdrill/internal/questiongen"
)

const maxBodyBytes = 64 << 10

type apiHandler struct {
	gen  questiongen.Generator
	eval evaluation.Evaluator
	log  *logger.Logger
}

// GenerateQuestionRequest is the body of POST /api/generate-question.
type GenerateQuestionRequest struct {
	PreviousQuestions []string `json:"previousQuestions"`
	UsedTemplateIDs   []int    `json:"usedTemplateIds"`
	Persona           string   `json:"persona"`
}

// EvaluateAnswerRequest is the body of POST /api/evaluate-answer.
type EvaluateAnswerRequest struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
}

// CatalogResponse lists the fixed templates and personas.
type CatalogResponse struct {
	Templates []catalog.QuestionTemplate `json:"templates"`
	Personas  []catalog.Persona          `json:"personas"`
}

// GenerateQuestion handles POST /api/generate-question
func (h *apiHandler) GenerateQuestion(w http.ResponseWriter, r *http.Request) {
	var req GenerateQuestionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := questiongen.NextInput{
		UsedTemplateIDs:   make(map[int]bool, len(req.UsedTemplateIDs)),
		PreviousQuestions: req.PreviousQuestions,
	}
	for _, id := range req.UsedTemplateIDs {
		in.UsedTemplateIDs[id] = true
	}
	if req.Persona != "" {
		p, ok := catalog.PersonaByID(req.Persona)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown persona: "+req.Persona)
			return
		}
		in.Persona = &p
	}

	q, err := h.gen.Next(r.Context(), in)
	switch {
	case errors.Is(err, questiongen.ErrNoQuestionsAvailable):
		writeError(w, http.StatusConflict, "no questions available")
		return
	case err != nil:
		h.log.Warn("question generation failed", "error", err)
		writeError(w, http.StatusBadGateway, "Failed to generate question")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// EvaluateAnswer handles POST /api/evaluate-answer
func (h *apiHandler) EvaluateAnswer(w http.ResponseWriter, r *http.Request) {
	var req EvaluateAnswerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		writeError(w, http.StatusBadRequest, "question and answer are required")
		return
	}

	res := h.eval.Evaluate(r.Context(), evaluation.Input{
		Question: req.Question,
		Answer:   req.Answer,
		Keywords: req.Keywords,
	})
	writeJSON(w, http.StatusOK, res)
}

// Catalog handles GET /api/catalog
func (h *apiHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CatalogResponse{
		Templates: catalog.Templates(),
		Personas:  catalog.Personas(),
	})
}

// decodeBody reads a JSON body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
