package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/slidecraft-project/slidecraft/analysis"
	"github.com/slidecraft-project/slidecraft/assemble"
	"github.com/slidecraft-project/slidecraft/deck"
	"github.com/slidecraft-project/slidecraft/llm"
	"github.com/slidecraft-project/slidecraft/storage"
)

// maxPageUploadBytes bounds uploaded page rasters. Vision providers cap
// images at 20MB, so larger uploads could never be analyzed anyway.
const maxPageUploadBytes = 20 * 1024 * 1024

type server struct {
	store      storage.Store
	service    *deck.Service
	pages      deck.PageSource
	analyzer   llm.Analyzer
	assembler  *assemble.Assembler
	usage      llm.Publisher
	rates      *llm.CachedRateProvider
	generation *deck.Generation
	exportDir  string
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/exchange-rate", s.handleExchangeRate)
	mux.HandleFunc("/api/projects", s.handleProjects)
	mux.HandleFunc("/api/projects/", s.handleProjectSubtree)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleExchangeRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.rates == nil {
		writeJSON(w, http.StatusOK, map[string]float64{"rate": 1.0})
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"rate": s.rates.Resolve(r.Context())})
}

func (s *server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		projects, err := s.service.ListProjects(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, projects)
	case http.MethodPost:
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
			http.Error(w, "a project name is required", http.StatusBadRequest)
			return
		}
		project, err := s.service.CreateProject(r.Context(), body.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, project)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleProjectSubtree routes everything under /api/projects/{id}/...
func (s *server) handleProjectSubtree(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/projects/"), "/"), "/")
	projectID := parts[0]
	if projectID == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteProject(r.Context(), projectID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case len(parts) == 2 && parts[1] == "export" && r.Method == http.MethodPost:
		s.handleExportDeck(w, r, projectID)
	case len(parts) == 3 && parts[1] == "pages" && r.Method == http.MethodPost:
		s.handleUploadPage(w, r, projectID, parts[2])
	case len(parts) == 4 && parts[1] == "slides":
		s.handleSlideAction(w, r, projectID, parts[2], parts[3])
	default:
		http.NotFound(w, r)
	}
}

func (s *server) handleUploadPage(w http.ResponseWriter, r *http.Request, projectID, pageStr string) {
	pageIndex, ok := parsePageIndex(w, pageStr)
	if !ok {
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "a multipart 'image' file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxPageUploadBytes+1))
	if err != nil {
		writeError(w, err)
		return
	}
	if len(data) > maxPageUploadBytes {
		http.Error(w, "page image exceeds the 20MB limit", http.StatusRequestEntityTooLarge)
		return
	}
	if err := s.store.Write(r.Context(), deck.PagePath(projectID, pageIndex), data); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSlideAction(w http.ResponseWriter, r *http.Request, projectID, pageStr, action string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pageIndex, ok := parsePageIndex(w, pageStr)
	if !ok {
		return
	}

	switch action {
	case "analyze":
		result, err := s.exporter().Analyze(r.Context(), projectID, pageIndex)
		if err != nil {
			writeModelError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	case "generate":
		var body struct {
			Instruction string `json:"instruction"`
			Count       int    `json:"count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		candidates, err := s.generation.Generate(r.Context(), deck.GenerateParams{
			ProjectID:   projectID,
			PageIndex:   pageIndex,
			Instruction: body.Instruction,
			Count:       body.Count,
		})
		if errors.Is(err, deck.ErrEmptyInstruction) {
			http.Error(w, "an instruction is required", http.StatusBadRequest)
			return
		}
		if err != nil {
			writeModelError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, candidates)
	case "select":
		var body struct {
			CandidateID string `json:"candidateId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.service.SelectCandidate(r.Context(), projectID, pageIndex, body.CandidateID); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "export":
		var body struct {
			DeckName string `json:"deckName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeckName == "" {
			http.Error(w, "a deckName is required", http.StatusBadRequest)
			return
		}
		path, err := s.exporter().ExportSlide(r.Context(), projectID, body.DeckName, pageIndex, s.exportDir)
		if err != nil {
			writeModelError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"path": path})
	default:
		http.NotFound(w, r)
	}
}

func (s *server) handleExportDeck(w http.ResponseWriter, r *http.Request, projectID string) {
	var body struct {
		DeckName         string `json:"deckName"`
		PageCount        int    `json:"pageCount"`
		SkipFailedSlides bool   `json:"skipFailedSlides"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeckName == "" || body.PageCount < 1 {
		http.Error(w, "deckName and a positive pageCount are required", http.StatusBadRequest)
		return
	}
	exporter := s.exporter()
	exporter.SkipFailedSlides = body.SkipFailedSlides
	path, err := exporter.ExportDeck(r.Context(), projectID, body.DeckName, body.PageCount, s.exportDir)
	if err != nil {
		writeModelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// exporter builds a fresh Exporter per request so per-request options like
// SkipFailedSlides never leak between requests.
func (s *server) exporter() *deck.Exporter {
	return &deck.Exporter{
		Analyzer:  s.analyzer,
		Assembler: s.assembler,
		Pages:     s.pages,
		Usage:     s.usage,
	}
}

func parsePageIndex(w http.ResponseWriter, s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		http.Error(w, "page index must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	log.Printf("Request failed: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// writeModelError maps pipeline failures to user-facing messages. Schema
// violations get their field paths; provider errors get their category's
// safe message.
func writeModelError(w http.ResponseWriter, err error) {
	var schemaErr *analysis.SchemaError
	if errors.As(err, &schemaErr) {
		http.Error(w, "the model returned an unusable slide description: "+schemaErr.Error(), http.StatusBadGateway)
		return
	}
	category := llm.Classify(err)
	status := http.StatusInternalServerError
	switch category {
	case llm.CategoryInvalidCredential, llm.CategoryNetwork:
		status = http.StatusBadGateway
	case llm.CategoryRateLimited:
		status = http.StatusTooManyRequests
	case llm.CategoryCancelled:
		status = http.StatusRequestTimeout
	}
	log.Printf("Model request failed (%s): %v", category, err)
	http.Error(w, category.UserMessage(), status)
}
