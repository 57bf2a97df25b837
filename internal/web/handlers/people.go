package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/kozaktomas/names-to-faces/internal/app"
	"github.com/kozaktomas/names-to-faces/internal/constants"
	"github.com/kozaktomas/names-to-faces/internal/person"
)

// PeopleHandler handles the people list endpoints.
type PeopleHandler struct {
	app    *app.App
	runner Runner
	logger *slog.Logger
}

// NewPeopleHandler creates a new people handler.
func NewPeopleHandler(a *app.App, runner Runner, logger *slog.Logger) *PeopleHandler {
	return &PeopleHandler{
		app:    a,
		runner: runner,
		logger: logger,
	}
}

// PersonResponse is a person with its position in the list.
type PersonResponse struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	ImageURL string `json:"image_url"`
}

func toPersonResponse(i int, p person.Person) PersonResponse {
	return PersonResponse{
		Index:    i,
		Name:     p.Name,
		Image:    p.ImageRef,
		ImageURL: fmt.Sprintf("/api/v1/people/%d/image", i),
	}
}

// PeopleResponse is the whole list.
type PeopleResponse struct {
	People []PersonResponse `json:"people"`
	Count  int              `json:"count"`
}

// List returns the people list. The optional q parameter keeps only people
// whose name matches, ignoring case and diacritics.
func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var people []person.Person
	var matches []int
	var listErr error
	if err := h.runner.Do(r.Context(), func() {
		if matches, listErr = h.app.Find(query); listErr == nil {
			people = h.app.People()
		}
	}); err != nil {
		respondAppError(w, err)
		return
	}
	if listErr != nil {
		respondAppError(w, listErr)
		return
	}

	resp := PeopleResponse{People: make([]PersonResponse, 0, len(matches))}
	for _, i := range matches {
		resp.People = append(resp.People, toPersonResponse(i, people[i]))
	}
	resp.Count = len(resp.People)
	respondJSON(w, http.StatusOK, resp)
}

// Create adds a person from the multipart "image" field.
func (h *PeopleHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	var added person.Person
	var index int
	var captureErr error
	if err := h.runner.Do(r.Context(), func() {
		added, captureErr = h.app.OnCapture(r.Context(), data)
		index = len(h.app.People()) - 1
	}); err != nil {
		respondAppError(w, err)
		return
	}
	if captureErr != nil {
		h.logger.Info("capture rejected", "filename", sanitizeForLog(header.Filename), "error", captureErr)
		respondAppError(w, captureErr)
		return
	}

	respondJSON(w, http.StatusCreated, toPersonResponse(index, added))
}

type renameRequest struct {
	Name *string `json:"name"`
}

// Rename changes the name of the person at {index}.
func (h *PeopleHandler) Rename(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid index")
		return
	}
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == nil {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	var renamed person.Person
	var renameErr error
	if err := h.runner.Do(r.Context(), func() {
		if renameErr = h.app.OnRename(r.Context(), index, *req.Name); renameErr == nil {
			renamed = h.app.People()[index]
		}
	}); err != nil {
		respondAppError(w, err)
		return
	}
	if renameErr != nil {
		respondAppError(w, renameErr)
		return
	}

	respondJSON(w, http.StatusOK, toPersonResponse(index, renamed))
}

// Delete removes the person at {index}.
func (h *PeopleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid index")
		return
	}

	var deleteErr error
	if err := h.runner.Do(r.Context(), func() { deleteErr = h.app.OnDelete(r.Context(), index) }); err != nil {
		respondAppError(w, err)
		return
	}
	if deleteErr != nil {
		respondAppError(w, deleteErr)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Image serves the JPEG of the person at {index}, or a placeholder.
func (h *PeopleHandler) Image(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid index")
		return
	}

	var data []byte
	var imageErr error
	if err := h.runner.Do(r.Context(), func() { data, imageErr = h.app.Image(r.Context(), index) }); err != nil {
		respondAppError(w, err)
		return
	}
	if imageErr != nil {
		respondAppError(w, imageErr)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
