package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/quadra-gg/quadra/middleware"
	"github.com/quadra-gg/quadra/services"
	"github.com/quadra-gg/quadra/storage"
)

const maxScreenshotSize = 10 << 20 // 10MB

type ResultHandler struct {
	resultService  services.ResultService
	disputeService services.DisputeService
	uploader       storage.FileUploader
}

func NewResultHandler(
	resultService services.ResultService,
	disputeService services.DisputeService,
	uploader storage.FileUploader,
) *ResultHandler {
	return &ResultHandler{
		resultService:  resultService,
		disputeService: disputeService,
		uploader:       uploader,
	}
}

// Submit — подача результата лидером команды. Результат создаётся
// неверифицированным и не влияет на статистику до решения админа.
func (h *ResultHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.SubmitResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.resultService.SubmitResult(r.Context(), input, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResultHandler) Verify(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	resultID, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.resultService.VerifyResult(r.Context(), resultID, adminID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// BulkSubmit — админская пакетная подача: все результаты создаются сразу
// верифицированными в одной транзакции, либо не создаётся ни один.
func (h *ResultHandler) BulkSubmit(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		Results []services.SubmitResultInput `json:"results"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.Results) == 0 {
		badRequestResponse(w, r, errors.New("results must not be empty"))
		return
	}

	results, err := h.resultService.BulkSubmit(r.Context(), input.Results, adminID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResultHandler) ListByMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := readIDParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	results, err := h.resultService.ListByMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadScreenshot принимает multipart-файл со скриншотом результата и
// возвращает публичный URL, который затем передаётся в Submit.
func (h *ResultHandler) UploadScreenshot(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxScreenshotSize); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("screenshot")
	if err != nil {
		badRequestResponse(w, r, errors.New("screenshot file is required"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		badRequestResponse(w, r, fmt.Errorf("unsupported screenshot format: %s", ext))
		return
	}

	key := fmt.Sprintf("screenshots/%d/%d%s", userID, time.Now().UnixNano(), ext)
	uploaded, err := h.uploader.Upload(r.Context(), key, contentType, file)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to upload screenshot: %w", err))
		return
	}

	response := jsonResponse{
		"key": uploaded.Key,
		"url": uploaded.Location,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResultHandler) FileDispute(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	resultID, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	dispute, err := h.disputeService.FileDispute(r.Context(), userID, resultID, input.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"dispute": dispute}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
