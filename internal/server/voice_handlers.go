package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/and161185/vpay/internal/errs"
	"github.com/and161185/vpay/internal/middleware"
	"github.com/and161185/vpay/internal/model"
	"github.com/and161185/vpay/internal/payment"
	"github.com/shopspring/decimal"
)

const maxAudioSize = 10 << 20

type commandResponse struct {
	Intent     model.Intent     `json:"intent"`
	State      payment.State    `json:"state"`
	OrderID    string           `json:"order_id,omitempty"`
	NewBalance *decimal.Decimal `json:"new_balance,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	Message    string           `json:"message"`
}

type audioResponse struct {
	Text   string       `json:"text"`
	Intent model.Intent `json:"intent"`
}

func decodeVoiceRequest(r *http.Request) (string, bool) {
	var req model.VoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", false
	}
	text := strings.TrimSpace(req.Text)
	return text, text != ""
}

func (s *Server) IntentHandler(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeVoiceRequest(r)
	if !ok {
		http.Error(w, "text required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, s.coordinator.ProcessTranscript(text))
}

// VoiceCommandHandler runs a transcript through the whole payment pipeline
// for the caller and answers with the terminal outcome.
func (s *Server) VoiceCommandHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	text, ok := decodeVoiceRequest(r)
	if !ok {
		http.Error(w, "text required", http.StatusBadRequest)
		return
	}

	in := s.coordinator.ProcessTranscript(text)
	out, err := s.coordinator.HandleIntent(r.Context(), in, user.Snapshot(), middleware.TokenFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, errs.ErrAttemptInProgress) {
			http.Error(w, "payment already in progress", http.StatusConflict)
			return
		}
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	resp := commandResponse{
		Intent:  out.Intent,
		State:   out.State,
		OrderID: out.Order.OrderID,
		Reason:  out.Notification.Reason,
		Message: out.Notification.Message,
	}
	if out.State == payment.Settled {
		resp.NewBalance = &out.NewBalance
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ProcessAudioHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioSize)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "audio too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "audio file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "read audio", http.StatusBadRequest)
		return
	}
	if len(audio) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	text, err := s.deps.Transcriber.Transcribe(r.Context(), audio)
	if err != nil {
		if errors.Is(err, errs.ErrTranscriptionFailed) {
			http.Error(w, "could not transcribe audio", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "transcription error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, audioResponse{Text: text, Intent: s.coordinator.ProcessTranscript(text)})
}
