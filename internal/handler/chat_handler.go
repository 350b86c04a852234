package handler

import (
	"errors"
	"io"
	"net/http"

	"ElephantWatchAPI/internal/ai"
	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"
	"ElephantWatchAPI/internal/service"

	"github.com/gorilla/mux"
)

type ChatHandler struct {
	chatService *service.ChatService
	maxUpload   int64
	log         *logger.Logger
}

func NewChatHandler(chatService *service.ChatService, maxUpload int64, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		maxUpload:   maxUpload,
		log:         log,
	}
}

func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat-voice", h.ChatVoice).Methods("POST")
}

// ChatVoice takes multipart {audio, lat, lng}. Unparseable coordinates count as 0.
func (h *ChatHandler) ChatVoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.log.Warn("Invalid chat upload: %v", err)
		respondError(w, http.StatusBadRequest, "No audio provided")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No audio provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error("Failed to read audio: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user := models.Position{Lat: formFloat(r, "lat"), Lng: formFloat(r, "lng")}
	audio := ai.Audio{MIMEType: header.Header.Get("Content-Type"), Data: data}

	resp, err := h.chatService.Ask(r.Context(), user, audio)
	if errors.Is(err, service.ErrChatUnavailable) {
		h.log.Warn("Chat requested without a configured model")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err != nil {
		h.log.Error("AI Assistant Error: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
