package service

import (
	"context"
	"errors"
	"fmt"

	"ElephantWatchAPI/internal/ai"
	"ElephantWatchAPI/internal/geo"
	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/mirror"
	"ElephantWatchAPI/internal/models"
)

var ErrChatUnavailable = errors.New("voice assistant is not configured")

// ChatRecorder counts relay outcomes.
type ChatRecorder interface {
	ChatRelayed(outcome string)
}

type ChatService struct {
	mirror    mirror.Store
	generator ai.Generator
	recorder  ChatRecorder
	log       *logger.Logger
}

func NewChatService(m mirror.Store, gen ai.Generator, rec ChatRecorder, log *logger.Logger) *ChatService {
	return &ChatService{mirror: m, generator: gen, recorder: rec, log: log}
}

// Ask relays one recorded question with the current subject position as context.
func (s *ChatService) Ask(ctx context.Context, user models.Position, audio ai.Audio) (*models.ChatVoiceResponse, error) {
	if s.generator == nil {
		return nil, ErrChatUnavailable
	}

	state, err := s.mirror.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror: %w", err)
	}

	prompt := ai.BuildPrompt(ai.PromptContext{
		Subject:    state.Pos,
		User:       user,
		DistanceKm: geo.DistanceKm(user, state.Pos),
	})

	text, err := s.generator.Generate(ctx, prompt, audio)
	if err != nil {
		s.record("error")
		return nil, err
	}
	s.record("ok")

	reply, query := ai.ParseReply(text)
	s.log.Debug("Voice relay answered %q", query)
	return &models.ChatVoiceResponse{ReplyText: reply, UserText: query}, nil
}

func (s *ChatService) record(outcome string) {
	if s.recorder != nil {
		s.recorder.ChatRelayed(outcome)
	}
}
