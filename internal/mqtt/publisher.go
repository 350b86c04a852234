package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"ElephantWatchAPI/internal/config"
	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/models"
	"ElephantWatchAPI/internal/simulation"
)

type jsonPublisher interface {
	PublishJSON(topic string, data interface{}) error
}

// Publisher fans simulation state and alerts out to the broker.
type Publisher struct {
	client jsonPublisher
	cfg    *config.MQTTConfig
	log    *logger.Logger
}

func NewPublisher(client jsonPublisher, cfg *config.MQTTConfig, log *logger.Logger) *Publisher {
	return &Publisher{client: client, cfg: cfg, log: log}
}

func (p *Publisher) ScenarioTriggered(_ context.Context, ev simulation.Event) {
	if !ev.Known {
		return
	}
	if err := p.client.PublishJSON(p.cfg.StateTopic, ev.Snapshot); err != nil {
		p.log.Warn("Failed to publish state: %v", err)
	}
}

func (p *Publisher) AlertDispatched(_ context.Context, alert *models.Alert) {
	if err := p.client.PublishJSON(p.cfg.AlertTopic, alert); err != nil {
		p.log.Warn("Failed to publish alert %s: %v", alert.ID, err)
	}
}

// ScenarioTrigger is the part of the simulation store driven by remote commands.
type ScenarioTrigger interface {
	TriggerScenario(ctx context.Context, mode models.ScenarioMode, caller *models.Position) models.SimulationSnapshot
}

// ScenarioCommandHandler applies {"mode": ..., "userLat": ..., "userLng": ...}
// payloads published by field consoles.
func ScenarioCommandHandler(store ScenarioTrigger, log *logger.Logger) MessageHandler {
	return func(topic string, payload []byte) error {
		var cmd models.TriggerScenarioRequest
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("invalid scenario command on %s: %w", topic, err)
		}
		if cmd.Mode == "" {
			return fmt.Errorf("scenario command on %s has no mode", topic)
		}

		log.Info("Remote scenario command: %s", cmd.Mode)
		store.TriggerScenario(context.Background(), cmd.Mode, cmd.Caller())
		return nil
	}
}
