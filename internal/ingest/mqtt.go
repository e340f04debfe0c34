// v0
// internal/ingest/mqtt.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig describes the smart-bin broker subscription.
type MQTTConfig struct {
	Broker         string
	Topic          string
	ClientID       string
	QoS            byte
	ConnectTimeout time.Duration
}

// MQTTSubscriber logs scans published by smart bins.
type MQTTSubscriber struct {
	cfg  MQTTConfig
	proc *Processor
	log  *slog.Logger
}

// NewMQTTSubscriber builds a client for cfg without connecting it.
func NewMQTTSubscriber(cfg MQTTConfig, proc *Processor, log *slog.Logger) (*MQTTSubscriber, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, errors.New("mqtt broker must not be empty")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("mqtt topic must not be empty")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "ecosort-ingest"
	}
	if cfg.QoS > 2 {
		cfg.QoS = 1
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &MQTTSubscriber{cfg: cfg, proc: proc, log: log.With(slog.String("component", "mqtt-subscriber"))}, nil
}

// Run connects, subscribes on every (re)connect and blocks until ctx ends.
func (s *MQTTSubscriber) Run(ctx context.Context) error {
	handler := s.onMessage(ctx)
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.log.Warn("mqtt_connection_lost", slog.Any("err", err))
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			tok := c.Subscribe(s.cfg.Topic, s.cfg.QoS, handler)
			if !tok.WaitTimeout(s.cfg.ConnectTimeout) || tok.Error() != nil {
				s.log.Error("mqtt_subscribe_failed", slog.String("topic", s.cfg.Topic), slog.Any("err", tok.Error()))
				return
			}
			s.log.Info("mqtt_subscribed", slog.String("topic", s.cfg.Topic), slog.Int("qos", int(s.cfg.QoS)))
		})

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(s.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt connect %s: timed out after %s", s.cfg.Broker, s.cfg.ConnectTimeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", s.cfg.Broker, err)
	}
	s.log.Info("mqtt_subscriber_started", slog.String("broker", s.cfg.Broker))

	<-ctx.Done()
	client.Disconnect(250)
	s.log.Info("mqtt_subscriber_stopped")
	return nil
}

func (s *MQTTSubscriber) onMessage(ctx context.Context) mqtt.MessageHandler {
	return func(_ mqtt.Client, m mqtt.Message) {
		result := s.proc.Handle(ctx, m.Payload())
		s.log.Debug("mqtt_message_handled", slog.String("topic", m.Topic()), slog.String("result", result))
	}
}
