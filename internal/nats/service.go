package nats

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/lightnode/internal/led"
)

// Service answers light requests on NATS by calling a led.Controller.
type Service struct {
	url    string
	lights led.Controller
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a responder for the light subjects.
func NewService(url string, lights led.Controller, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		url:    url,
		lights: lights,
		logger: logger.With("component", "nats-service"),
	}
}

// Start connects and subscribes to SubjectSetLight and SubjectTypes.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return errors.New("service already started")
	}

	conn, err := nats.Connect(s.url,
		nats.Name("lightnode-service"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				s.logger.Warn("NATS service disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			s.logger.Info("NATS service reconnected")
		}),
	)
	if err != nil {
		return err
	}
	s.conn = conn

	for subject, handler := range map[string]nats.MsgHandler{
		SubjectSetLight: s.handleSetLight,
		SubjectTypes:    s.handleTypes,
	} {
		sub, err := conn.QueueSubscribe(subject, QueueGroup, handler)
		if err != nil {
			s.cleanup()
			return err
		}
		s.subs = append(s.subs, sub)
	}

	// Make sure the subscriptions reached the server before callers send requests
	if err := conn.Flush(); err != nil {
		s.cleanup()
		return err
	}

	s.logger.Info("NATS light service started", "url", s.url)
	return nil
}

func (s *Service) handleSetLight(msg *nats.Msg) {
	req, err := UnmarshalSetLightRequest(msg.Data)
	if err != nil {
		s.logger.Warn("Failed to unmarshal set light request", "error", err)
		s.respond(msg, SetLightReply{Error: "invalid request: " + err.Error()})
		return
	}

	state, err := req.State()
	if err != nil {
		s.respond(msg, SetLightReply{Error: err.Error()})
		return
	}

	status := led.LightNotSupported
	if lightType, parseErr := led.ParseType(req.Type); parseErr == nil {
		status = s.lights.SetLight(lightType, state)
	}

	s.logger.Debug("Handled set light request", "type", req.Type, "status", status)
	s.respond(msg, SetLightReply{Status: status.String()})
}

func (s *Service) handleTypes(msg *nats.Msg) {
	types := s.lights.SupportedTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	s.respond(msg, TypesReply{Types: names})
}

type marshaler interface {
	Marshal() ([]byte, error)
}

func (s *Service) respond(msg *nats.Msg, reply marshaler) {
	if msg.Reply == "" {
		return
	}
	data, err := reply.Marshal()
	if err != nil {
		s.logger.Warn("Failed to marshal reply", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("Failed to send reply", "subject", msg.Subject, "error", err)
	}
}

// cleanup unsubscribes and closes connection.
func (s *Service) cleanup() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// Stop closes the service connection.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanup()
	s.logger.Info("NATS light service stopped")
}
