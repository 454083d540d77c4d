// Package wsclient implements repository.NodeProtocolSender over a
// reconnecting websocket connection to the cluster manager (spec.md §3.1
// domain stack wiring: github.com/gorilla/websocket).
package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"flowcore/internal/ferrors"
	"flowcore/internal/graph"
	"flowcore/pkg/logger"
)

// Sender maintains a lazily (re)dialed websocket connection to targetURL and
// sends heartbeat/bulletin payloads as binary frames.
type Sender struct {
	targetURL string
	log       *logger.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// New returns a Sender that dials targetURL on first use.
func New(targetURL string, log *logger.Logger) *Sender {
	return &Sender{targetURL: targetURL, log: log}
}

// Heartbeat sends msg as a single binary frame, dialing (or redialing) the
// connection as needed.
func (s *Sender) Heartbeat(ctx context.Context, msg []byte) error {
	return s.send(ctx, msg)
}

// SendBulletins sends msg as a single binary frame over the same connection
// heartbeats use.
func (s *Sender) SendBulletins(ctx context.Context, msg []byte) error {
	return s.send(ctx, msg)
}

func (s *Sender) send(ctx context.Context, msg []byte) error {
	conn, err := s.connection(ctx)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		return ferrors.Communication(s.targetURL, err)
	}
	return nil
}

func (s *Sender) connection(ctx context.Context) (*websocket.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}
	if s.targetURL == "" {
		return nil, ferrors.Communication("", fmt.Errorf("%w: no target configured", ferrors.ErrUnknownServiceAddress))
	}
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, s.targetURL, nil)
	if err != nil {
		return nil, ferrors.Communication(s.targetURL, fmt.Errorf("%w: %v", ferrors.ErrUnknownServiceAddress, err))
	}
	s.conn = conn
	return conn, nil
}

// Close releases the underlying connection, if any.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// RemoteGroupFetcher discovers a remote instance's input/output ports over a
// single short-lived websocket request/response, one dial per refresh (a
// remote-group refresh is infrequent enough that holding a connection open
// between passes, as Sender does for heartbeats, isn't worth the idle
// socket).
type RemoteGroupFetcher struct {
	log *logger.Logger
}

// NewRemoteGroupFetcher returns a RemoteGroupFetcher.
func NewRemoteGroupFetcher(log *logger.Logger) *RemoteGroupFetcher {
	return &RemoteGroupFetcher{log: log}
}

type describePortsRequest struct {
	Type string `json:"type"`
}

type portDescriptorWire struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

type describePortsResponse struct {
	InputPorts  []portDescriptorWire `json:"input_ports"`
	OutputPorts []portDescriptorWire `json:"output_ports"`
}

// Refresh dials targetURI, sends a describe-ports request, and decodes the
// remote's reported input/output ports.
func (f *RemoteGroupFetcher) Refresh(ctx context.Context, targetURI string) (inputs, outputs []graph.PortDescriptor, err error) {
	if targetURI == "" {
		return nil, nil, ferrors.Communication("", fmt.Errorf("%w: no target configured", ferrors.ErrUnknownServiceAddress))
	}
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, targetURI, nil)
	if err != nil {
		return nil, nil, ferrors.Communication(targetURI, fmt.Errorf("%w: %v", ferrors.ErrUnknownServiceAddress, err))
	}
	defer conn.Close()

	req, err := json.Marshal(describePortsRequest{Type: "describe-ports"})
	if err != nil {
		return nil, nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, req); err != nil {
		return nil, nil, ferrors.Communication(targetURI, err)
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		return nil, nil, ferrors.Communication(targetURI, err)
	}
	var resp describePortsResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, nil, ferrors.Communication(targetURI, err)
	}
	return wirePorts(resp.InputPorts), wirePorts(resp.OutputPorts), nil
}

func wirePorts(in []portDescriptorWire) []graph.PortDescriptor {
	out := make([]graph.PortDescriptor, len(in))
	for i, p := range in {
		out[i] = graph.PortDescriptor{ID: p.ID, Name: p.Name, Connected: p.Connected}
	}
	return out
}
