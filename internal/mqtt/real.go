package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweeney/boardloop/internal/logic"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	BufferSize int

	// OnConnectionChange, if set, is called from the client goroutine
	// whenever the connection goes up or down.
	OnConnectionChange func(connected bool)
}

// RealPublisher publishes to a broker. Messages published while the
// connection is down are kept in a ring buffer and replayed, oldest first,
// when it comes back.
type RealPublisher struct {
	client paho.Client
	log    *zap.Logger
	now    func() time.Time
	notify func(bool)

	mu        sync.Mutex
	buffer    *ringBuffer
	connected bool
	connects  int
}

// NewRealPublisher connects to opts.Broker. An unreachable broker is not an
// error: the client keeps retrying in the background and publishes are
// buffered until it connects.
func NewRealPublisher(opts Options, log *zap.Logger) (*RealPublisher, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	p := newPublisher(nil, opts.BufferSize, log)
	p.notify = opts.OnConnectionChange

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: SystemOffline})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	clientID := fmt.Sprintf("%s-%s", opts.ClientID, uuid.NewString()[:8])
	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(clientID).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(co)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Warn("mqtt broker not reachable yet, buffering", zap.String("broker", opts.Broker))
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	log.Info("mqtt publisher started", zap.String("broker", opts.Broker), zap.String("client_id", clientID))
	return p, nil
}

func newPublisher(client paho.Client, bufferSize int, log *zap.Logger) *RealPublisher {
	return &RealPublisher{
		client: client,
		log:    log,
		now:    time.Now,
		buffer: newRingBuffer(bufferSize, log),
	}
}

func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	p.connected = true
	p.connects++
	reconnect := p.connects > 1
	pending := p.buffer.drainAll()
	p.mu.Unlock()

	if reconnect {
		p.log.Info("mqtt reconnected", zap.Int("replay", len(pending)))
	}
	for _, m := range pending {
		if err := p.send(m); err != nil {
			p.log.Warn("mqtt replay failed", zap.String("topic", m.topic), zap.Error(err))
		}
	}
	if reconnect {
		ev := SystemEvent{Timestamp: p.now(), Event: SystemReconnected}
		if err := p.PublishSystem(ev); err != nil {
			p.log.Warn("mqtt publish reconnected event failed", zap.Error(err))
		}
	}
	if p.notify != nil {
		p.notify(true)
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()

	p.log.Warn("mqtt connection lost", zap.Error(err))
	if p.notify != nil {
		p.notify(false)
	}
}

// Publish sends a demo event with QoS 0, not retained.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event, p.now())
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.enqueue(bufferedMsg{topic: TopicEvents, payload: payload, qos: 0})
}

// PublishSystem sends a lifecycle event with QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.enqueue(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) enqueue(m bufferedMsg) error {
	p.mu.Lock()
	if !p.connected {
		p.buffer.push(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.send(m)
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Close disconnects from the broker, allowing one second for in-flight
// messages.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
