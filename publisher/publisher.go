package publisher

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/icodeforyou/spotwindow-go/hours"
	"github.com/icodeforyou/spotwindow-go/recommend"
	"github.com/icodeforyou/spotwindow-go/types"
)

const (
	TopicStatus         = "status"
	TopicCurrentPrice   = "current_price"
	TopicRecommendation = "recommendation"

	publishTimeout = 10 * time.Second
)

var ErrNotConnected = errors.New("mqtt client not connected")

var setupPahoLogging sync.Once

// publishClient is the part of mqtt.Client the publisher needs.
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type Options struct {
	Host        string
	Port        int16
	Username    string
	Password    string
	TopicPrefix string
}

// Publisher sends retained JSON messages with the current price and the
// latest recommendation.
type Publisher struct {
	conn   mqtt.Client
	client publishClient
	logger *slog.Logger
	prefix string
}

type CurrentPriceMessage struct {
	Zone      string    `json:"zone"`
	HourStart time.Time `json:"hourStart"`
	Price     float64   `json:"price"`
	Unit      string    `json:"unit"`
	Source    string    `json:"source,omitempty"`
}

type RecommendationMessage struct {
	Zone string `json:"zone"`
	recommend.Recommendation
	WindowStartLocal string `json:"windowStartLocal"`
}

func New(opts Options) *Publisher {
	logger := slog.Default().With("module", "publisher")

	setupPahoLogging.Do(func() {
		mqttLogger := slog.Default().With("module", "mqtt")
		mqtt.CRITICAL = newMqttLogger(mqttLogger, slog.LevelError)
		mqtt.ERROR = newMqttLogger(mqttLogger, slog.LevelError)
		mqtt.WARN = newMqttLogger(mqttLogger, slog.LevelWarn)
	})

	p := &Publisher{logger: logger, prefix: opts.TopicPrefix}
	statusTopic := p.topic(TopicStatus)

	co := mqtt.NewClientOptions()
	co.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Host, opts.Port))
	co.SetClientID("spotwindow-" + uuid.NewString())
	co.SetUsername(opts.Username)
	co.SetPassword(opts.Password)
	co.SetAutoReconnect(true)
	co.SetWill(statusTopic, "offline", 1, true)
	co.OnConnect = func(client mqtt.Client) {
		logger.Info("MQTT connected")
		client.Publish(statusTopic, 1, true, "online")
	}
	co.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", slog.Any("error", err))
	}

	p.conn = mqtt.NewClient(co)
	p.client = p.conn
	return p
}

func newWithClient(client publishClient, prefix string) *Publisher {
	return &Publisher{
		client: client,
		logger: slog.Default().With("module", "publisher"),
		prefix: prefix,
	}
}

func (p *Publisher) Connect() error {
	p.logger.Debug("connecting MQTT client")
	if token := p.conn.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return nil
}

func (p *Publisher) Disconnect() {
	if p.conn == nil || !p.conn.IsConnected() {
		return
	}
	p.logger.Info("disconnecting MQTT client")
	p.conn.Publish(p.topic(TopicStatus), 1, true, "offline").WaitTimeout(time.Second)
	p.conn.Disconnect(250)
}

func (p *Publisher) PublishCurrentPrice(zone, source string, price types.HourlyPrice) error {
	return p.publishJSON(TopicCurrentPrice, CurrentPriceMessage{
		Zone:      zone,
		HourStart: price.HourStart,
		Price:     price.Price,
		Unit:      "c/kWh",
		Source:    source,
	})
}

func (p *Publisher) PublishRecommendation(zone string, rec recommend.Recommendation) error {
	return p.publishJSON(TopicRecommendation, RecommendationMessage{
		Zone:             zone,
		Recommendation:   rec,
		WindowStartLocal: hours.FormatTimeInDisplayTimezone(rec.WindowStart),
	})
}

func (p *Publisher) publishJSON(name string, v any) error {
	if p.conn != nil && !p.conn.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	topic := p.topic(name)
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.logger.Debug("published", slog.String("topic", topic), slog.Int("bytes", len(payload)))
	return nil
}

func (p *Publisher) topic(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "/" + name
}
