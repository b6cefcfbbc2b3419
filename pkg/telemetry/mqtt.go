package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/JamesRaub/scarab/pkg/motor"
)

const connectTimeout = 10 * time.Second

// MQTT is the pub/sub transport.  One connection is shared by however many
// topic publishers and subscriptions the process needs.
type MQTT struct {
	client mqtt.Client
}

// ConnectMQTT connects to the broker (e.g. "tcp://localhost:1883") and blocks
// until the connection is up or the timeout expires.
func ConnectMQTT(broker, clientID string) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		fmt.Println("MQTT: connected to", broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		fmt.Println("MQTT: connection lost:", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("timed out connecting to broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", broker, err)
	}
	return &MQTT{client: client}, nil
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}

// Subscribe delivers the raw payload of every message on topic to handler on
// the client's own thread.
func (m *MQTT) Subscribe(topic string, handler func(payload []byte)) error {
	token := m.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return nil
}

// SubscribeTwist decodes velocity commands from topic.  Malformed payloads
// are logged and dropped.
func (m *MQTT) SubscribeTwist(topic string, handler func(Twist)) error {
	return m.Subscribe(topic, func(payload []byte) {
		var t Twist
		if err := json.Unmarshal(payload, &t); err != nil {
			fmt.Printf("MQTT: bad twist on %s: %v\n", topic, err)
			return
		}
		handler(t)
	})
}

// SubscribePose decodes pose messages (e.g. simulator pose resets) from
// topic.
func (m *MQTT) SubscribePose(topic string, handler func(PoseStamped)) error {
	return m.Subscribe(topic, func(payload []byte) {
		var p PoseStamped
		if err := json.Unmarshal(payload, &p); err != nil {
			fmt.Printf("MQTT: bad pose on %s: %v\n", topic, err)
			return
		}
		handler(p)
	})
}

// Publisher returns a topic publisher rooted at the given prefix ("" for the
// robot's flat topics, the agent name in the simulator).
func (m *MQTT) Publisher(prefix string) *TopicPublisher {
	return &TopicPublisher{m: m, prefix: prefix}
}

// TopicPublisher publishes the node outputs under a topic prefix.
type TopicPublisher struct {
	m      *MQTT
	prefix string
}

func (p *TopicPublisher) topic(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "/" + name
}

func (p *TopicPublisher) PublishMotorState(s motor.State) {
	p.publishJSON(p.topic("motor_state"), s)
}

func (p *TopicPublisher) PublishOdometry(o Odometry) {
	p.publishJSON(p.topic("odom"), o)
}

func (p *TopicPublisher) PublishTransform(t Transform) {
	p.publishJSON(p.topic("tf"), t)
}

func (p *TopicPublisher) PublishGroundTruth(gt PoseStamped) {
	p.publishJSON(p.topic("gt_pose"), gt)
}

// publishJSON is fire-and-forget: the control loop must not stall behind a
// slow broker, and the paho client queues internally.
func (p *TopicPublisher) publishJSON(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		fmt.Printf("MQTT: failed to marshal message for %s: %v\n", topic, err)
		return
	}
	p.m.client.Publish(topic, 0, false, payload)
}
