//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	coremetrics "github.com/kilianp07/bikeprice/core/metrics"
)

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
`

// startMosquitto launches a disposable broker and returns its URL.
func startMosquitto(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mosquitto.conf")
	require.NoError(t, os.WriteFile(path, []byte(mosquittoConf), 0o644))

	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
			Files: []tc.ContainerFile{{
				HostFilePath:      path,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			}},
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })

	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "1883")
	require.NoError(t, err)
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func TestEventPublisher_Mosquitto(t *testing.T) {
	broker := startMosquitto(t)

	received := make(chan Message, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("sub"))
	tok := sub.Connect()
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())
	defer sub.Disconnect(100)
	tok = sub.Subscribe("bikeprice/predictions", 1, func(_ paho.Client, m paho.Message) {
		var msg Message
		if json.Unmarshal(m.Payload(), &msg) == nil {
			received <- msg
		}
	})
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	pub, err := NewEventPublisher(Config{Broker: broker, QoS: 1})
	require.NoError(t, err)
	defer func() { assert.NoError(t, pub.Close()) }()

	require.NoError(t, pub.RecordPrediction(coremetrics.PredictionEvent{
		ID:         "it-1",
		Outcome:    coremetrics.OutcomeSuccess,
		Prediction: 42000,
		Features:   []float64{9, 36, 2020, 5000, 55, 12, 0, 1, 0, 0},
		Time:       time.Now(),
	}))

	select {
	case msg := <-received:
		assert.Equal(t, "it-1", msg.ID)
		require.NotNil(t, msg.Prediction)
		assert.Equal(t, 42000.0, *msg.Prediction)
	case <-time.After(5 * time.Second):
		t.Fatal("prediction message not received")
	}
}
