// Package realtime implements the realtime push channel ingest: one
// broker connection per upstream account, fanning unordered per-site push
// messages into a single ordered callback.
package realtime

import (
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ChrisWondeFro/vivint-gateway/internal/gwerror"
	"github.com/ChrisWondeFro/vivint-gateway/internal/model"
	"go.uber.org/zap"
)

// MessageHandler receives one decoded push payload at a time, in the
// order the broker delivered them on this subscription.
type MessageHandler func(message map[string]any)

// Broker wraps a single MQTT connection to the upstream's push channel.
// It performs no automatic reconnect; callers own that policy (the
// per-connection owner — WS relay or a site-watching background task —
// decides whether and how to resubscribe after a drop).
type Broker struct {
	channelPrefix string
	client        mqtt.Client
	logger        *zap.Logger
}

// NewBroker dials the configured broker. The connection carries no
// subscriptions until Subscribe is called.
func NewBroker(brokerURL, channelPrefix, clientIDSuffix string, logger *zap.Logger) (*Broker, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(fmt.Sprintf("pn-%s", strings.ToUpper(clientIDSuffix))).
		SetCleanSession(true).
		SetAutoReconnect(false)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, gwerror.Wrap(gwerror.KindTransportError, "failed to connect to realtime broker", token.Error())
	}
	return &Broker{channelPrefix: channelPrefix, client: client, logger: logger}, nil
}

// Subscribe opens the push channel for one authenticated user. It refuses
// to subscribe when the user has no broadcast channel or no sites — there
// is nothing upstream would ever publish to such a channel.
func (b *Broker) Subscribe(user *model.AuthUser, handler MessageHandler) error {
	if user == nil || !user.HasUsableChannel() {
		return gwerror.New(gwerror.KindInconsistent, "auth user has no broadcast channel to subscribe to")
	}
	topic := fmt.Sprintf("%s#%s", b.channelPrefix, user.BroadcastChannel)

	if token := b.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		message, err := decodePushPayload(msg.Payload())
		if err != nil {
			if b.logger != nil {
				b.logger.Warn("dropping malformed realtime push payload", zap.Error(err))
			}
			return
		}
		handler(message)
	}); token.Wait() && token.Error() != nil {
		return gwerror.Wrap(gwerror.KindTransportError, "failed to subscribe to realtime channel", token.Error())
	}
	return nil
}

// Disconnect tears down the broker connection, waiting up to waitMs for
// in-flight acknowledgements to drain.
func (b *Broker) Disconnect(waitMs uint) {
	b.client.Disconnect(waitMs)
}

// IsConnected reports whether the underlying MQTT connection is live.
func (b *Broker) IsConnected() bool {
	return b.client.IsConnected()
}
