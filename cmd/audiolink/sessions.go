package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nerrad567/audiolink-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/audiolink-core/internal/sessionbus"
)

const defaultCommandTimeout = 5 * time.Second

func (c *cli) sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and select transport sessions",
	}
	cmd.AddCommand(c.sessionsPreferredCmd(), c.sessionsPreferCmd())
	return cmd
}

// sessionsPreferredCmd prints the persisted preferred session id. Sessions
// themselves only exist inside the running service.
func (c *cli) sessionsPreferredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preferred",
		Short: "Show the stored preferred session id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig(true)
			if err != nil {
				return err
			}
			reg, closeFn, err := openRegistry(cmd, cfg, toolLogger(cmd, cfg))
			if err != nil {
				return err
			}
			defer closeFn()

			preferred := reg.PreferredSessionID()
			if preferred == "" {
				preferred = "(none)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), preferred)
			return nil
		},
	}
}

// sessionsPreferCmd asks the running service to select a session over MQTT
// and waits for its acknowledgement.
func (c *cli) sessionsPreferCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "prefer <session-id>",
		Short: "Select the preferred session on the running service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(true)
			if err != nil {
				return err
			}

			mqttCfg := cfg.MQTT
			mqttCfg.Broker.ClientID = fmt.Sprintf("%s-cli-%s", cfg.MQTT.Broker.ClientID, uuid.NewString()[:8])
			client, err := mqtt.ConnectQuiet(mqttCfg)
			if err != nil {
				return fmt.Errorf("connecting to MQTT: %w", err)
			}
			defer client.Close() //nolint:errcheck // best effort on exit

			ack, err := sendPreferred(client, args[0], timeout)
			if err != nil {
				return err
			}
			if !ack.Success {
				return fmt.Errorf("service rejected session %s: %s", args[0], ack.Error)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "preferred session set to %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultCommandTimeout, "time to wait for the service to acknowledge")
	return cmd
}

var errAckTimeout = errors.New("no acknowledgement from service")

// commandClient is the subset of *mqtt.Client used to send commands.
type commandClient interface {
	Topics() mqtt.Topics
	QoS() byte
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// sendPreferred publishes a preferred session command and waits for the
// ack carrying the same request id.
func sendPreferred(client commandClient, sessionID string, timeout time.Duration) (sessionbus.Ack, error) {
	topics := client.Topics()
	requestID := uuid.NewString()
	acks := make(chan sessionbus.Ack, 1)

	ackTopic := topics.CommandAck(sessionbus.CommandPreferredSession)
	err := client.Subscribe(ackTopic, client.QoS(), func(_ string, payload []byte) error {
		var ack sessionbus.Ack
		if err := json.Unmarshal(payload, &ack); err != nil {
			return err
		}
		if ack.RequestID != requestID {
			return nil
		}
		select {
		case acks <- ack:
		default:
		}
		return nil
	})
	if err != nil {
		return sessionbus.Ack{}, fmt.Errorf("subscribing to acks: %w", err)
	}
	defer client.Unsubscribe(ackTopic) //nolint:errcheck // best effort on exit

	payload, err := json.Marshal(sessionbus.PreferredSessionCommand{
		RequestID: requestID,
		SessionID: sessionID,
	})
	if err != nil {
		return sessionbus.Ack{}, fmt.Errorf("encoding command: %w", err)
	}
	if err := client.Publish(topics.Command(sessionbus.CommandPreferredSession), payload, client.QoS(), false); err != nil {
		return sessionbus.Ack{}, fmt.Errorf("publishing command: %w", err)
	}

	select {
	case ack := <-acks:
		return ack, nil
	case <-time.After(timeout):
		return sessionbus.Ack{}, fmt.Errorf("%w after %v", errAckTimeout, timeout)
	}
}
