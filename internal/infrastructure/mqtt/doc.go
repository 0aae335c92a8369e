// Package mqtt provides MQTT client connectivity for AudioLink Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// The transport manager and pairing UI talk to the device registry over
// MQTT. All topics live under a configurable prefix (mqtt.topic_prefix,
// default "audiolink"):
//
//	Transport manager → <prefix>/transport/sessions → Core
//	Pairing UI        → <prefix>/command/{name}     → Core
//	Core              → <prefix>/core/{view}        (retained)
//
// # Security Considerations
//
//   - Enable TLS (mqtt.broker.tls) when the broker is not on localhost
//   - Set credentials via AUDIOLINK_MQTT_USERNAME and AUDIOLINK_MQTT_PASSWORD
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().TransportSessions(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
