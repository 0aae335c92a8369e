// Package sessionbus bridges the device registry and the MQTT bus.
//
// The transport manager publishes the full list of live sessions on
// <prefix>/transport/sessions whenever it changes; the bridge applies each
// list with registry.UpdateSessions. Pairing UIs send commands on
// <prefix>/command/preferred_session and <prefix>/command/profiles and get
// an answer on the matching <prefix>/ack/... topic.
//
// After every registry change the bridge republishes retained views on
// <prefix>/core/sessions, <prefix>/core/preferred_session and
// <prefix>/core/profiles, plus an event on <prefix>/core/event/<kind>.
//
// Command payloads:
//
//	{"request_id":"r1","session_id":"ble-1"}
//	{"action":"upsert","profile":{"mac":"AA:BB:CC:DD:EE:FF","label":"Phone"}}
//	{"action":"remove","mac":"AA:BB:CC:DD:EE:FF"}
package sessionbus
