// Package influxdb provides InfluxDB connectivity for AudioLink Core.
//
// It wraps the official influxdb-client-go v2 library and records device
// registry statistics (profile and session counts, the preferred session)
// as time-series points, so that session churn on a device can be graphed.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without metrics
//	}
//	defer client.Close()
//
//	client.WriteRegistrySnapshot(influxdb.RegistrySnapshot{DeviceID: "kitchen-speaker", Sessions: 2})
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to influxdb.batch_size and influxdb.flush_interval;
// asynchronous write errors are counted and logged through SetLogger.
package influxdb
