// Package mqtt provides MQTT client connectivity for powerbridge.
//
// This package manages:
//   - Connection to the broker, reporting refused or failed connects
//   - Topic subscriptions with wildcard support
//   - Message publishing (used by the meter reader)
//   - Connection-lost notification
//
// # Failure Model
//
// The client does not reconnect. Auto-reconnect and connect retry are
// disabled so that both a refused initial connection and a later
// connection loss reach the caller, which exits and leaves the restart to
// the process supervisor.
//
// # Delivery
//
// Ordered delivery is enabled: handlers are called one at a time in the
// order messages arrive. A handler that blocks (for example on a database
// write) holds up all later messages.
//
// # Usage
//
//	client := mqtt.New(cfg.MQTT)
//	client.SetOnConnect(func() {
//	    client.Subscribe("resources/power/#", 0, handle)
//	})
//	client.SetOnDisconnect(func(err error) {
//	    os.Exit(1)
//	})
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close()
package mqtt
