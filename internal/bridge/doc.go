// Package bridge forwards power readings from the MQTT bus into a
// time-series database.
//
// A Bridge subscribes to a topic filter once the broker acknowledges the
// connection and turns each message into at most one point write (see
// package power for the extraction rules). It never retries and never
// reconnects. Every fatal condition ends Run with an error that ExitCode
// maps to the process exit status:
//
//	initial connect fails     -> wait ConnectGrace, ErrConnectFailed (2)
//	connection lost           -> ErrDisconnected (1)
//	subscribe fails           -> ErrSubscribeFailed (1)
//	database write fails      -> ErrWriteFailed (1)
//	context cancelled         -> nil (0)
//
// Messages are delivered one at a time in arrival order, so a slow write
// holds up the messages behind it.
//
// Usage:
//
//	b, err := bridge.New(bridge.Options{
//	    MQTT:   client,
//	    Writer: store,
//	    Topic:  "resources/power/#",
//	    Logger: log,
//	})
//	if err != nil {
//	    return err
//	}
//	os.Exit(bridge.ExitCode(b.Run(ctx)))
package bridge
