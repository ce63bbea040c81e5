// Package telemetry fans engine changes out to MQTT, InfluxDB and Prometheus.
//
// StatePublisher, History and Metrics each implement engine.Observer and are
// registered with Engine.AddObserver. SubscribeCommands is the inbound half:
// it feeds the MQTT command topic into the command vocabulary.
package telemetry
