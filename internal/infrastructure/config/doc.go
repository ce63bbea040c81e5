// Package config loads the Shabbat clock configuration.
//
// Values come from three layers, later ones winning:
//
//  1. Default(): a log-actuated relay in AUTO mode, SQLite blob storage,
//     radio, MQTT and InfluxDB disabled
//  2. A YAML file (gopkg.in/yaml.v3); durations accept "1500ms" style strings
//  3. SHABBATCLOCK_* environment variables for secrets and deployment knobs
//
// Validate reports every problem at once rather than stopping at the first.
//
// Example config.yaml:
//
//	site:
//	  timezone: "Asia/Jerusalem"
//	relay:
//	  default_mode: "auto"
//	  tick_interval: "10s"
//	radio:
//	  enabled: true
//	  connection: "serial:///dev/ttyUSB0?baud=9600"
//	  ack_timeout: "1500ms"
package config
