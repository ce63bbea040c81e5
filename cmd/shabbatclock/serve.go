package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/shabbat-clock/internal/api"
	"github.com/nerrad567/shabbat-clock/internal/clock"
	"github.com/nerrad567/shabbat-clock/internal/engine"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/config"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/influxdb"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/logging"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/mqtt"
	"github.com/nerrad567/shabbat-clock/internal/relay"
	"github.com/nerrad567/shabbat-clock/internal/schedule"
	"github.com/nerrad567/shabbat-clock/internal/telemetry"
)

// runServe is the long-running application, separated from the cobra
// command for testability.
//
// Parameters:
//   - ctx: Cancelled on SIGINT/SIGTERM
//   - configPath: YAML file, or "" for built-in defaults
//
// Returns:
//   - error: nil on clean shutdown, or error describing a startup failure
func runServe(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting shabbat clock",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "site", cfg.Site.ID)

	checks := make(map[string]api.HealthChecker)

	persist, closeStorage, err := openStorage(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := schedule.NewStore(cfg.Schedule.Capacity, persist)
	store.SetLogger(log.With("component", "schedule"))

	clk, err := clock.NewSystem(clock.Config{
		Timezone:         cfg.Site.Timezone,
		TrustSystemClock: cfg.Clock.TrustSystemClock,
		MinValidYear:     cfg.Clock.MinValidYear,
	})
	if err != nil {
		return fmt.Errorf("initialising clock: %w", err)
	}

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() { log.Info("MQTT connected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		checks["mqtt"] = mqttClient
		log.Info("MQTT client started",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	actuator, err := newActuator(cfg, mqttClient, log)
	if err != nil {
		return err
	}
	mode, err := relay.ParseMode(cfg.Relay.DefaultMode)
	if err != nil {
		return fmt.Errorf("relay mode: %w", err)
	}
	ctrl := relay.NewController(mode, store, actuator)
	ctrl.SetLogger(log.With("component", "relay"))

	deps := engine.Deps{
		Store:      store,
		Controller: ctrl,
		Clock:      clk,
		TimeSetter: clk,
	}

	// Lock-sync radio (optional)
	if cfg.Radio.Enabled {
		proto, link, openErr := openRadio(ctx, cfg.Radio, log)
		if openErr != nil {
			return openErr
		}
		defer func() {
			if closeErr := link.Close(); closeErr != nil {
				log.Error("error closing radio link", "error", closeErr)
			}
		}()
		deps.Radio = proto
		checks["radio"] = linkCheck{link}
	} else {
		log.Info("radio disabled")
	}

	eng, err := engine.New(deps)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	eng.SetLogger(log.With("component", "engine"))

	if _, restoreErr := eng.Restore(ctx); restoreErr != nil {
		if !errors.Is(restoreErr, schedule.ErrCorrupt) {
			return fmt.Errorf("restoring schedule: %w", restoreErr)
		}
		log.Warn("saved schedule is corrupt, starting empty", "error", restoreErr)
	}

	metrics := telemetry.NewMetrics()
	eng.AddObserver(metrics)

	if mqttClient != nil {
		publisher := telemetry.NewStatePublisher(mqttClient, mqttClient.Topics(), cfg.Relay.DeviceID)
		publisher.SetLogger(log.With("component", "state-publisher"))
		eng.AddObserver(publisher)

		cmdLog := log.With("component", "mqtt-commands")
		if subErr := telemetry.SubscribeCommands(mqttClient, mqttClient.Topics().Command(), eng, cmdLog); subErr != nil {
			log.Warn("MQTT command topic unavailable", "error", subErr)
		}
	}

	// InfluxDB history (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks["influxdb"] = influxClient
		eng.AddObserver(telemetry.NewHistory(influxClient, cfg.Relay.DeviceID))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	srv, err := api.New(api.Deps{
		Config:  cfg.API,
		Logger:  log.With("component", "api"),
		Engine:  eng,
		Metrics: metrics,
		Checks:  checks,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(cfg.GetWriteTimeout()); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("shabbat clock running",
		"mode", mode,
		"entries", store.Len(),
		"tick_interval", cfg.Relay.TickInterval,
	)

	if err := eng.Run(ctx, cfg.Relay.TickInterval); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	log.Info("shutdown signal received")
	return nil
}

// newActuator selects the relay output driver.
func newActuator(cfg *config.Config, mqttClient *mqtt.Client, log *logging.Logger) (relay.Actuator, error) {
	switch cfg.Relay.Actuator {
	case "", "log":
		return relay.NewLogActuator(log.With("component", "actuator")), nil
	case "mqtt":
		if mqttClient == nil {
			return nil, fmt.Errorf("relay actuator mqtt requires mqtt.enabled")
		}
		topic := mqttClient.Topics().RelayCommand(cfg.Relay.DeviceID)
		return relay.NewMQTTActuator(mqttClient, topic, byte(cfg.MQTT.QoS)), nil
	default:
		return nil, fmt.Errorf("unknown relay actuator %q", cfg.Relay.Actuator)
	}
}
