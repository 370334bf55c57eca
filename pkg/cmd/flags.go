package cmd

import (
	"github.com/urfave/cli/v3"
)

// EngineFlags are the flags every engine binary accepts.
func EngineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Database connection URL (file://dir, postgres://..., redis://...)",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.IntFlag{
			Name:    "max-steps",
			Usage:   "Maximum steps a single workflow run may visit",
			Value:   100,
			Sources: cli.EnvVars("MAX_STEPS"),
		},
		&cli.IntFlag{
			Name:    "notification-queue-size",
			Usage:   "Capacity of the outbound notification queue",
			Value:   256,
			Sources: cli.EnvVars("NOTIFICATION_QUEUE_SIZE"),
		},
		&cli.BoolFlag{
			Name:    "otel-enabled",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
	}
}

// EngineConfigFrom reads the engine flags of command.
func EngineConfigFrom(command *cli.Command) EngineConfig {
	return EngineConfig{
		DatabaseURL:           command.String("database-url"),
		EventBus:              command.String("event-bus"),
		KafkaBrokers:          SplitList(command.String("kafka-brokers")),
		LogLevel:              command.String("log-level"),
		MaxSteps:              int(command.Int("max-steps")),
		NotificationQueueSize: int(command.Int("notification-queue-size")),
		OTelEnabled:           command.Bool("otel-enabled"),
	}
}
