//services/matching-service/cmd/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/matching-service/config"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/analytics"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/capacity"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/gap"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/kafka"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/lifecycle"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/matching"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/rabbitmq"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/rules"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/internal/worker"
	"github.com/Tanmoy095/LogiSynapse/services/matching-service/store"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app := &cli.App{
		Name:  "matching-service",
		Usage: "Load-to-carrier matching engine for broker-intermediated freight",
		Commands: []*cli.Command{
			bridgeCmd,
			suggestCmd,
			rulesCmd,
			gapsCmd,
			forecastCmd,
			analyticsCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (*store.PostgresStore, error) {
	st, err := store.NewPostgresStore(cfg.GetDBURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return st, nil
}

// bridgeCmd runs the long-lived notification bridge: kafka lifecycle
// events in, rabbitmq email/SMS jobs out.
var bridgeCmd = &cli.Command{
	Name:  "bridge",
	Usage: "Run the kafka-to-rabbitmq notification bridge",
	Action: func(c *cli.Context) error {
		cfg := config.LoadConfig()
		if cfg.KAFKA_BROKER == "" || cfg.KAFKA_TOPIC == "" {
			return fmt.Errorf("KAFKA_BROKER and KAFKA_TOPIC must be set")
		}

		log.Printf("Connecting to RabbitMQ at: %s", cfg.RABBITMQ_HOST)
		rabbitClient, err := rabbitmq.NewClient(cfg.GetRabbitMQURL())
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}

		log.Printf("Connecting to Kafka at: %s, Topic: %s", cfg.KAFKA_BROKER, cfg.KAFKA_TOPIC)
		consumer := kafka.NewConsumer([]string{cfg.KAFKA_BROKER}, cfg.KAFKA_TOPIC, "matching-bridge-group")

		ctx, cancel := context.WithCancel(c.Context)
		var wg sync.WaitGroup

		bridge := worker.NewBridge(consumer, rabbitClient)
		if err := bridge.Run(ctx, &wg); err != nil {
			cancel()
			return err
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Println("Shutting down bridge...")
		cancel()
		wg.Wait()
		if err := consumer.Close(); err != nil {
			log.Printf("failed to close kafka consumer: %v", err)
		}
		if err := rabbitClient.Close(); err != nil {
			log.Printf("failed to close rabbitmq client: %v", err)
		}
		log.Println("Bridge stopped.")
		return nil
	},
}

var suggestCmd = &cli.Command{
	Name:  "suggest",
	Usage: "Print ranked carrier suggestions for a load",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "broker", Required: true, Usage: "broker user id"},
		&cli.StringFlag{Name: "load", Required: true, Usage: "load id"},
		&cli.Float64Flag{Name: "min-score", Value: 0, Usage: "override the minimum suggestion score"},
	},
	Action: func(c *cli.Context) error {
		brokerID, err := uuid.Parse(c.String("broker"))
		if err != nil {
			return fmt.Errorf("invalid broker id: %w", err)
		}
		loadID, err := uuid.Parse(c.String("load"))
		if err != nil {
			return fmt.Errorf("invalid load id: %w", err)
		}

		cfg := config.LoadConfig()
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		scorer := matching.NewScorer(cfg.Matching.Weights)
		lc := lifecycle.NewManager(st, st, nil)
		svc := matching.NewService(st, scorer, lc, cfg.Matching)

		suggestions, err := svc.SuggestMatches(c.Context, brokerID, loadID, c.Float64("min-score"))
		if err != nil {
			return err
		}
		return printJSON(suggestions)
	},
}

var rulesCmd = &cli.Command{
	Name:  "rules",
	Usage: "Evaluate the broker's matching rules against one load",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "broker", Required: true, Usage: "broker user id"},
		&cli.StringFlag{Name: "load", Required: true, Usage: "load id"},
	},
	Action: func(c *cli.Context) error {
		brokerID, err := uuid.Parse(c.String("broker"))
		if err != nil {
			return fmt.Errorf("invalid broker id: %w", err)
		}
		loadID, err := uuid.Parse(c.String("load"))
		if err != nil {
			return fmt.Errorf("invalid load id: %w", err)
		}

		cfg := config.LoadConfig()
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		var publisher kafka.Publisher
		if cfg.KAFKA_BROKER != "" && cfg.KAFKA_TOPIC != "" {
			producer := kafka.NewProducer(cfg.KAFKA_BROKER, cfg.KAFKA_TOPIC)
			defer producer.Close()
			publisher = producer
		}

		scorer := matching.NewScorer(cfg.Matching.Weights)
		lc := lifecycle.NewManager(st, st, publisher)
		svc := matching.NewService(st, scorer, lc, cfg.Matching)
		engine := rules.NewEngine(st, lc, publisher)

		load, err := st.GetLoad(c.Context, loadID)
		if err != nil {
			return err
		}
		suggestions, err := svc.SuggestMatches(c.Context, brokerID, loadID, 0)
		if err != nil {
			return err
		}

		outcome, err := engine.Evaluate(c.Context, brokerID, load, suggestions)
		if err != nil {
			return err
		}
		return printJSON(outcome)
	},
}

var gapsCmd = &cli.Command{
	Name:  "gaps",
	Usage: "Diagnose why the broker's unmatched loads have no viable match",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "broker", Required: true, Usage: "broker user id"},
		&cli.BoolFlag{Name: "summary", Usage: "print the analytics rollup instead of per-load gaps"},
	},
	Action: func(c *cli.Context) error {
		brokerID, err := uuid.Parse(c.String("broker"))
		if err != nil {
			return fmt.Errorf("invalid broker id: %w", err)
		}

		cfg := config.LoadConfig()
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		analyzer := gap.NewAnalyzer(st, st, cfg.Matching)
		if c.Bool("summary") {
			summary, err := analyzer.Analytics(c.Context, brokerID)
			if err != nil {
				return err
			}
			return printJSON(summary)
		}
		gaps, err := analyzer.FindGaps(c.Context, brokerID)
		if err != nil {
			return err
		}
		return printJSON(gaps)
	},
}

var forecastCmd = &cli.Command{
	Name:  "forecast",
	Usage: "Project available capacity per carrier over the coming days",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "broker", Required: true, Usage: "broker user id"},
		&cli.IntFlag{Name: "days", Value: 7, Usage: "number of days to project"},
	},
	Action: func(c *cli.Context) error {
		brokerID, err := uuid.Parse(c.String("broker"))
		if err != nil {
			return fmt.Errorf("invalid broker id: %w", err)
		}

		cfg := config.LoadConfig()
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		forecaster := capacity.NewForecaster(st, st, st, cfg.Matching)
		forecasts, err := forecaster.Forecast(c.Context, brokerID, c.Int("days"))
		if err != nil {
			return err
		}
		return printJSON(forecasts)
	},
}

var analyticsCmd = &cli.Command{
	Name:  "analytics",
	Usage: "Roll up commission history into revenue and trend statistics",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "broker", Required: true, Usage: "broker user id"},
		&cli.StringFlag{Name: "granularity", Value: "daily", Usage: "trend bucket size: daily, weekly or monthly"},
		&cli.IntFlag{Name: "days", Value: 30, Usage: "look-back window in days"},
		&cli.IntFlag{Name: "top", Value: 5, Usage: "size of the top-N breakdowns"},
	},
	Action: func(c *cli.Context) error {
		brokerID, err := uuid.Parse(c.String("broker"))
		if err != nil {
			return fmt.Errorf("invalid broker id: %w", err)
		}
		granularity := analytics.Granularity(c.String("granularity"))
		switch granularity {
		case analytics.Daily, analytics.Weekly, analytics.Monthly:
		default:
			return fmt.Errorf("invalid granularity %q", granularity)
		}

		cfg := config.LoadConfig()
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		agg := analytics.NewAggregator(st, st)
		to := time.Now()
		from := to.AddDate(0, 0, -c.Int("days"))
		summary, err := agg.Summarize(c.Context, brokerID, from, to, granularity, c.Int("top"))
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
