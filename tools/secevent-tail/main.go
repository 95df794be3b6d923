package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/petsocial/petsocial/libs/config"
	otelx "github.com/petsocial/petsocial/libs/otel"
	"github.com/petsocial/petsocial/libs/runtime"
	"github.com/petsocial/petsocial/libs/secevent"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fatal(err.Error())
	}
	var (
		brokers = flag.String("brokers", config.String("PETSOCIAL_KAFKA_BROKERS", "localhost:9092"), "kafka brokers, comma separated")
		topic   = flag.String("topic", config.String("PETSOCIAL_KAFKA_TOPIC", "client.security.events.v1"), "security event topic")
		group   = flag.String("group", config.String("SECEVENT_TAIL_GROUP", "secevent-tail"), "consumer group id")
		types   = flag.String("types", "", "only print these event types, comma separated")
		asJSON  = flag.Bool("json", false, "print raw JSON lines")
	)
	flag.Parse()

	logger := runtime.NewLogger("secevent-tail", config.String("LOG_LEVEL", "info"), config.String("LOG_FORMAT", "text"))
	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv("secevent-tail"))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	want := map[secevent.Type]bool{}
	for _, t := range config.ParseList(*types) {
		want[secevent.Type(t)] = true
	}

	enc := json.NewEncoder(os.Stdout)
	consumer := secevent.NewConsumer(logger, secevent.ConsumerConfig{Brokers: *brokers, GroupID: *group, Topic: *topic},
		func(_ context.Context, ev secevent.Event) error {
			if len(want) > 0 && !want[ev.Type] {
				return nil
			}
			if *asJSON {
				return enc.Encode(ev)
			}
			_, err := fmt.Fprintf(os.Stdout, "%s  %-22s %s\n", ev.At.Local().Format(time.DateTime), ev.Type, details(ev.Details))
			return err
		})

	logger.Info("tailing security events", "brokers", *brokers, "topic", *topic, "group", *group)
	consumer.Run(ctx)
}

func details(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, " ")
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
