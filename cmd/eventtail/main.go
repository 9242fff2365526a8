// Eventtail consumes bankdesk client events from Kafka and prints one line per event.
// Set KAFKA_BROKERS, TELEMETRY_KAFKA_TOPIC and optionally KAFKA_GROUP_ID.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"bankdesk/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.TelemetryKafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("eventtail: KAFKA_BROKERS is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.TelemetryKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("eventtail: shutting down...")
		cancel()
	}()

	log.Printf("eventtail: consuming from %s (group %s)", cfg.TelemetryKafkaTopic, cfg.KafkaGroupID)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("eventtail: stopped")
				return
			}
			log.Printf("eventtail: kafka read error: %v", err)
			continue
		}
		line, err := formatEvent(msg.Value)
		if err != nil {
			log.Printf("eventtail: skip message at offset %d: %v", msg.Offset, err)
			continue
		}
		fmt.Println(line)
	}
}
