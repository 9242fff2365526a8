// Command bankdesk is the terminal client of the banking back office: customers see their accounts and
// transfer money behind a transfer PIN; staff review account requests.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"

	"bankdesk/internal/bankapi"
	"bankdesk/internal/config"
	identityservice "bankdesk/internal/identity/service"
	"bankdesk/internal/policy/engine"
	"bankdesk/internal/security"
	"bankdesk/internal/telemetry"
	telemetryotel "bankdesk/internal/telemetry/otel"
	"bankdesk/internal/telemetry/producer"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	fs := pflag.NewFlagSet("bankdesk", pflag.ExitOnError)
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Settings{
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
	})
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	emitters := telemetry.Fanout{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	var kafkaProducer producer.Producer
	if kp, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic); err != nil {
		log.Printf("telemetry: kafka sink disabled: %v", err)
	} else if kp != nil {
		kafkaProducer = kp
		emitters = append(emitters, kp)
		log.Printf("telemetry: emitting events to kafka topic %s", cfg.TelemetryKafkaTopic)
	}

	policy, err := engine.NewAuthorizerFromFile(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("policy: %v", err)
	}
	if err := policy.HealthCheck(ctx); err != nil {
		log.Fatalf("policy: %v", err)
	}

	var verifier identityservice.TokenVerifier
	if cfg.JWTPublicKey != "" {
		v, err := security.NewTokenVerifierFromPEM(cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience)
		if err != nil {
			log.Fatalf("security: %v", err)
		}
		verifier = v
	}

	app := newApp(deps{
		api:           bankapi.NewClient(cfg.BankAPIURL, cfg.RequestTimeout()),
		policy:        policy,
		verifier:      verifier,
		emitter:       emitters,
		meter:         otel.Meter("bankdesk"),
		submitTimeout: cfg.SubmitTimeout(),
	}, os.Stdin, os.Stdout)

	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-done:
		if err != nil {
			log.Printf("bankdesk: %v", err)
		}
	case <-quit:
		log.Println("bankdesk: shutting down...")
		cancel()
	}

	if !telemetry.Drain(telemetry.ShutdownDrainDuration) {
		log.Println("telemetry: some events were not emitted before shutdown")
	}
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Printf("telemetry: kafka close: %v", err)
		}
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), telemetry.ShutdownDrainDuration)
	defer shutdownCancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry: shutdown: %v", err)
	}
}
