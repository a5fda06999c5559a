package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"glucose-sentinel/internal/alerting/notify"
	analysisapp "glucose-sentinel/internal/analysis/application"
	analysisinterfaces "glucose-sentinel/internal/analysis/interfaces"
	"glucose-sentinel/internal/config"
	"glucose-sentinel/internal/eventing"
	eventingrepo "glucose-sentinel/internal/eventing/infrastructure/postgres"
	"glucose-sentinel/internal/observability/metrics"
	telemetrypostgres "glucose-sentinel/internal/telemetry/infrastructure/postgres"
	"glucose-sentinel/internal/telemetry/interfaces/export"
	"glucose-sentinel/internal/telemetry/interfaces/ingest"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)

	sampleRepo := telemetrypostgres.NewSampleRepository(db)
	sampleQuery := telemetrypostgres.NewSampleQuery(db)
	processedStore := eventingrepo.NewProcessedStore(db)

	bus := eventing.NewInMemoryBus()
	publisher := eventing.NewPublisher(bus)

	channel, err := buildChannel(cfg.Alerts)
	if err != nil {
		logger.Fatalf("alert channel error: %v", err)
	}
	template, err := notify.NewTemplate(cfg.Alerts.Template)
	if err != nil {
		logger.Fatalf("alert template error: %v", err)
	}

	serviceOpts := []analysisapp.ServiceOption{
		analysisapp.WithDispatchTimeout(cfg.Alerts.DispatchTimeout),
	}
	if cfg.Alerts.AttachPDF {
		serviceOpts = append(serviceOpts, analysisapp.WithPDFDigest())
	}
	analysisService, err := analysisapp.NewService(sampleQuery, channel, template, cfg.Analysis, logger, serviceOpts...)
	if err != nil {
		logger.Fatalf("analysis service error: %v", err)
	}

	consumer, err := analysisinterfaces.NewSampleStoredConsumer(analysisService, logger)
	if err != nil {
		logger.Fatalf("analysis consumer error: %v", err)
	}
	consumer.Register(bus, processedStore)

	ingestHandler, err := ingest.NewHandler(sampleRepo, publisher, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	triggerHandler, err := analysisinterfaces.NewTriggerHandler(analysisService, logger)
	if err != nil {
		logger.Fatalf("trigger handler error: %v", err)
	}
	exportHandler, err := export.NewWindowHandler(sampleQuery, cfg.Analysis.WindowSize, logger)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ingest/telemetry", ingestHandler)
	mux.Handle("/analysis/trigger", triggerHandler)
	mux.Handle("/api/v1/devices/", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func buildChannel(cfg config.AlertConfig) (notify.Channel, error) {
	var channels []notify.Channel
	if cfg.SMTPAddr != "" {
		var opts []notify.SMTPOption
		if cfg.SMTPUsername != "" {
			opts = append(opts, notify.WithAuth(cfg.SMTPUsername, cfg.SMTPPassword))
		}
		smtpChannel, err := notify.NewSMTPChannel(cfg.SMTPAddr, cfg.Sender, cfg.Recipients, opts...)
		if err != nil {
			return nil, err
		}
		channels = append(channels, smtpChannel)
	}
	if cfg.WebhookURL != "" {
		webhookChannel, err := notify.NewWebhookChannel(cfg.WebhookURL)
		if err != nil {
			return nil, err
		}
		channels = append(channels, webhookChannel)
	}
	if len(channels) == 1 {
		return channels[0], nil
	}
	return notify.NewMultiChannel(channels...), nil
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
