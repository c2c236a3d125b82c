// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dealflow-workers/internal/common/camunda"
	"dealflow-workers/internal/common/config"
	"dealflow-workers/internal/common/database"
	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/common/observability"
	"dealflow-workers/internal/common/propertydata"
	"dealflow-workers/internal/dedupe"
	"dealflow-workers/internal/session"

	cr "dealflow-workers/internal/workers/agents/compose-reply"
	ql "dealflow-workers/internal/workers/crm/query-leads"
	sl "dealflow-workers/internal/workers/crm/save-lead"
	sls "dealflow-workers/internal/workers/data-access/search-leads"
	ad "dealflow-workers/internal/workers/deal-analyzer/analyze-deal"
	epr "dealflow-workers/internal/workers/lead-extraction/extract-property-records"
	sp "dealflow-workers/internal/workers/lead-finder/search-properties"
	nhl "dealflow-workers/internal/workers/notification/notify-hot-lead"
)

// openWorkers collects every started job worker so shutdown can drain them.
var openWorkers []*camunda.Worker

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Shared domain services ---
	tracker := dedupe.NewRedisTracker(redis.Client, time.Duration(cfg.Dedupe.SessionTTL)*time.Second)
	sessionStore := session.NewRedisStore(redis.Client, time.Duration(cfg.Dedupe.SessionTTL)*time.Second)

	propertyClient := propertydata.NewClient(
		cfg.APIs.PropertyData.BaseURL,
		cfg.APIs.PropertyData.APIKey,
		time.Duration(cfg.APIs.PropertyData.Timeout)*time.Millisecond,
	)

	keyPolicy := dedupe.KeyPolicy(cfg.Dedupe.KeyPolicy)

	zapLog.Info("Domain services initialized",
		zap.String("keyPolicy", string(keyPolicy)),
		zap.Int("sessionTTL", cfg.Dedupe.SessionTTL),
	)

	// --- Register Workers ---

	if taskType := epr.TaskType; cfg.Workers[taskType].Enabled {
		handler := epr.NewHandler(
			&epr.Config{
				Timeout:   time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond,
				KeyPolicy: keyPolicy,
			},
			tracker, log,
		)
		startWorker(zeebeClient, taskType, cfg.Workers[taskType], handler.Handle, obs, zapLog)
	}

	if taskType := sp.TaskType; cfg.Workers[taskType].Enabled {
		handler := sp.NewHandler(
			&sp.Config{
				Timeout:      time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond,
				DefaultLimit: 5,
				KeyPolicy:    keyPolicy,
			},
			propertyClient, tracker, sessionStore, log,
		)
		startWorker(zeebeClient, taskType, cfg.Workers[taskType], handler.Handle, obs, zapLog)
	}

	if taskType := ad.TaskType; cfg.Workers[taskType].Enabled {
		handler := ad.NewHandler(
			&ad.Config{
				Timeout:       time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond,
				MaxOfferRatio: 0.70,
			},
			propertyClient, log,
		)
		startWorker(zeebeClient, taskType, cfg.Workers[taskType], handler.Handle, obs, zapLog)
	}

	if taskType := cr.TaskType; cfg.Workers[taskType].Enabled {
		handler := cr.NewHandler(
			&cr.Config{
				GenAIBaseURL: cfg.APIs.GenAI.BaseURL,
				APIKey:       cfg.APIs.GenAI.APIKey,
				Timeout:      time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond,
				MaxRetries:   cfg.Workers[taskType].MaxRetries,
				MaxTokens:    1024,
				Temperature:  0.7,
			},
			log,
		)
		startWorker(zeebeClient, taskType, cfg.Workers[taskType], handler.Handle, obs, zapLog)
	}

	if taskType := sl.TaskType; cfg.Workers[taskType].Enabled {
		handler := sl.NewHandler(
			&sl.Config{
				Timeout:   time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond,
				LeadIndex: cfg.Database.Elasticsearch.LeadIndex,
			},
			pg.DB, esClient, log,
		)
		startWorker(zeebeClient, taskType, cfg.Workers[taskType], handler.Handle, obs, zapLog)
	}

	if taskType := ql.TaskType; cfg.Workers[taskType].Enabled {
		handler := ql.NewHandler(
			&ql.Config{
				Timeout: time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, taskType, cfg.Workers[taskType], handler.Handle, obs, zapLog)
	}

	if taskType := sls.TaskType; cfg.Workers[taskType].Enabled {
		handler := sls.NewHandler(
			&sls.Config{
				Timeout:   time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond,
				LeadIndex: cfg.Database.Elasticsearch.LeadIndex,
			},
			esClient.Client, log,
		)
		startWorker(zeebeClient, taskType, cfg.Workers[taskType], handler.Handle, obs, zapLog)
	}

	if taskType := nhl.TaskType; cfg.Workers[taskType].Enabled {
		handler, err := nhl.NewHandler(
			&nhl.Config{
				EmailEnabled:        cfg.Notifications.Email.Enabled,
				SMSEnabled:          cfg.Notifications.SMS.Enabled,
				FromEmail:           cfg.Notifications.Email.FromEmail,
				ToEmail:             cfg.Notifications.Email.ToEmail,
				PhoneNumber:         cfg.Notifications.SMS.PhoneNumber,
				AWSRegion:           cfg.Notifications.AWS.Region,
				MotivationThreshold: cfg.Notifications.MotivationThreshold,
				HighPriorityScore:   90,
				Timeout:             time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond,
			},
			log,
		)
		if err != nil {
			zapLog.Fatal("failed to create notify-hot-lead handler", zap.Error(err))
		}
		startWorker(zeebeClient, taskType, cfg.Workers[taskType], handler.Handle, obs, zapLog)
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
					"time":   time.Now().Format(time.RFC3339),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range openWorkers {
		w.Close()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc camunda.JobHandler, obs *observability.Observability, log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	w := camunda.NewWorker(
		client,
		taskType,
		wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond,
		handlerFunc,
		obs,
		log,
	)
	openWorkers = append(openWorkers, w)
}
