package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "STORE_BACKEND", "CATALOG_TIMEOUT", "EVENT_BROKER", "OUTBOX_MAX_RETRY", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.HttpPort != "8083" {
		t.Errorf("expected port 8083, got %s", cfg.HttpPort)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.StoreBackend)
	}
	if cfg.EventBroker != BrokerNone {
		t.Errorf("expected no broker, got %s", cfg.EventBroker)
	}
	if cfg.CatalogTimeout != 2*time.Second {
		t.Errorf("expected 2s catalog timeout, got %s", cfg.CatalogTimeout)
	}
	if cfg.OutboxMaxRetry != 5 {
		t.Errorf("expected max retry 5, got %d", cfg.OutboxMaxRetry)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("expected cache disabled by default, got %s", cfg.RedisAddr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("CATALOG_TIMEOUT", "750ms")
	t.Setenv("EVENT_BROKER", "kafka")
	t.Setenv("OUTBOX_BATCH_SIZE", "25")

	cfg := Load()
	if cfg.HttpPort != "9000" || cfg.StoreBackend != BackendPostgres || cfg.EventBroker != BrokerKafka {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.CatalogTimeout != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %s", cfg.CatalogTimeout)
	}
	if cfg.OutboxBatchSize != 25 {
		t.Errorf("expected batch size 25, got %d", cfg.OutboxBatchSize)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("CATALOG_TIMEOUT", "soon")
	t.Setenv("OUTBOX_MAX_RETRY", "many")

	cfg := Load()
	if cfg.StoreBackend != BackendMemory {
		t.Errorf("expected fallback to memory, got %s", cfg.StoreBackend)
	}
	if cfg.CatalogTimeout != 2*time.Second {
		t.Errorf("expected fallback timeout, got %s", cfg.CatalogTimeout)
	}
	if cfg.OutboxMaxRetry != 5 {
		t.Errorf("expected fallback retry, got %d", cfg.OutboxMaxRetry)
	}
}
