package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"arena/internal/network"
	"arena/internal/services/cluster"
	"arena/internal/services/events"
	"arena/internal/services/profile"
	"arena/internal/session"
)

// ============================================================================
// Constantes de Configuração Padrão
// ============================================================================
const (
	defaultServiceName = "arena-battle"
	defaultServicePort = 8080
	defaultHealthPort  = 8080 // Por padrão, a mesma porta do serviço.
)

// ============================================================================
// Lógica de Configuração
// ============================================================================

// Config armazena todas as configurações da aplicação.
type Config struct {
	ServiceName string
	ServicePort int
	HealthPort  int

	// Colaboradores opcionais. Vazio = desligado.
	ConsulAddr string
	NatsURL    string
	ProfileURL string

	MaxHp int
}

// loadConfig carrega a configuração a partir de variáveis de ambiente.
func loadConfig() (*Config, error) {
	serviceName := os.Getenv("BATTLE_SERVICE_NAME")
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	servicePort, err := portFromEnv("BATTLE_SERVICE_PORT", defaultServicePort)
	if err != nil {
		return nil, err
	}

	healthPort, err := portFromEnv("HEALTH_CHECK_PORT", defaultHealthPort)
	if err != nil {
		return nil, err
	}

	maxHp := session.DefaultMaxHp
	if raw := os.Getenv("MAX_HP"); raw != "" {
		maxHp, err = strconv.Atoi(raw)
		if err != nil || maxHp <= 0 {
			return nil, fmt.Errorf("invalid MAX_HP value: %q", raw)
		}
	}

	return &Config{
		ServiceName: serviceName,
		ServicePort: servicePort,
		HealthPort:  healthPort,
		ConsulAddr:  os.Getenv("CONSUL_HTTP_ADDR"),
		NatsURL:     os.Getenv("NATS_URL"),
		ProfileURL:  os.Getenv("PROFILE_SERVICE_URL"),
		MaxHp:       maxHp,
	}, nil
}

func portFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %q", key, raw)
	}
	return port, nil
}

// ============================================================================
// Função Main
// ============================================================================
func main() {
	// 1. CARREGA A CONFIGURAÇÃO
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Fatal: failed to load configuration: %v", err)
	}
	log.Printf("[Main] Configuration loaded: ServiceName=%s, Port=%d, HealthPort=%d",
		cfg.ServiceName, cfg.ServicePort, cfg.HealthPort)

	// 2. COLABORADORES OPCIONAIS: TELEMETRIA E PERFIL
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			log.Fatalf("Fatal: failed to connect to NATS at %s: %v", cfg.NatsURL, err)
		}
		defer nc.Close()
		publisher = events.NewPublisher(nc)
		log.Printf("[Main] Battle telemetry enabled via NATS at %s.", cfg.NatsURL)
	} else {
		log.Println("[Main] NATS_URL not set; battle telemetry disabled.")
	}

	var profiles *profile.Client
	if cfg.ProfileURL != "" {
		profiles = profile.NewClient(cfg.ProfileURL)
		log.Printf("[Main] Profile service client pointed at %s.", cfg.ProfileURL)
	} else {
		log.Println("[Main] PROFILE_SERVICE_URL not set; profile integration disabled.")
	}

	// 3. MONTA A LÓGICA DO JOGO
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid())))
	handler := session.NewHandler(cfg.MaxHp, rng, publisher, profiles)
	server := network.NewServer(handler)
	log.Println("[Main] Battle handler and network server created.")

	// 4. HEALTH CHECK E REGISTRO NO CONSUL
	health := cluster.NewHealthAggregator()
	if publisher != nil {
		health.AddCheck("nats", publisher.Healthy)
	}
	http.HandleFunc("/health", health.Handler())

	if cfg.ConsulAddr != "" {
		if err := cluster.RegisterService(cfg.ServiceName, cfg.ServicePort, cfg.HealthPort, cfg.ConsulAddr); err != nil {
			log.Fatalf("Fatal: failed to register service in Consul: %v", err)
		}
	} else {
		log.Println("[Main] CONSUL_HTTP_ADDR not set; running unregistered.")
	}

	// 5. INICIA O SERVIDOR PRINCIPAL
	// Listen é bloqueante e serve o WebSocket (/ws) e o health (/health).
	address := fmt.Sprintf("0.0.0.0:%d", cfg.ServicePort)
	log.Printf("[Main] Battle server (WebSocket & HTTP) starting on %s.", address)

	if err := server.Listen(address); err != nil {
		log.Fatalf("Fatal: network server failed: %v", err)
	}
}
