package cluster

import (
	"fmt"
	"log"
	"os"

	consul "github.com/hashicorp/consul/api"
)

// RegisterService registra este processo no Consul com um health check
// HTTP. O agente usa o IP de quem registra, então Address fica de fora;
// a URL do check usa o hostname do contêiner, resolvível por DNS dentro
// da rede do compose.
func RegisterService(serviceName string, servicePort, healthPort int, consulAddr string) error {
	config := consul.DefaultConfig()
	config.Address = consulAddr

	consulClient, err := consul.NewClient(config)
	if err != nil {
		return fmt.Errorf("creating consul client: %w", err)
	}

	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	// O hostname gera um ID de serviço único por instância.
	serviceID := fmt.Sprintf("%s-%s", serviceName, hostname)

	registration := &consul.AgentServiceRegistration{
		ID:   serviceID,
		Name: serviceName,
		Port: servicePort,

		Check: &consul.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%d/health", hostname, healthPort),
			Timeout:  "5s",
			Interval: "10s",
			// Instâncias que ficarem críticas por mais de um minuto
			// saem sozinhas do catálogo.
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := consulClient.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("registering service in consul: %w", err)
	}

	log.Printf("[Cluster] Service '%s' registered in Consul with ID: %s", serviceName, serviceID)
	return nil
}
