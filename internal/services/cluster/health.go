package cluster

import (
	"encoding/json"
	"net/http"
	"sync"
)

// CheckFunc é uma verificação de saúde: retorna erro quando falha.
type CheckFunc func() error

// HealthAggregator expõe múltiplas verificações em um único endpoint.
// Sem nenhuma verificação registrada ele responde saudável: processo de
// pé e servidor HTTP respondendo já é um liveness check.
type HealthAggregator struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func NewHealthAggregator() *HealthAggregator {
	return &HealthAggregator{
		checks: make(map[string]CheckFunc),
	}
}

// AddCheck registra uma verificação sob um nome.
func (h *HealthAggregator) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Handler roda todas as verificações. Todas passando: 200. Qualquer
// falha: 503 com o mapa de erros por verificação.
func (h *HealthAggregator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.RLock()
		defer h.mu.RUnlock()

		failures := make(map[string]string)
		for name, check := range h.checks {
			if err := check(); err != nil {
				failures[name] = err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if len(failures) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(failures)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}
