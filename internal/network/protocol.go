package network

import "encoding/json"

// Message é o envelope padrão de toda a comunicação com o cliente.
// O campo Type identifica o evento e o Payload carrega os dados em
// JSON bruto, decodificado apenas por quem conhece aquele tipo.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MaxMessageSize limita o tamanho de um frame vindo do cliente.
// Nenhuma mensagem legítima do protocolo chega perto disso.
const MaxMessageSize = 4096
