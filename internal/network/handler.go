package network

// EventHandler é a interface que liga a camada de rede à lógica do jogo.
// O Hub chama estes métodos sempre a partir da MESMA goroutine, então a
// implementação pode mutar seu estado interno sem locks.
type EventHandler interface {
	// OnConnect é chamado quando um novo cliente completa o handshake.
	OnConnect(c *Client)

	// OnDisconnect é chamado exatamente uma vez quando o cliente sai,
	// seja por fechamento limpo ou por erro de transporte.
	OnDisconnect(c *Client)

	// OnMessage é chamado para cada frame decodificado do cliente.
	OnMessage(c *Client, msg Message)

	// OnInject é chamado para mensagens reapresentadas pelo próprio
	// servidor via Client.Inject. Elas nunca vêm do socket, então a
	// implementação pode confiar nelas mais do que em um frame do
	// cliente.
	OnInject(c *Client, msg Message)
}
