package network

// clientMessage empacota um frame junto com o cliente que o originou.
// injected distingue frames vindos do socket de reinjeções feitas pelo
// próprio servidor via Client.Inject; um cliente não consegue forjar
// a flag pelo protocolo.
type clientMessage struct {
	client   *Client
	msg      Message
	injected bool
}

// Hub é o dono de todos os clientes ativos. A goroutine de Run é a
// ÚNICA que toca o mapa de clientes e a única que chama o EventHandler;
// é isso que garante a disciplina de um escritor por vez para todo o
// estado compartilhado do jogo.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// Frames vindos dos readLoops de todos os clientes (e reinjeções
	// via Client.Inject).
	incoming chan clientMessage

	handler EventHandler
}

func NewHub(handler EventHandler) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage),
		handler:    handler,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.handler.OnConnect(client)

		case client := <-h.unregister:
			// O readLoop e o writeLoop podem ambos empurrar o mesmo
			// cliente para cá; o teste de presença garante que o
			// handler vê a desconexão uma única vez.
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Fechar send é o sinal para o writeLoop parar.
				close(client.send)
				h.handler.OnDisconnect(client)
			}

		case clientMsg := <-h.incoming:
			// Mensagens de clientes já removidos são descartadas:
			// a limpeza pode correr com frames ainda em trânsito.
			if _, ok := h.clients[clientMsg.client]; !ok {
				continue
			}
			if clientMsg.injected {
				h.handler.OnInject(clientMsg.client, clientMsg.msg)
			} else {
				h.handler.OnMessage(clientMsg.client, clientMsg.msg)
			}
		}
	}
}
