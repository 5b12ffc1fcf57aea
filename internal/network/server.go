package network

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server amarra o upgrader HTTP->WebSocket ao Hub.
type Server struct {
	hub *Hub
}

var upgrader = websocket.Upgrader{
	// Qualquer origem é aceita: autenticação está fora do escopo deste
	// servidor e o cliente do jogo conecta de hosts variados.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// NewServer injeta a lógica do jogo (um EventHandler) no Hub.
func NewServer(handler EventHandler) *Server {
	return &Server{
		hub: NewHub(handler),
	}
}

// wsHandler promove a requisição HTTP para WebSocket e registra o
// cliente resultante no Hub.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Server] ERROR: websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		hub:  s.hub,
		send: make(chan Message, 256),
	}

	client.hub.register <- client

	go client.writeLoop()
	go client.readLoop()
}

// Listen inicia a goroutine do Hub e serve a rota /ws. Bloqueante.
func (s *Server) Listen(address string) error {
	go s.hub.Run()

	http.HandleFunc("/ws", s.wsHandler)

	log.Printf("[Server] WebSocket server listening on ws://%s/ws", address)

	return http.ListenAndServe(address, nil)
}
