package network

import (
	"net"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Tempo máximo para concluir uma escrita na conexão.
	writeWait = 10 * time.Second

	// Tempo máximo esperando um pong do cliente antes de considerar
	// a conexão morta.
	pongWait = 60 * time.Second

	// Frequência dos pings. Precisa ser menor que pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client representa um jogador conectado do ponto de vista do servidor.
// Ele agrupa a conexão WebSocket e o canal de saída; toda a identidade
// de jogo (sessão, hp, batalha) vive na camada de sessão.
type Client struct {
	conn *websocket.Conn

	// Referência ao Hub, usada para (des)registro e reinjeção.
	hub *Hub

	// Canal bufferizado de mensagens de saída. O buffer evita que a
	// goroutine do Hub bloqueie atrás de um cliente lento.
	send chan Message
}

// Conn expõe a net.Conn subjacente, útil para logar o endereço remoto.
func (c *Client) Conn() net.Conn {
	return c.conn.UnderlyingConn()
}

// Send retorna o canal de saída do cliente. Escrever nele é a única
// forma segura de enviar algo para este jogador.
func (c *Client) Send() chan<- Message {
	return c.send
}

// Inject reapresenta uma mensagem ao Hub em nome deste cliente. É o
// caminho para trabalho assíncrono (ex.: consulta ao serviço de
// perfil) voltar para a goroutine única que muta estado. A marca
// injected separa este caminho dos frames lidos do socket, que um
// cliente malicioso controla.
func (c *Client) Inject(msg Message) {
	c.hub.incoming <- clientMessage{client: c, msg: msg, injected: true}
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	// Cada pong recebido empurra o deadline de leitura para frente,
	// mantendo viva uma conexão ociosa mas saudável.
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			// Qualquer erro (desconexão normal ou não) encerra o loop;
			// o defer acima cuida do desregistro.
			break
		}
		c.hub.incoming <- clientMessage{client: c, msg: msg}
	}
}

// writeLoop bombeia o canal send para a conexão e intercala pings.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// O Hub fechou o canal: o cliente foi desregistrado.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
