package session

import (
	"encoding/json"
	"log"
	"math/rand/v2"

	"github.com/google/uuid"

	"arena/internal/network"
	"arena/internal/services/events"
	"arena/internal/services/profile"
	"arena/internal/session/message"
)

// DefaultMaxHp é o total de vida de toda sessão nova.
const DefaultMaxHp = 100

// Tipos de mensagem de entrada. profileLoaded é interno: nasce da
// consulta assíncrona ao serviço de perfil e volta pelo Hub.
const (
	msgFindMatch     = "findMatch"
	msgCancelMatch   = "cancelMatch"
	msgBattleAction  = "battleAction"
	msgProfileLoaded = "profileLoaded"
)

// CommandHandlerFunc é a assinatura de todo handler de comando: recebe
// a sessão dona da mensagem e o payload bruto para decodificar.
type CommandHandlerFunc func(h *Handler, session *PlayerSession, payload json.RawMessage)

// Handler implementa network.EventHandler e é o dono de TODO o estado
// compartilhado: o mapa de sessões, a fila de matchmaking e o registro
// de batalhas ativas. Estado inicializado no boot, nada sobrevive a um
// restart. Como o Hub chama tudo da mesma goroutine, cada evento é
// processado até o fim antes do próximo começar.
type Handler struct {
	sessionsByConn map[Conn]*PlayerSession
	sessionsByID   map[string]*PlayerSession

	matchmaker *Matchmaker
	battles    map[string]*Battle

	maxHp int
	rng   *rand.Rand

	publisher *events.Publisher
	profiles  *profile.Client

	// Um roteador por estado do jogador, como comandos válidos mudam
	// conforme ele está no lobby, na fila ou em batalha.
	lobbyRouter  map[string]CommandHandlerFunc
	queueRouter  map[string]CommandHandlerFunc
	battleRouter map[string]CommandHandlerFunc

	// Tipos que existem no protocolo. Um tipo conhecido no estado
	// errado rende um evento de erro; um desconhecido é só logado.
	knownTypes map[string]bool
}

// NewHandler monta o coordenador. publisher e profiles podem ser nil:
// telemetria e perfil são colaboradores opcionais.
func NewHandler(maxHp int, rng *rand.Rand, publisher *events.Publisher, profiles *profile.Client) *Handler {
	if maxHp <= 0 {
		maxHp = DefaultMaxHp
	}
	h := &Handler{
		sessionsByConn: make(map[Conn]*PlayerSession),
		sessionsByID:   make(map[string]*PlayerSession),
		battles:        make(map[string]*Battle),
		maxHp:          maxHp,
		rng:            rng,
		publisher:      publisher,
		profiles:       profiles,
		lobbyRouter:    make(map[string]CommandHandlerFunc),
		queueRouter:    make(map[string]CommandHandlerFunc),
		battleRouter:   make(map[string]CommandHandlerFunc),
		knownTypes:     make(map[string]bool),
	}
	h.matchmaker = NewMatchmaker(h)
	h.registerHandlers()
	return h
}

// --- Implementação da interface network.EventHandler ---

func (h *Handler) OnConnect(c *network.Client) {
	h.connect(c)
}

func (h *Handler) OnDisconnect(c *network.Client) {
	h.disconnect(c)
}

func (h *Handler) OnMessage(c *network.Client, msg network.Message) {
	h.message(c, msg)
}

func (h *Handler) OnInject(c *network.Client, msg network.Message) {
	h.inject(c, msg)
}

// --- Caminhos internos, testáveis com uma Conn falsa ---

// connect cria a identidade de sessão e anuncia ela ao cliente.
func (h *Handler) connect(conn Conn) {
	id := uuid.NewString()
	name := "Player_" + id[len(id)-4:]

	session := NewPlayerSession(id, name, h.maxHp, conn)
	h.sessionsByConn[conn] = session
	h.sessionsByID[id] = session

	log.Printf("[Handler] Session created for '%s'. Total sessions: %d", id, len(h.sessionsByConn))

	session.Send() <- message.Connected(id, name, session.Hp, session.MaxHp)

	// A consulta de perfil roda fora da goroutine do Hub e reinjeta o
	// resultado; nada aqui espera por ela.
	if h.profiles != nil {
		go h.seedProfile(conn, name)
	}
}

// disconnect é o caminho único de limpeza de uma sessão. Idempotente:
// na segunda chamada a sessão já saiu do mapa e nada mais acontece.
func (h *Handler) disconnect(conn Conn) {
	session, ok := h.sessionsByConn[conn]
	if !ok {
		return
	}

	// Se estava na fila, sai dela. Ausência é no-op.
	h.matchmaker.Cancel(session)

	// Se estava em batalha, o par restante vence por W.O.
	if session.InBattle {
		if battle, ok := h.battles[session.BattleID]; ok {
			peer := battle.Forfeit(session)
			delete(h.battles, battle.ID)
			h.publisher.BattleEnded(battle.ID, peer.ID, session.ID, "forfeit")
			h.saveResult(peer.Name, session.Name)
		} else {
			session.leaveBattle()
		}
	}

	delete(h.sessionsByConn, conn)
	delete(h.sessionsByID, session.ID)
	log.Printf("[Handler] Session for '%s' removed. Total sessions: %d", session.ID, len(h.sessionsByConn))
}

// message roteia um frame decodificado para o handler do comando.
func (h *Handler) message(conn Conn, msg network.Message) {
	session, ok := h.sessionsByConn[conn]
	if !ok {
		// A limpeza pode correr com frames ainda em trânsito.
		return
	}

	var router map[string]CommandHandlerFunc
	switch session.State {
	case state_LOBBY:
		router = h.lobbyRouter
	case state_IN_QUEUE:
		router = h.queueRouter
	case state_IN_BATTLE:
		router = h.battleRouter
	default:
		message.SendError(session, "Invalid player state: %s", session.State)
		return
	}

	handler, found := router[msg.Type]
	if !found {
		if h.knownTypes[msg.Type] {
			// Comando real, estado errado: só o ofensor fica sabendo.
			message.SendError(session, "Command '%s' is not valid right now.", msg.Type)
		} else {
			// Tipo desconhecido: loga e descarta, sem mutar nada.
			log.Printf("[Handler] Unknown message type '%s' from '%s'; dropped", msg.Type, session.ID)
		}
		return
	}

	handler(h, session, msg.Payload)
}

// inject trata mensagens reapresentadas pelo próprio servidor. Elas
// nunca passam pelos roteadores de comando: profileLoaded, por
// exemplo, só é aceito por aqui, então um frame do socket com essa
// tag cai no caminho de tipo desconhecido.
func (h *Handler) inject(conn Conn, msg network.Message) {
	session, ok := h.sessionsByConn[conn]
	if !ok {
		return
	}

	switch msg.Type {
	case msgProfileLoaded:
		handleProfileLoaded(h, session, msg.Payload)
	default:
		log.Printf("[Handler] Unexpected injected message type '%s' for '%s'; dropped", msg.Type, session.ID)
	}
}

// startBattle é chamado pelo Matchmaker com os dois mais antigos da
// fila. O primeiro dequeued abre o turno.
func (h *Handler) startBattle(player1, player2 *PlayerSession) {
	battle := NewBattle(uuid.NewString(), player1, player2)
	h.battles[battle.ID] = battle
	battle.Start()
	h.publisher.BattleStarted(battle.ID, player1.ID, player2.ID)
}

// seedProfile consulta o serviço de perfil e, havendo registro,
// reinjeta o resultado para a goroutine do Hub aplicar.
func (h *Handler) seedProfile(conn Conn, name string) {
	record, err := h.profiles.Lookup(name)
	if err != nil {
		log.Printf("[Handler] WARN: profile lookup failed: %v", err)
		return
	}
	if record == nil {
		// Jogador novo: o nome padrão permanece.
		return
	}
	payload, _ := json.Marshal(profileLoadedPayload{Name: record.Name})
	conn.Inject(network.Message{Type: msgProfileLoaded, Payload: payload})
}

// saveResult reporta um desfecho ao serviço de perfil sem bloquear.
func (h *Handler) saveResult(winnerName, loserName string) {
	if h.profiles == nil {
		return
	}
	go func() {
		if err := h.profiles.SaveResult(winnerName, loserName); err != nil {
			log.Printf("[Handler] WARN: failed to save battle result: %v", err)
		}
	}()
}
