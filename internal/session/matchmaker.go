package session

import (
	"errors"
	"log"
)

// Erros de estado da fila, respondidos ao cliente como evento de erro.
var (
	errAlreadyInBattle = errors.New("you are already in a battle")
	errAlreadyQueued   = errors.New("you are already waiting for a match")
)

// Matchmaker mantém a fila de espera, estritamente FIFO: sem peso de
// habilidade, sem prioridade, sem timeout. Ele é propriedade do Handler
// e só é tocado pela goroutine do Hub, então não precisa de locks nem
// de uma goroutine própria. O pareamento acontece no instante em que o
// segundo jogador entra na fila.
type Matchmaker struct {
	queue []*PlayerSession

	handler *Handler
}

func NewMatchmaker(h *Handler) *Matchmaker {
	return &Matchmaker{
		queue:   make([]*PlayerSession, 0),
		handler: h,
	}
}

// Enqueue coloca a sessão no fim da fila. Uma sessão em batalha ou já
// enfileirada é rejeitada sem nenhuma mutação.
func (m *Matchmaker) Enqueue(session *PlayerSession) error {
	if session.InBattle {
		return errAlreadyInBattle
	}
	for _, queued := range m.queue {
		if queued == session {
			return errAlreadyQueued
		}
	}

	m.queue = append(m.queue, session)
	session.State = state_IN_QUEUE
	log.Printf("[Matchmaker] Player '%s' added to queue. Queue size: %d", session.ID, len(m.queue))
	return nil
}

// Cancel remove a sessão da fila, se presente. Ausência é um no-op
// silencioso: o chamador decide se confirma algo ao cliente.
func (m *Matchmaker) Cancel(session *PlayerSession) bool {
	for i, queued := range m.queue {
		if queued == session {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			session.State = state_LOBBY
			log.Printf("[Matchmaker] Player '%s' removed from queue. Queue size: %d", session.ID, len(m.queue))
			return true
		}
	}
	return false
}

// TryPair forma batalhas enquanto houver pelo menos dois na fila,
// sempre com os dois mais antigos.
func (m *Matchmaker) TryPair() {
	for len(m.queue) >= 2 {
		player1 := m.queue[0]
		player2 := m.queue[1]
		m.queue = m.queue[2:]

		log.Printf("[Matchmaker] MATCH FOUND! Pairing '%s' and '%s'. Queue size: %d",
			player1.ID, player2.ID, len(m.queue))

		m.handler.startBattle(player1, player2)
	}
}

// Queued informa se a sessão está na fila neste momento.
func (m *Matchmaker) Queued(session *PlayerSession) bool {
	for _, queued := range m.queue {
		if queued == session {
			return true
		}
	}
	return false
}
