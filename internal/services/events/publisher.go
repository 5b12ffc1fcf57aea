package events

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/nats-io/nats.go"
)

// Assuntos publicados no broker. Consumidores típicos: o serviço de
// perfil e qualquer coletor de telemetria de partidas.
const (
	subjectBattleStarted = "battle.started"
	subjectBattleEnded   = "battle.ended"
)

// BattleStartedEvent anuncia o pareamento de duas sessões.
type BattleStartedEvent struct {
	BattleID  string `json:"battleId"`
	Player1ID string `json:"player1Id"`
	Player2ID string `json:"player2Id"`
}

// BattleEndedEvent anuncia o desfecho de uma batalha. Reason distingue
// vitória por hp zerado ("knockout") de abandono ("forfeit").
type BattleEndedEvent struct {
	BattleID string `json:"battleId"`
	WinnerID string `json:"winnerId"`
	LoserID  string `json:"loserId"`
	Reason   string `json:"reason"`
}

// Publisher emite eventos de batalha via NATS. Um Publisher nil é um
// no-op: o broker é telemetria, nunca um requisito para uma batalha
// prosseguir.
type Publisher struct {
	nc *nats.Conn
}

func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

func (p *Publisher) BattleStarted(battleID, player1ID, player2ID string) {
	p.publish(subjectBattleStarted, BattleStartedEvent{
		BattleID:  battleID,
		Player1ID: player1ID,
		Player2ID: player2ID,
	})
}

func (p *Publisher) BattleEnded(battleID, winnerID, loserID, reason string) {
	p.publish(subjectBattleEnded, BattleEndedEvent{
		BattleID: battleID,
		WinnerID: winnerID,
		LoserID:  loserID,
		Reason:   reason,
	})
}

func (p *Publisher) publish(subject string, event any) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Events] ERROR: failed to marshal %s event: %v", subject, err)
		return
	}
	// Publish é assíncrono no cliente NATS; nunca bloqueia o chamador.
	if err := p.nc.Publish(subject, data); err != nil {
		log.Printf("[Events] WARN: failed to publish %s event: %v", subject, err)
	}
}

// Healthy informa se a conexão com o broker está de pé. Usado pelo
// agregador de health check.
func (p *Publisher) Healthy() error {
	if p == nil || p.nc == nil {
		return nil
	}
	if !p.nc.IsConnected() {
		return errors.New("nats connection is down")
	}
	return nil
}
