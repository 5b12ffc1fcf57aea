package session

import (
	"errors"
	"log"
	"math/rand/v2"

	"arena/internal/network"
	"arena/internal/session/message"
)

// Ações reconhecidas de batalha. Qualquer outro token resolve como uma
// ação de dano zero, nunca como rejeição.
const (
	ActionAttack = "attack"
	ActionSkill  = "skill"
	ActionDefend = "defend"
)

var (
	errNotYourTurn = errors.New("it's not your turn")
	errBattleOver  = errors.New("this battle is already over")
)

// Battle é a máquina de estados de um confronto entre exatamente duas
// sessões. Ela referencia as sessões, não as possui: quem as possui é o
// Handler. Enquanto não-terminal, exatamente uma das duas sessões
// detém o turno.
type Battle struct {
	ID string

	player1 *PlayerSession
	player2 *PlayerSession

	currentTurn *PlayerSession
	turnCount   int

	terminal bool
	winner   *PlayerSession
}

func NewBattle(id string, player1, player2 *PlayerSession) *Battle {
	return &Battle{
		ID:      id,
		player1: player1,
		player2: player2,
	}
}

// Start restaura os vitais dos dois lados, prende as sessões à batalha
// e anuncia o início. O primeiro da fila (player1) abre o turno.
func (b *Battle) Start() {
	b.player1.enterBattle(b.ID)
	b.player2.enterBattle(b.ID)
	b.currentTurn = b.player1
	b.turnCount = 1

	log.Printf("[Battle %s] Started: '%s' vs '%s'", b.ID, b.player1.ID, b.player2.ID)

	// Cada lado recebe sua própria visão do começo da partida.
	b.player1.Send() <- message.BattleStart(b.ID, b.player2.Name, true, true)
	b.player2.Send() <- message.BattleStart(b.ID, b.player1.Name, false, false)
}

// SubmitAction resolve a ação do atacante. Fora do turno nada é
// mutado: o erro volta para o chamador responder só ao ofensor.
func (b *Battle) SubmitAction(attacker *PlayerSession, action string, rng *rand.Rand) error {
	if b.terminal {
		return errBattleOver
	}
	if b.currentTurn != attacker {
		return errNotYourTurn
	}

	defender := b.Opponent(attacker)
	damage := rollDamage(rng, action)
	defender.applyDamage(damage)

	log.Printf("[Battle %s] '%s' used %s for %d damage. '%s' hp: %d/%d",
		b.ID, attacker.ID, action, damage, defender.ID, defender.Hp, defender.MaxHp)

	// O resultado da ação é idêntico para os dois lados.
	b.broadcast(message.BattleAction(b.ID, attacker.Name, action, damage, b.player1.Hp, b.player2.Hp))

	if defender.Hp == 0 {
		b.end(attacker)
		return nil
	}

	// Turno alterna estritamente: o defensor é sempre o próximo.
	b.currentTurn = defender
	b.turnCount++

	b.player1.Send() <- message.NextTurn(b.ID, b.turnCount, b.currentTurn == b.player1)
	b.player2.Send() <- message.NextTurn(b.ID, b.turnCount, b.currentTurn == b.player2)
	return nil
}

// end encerra a batalha por vitória: anuncia o resultado a cada lado e
// devolve as duas sessões ao lobby.
func (b *Battle) end(winner *PlayerSession) {
	b.terminal = true
	b.winner = winner
	loser := b.Opponent(winner)

	log.Printf("[Battle %s] Game over. Winner: '%s'", b.ID, winner.ID)

	winner.Send() <- message.BattleEnd(b.ID, "win", winner.ID, loser.ID)
	loser.Send() <- message.BattleEnd(b.ID, "lose", winner.ID, loser.ID)

	winner.leaveBattle()
	loser.leaveBattle()
}

// Forfeit encerra a batalha porque quitter perdeu o transporte. O par
// restante é notificado e declarado vencedor. Retorna o par.
func (b *Battle) Forfeit(quitter *PlayerSession) *PlayerSession {
	peer := b.Opponent(quitter)
	b.terminal = true
	b.winner = peer

	log.Printf("[Battle %s] '%s' disconnected mid-battle. '%s' wins by forfeit", b.ID, quitter.ID, peer.ID)

	peer.Send() <- message.OpponentDisconnected()

	peer.leaveBattle()
	quitter.leaveBattle()
	return peer
}

// Opponent retorna a outra sessão da batalha.
func (b *Battle) Opponent(p *PlayerSession) *PlayerSession {
	if p == b.player1 {
		return b.player2
	}
	return b.player1
}

func (b *Battle) Terminal() bool { return b.terminal }

// broadcast envia a mesma mensagem para ambos os lados.
func (b *Battle) broadcast(msg network.Message) {
	b.player1.Send() <- msg
	b.player2.Send() <- msg
}

// rollDamage sorteia o dano de uma ação. attack fica no intervalo
// fechado [10,24] e skill em [20,44]; defend e tokens desconhecidos
// causam zero. Defender não mitiga dano recebido, apenas significa
// que o atacante não causa nenhum neste turno.
func rollDamage(rng *rand.Rand, action string) int {
	switch action {
	case ActionAttack:
		return 10 + rng.IntN(15)
	case ActionSkill:
		return 20 + rng.IntN(25)
	default:
		return 0
	}
}
