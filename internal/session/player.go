package session

import (
	"arena/internal/network"
)

// Constantes de estado da sessão para evitar erros de digitação.
const (
	state_LOBBY     = "lobby"     // Conectado, fora de fila e de batalha.
	state_IN_QUEUE  = "in-queue"  // Aguardando um oponente na fila.
	state_IN_BATTLE = "in-battle" // Em uma batalha ativa.
)

// Conn é a fatia de *network.Client que a camada de sessão usa.
// Manter uma interface aqui permite exercitar todo o fluxo de jogo
// nos testes sem abrir sockets.
type Conn interface {
	// Send retorna o canal de saída do cliente.
	Send() chan<- network.Message

	// Inject reapresenta uma mensagem à goroutine única do Hub.
	Inject(msg network.Message)
}

// PlayerSession é o registro efêmero de um jogador conectado: sua
// identidade, vitais e vínculo de batalha. Criado na conexão e
// destruído na desconexão; só a goroutine do Hub o muta.
type PlayerSession struct {
	ID   string
	Name string

	Hp    int
	MaxHp int

	InBattle bool
	BattleID string

	State string

	conn Conn
}

func NewPlayerSession(id, name string, maxHp int, conn Conn) *PlayerSession {
	return &PlayerSession{
		ID:    id,
		Name:  name,
		Hp:    maxHp,
		MaxHp: maxHp,
		State: state_LOBBY,
		conn:  conn,
	}
}

// Send satisfaz message.Sender, então os helpers de mensagem aceitam a
// sessão diretamente.
func (p *PlayerSession) Send() chan<- network.Message {
	return p.conn.Send()
}

// enterBattle amarra a sessão a uma batalha e restaura os vitais.
func (p *PlayerSession) enterBattle(battleID string) {
	p.Hp = p.MaxHp
	p.InBattle = true
	p.BattleID = battleID
	p.State = state_IN_BATTLE
}

// leaveBattle limpa o vínculo de batalha e devolve a sessão ao lobby.
func (p *PlayerSession) leaveBattle() {
	p.InBattle = false
	p.BattleID = ""
	p.State = state_LOBBY
}

// applyDamage subtrai dano travando o hp em zero.
func (p *PlayerSession) applyDamage(damage int) {
	p.Hp -= damage
	if p.Hp < 0 {
		p.Hp = 0
	}
}
