package message

// Aqui ficam as mensagens no sentido servidor -> cliente.
import (
	"encoding/json"

	"arena/internal/network"
)

// ConnectedPayload é o primeiro evento que todo cliente recebe,
// carregando a identidade de sessão recém-criada e seus vitais.
type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Hp       int    `json:"hp"`
	MaxHp    int    `json:"maxHp"`
}

// InfoPayload serve para os eventos que só carregam um texto.
type InfoPayload struct {
	Message string `json:"message"`
}

type BattleStartPayload struct {
	BattleID     string `json:"battleId"`
	OpponentName string `json:"opponentName"`
	YourTurn     bool   `json:"yourTurn"`
	IsPlayer1    bool   `json:"isPlayer1"`
}

type BattleActionPayload struct {
	BattleID     string `json:"battleId"`
	AttackerName string `json:"attackerName"`
	Action       string `json:"action"`
	Damage       int    `json:"damage"`
	Player1Hp    int    `json:"player1Hp"`
	Player2Hp    int    `json:"player2Hp"`
}

type NextTurnPayload struct {
	BattleID  string `json:"battleId"`
	TurnCount int    `json:"turnCount"`
	YourTurn  bool   `json:"yourTurn"`
}

type BattleEndPayload struct {
	BattleID string `json:"battleId"`
	Result   string `json:"result"` // "win" ou "lose"
	WinnerID string `json:"winnerId"`
	LoserID  string `json:"loserId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func Connected(playerID, name string, hp, maxHp int) network.Message {
	return envelope("connected", ConnectedPayload{
		PlayerID: playerID,
		Name:     name,
		Hp:       hp,
		MaxHp:    maxHp,
	})
}

func MatchSearching() network.Message {
	return envelope("matchSearching", InfoPayload{Message: "Searching for an opponent..."})
}

func MatchCanceled() network.Message {
	return envelope("matchCanceled", InfoPayload{Message: "Matchmaking canceled."})
}

func BattleStart(battleID, opponentName string, yourTurn, isPlayer1 bool) network.Message {
	return envelope("battleStart", BattleStartPayload{
		BattleID:     battleID,
		OpponentName: opponentName,
		YourTurn:     yourTurn,
		IsPlayer1:    isPlayer1,
	})
}

func BattleAction(battleID, attackerName, action string, damage, player1Hp, player2Hp int) network.Message {
	return envelope("battleAction", BattleActionPayload{
		BattleID:     battleID,
		AttackerName: attackerName,
		Action:       action,
		Damage:       damage,
		Player1Hp:    player1Hp,
		Player2Hp:    player2Hp,
	})
}

func NextTurn(battleID string, turnCount int, yourTurn bool) network.Message {
	return envelope("nextTurn", NextTurnPayload{
		BattleID:  battleID,
		TurnCount: turnCount,
		YourTurn:  yourTurn,
	})
}

func BattleEnd(battleID, result, winnerID, loserID string) network.Message {
	return envelope("battleEnd", BattleEndPayload{
		BattleID: battleID,
		Result:   result,
		WinnerID: winnerID,
		LoserID:  loserID,
	})
}

func OpponentDisconnected() network.Message {
	return envelope("opponentDisconnected", InfoPayload{
		Message: "Your opponent has disconnected. You win.",
	})
}

func Error(errorMsg string) network.Message {
	return envelope("error", ErrorPayload{Message: errorMsg})
}

// envelope monta o network.Message final. O marshal de structs simples
// como as daqui não falha, então o erro é descartado.
func envelope(msgType string, payload any) network.Message {
	payloadBytes, _ := json.Marshal(payload)
	return network.Message{
		Type:    msgType,
		Payload: payloadBytes,
	}
}
