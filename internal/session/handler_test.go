package session

import (
	"encoding/json"
	"testing"

	"arena/internal/network"
)

func frame(t *testing.T, msgType string, payload any) network.Message {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal test payload: %v", err)
		}
		raw = bytes
	}
	return network.Message{Type: msgType, Payload: raw}
}

func actionFrame(t *testing.T, action string) network.Message {
	return frame(t, "battleAction", map[string]string{"action": action})
}

// connectPlayer conecta uma Conn falsa e devolve a sessão criada.
func connectPlayer(t *testing.T, h *Handler) (*fakeConn, *PlayerSession) {
	t.Helper()
	conn := newFakeConn()
	h.connect(conn)

	connected := decodePayload[connectedView](t, conn.expect(t, "connected"))
	session, ok := h.sessionsByID[connected.PlayerID]
	if !ok {
		t.Fatalf("connected event references unknown session %q", connected.PlayerID)
	}
	if connected.Hp != session.MaxHp || connected.Name != session.Name {
		t.Fatalf("connected snapshot mismatch: %+v", connected)
	}
	return conn, session
}

type connectedView struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Hp       int    `json:"hp"`
	MaxHp    int    `json:"maxHp"`
}

type errorView struct {
	Message string `json:"message"`
}

// checkInvariants confere, depois de cada operação, o contrato entre
// sessões, fila e batalhas.
func checkInvariants(t *testing.T, h *Handler) {
	t.Helper()
	for id, session := range h.sessionsByID {
		if session.Hp < 0 || session.Hp > session.MaxHp {
			t.Fatalf("session %s hp %d outside [0,%d]", id, session.Hp, session.MaxHp)
		}
		if session.InBattle {
			battle, ok := h.battles[session.BattleID]
			if !ok {
				t.Fatalf("session %s claims battle %q which does not exist", id, session.BattleID)
			}
			if battle.Terminal() {
				t.Fatalf("session %s is bound to a terminal battle", id)
			}
			if battle.player1 != session && battle.player2 != session {
				t.Fatalf("session %s bound to a battle that does not contain it", id)
			}
		} else if session.BattleID != "" {
			t.Fatalf("session %s has battleId %q while not in battle", id, session.BattleID)
		}
	}
	for id, battle := range h.battles {
		if battle.currentTurn != battle.player1 && battle.currentTurn != battle.player2 {
			t.Fatalf("battle %s current turn holder is not a participant", id)
		}
	}
	seen := make(map[*PlayerSession]bool)
	for _, queued := range h.matchmaker.queue {
		if seen[queued] {
			t.Fatalf("session %s queued more than once", queued.ID)
		}
		seen[queued] = true
		if queued.State != state_IN_QUEUE {
			t.Fatalf("queued session %s has state %s", queued.ID, queued.State)
		}
	}
}

// startTestBattle conecta dois jogadores e os leva até o battleStart.
// O primeiro conectado entra na fila primeiro e abre o turno.
func startTestBattle(t *testing.T) (*Handler, *fakeConn, *PlayerSession, *fakeConn, *PlayerSession) {
	t.Helper()
	h := newTestHandler()
	conn1, p1 := connectPlayer(t, h)
	conn2, p2 := connectPlayer(t, h)

	h.message(conn1, frame(t, "findMatch", nil))
	conn1.expect(t, "matchSearching")

	h.message(conn2, frame(t, "findMatch", nil))
	conn2.expect(t, "matchSearching")

	start1 := decodePayload[battleStartView](t, conn1.expect(t, "battleStart"))
	start2 := decodePayload[battleStartView](t, conn2.expect(t, "battleStart"))
	if !start1.YourTurn || start2.YourTurn {
		t.Fatalf("first queued player must open the turn: %+v / %+v", start1, start2)
	}
	checkInvariants(t, h)
	return h, conn1, p1, conn2, p2
}

func TestScenarioMatchAndOutOfTurnAction(t *testing.T) {
	h, conn1, p1, conn2, p2 := startTestBattle(t)

	// P2 age fora do turno: erro só para ele, nada muda.
	h.message(conn2, actionFrame(t, ActionAttack))
	errView := decodePayload[errorView](t, conn2.expect(t, "error"))
	if errView.Message == "" {
		t.Fatal("error event must carry a message")
	}
	if p1.Hp != 100 || p2.Hp != 100 {
		t.Fatal("out-of-turn action must not change hp")
	}
	if conn1.pending() != 0 {
		t.Fatal("the opponent must not hear about rejected actions")
	}
	battle := h.battles[p1.BattleID]
	if battle.currentTurn != p1 {
		t.Fatal("turn must stay with player1")
	}
	checkInvariants(t, h)

	// Agora o dono do turno ataca.
	h.message(conn1, actionFrame(t, ActionAttack))
	result1 := decodePayload[battleActionView](t, conn1.expect(t, "battleAction"))
	result2 := decodePayload[battleActionView](t, conn2.expect(t, "battleAction"))
	if result1 != result2 {
		t.Fatalf("both sides must see the same result: %+v vs %+v", result1, result2)
	}
	if result1.Player2Hp != 100-result1.Damage || result1.Player1Hp != 100 {
		t.Fatalf("wrong hp snapshot: %+v", result1)
	}

	turn1 := decodePayload[nextTurnView](t, conn1.expect(t, "nextTurn"))
	turn2 := decodePayload[nextTurnView](t, conn2.expect(t, "nextTurn"))
	if turn1.YourTurn || !turn2.YourTurn || turn2.TurnCount != 2 {
		t.Fatalf("turn must flip to player2: %+v / %+v", turn1, turn2)
	}
	checkInvariants(t, h)
}

func TestScenarioKillingBlowEndsBattle(t *testing.T) {
	h, conn1, p1, conn2, p2 := startTestBattle(t)

	// P1 com 12 de hp, P2 na vez: o skill (mínimo 20) encerra.
	battleID := p1.BattleID
	p1.Hp = 12
	h.message(conn1, actionFrame(t, ActionDefend))
	conn1.drain()
	conn2.drain()

	h.message(conn2, actionFrame(t, ActionSkill))
	conn1.expect(t, "battleAction")
	conn2.expect(t, "battleAction")

	end1 := decodePayload[battleEndView](t, conn1.expect(t, "battleEnd"))
	end2 := decodePayload[battleEndView](t, conn2.expect(t, "battleEnd"))
	if end1.Result != "lose" || end2.Result != "win" {
		t.Fatalf("expected p2 to win: %+v / %+v", end1, end2)
	}
	if end1.WinnerID != p2.ID || end1.LoserID != p1.ID {
		t.Fatalf("wrong ids in battleEnd: %+v", end1)
	}

	if p1.Hp != 0 {
		t.Fatalf("loser hp must clamp at 0, got %d", p1.Hp)
	}
	if p1.InBattle || p2.InBattle {
		t.Fatal("both sessions must be released after battleEnd")
	}
	if _, ok := h.battles[battleID]; ok {
		t.Fatal("terminal battle must be discarded")
	}
	checkInvariants(t, h)

	// Depois do fim, agir responde erro de estado.
	h.message(conn2, actionFrame(t, ActionAttack))
	conn2.expect(t, "error")
	checkInvariants(t, h)
}

func TestScenarioDisconnectMidBattle(t *testing.T) {
	h, conn1, p1, conn2, p2 := startTestBattle(t)
	battleID := p1.BattleID

	h.disconnect(conn1)

	conn2.expect(t, "opponentDisconnected")
	if p2.InBattle || p2.BattleID != "" {
		t.Fatal("peer must be released from the battle")
	}
	if _, ok := h.battles[battleID]; ok {
		t.Fatal("battle must be discarded on disconnect")
	}
	if _, ok := h.sessionsByID[p1.ID]; ok {
		t.Fatal("disconnected session must leave the store")
	}
	if _, ok := h.sessionsByConn[conn1]; ok {
		t.Fatal("disconnected conn must leave the store")
	}
	checkInvariants(t, h)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	h, conn1, _, conn2, _ := startTestBattle(t)

	h.disconnect(conn1)
	conn2.expect(t, "opponentDisconnected")
	conn2.drain()

	sessions, battles := len(h.sessionsByID), len(h.battles)
	h.disconnect(conn1)
	if len(h.sessionsByID) != sessions || len(h.battles) != battles {
		t.Fatal("second disconnect must not change anything")
	}
	if conn2.pending() != 0 {
		t.Fatal("second disconnect must not emit events")
	}
	checkInvariants(t, h)
}

func TestDisconnectWhileQueued(t *testing.T) {
	h := newTestHandler()
	conn, s := connectPlayer(t, h)

	h.message(conn, frame(t, "findMatch", nil))
	conn.expect(t, "matchSearching")

	h.disconnect(conn)
	if h.matchmaker.Queued(s) {
		t.Fatal("disconnected session must leave the queue")
	}
	if len(h.sessionsByID) != 0 {
		t.Fatal("session store must be empty")
	}
	checkInvariants(t, h)
}

func TestDuplicateFindMatchIsStateError(t *testing.T) {
	h := newTestHandler()
	conn, _ := connectPlayer(t, h)

	h.message(conn, frame(t, "findMatch", nil))
	conn.expect(t, "matchSearching")

	h.message(conn, frame(t, "findMatch", nil))
	conn.expect(t, "error")
	if len(h.matchmaker.queue) != 1 {
		t.Fatal("duplicate enrollment must not grow the queue")
	}
	checkInvariants(t, h)
}

func TestCancelMatch(t *testing.T) {
	h := newTestHandler()
	conn, s := connectPlayer(t, h)

	// Cancelar sem estar na fila: no-op silencioso.
	h.message(conn, frame(t, "cancelMatch", nil))
	if conn.pending() != 0 {
		t.Fatal("canceling while not queued must be silent")
	}

	h.message(conn, frame(t, "findMatch", nil))
	conn.expect(t, "matchSearching")

	h.message(conn, frame(t, "cancelMatch", nil))
	conn.expect(t, "matchCanceled")
	if h.matchmaker.Queued(s) || s.State != state_LOBBY {
		t.Fatal("canceled session must be back in the lobby")
	}
	checkInvariants(t, h)
}

func TestUnknownTagIsDroppedSilently(t *testing.T) {
	h := newTestHandler()
	conn, s := connectPlayer(t, h)

	h.message(conn, frame(t, "launchMissiles", map[string]int{"count": 3}))
	if conn.pending() != 0 {
		t.Fatal("unknown tags are logged and dropped, never answered")
	}
	if s.State != state_LOBBY || len(h.matchmaker.queue) != 0 {
		t.Fatal("unknown tags must not mutate state")
	}
}

func TestBattleActionOutsideBattleIsStateError(t *testing.T) {
	h := newTestHandler()
	conn, _ := connectPlayer(t, h)

	h.message(conn, actionFrame(t, ActionAttack))
	errView := decodePayload[errorView](t, conn.expect(t, "error"))
	if errView.Message == "" {
		t.Fatal("state error must carry a message")
	}
}

func TestMalformedActionPayloadIsDropped(t *testing.T) {
	h, conn1, p1, _, p2 := startTestBattle(t)

	h.message(conn1, frame(t, "battleAction", map[string]int{"cardIndex": 2}))
	if conn1.pending() != 0 {
		t.Fatal("malformed payloads are protocol errors: logged and dropped")
	}
	if p1.Hp != 100 || p2.Hp != 100 {
		t.Fatal("malformed payloads must not mutate state")
	}
}

func TestProfileLoadedSeedsDisplayName(t *testing.T) {
	h := newTestHandler()
	conn, s := connectPlayer(t, h)

	h.inject(conn, frame(t, "profileLoaded", map[string]string{"name": "Nakiri"}))
	if s.Name != "Nakiri" {
		t.Fatalf("profile record must seed the display name, got %q", s.Name)
	}
}

func TestWireProfileLoadedFrameIsDropped(t *testing.T) {
	h := newTestHandler()
	conn, s := connectPlayer(t, h)
	original := s.Name

	// Um frame do socket com a tag interna não é um comando do
	// protocolo: cai no caminho de tipo desconhecido, sem renomear a
	// sessão e sem resposta.
	h.message(conn, frame(t, "profileLoaded", map[string]string{"name": "Nakiri"}))
	if s.Name != original {
		t.Fatalf("wire frame must not rename the session: got %q", s.Name)
	}
	if conn.pending() != 0 {
		t.Fatal("unknown tags are logged and dropped, never answered")
	}
}

func TestCancelMatchMidBattleIsSilent(t *testing.T) {
	h, conn1, p1, conn2, _ := startTestBattle(t)

	h.message(conn1, frame(t, "cancelMatch", nil))
	if conn1.pending() != 0 || conn2.pending() != 0 {
		t.Fatal("canceling while in battle must be a silent no-op")
	}
	if !p1.InBattle {
		t.Fatal("the battle must not be affected")
	}
	checkInvariants(t, h)
}

func TestBattleToCompletion(t *testing.T) {
	h, conn1, p1, conn2, p2 := startTestBattle(t)
	conns := map[*PlayerSession]*fakeConn{p1: conn1, p2: conn2}

	battle := h.battles[p1.BattleID]
	for turns := 0; turns < 100; turns++ {
		if !p1.InBattle {
			break
		}
		attacker := battle.currentTurn
		h.message(conns[attacker], actionFrame(t, ActionSkill))
		conn1.drain()
		conn2.drain()
		checkInvariants(t, h)
	}

	if p1.InBattle || p2.InBattle {
		t.Fatal("repeated skills must eventually end the battle")
	}
	if len(h.battles) != 0 {
		t.Fatal("no battles may remain")
	}
	if (p1.Hp == 0) == (p2.Hp == 0) {
		t.Fatal("exactly one side must be at zero hp")
	}
}
