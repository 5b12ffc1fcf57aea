package session

import (
	"encoding/json"
	"errors"
	"log"

	"arena/internal/session/message"
)

// registerHandlers popula os roteadores de cada estado. O conjunto
// knownTypes é derivado deles: tudo que algum estado aceita é um tipo
// conhecido do protocolo. profileLoaded fica de fora de propósito: ele
// só existe no caminho de injeção do servidor, então vindo do socket
// é um tipo desconhecido.
func (h *Handler) registerHandlers() {
	// Os três comandos do protocolo são aceitos em qualquer estado:
	// findMatch e battleAction respondem o erro de estado exato (já em
	// batalha, já na fila, fora de batalha) e cancelMatch sem fila é
	// um no-op silencioso, não um erro.
	h.lobbyRouter[msgFindMatch] = handleFindMatch
	h.lobbyRouter[msgCancelMatch] = handleCancelMatch
	h.lobbyRouter[msgBattleAction] = handleBattleAction

	h.queueRouter[msgFindMatch] = handleFindMatch
	h.queueRouter[msgCancelMatch] = handleCancelMatch
	h.queueRouter[msgBattleAction] = handleBattleAction

	h.battleRouter[msgFindMatch] = handleFindMatch
	h.battleRouter[msgCancelMatch] = handleCancelMatch
	h.battleRouter[msgBattleAction] = handleBattleAction

	for _, router := range []map[string]CommandHandlerFunc{h.lobbyRouter, h.queueRouter, h.battleRouter} {
		for msgType := range router {
			h.knownTypes[msgType] = true
		}
	}
}

// handleFindMatch coloca o jogador na fila e tenta parear na hora.
func handleFindMatch(h *Handler, session *PlayerSession, payload json.RawMessage) {
	if err := h.matchmaker.Enqueue(session); err != nil {
		switch {
		case errors.Is(err, errAlreadyInBattle):
			message.SendError(session, "You are already in a battle.")
		case errors.Is(err, errAlreadyQueued):
			message.SendError(session, "You are already waiting for a match.")
		default:
			message.SendError(session, "Could not join the queue: %v", err)
		}
		return
	}

	session.Send() <- message.MatchSearching()
	h.matchmaker.TryPair()
}

// handleCancelMatch tira o jogador da fila. Só confirma quando de fato
// removeu algo; ausência é ignorada em silêncio.
func handleCancelMatch(h *Handler, session *PlayerSession, payload json.RawMessage) {
	if h.matchmaker.Cancel(session) {
		session.Send() <- message.MatchCanceled()
	}
}

// handleBattleAction valida o payload e encaminha a ação à batalha.
func handleBattleAction(h *Handler, session *PlayerSession, payload json.RawMessage) {
	// Ponteiro para distinguir campo ausente de string vazia.
	var req struct {
		Action *string `json:"action"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.Action == nil {
		// Payload malformado é erro de protocolo: loga e descarta.
		log.Printf("[Handler] Malformed battleAction payload from '%s'; dropped", session.ID)
		return
	}

	h.submitAction(session, *req.Action)
}

// submitAction resolve uma ação contra a batalha da sessão. Toda busca
// por id pode falhar, porque a limpeza corre com mensagens em trânsito;
// falha vira erro de estado para o ofensor, nunca um crash.
func (h *Handler) submitAction(session *PlayerSession, action string) {
	if !session.InBattle {
		message.SendError(session, "You are not in a battle.")
		return
	}

	battle, ok := h.battles[session.BattleID]
	if !ok {
		// A batalha evaporou por baixo da sessão; realinha o estado.
		session.leaveBattle()
		message.SendError(session, "Battle not found.")
		return
	}

	if err := battle.SubmitAction(session, action, h.rng); err != nil {
		switch {
		case errors.Is(err, errNotYourTurn):
			message.SendError(session, "It's not your turn.")
		case errors.Is(err, errBattleOver):
			message.SendError(session, "This battle is already over.")
		default:
			message.SendError(session, "Action failed: %v", err)
		}
		return
	}

	if battle.Terminal() {
		delete(h.battles, battle.ID)
		loser := battle.Opponent(battle.winner)
		h.publisher.BattleEnded(battle.ID, battle.winner.ID, loser.ID, "knockout")
		h.saveResult(battle.winner.Name, loser.Name)
	}
}

// profileLoadedPayload é o resultado reinjetado da consulta de perfil.
type profileLoadedPayload struct {
	Name string `json:"name"`
}

// handleProfileLoaded aplica o registro de perfil à sessão. Se a
// consulta só terminou depois do pareamento, o resultado é descartado:
// trocar nome no meio de um confronto confundiria o oponente.
func handleProfileLoaded(h *Handler, session *PlayerSession, payload json.RawMessage) {
	if session.InBattle {
		return
	}
	var req profileLoadedPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.Name == "" {
		log.Printf("[Handler] Malformed profileLoaded payload for '%s'; dropped", session.ID)
		return
	}

	log.Printf("[Handler] Profile record found for '%s': display name '%s'", session.ID, req.Name)
	session.Name = req.Name
}
