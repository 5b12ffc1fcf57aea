package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ============================================================================
// DTOs
// ============================================================================

// Record é o registro de longo prazo de um jogador no serviço de
// perfil, chaveado pelo nome de exibição.
type Record struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// resultReport é o corpo enviado ao registrar o desfecho de uma batalha.
type resultReport struct {
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
}

// ============================================================================
// Cliente HTTP
// ============================================================================

// Client fala com o serviço companheiro de perfil/recursos. Todo uso é
// melhor-esforço: uma batalha nunca depende deste serviço estar de pé.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Lookup busca o registro de um jogador pelo nome. Um 404 não é erro:
// retorna (nil, nil), significando que o jogador ainda não existe lá.
func (c *Client) Lookup(name string) (*Record, error) {
	endpoint := fmt.Sprintf("%s/api/players/%s", c.baseURL, url.PathEscape(name))

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("profile lookup for %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile lookup for %q: unexpected status %s", name, resp.Status)
	}

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("profile lookup for %q: decoding body: %w", name, err)
	}
	return &record, nil
}

// SaveResult registra o resultado de uma batalha no serviço de perfil.
func (c *Client) SaveResult(winnerName, loserName string) error {
	endpoint := fmt.Sprintf("%s/api/players/result", c.baseURL)

	body, err := json.Marshal(resultReport{Winner: winnerName, Loser: loserName})
	if err != nil {
		return fmt.Errorf("profile save: %w", err)
	}

	resp, err := c.httpClient.Post(endpoint, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("profile save: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("profile save: unexpected status %s", resp.Status)
	}
	return nil
}
