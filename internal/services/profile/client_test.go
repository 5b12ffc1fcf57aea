package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupDecodesRecord(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(Record{Name: "Nakiri", Wins: 7, Losses: 2})
	}))
	defer server.Close()

	record, err := NewClient(server.URL).Lookup("Nakiri")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/players/Nakiri" {
		t.Fatalf("wrong endpoint path: %q", gotPath)
	}
	if record == nil || record.Name != "Nakiri" || record.Wins != 7 || record.Losses != 2 {
		t.Fatalf("wrong record: %+v", record)
	}
}

// Um 404 significa jogador ainda inexistente: (nil, nil), e o nome
// padrão da sessão permanece.
func TestLookupTreatsNotFoundAsNoRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	record, err := NewClient(server.URL).Lookup("Ghost")
	if err != nil {
		t.Fatalf("a 404 must not be an error, got: %v", err)
	}
	if record != nil {
		t.Fatalf("a 404 must yield no record, got: %+v", record)
	}
}

func TestLookupReportsUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).Lookup("Nakiri"); err == nil {
		t.Fatal("a 500 must surface as an error")
	}
}

func TestLookupEscapesPlayerName(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode(Record{Name: "a/b"})
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).Lookup("a/b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/players/a%2Fb" {
		t.Fatalf("name must be path-escaped, got %q", gotPath)
	}
}

func TestSaveResultPostsReport(t *testing.T) {
	var got resultReport
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/players/result" {
			t.Errorf("wrong request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
	}))
	defer server.Close()

	if err := NewClient(server.URL).SaveResult("Winner", "Loser"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Winner != "Winner" || got.Loser != "Loser" {
		t.Fatalf("wrong report body: %+v", got)
	}
}

func TestSaveResultReportsFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	if err := NewClient(server.URL).SaveResult("Winner", "Loser"); err == nil {
		t.Fatal("a failure status must surface as an error")
	}
}
