// Package testutil provides a fake wort-style signature service for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// WortServer mimics the signature service: GET /v1/view/sra/<accession>
// answers with a redirect to /ipfs/<accession>, which serves the signature
// body. Accessions without a registered body answer 404.
type WortServer struct {
	server *httptest.Server

	mu         sync.Mutex
	sigs       map[string][]byte
	broken     map[string]bool // accessions whose object stream drops mid-body
	viewHits   map[string]int
	objectHits map[string]int
}

// NewWortServer starts a fake service serving the given signature bodies.
// Callers must Close it.
func NewWortServer(sigs map[string]string) *WortServer {
	ws := &WortServer{
		sigs:       make(map[string][]byte, len(sigs)),
		broken:     make(map[string]bool),
		viewHits:   make(map[string]int),
		objectHits: make(map[string]int),
	}
	for acc, body := range sigs {
		ws.sigs[acc] = []byte(body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/view/sra/", ws.handleView)
	mux.HandleFunc("/ipfs/", ws.handleObject)
	ws.server = httptest.NewServer(mux)
	return ws
}

// URL returns the endpoint base, suitable for the resolver's base URL.
func (ws *WortServer) URL() string {
	return ws.server.URL + "/v1/view/sra"
}

// Close shuts the server down.
func (ws *WortServer) Close() {
	ws.server.Close()
}

// Break makes the object stream for accession fail after a few bytes.
func (ws *WortServer) Break(accession string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.broken[accession] = true
}

// ObjectHits reports how many times accession's object was streamed.
func (ws *WortServer) ObjectHits(accession string) int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.objectHits[accession]
}

func (ws *WortServer) handleView(w http.ResponseWriter, r *http.Request) {
	acc := strings.TrimPrefix(r.URL.Path, "/v1/view/sra/")

	ws.mu.Lock()
	_, ok := ws.sigs[acc]
	ws.viewHits[acc]++
	ws.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/ipfs/"+acc, http.StatusFound)
}

func (ws *WortServer) handleObject(w http.ResponseWriter, r *http.Request) {
	acc := strings.TrimPrefix(r.URL.Path, "/ipfs/")

	ws.mu.Lock()
	body, ok := ws.sigs[acc]
	broken := ws.broken[acc]
	ws.objectHits[acc]++
	ws.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if broken {
		w.Header().Set("Content-Length", "10")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("abc"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
			}
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
