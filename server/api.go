package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"go.lsp.dev/uri"

	"github.com/lexcodex/structedit/service"
)

// APIServer exposes the store over HTTP for tooling without a JSON-RPC
// client.
type APIServer struct {
	Store  *Store
	Logger *log.Logger
}

// EditRequest is the body of POST /api/edit.
type EditRequest struct {
	Path string              `json:"path"`
	Edit service.EditPayload `json:"edit"`
}

// DocumentResponse wraps a document or the reason it is missing.
type DocumentResponse struct {
	Document json.RawMessage `json:"document,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Serve starts listening on the provided address.
func (s *APIServer) Serve(addr string) error {
	return s.ServeContext(context.Background(), addr)
}

// ServeContext allows the caller to control shutdown via context cancellation.
func (s *APIServer) ServeContext(ctx context.Context, addr string) error {
	server := s.newHTTPServer(addr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	if s.Logger != nil {
		s.Logger.Printf("API listening on %s", addr)
	}
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *APIServer) newHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
}

// Handler routes the document API.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/document", s.handleDocument)
	mux.HandleFunc("/api/edit", s.handleEdit)
	return mux
}

func (s *APIServer) documentURI(path string) uri.URI {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.Store.Root(), path)
	}
	return uri.File(path)
}

func (s *APIServer) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	doc, err := s.Store.Open(s.documentURI(path))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	result, err := documentResult(doc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, DocumentResponse{Document: result.Document})
}

func (s *APIServer) handleEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := s.Store.Apply(s.documentURI(req.Path), req.Edit)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Printf("edit %s rejected: %v", req.Path, err)
		}
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	result, err := documentResult(doc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, DocumentResponse{Document: result.Document})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(DocumentResponse{Error: err.Error()})
}
