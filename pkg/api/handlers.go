package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ssargent/tagfile/pkg/adapter"
	"github.com/ssargent/tagfile/pkg/container"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	names := s.container.Names()
	s.mu.Unlock()

	if names == nil {
		names = []string{}
	}
	sendSuccess(w, names)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	entry, err := s.container.ReadEntry(name)
	var a adapter.Adapter
	if err == nil {
		a, _ = s.container.Adapter(entry.Tag)
	}
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, container.ErrEntryNotFound) {
			sendError(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error("failed to read entry", zap.String("name", name), zap.Error(err))
		sendError(w, "Failed to read entry", http.StatusInternalServerError)
		return
	}

	sendSuccess(w, EntryResponse{
		Name:  entry.Name,
		Tag:   entry.Tag,
		Value: entry.Value,
		Text:  adapter.Format(a, entry.Value),
	})
}

func (s *Server) handleHeadEntry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	exists := s.container.Exists(name)
	s.mu.Unlock()

	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handlePutEntry stores the request body under name. The body is text for
// the adapter's parser, except for the file tag where it is the raw file
// content and ?filename= names it.
func (s *Server) handlePutEntry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		sendError(w, "Query parameter tag is required", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodyBytes+1))
	if err != nil {
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if int64(len(body)) > s.config.MaxBodyBytes {
		sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.container.Adapter(tag)
	if !ok {
		sendError(w, (&container.AdapterNotRegisteredError{Tag: tag}).Error(), http.StatusBadRequest)
		return
	}

	var value any
	if tag == adapter.TagFile {
		filename := r.URL.Query().Get("filename")
		if filename == "" {
			filename = name
		}
		value = adapter.File{Name: filename, Data: body}
	} else {
		value, err = adapter.Parse(a, string(body))
		if err != nil {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	err = s.container.Write(value, name, tag)
	switch {
	case err == nil:
		sendStatus(w, http.StatusCreated, map[string]string{"name": name, "tag": tag})
	case errors.Is(err, container.ErrDuplicateEntry):
		sendError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, container.ErrInvalidName),
		errors.Is(err, container.ErrAdapterNotRegistered),
		errors.Is(err, adapter.ErrUnsupportedValue):
		sendError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("failed to write entry", zap.String("name", name), zap.Error(err))
		sendError(w, "Failed to write entry", http.StatusInternalServerError)
	}
}

func (s *Server) handleAdapters(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tags := s.container.AdapterTags()
	s.mu.Unlock()

	if tags == nil {
		tags = []string{}
	}
	sendSuccess(w, tags)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats, err := s.container.Stats()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("failed to read stats", zap.Error(err))
		sendError(w, "Failed to read stats", http.StatusInternalServerError)
		return
	}
	sendSuccess(w, stats)
}
