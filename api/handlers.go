package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fusevec/fusevec/core"
)

// HealthResponse is the health check payload
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
	}
	s.respondWithJSON(w, http.StatusOK, response)
}

// statusForError maps engine errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrCollectionNotFound), errors.Is(err, core.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrDimensionMismatch),
		errors.Is(err, core.ErrInvalidDistance):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Collection request/response types
type CreateCollectionRequest struct {
	Name          string `json:"name"`
	EmbeddingSize int    `json:"embedding_size"`
	Distance      string `json:"distance"`
	DoReset       bool   `json:"do_reset"`
}

type CreateCollectionResponse struct {
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

type CollectionResponse struct {
	Name        string    `json:"name"`
	Dimension   int       `json:"dimension"`
	Distance    string    `json:"distance"`
	CreatedAt   time.Time `json:"created_at"`
	RecordCount int       `json:"record_count"`
}

// handleListCollections returns all collections
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.engine.ListCollections(r.Context())
	if err != nil {
		s.respondWithError(w, statusForError(err), err.Error())
		return
	}

	response := make([]CollectionResponse, 0, len(collections))
	for _, col := range collections {
		info, err := s.engine.GetCollectionInfo(r.Context(), col.Name)
		if err != nil {
			// Deleted between listing and counting
			if errors.Is(err, core.ErrCollectionNotFound) {
				continue
			}
			s.respondWithError(w, statusForError(err), err.Error())
			return
		}

		response = append(response, CollectionResponse{
			Name:        info.Name,
			Dimension:   info.Dimension,
			Distance:    string(info.Distance),
			CreatedAt:   info.CreatedAt,
			RecordCount: info.RecordCount,
		})
	}

	s.respondWithJSON(w, http.StatusOK, response)
}

// handleCreateCollection creates a new collection. Creating an existing
// collection without do_reset responds 200 with created=false.
func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Distance == "" {
		req.Distance = string(core.DistanceCosine)
	}

	created, err := s.engine.CreateCollection(r.Context(), req.Name, req.EmbeddingSize,
		core.DistanceMetric(req.Distance), req.DoReset)
	if err != nil {
		s.respondWithError(w, statusForError(err), err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.respondWithJSON(w, status, CreateCollectionResponse{Name: req.Name, Created: created})
}

// handleGetCollection returns collection info
func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	info, err := s.engine.GetCollectionInfo(r.Context(), vars["collection"])
	if err != nil {
		s.respondWithError(w, statusForError(err), err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, CollectionResponse{
		Name:        info.Name,
		Dimension:   info.Dimension,
		Distance:    string(info.Distance),
		CreatedAt:   info.CreatedAt,
		RecordCount: info.RecordCount,
	})
}

// handleDeleteCollection deletes a collection. Deleting an absent
// collection is a no-op responding with deleted=false.
func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	deleted, err := s.engine.DeleteCollection(r.Context(), vars["collection"])
	if err != nil {
		s.respondWithError(w, statusForError(err), err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// Record request/response types
type InsertRecordRequest struct {
	ID           uint64            `json:"id,omitempty"`
	Text         string            `json:"text"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	DenseVector  []float32         `json:"dense_vector"`
	SparseVector core.SparseVector `json:"sparse_vector,omitempty"`
}

type InsertRecordsBatchRequest struct {
	Texts         []string            `json:"texts"`
	DenseVectors  [][]float32         `json:"dense_vectors"`
	SparseVectors []core.SparseVector `json:"sparse_vectors,omitempty"`
	Metadata      []map[string]string `json:"metadata,omitempty"`
	RecordIDs     []uint64            `json:"record_ids,omitempty"`
	BatchSize     int                 `json:"batch_size,omitempty"`
}

// handleInsertRecord inserts a single record
func (s *Server) handleInsertRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req InsertRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := s.engine.InsertOne(r.Context(), vars["collection"], core.Record{
		ID:       req.ID,
		Text:     req.Text,
		Metadata: req.Metadata,
		Dense:    req.DenseVector,
		Sparse:   req.SparseVector,
	})
	if err != nil {
		s.respondWithError(w, statusForError(err), err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

// handleInsertRecordsBatch inserts records from parallel arrays in batches
func (s *Server) handleInsertRecordsBatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req InsertRecordsBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	records, err := core.AssembleRecords(req.Texts, req.DenseVectors, req.SparseVectors, req.Metadata, req.RecordIDs)
	if err != nil {
		s.respondWithError(w, statusForError(err), err.Error())
		return
	}

	if req.BatchSize <= 0 {
		req.BatchSize = s.config.DefaultBatchSize
	}
	if err := s.engine.InsertMany(r.Context(), vars["collection"], records, req.BatchSize); err != nil {
		s.respondWithError(w, statusForError(err), err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"inserted": len(records),
	})
}

// handleGetRecord retrieves a record by id
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid record id")
		return
	}

	rec, err := s.engine.GetRecord(r.Context(), vars["collection"], id)
	if err != nil {
		s.respondWithError(w, statusForError(err), err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, rec)
}

// Search request/response types
type SearchRequest struct {
	Vector []float32 `json:"vector"`
	Limit  int       `json:"limit,omitempty"`
}

type HybridSearchRequest struct {
	DenseVector  []float32         `json:"dense_vector"`
	SparseVector core.SparseVector `json:"sparse_vector,omitempty"`
	DenseLimit   int               `json:"dense_limit,omitempty"`
	SparseLimit  int               `json:"sparse_limit,omitempty"`
	Limit        int               `json:"limit,omitempty"`
}

// SearchResponse wraps ranked results. Results is null when the search
// found nothing; that is the empty-result marker, not an error.
type SearchResponse struct {
	Results []core.ScoredText `json:"results"`
}

// handleSearch runs a dense similarity search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := s.engine.SearchByVector(r.Context(), vars["collection"], req.Vector, req.Limit)
	if err != nil {
		s.respondWithError(w, statusForError(err), err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// handleHybridSearch runs the fused dense+sparse search
func (s *Server) handleHybridSearch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req HybridSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := s.engine.SearchHybrid(r.Context(), vars["collection"], req.DenseVector,
		req.SparseVector, req.DenseLimit, req.SparseLimit, req.Limit)
	if err != nil {
		s.respondWithError(w, statusForError(err), err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, SearchResponse{Results: results})
}
