package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gramserve/gramserve/pkg/config"
	"github.com/gramserve/gramserve/pkg/model"
	"github.com/gramserve/gramserve/pkg/tst"
)

// Server handles the IPC for language model queries
type Server struct {
	model   *model.Model
	cfg     *config.Config
	decoder *msgpack.Decoder
	encoder *msgpack.Encoder
}

// NewServer creates a new query server using stdin/stdout for IPC
func NewServer(m *model.Model, cfg *config.Config) *Server {
	return NewServerIO(m, cfg, os.Stdin, os.Stdout)
}

// NewServerIO creates a query server on explicit streams.
func NewServerIO(m *model.Model, cfg *config.Config, in io.Reader, out io.Writer) *Server {
	return &Server{
		model:   m,
		cfg:     cfg,
		decoder: msgpack.NewDecoder(in),
		encoder: msgpack.NewEncoder(out),
	}
}

// Start begins listening for IPC requests
func (s *Server) Start() error {
	log.Debug("Starting server.")

	// Signal that the server is ready
	s.sendResponse(StatusResponse{Status: "ready"})

	for {
		var request Request
		if err := s.decoder.Decode(&request); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Errorf("Decoding request: %v", err)
			return err
		}
		s.handleRequest(request)
	}
}

// handleRequest dispatches an incoming request
func (s *Server) handleRequest(request Request) {
	switch request.Cmd {
	case "complete":
		s.handleComplete(request)
	case "prob":
		s.handleProbability(request)
	case "freq":
		s.handleFrequency(request)
	case "targets":
		s.handleTargets(request)
	case "stats":
		s.handleStats(request)
	case "health":
		s.sendResponse(StatusResponse{ID: request.ID, Status: "ok"})
	default:
		s.sendError(request.ID, fmt.Sprintf("Unknown command: %s", request.Cmd), 400)
	}
}

// sendResponse encodes the given response as msgpack onto the wire.
func (s *Server) sendResponse(response interface{}) {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{
		ID:    id,
		Error: message,
		Code:  code,
	})
}

// handleComplete collects the stored keys extending the prefix, ranked
// by frequency, and sends up to the requested limit.
func (s *Server) handleComplete(request Request) {
	prefix := request.Prefix

	if len(prefix) > s.cfg.Server.MaxPrefix {
		s.sendError(request.ID, fmt.Sprintf("Prefix exceeds maximum length of %d characters", s.cfg.Server.MaxPrefix), 400)
		log.Debug("Prefix is too long in request")
		return
	}

	limit := request.Limit
	if limit < 1 {
		limit = s.cfg.CLI.DefaultLimit
	}
	if limit > s.cfg.Server.MaxLimit {
		limit = s.cfg.Server.MaxLimit
	}

	start := time.Now()
	var completions []Completion
	err := s.model.Completions(prefix, func(key string, count int) error {
		completions = append(completions, Completion{Key: key, Frequency: count})
		return nil
	})
	if err != nil {
		s.sendError(request.ID, "Completion walk failed", 500)
		log.Errorf("Walking completions: %v", err)
		return
	}
	sort.SliceStable(completions, func(i, j int) bool {
		return completions[i].Frequency > completions[j].Frequency
	})
	if len(completions) > limit {
		completions = completions[:limit]
	}
	elapsed := time.Since(start)

	s.sendResponse(CompletionResponse{
		ID:          request.ID,
		Completions: completions,
		Count:       len(completions),
		TimeTaken:   elapsed.Milliseconds(),
	})
}

// handleProbability answers conditional probability queries. With the
// "all" flag the response carries one probability per token.
func (s *Server) handleProbability(request Request) {
	if !s.validSequence(request) {
		return
	}

	start := time.Now()
	response := ProbabilityResponse{ID: request.ID}
	if request.All {
		response.Probabilities = s.model.Probabilities(request.Tokens)
		if len(response.Probabilities) > 0 {
			response.Probability = response.Probabilities[len(response.Probabilities)-1]
		}
	} else {
		response.Probability = s.model.Probability(request.Tokens)
	}
	response.TimeTaken = time.Since(start).Milliseconds()

	s.sendResponse(response)
}

// handleFrequency answers stored count queries.
func (s *Server) handleFrequency(request Request) {
	if !s.validSequence(request) {
		return
	}

	start := time.Now()
	frequency := s.model.Frequency(request.Tokens)
	elapsed := time.Since(start)

	s.sendResponse(FrequencyResponse{
		ID:        request.ID,
		Frequency: frequency,
		TimeTaken: elapsed.Milliseconds(),
	})
}

// handleTargets enumerates stored n-grams ending in a target token.
func (s *Server) handleTargets(request Request) {
	limit := request.Limit
	if limit < 1 {
		limit = s.cfg.Server.MaxLimit
	}

	start := time.Now()
	var targets []Target
	err := s.model.TargetProbabilities(request.Sizes, func(gram []string, frequency int, probability float64) error {
		targets = append(targets, Target{
			Gram:        append([]string(nil), gram...),
			Frequency:   frequency,
			Probability: probability,
		})
		if len(targets) >= limit {
			return tst.ErrStop
		}
		return nil
	})
	if err != nil {
		s.sendError(request.ID, "Target enumeration failed", 500)
		log.Errorf("Enumerating targets: %v", err)
		return
	}
	elapsed := time.Since(start)

	s.sendResponse(TargetsResponse{
		ID:        request.ID,
		Targets:   targets,
		Count:     len(targets),
		TimeTaken: elapsed.Milliseconds(),
	})
}

// handleStats reports model configuration and accumulated event weight.
func (s *Server) handleStats(request Request) {
	s.sendResponse(StatsResponse{
		ID:        request.ID,
		N:         s.model.N(),
		Total:     s.model.Total(),
		Boundary:  s.model.Boundary(),
		Separator: s.model.Separator(),
	})
}

// validSequence rejects empty or oversized token sequences.
func (s *Server) validSequence(request Request) bool {
	if len(request.Tokens) == 0 {
		s.sendError(request.ID, "Missing 'seq' parameter", 400)
		log.Debug("Sequence is empty in request")
		return false
	}
	if len(request.Tokens) > s.cfg.Server.MaxSequence {
		s.sendError(request.ID, fmt.Sprintf("Sequence exceeds maximum length of %d tokens", s.cfg.Server.MaxSequence), 400)
		log.Debug("Sequence is too long in request")
		return false
	}
	return true
}
