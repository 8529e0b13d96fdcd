// Package cli handles cmd line input and model queries for DBG and testing various features
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gramserve/gramserve/internal/logger"
	"github.com/gramserve/gramserve/internal/utils"
	"github.com/gramserve/gramserve/pkg/model"
	"github.com/gramserve/gramserve/pkg/tst"
)

// InputHandler processes user input from stdin, answering probability,
// frequency and completion queries for the entered token sequence.
type InputHandler struct {
	model        *model.Model
	maxSequence  int
	suggestLimit int
	log          *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(m *model.Model, maxSequence, limit int) *InputHandler {
	return &InputHandler{
		model:        m,
		maxSequence:  maxSequence,
		suggestLimit: limit,
		log:          logger.NewWithConfig("cli", log.GetLevel(), false, false, log.TextFormatter),
	}
}

// Start begins the interface loop.
// It continuously prompts for input, reads a line from stdin,
// and passes the tokenized input to handleInput() for processing.
// Loop terminates if an error occurs while reading from stdin
func (h *InputHandler) Start() error {
	h.log.Print("GramServe CLI")
	reader := bufio.NewReader(os.Stdin)
	h.log.Print("type a token sequence and press Enter to query the model (Ctrl+C to exit):")

	for {
		h.log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		h.handleInput(tokens)
	}
}

// handleInput answers a single query: per-token conditional
// probabilities, the stored frequency of the full sequence, and the
// stored keys extending it.
func (h *InputHandler) handleInput(tokens []string) {
	if len(tokens) > h.maxSequence {
		h.log.Errorf("Sequence too long: %d tokens", len(tokens))
		return
	}

	start := time.Now()
	probabilities := h.model.Probabilities(tokens)
	frequency := h.model.Frequency(tokens)
	elapsed := time.Since(start)
	h.log.Debugf("Took [ %v ] for %d tokens", elapsed, len(tokens))

	for i, token := range tokens {
		clToken := fmt.Sprintf("\033[38;5;75m%s\033[0m", token)
		h.log.Printf("%2d. %-40s (prob: %.6f)", i+1, clToken, probabilities[i])
	}
	h.log.Printf("sequence frequency: %s", utils.FormatWithCommas(frequency))

	prefix := strings.Join(tokens, h.model.Separator()) + h.model.Separator()
	shown := 0
	err := h.model.Completions(prefix, func(key string, count int) error {
		if shown == 0 {
			h.log.Printf("continuations of '%s':", strings.Join(tokens, " "))
		}
		shown++
		h.log.Printf("%2d. %-40s (freq: %8s)", shown, key, utils.FormatWithCommas(count))
		if shown >= h.suggestLimit {
			return tst.ErrStop
		}
		return nil
	})
	if err != nil {
		h.log.Errorf("Walking completions: %v", err)
		return
	}
	if shown == 0 {
		h.log.Warnf("No continuations stored for: '%s'", strings.Join(tokens, " "))
	}
}
