/*
Package server implements msgpack IPC for n-gram model queries.

The server package provides a minimal interface for querying a trained
language model using msgpack serialization over stdin/stdout.

The protocol uses binary msgpack encoding and supports completion,
probability, frequency and target enumeration requests. Messages are
processed synchronously with timing info included in responses.

# IPC

The server operates on a request response model where clients send
structured messages via stdin and receive responses through stdout.
Each message contains an ID field, a command and other fields based on
the operation type.

Completion requests use mainly this structure:

	{"id": "req_001", "cmd": "complete", "p": "the", "l": 24}

The server responds with stored keys ranked by frequency:

	{"id": "req_001", "s": [{"k": "the#cat", "f": 12}, {"k": "the#dog", "f": 7}], "c": 2, "t": 145}

Probability and frequency requests carry a token sequence instead of a
prefix:

	{"id": "req_002", "cmd": "prob", "seq": ["the", "cat"]}
	{"id": "req_003", "cmd": "freq", "seq": ["the", "cat"]}

Target enumeration streams every stored n-gram of the requested sizes
whose final token is a target, as one response carrying the full list:

	{"id": "req_004", "cmd": "targets", "sizes": [2, 3]}

Response structures include status information and error details when
an op fails.

msgpack encoding has ~30 to 50% smaller message sizes compared to JSON.
binary format enables faster parsing and generation, less errors and
reducing latency in most cases.
*/
package server

// Request - incoming query request
type Request struct {
	ID     string   `msgpack:"id"`
	Cmd    string   `msgpack:"cmd"`
	Prefix string   `msgpack:"p,omitempty"`
	Tokens []string `msgpack:"seq,omitempty"`
	Limit  int      `msgpack:"l,omitempty"`
	All    bool     `msgpack:"all,omitempty"`
	Sizes  []int    `msgpack:"sizes,omitempty"`
}

// Completion - one stored key with its frequency
type Completion struct {
	Key       string `msgpack:"k"`
	Frequency int    `msgpack:"f"`
}

// CompletionResponse - completion response
type CompletionResponse struct {
	ID          string       `msgpack:"id"`
	Completions []Completion `msgpack:"s"`
	Count       int          `msgpack:"c"`
	TimeTaken   int64        `msgpack:"t"`
}

// ProbabilityResponse - conditional probability response. Probabilities
// carries the growing-window sequence when requested with "all".
type ProbabilityResponse struct {
	ID            string    `msgpack:"id"`
	Probability   float64   `msgpack:"prob"`
	Probabilities []float64 `msgpack:"probs,omitempty"`
	TimeTaken     int64     `msgpack:"t"`
}

// FrequencyResponse - stored count response
type FrequencyResponse struct {
	ID        string `msgpack:"id"`
	Frequency int    `msgpack:"f"`
	TimeTaken int64  `msgpack:"t"`
}

// Target - one enumerated n-gram
type Target struct {
	Gram        []string `msgpack:"g"`
	Frequency   int      `msgpack:"f"`
	Probability float64  `msgpack:"prob"`
}

// TargetsResponse - target enumeration response
type TargetsResponse struct {
	ID        string   `msgpack:"id"`
	Targets   []Target `msgpack:"targets"`
	Count     int      `msgpack:"c"`
	TimeTaken int64    `msgpack:"t"`
}

// StatsResponse - model statistics response
type StatsResponse struct {
	ID        string `msgpack:"id"`
	N         int    `msgpack:"n"`
	Total     int    `msgpack:"total"`
	Boundary  string `msgpack:"boundary"`
	Separator string `msgpack:"separator"`
}

// StatusResponse - ready and health signalling
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// ErrorResponse holds basic error information for failed requests
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
