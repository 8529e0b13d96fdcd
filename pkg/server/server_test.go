package server

import (
	"bytes"
	"slices"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gramserve/gramserve/pkg/config"
	"github.com/gramserve/gramserve/pkg/model"
)

func testModel(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.New(2, model.Options{})
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	m.Train(slices.Values([]string{"the", "cat", "sat", "the", "cat", "ran"}))
	return m
}

// run encodes the requests, drives a full server loop over them and
// returns a decoder positioned on the ready status message.
func run(t *testing.T, requests ...Request) *msgpack.Decoder {
	t.Helper()

	var in bytes.Buffer
	encoder := msgpack.NewEncoder(&in)
	for _, request := range requests {
		if err := encoder.Encode(request); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}

	var out bytes.Buffer
	srv := NewServerIO(testModel(t), config.DefaultConfig(), &in, &out)
	if err := srv.Start(); err != nil {
		t.Fatalf("server: %v", err)
	}
	return msgpack.NewDecoder(&out)
}

func expectReady(t *testing.T, decoder *msgpack.Decoder) {
	t.Helper()
	var status StatusResponse
	if err := decoder.Decode(&status); err != nil {
		t.Fatalf("decode ready: %v", err)
	}
	if status.Status != "ready" {
		t.Fatalf("first message status = %q, want ready", status.Status)
	}
}

func TestServerComplete(t *testing.T) {
	decoder := run(t, Request{ID: "req_001", Cmd: "complete", Prefix: "the"})
	expectReady(t, decoder)

	var response CompletionResponse
	if err := decoder.Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.ID != "req_001" {
		t.Errorf("id = %q", response.ID)
	}
	if response.Count != 1 || len(response.Completions) != 1 {
		t.Fatalf("completions = %+v", response.Completions)
	}
	if got := response.Completions[0]; got.Key != "the#cat" || got.Frequency != 2 {
		t.Errorf("completion = %+v, want the#cat with frequency 2", got)
	}
}

func TestServerCompleteRanksByFrequency(t *testing.T) {
	decoder := run(t, Request{ID: "req_001", Cmd: "complete", Prefix: "cat"})
	expectReady(t, decoder)

	var response CompletionResponse
	if err := decoder.Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(response.Completions) < 2 {
		t.Fatalf("completions = %+v, want cat#sat and cat#ran", response.Completions)
	}
	for i := 1; i < len(response.Completions); i++ {
		if response.Completions[i].Frequency > response.Completions[i-1].Frequency {
			t.Errorf("completions not ranked by frequency: %+v", response.Completions)
		}
	}
}

func TestServerProbability(t *testing.T) {
	decoder := run(t,
		Request{ID: "a", Cmd: "prob", Tokens: []string{"the", "cat"}},
		Request{ID: "b", Cmd: "prob", Tokens: []string{"the", "cat"}, All: true},
	)
	expectReady(t, decoder)

	var single ProbabilityResponse
	if err := decoder.Decode(&single); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if single.Probability != 1.0 {
		t.Errorf("probability = %v, want 1", single.Probability)
	}

	var all ProbabilityResponse
	if err := decoder.Decode(&all); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(all.Probabilities) != 2 {
		t.Fatalf("probabilities = %v, want one per token", all.Probabilities)
	}
	if all.Probability != all.Probabilities[1] {
		t.Errorf("final probability %v does not match sequence %v", all.Probability, all.Probabilities)
	}
}

func TestServerFrequency(t *testing.T) {
	decoder := run(t, Request{ID: "req", Cmd: "freq", Tokens: []string{"the", "cat"}})
	expectReady(t, decoder)

	var response FrequencyResponse
	if err := decoder.Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Frequency != 2 {
		t.Errorf("frequency = %d, want 2", response.Frequency)
	}
}

func TestServerTargets(t *testing.T) {
	decoder := run(t, Request{ID: "req", Cmd: "targets", Sizes: []int{2}})
	expectReady(t, decoder)

	var response TargetsResponse
	if err := decoder.Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// the·cat, cat·sat, cat·ran and sat·the are the stored bigrams.
	if response.Count != 4 {
		t.Fatalf("targets = %+v, want the 4 stored bigrams", response.Targets)
	}
	for _, target := range response.Targets {
		if len(target.Gram) != 2 {
			t.Errorf("gram %v has size %d, want 2", target.Gram, len(target.Gram))
		}
		if target.Probability <= 0 || target.Probability > 1 {
			t.Errorf("gram %v probability %v outside (0, 1]", target.Gram, target.Probability)
		}
	}
}

func TestServerTargetsHonorsLimit(t *testing.T) {
	decoder := run(t, Request{ID: "req", Cmd: "targets", Sizes: []int{1, 2}, Limit: 2})
	expectReady(t, decoder)

	var response TargetsResponse
	if err := decoder.Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Count != 2 {
		t.Errorf("count = %d, want the limit", response.Count)
	}
}

func TestServerStatsAndHealth(t *testing.T) {
	decoder := run(t,
		Request{ID: "s", Cmd: "stats"},
		Request{ID: "h", Cmd: "health"},
	)
	expectReady(t, decoder)

	var stats StatsResponse
	if err := decoder.Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.N != 2 || stats.Separator != "#" {
		t.Errorf("stats = %+v", stats)
	}
	// Events: the·cat x2, cat·sat, cat·ran, sat·the, trailing ran.
	if stats.Total != 6 {
		t.Errorf("total = %d, want 6 events", stats.Total)
	}

	var health StatusResponse
	if err := decoder.Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.ID != "h" || health.Status != "ok" {
		t.Errorf("health = %+v", health)
	}
}

func TestServerRejectsBadRequests(t *testing.T) {
	decoder := run(t,
		Request{ID: "a", Cmd: "prob"},
		Request{ID: "b", Cmd: "frobnicate"},
	)
	expectReady(t, decoder)

	for _, id := range []string{"a", "b"} {
		var response ErrorResponse
		if err := decoder.Decode(&response); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if response.ID != id || response.Code != 400 {
			t.Errorf("error response = %+v, want id %q code 400", response, id)
		}
	}
}
