package pose

import (
	"errors"
	"testing"
	"time"
)

func register(a *SubprocessAdapter) (uint64, chan subprocessResponse) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registerLocked()
}

func mustReceive(t *testing.T, ch chan subprocessResponse) subprocessResponse {
	t.Helper()
	select {
	case resp := <-ch:
		return resp
	case <-time.After(time.Second):
		t.Fatal("no response delivered")
		return subprocessResponse{}
	}
}

func TestSubprocessAdapter_ResponsesPairWithCalls(t *testing.T) {
	a := NewSubprocessAdapter(DefaultConfig())

	_, chA := register(a)
	_, chB := register(a)

	a.deliver(subprocessResponse{inference: &Inference{LatencyMs: 1}})
	a.deliver(subprocessResponse{inference: &Inference{LatencyMs: 2}})

	if resp := mustReceive(t, chA); resp.inference.LatencyMs != 1 {
		t.Errorf("first call got latency %v, want 1", resp.inference.LatencyMs)
	}
	if resp := mustReceive(t, chB); resp.inference.LatencyMs != 2 {
		t.Errorf("second call got latency %v, want 2", resp.inference.LatencyMs)
	}
}

func TestSubprocessAdapter_LateResponseNeverReachesNextCall(t *testing.T) {
	a := NewSubprocessAdapter(DefaultConfig())

	// Call A times out before its answer arrives.
	seqA, chA := register(a)
	a.abandon(seqA)

	// A's answer lands, then call B sends its frame and its answer lands.
	a.deliver(subprocessResponse{inference: &Inference{LatencyMs: 1}})

	_, chB := register(a)
	a.deliver(subprocessResponse{inference: &Inference{LatencyMs: 2}})

	if resp := mustReceive(t, chB); resp.inference.LatencyMs != 2 {
		t.Errorf("next call got latency %v, want its own response (2)", resp.inference.LatencyMs)
	}

	select {
	case resp := <-chA:
		t.Errorf("abandoned call received a response: %+v", resp)
	default:
	}
}

func TestSubprocessAdapter_AbandonAfterDeliveryIsHarmless(t *testing.T) {
	a := NewSubprocessAdapter(DefaultConfig())

	// The answer and the deadline race: delivery wins, then the timed-out
	// call abandons its already-removed waiter.
	seqA, chA := register(a)
	a.deliver(subprocessResponse{inference: &Inference{LatencyMs: 1}})
	a.abandon(seqA)

	// The buffered response stays on A's private channel.
	if resp := mustReceive(t, chA); resp.inference.LatencyMs != 1 {
		t.Errorf("got latency %v, want 1", resp.inference.LatencyMs)
	}

	// The next call still pairs with its own answer.
	_, chB := register(a)
	a.deliver(subprocessResponse{inference: &Inference{LatencyMs: 2}})
	if resp := mustReceive(t, chB); resp.inference.LatencyMs != 2 {
		t.Errorf("next call got latency %v, want 2", resp.inference.LatencyMs)
	}
}

func TestSubprocessAdapter_ServiceExitFailsPendingCalls(t *testing.T) {
	a := NewSubprocessAdapter(DefaultConfig())

	_, chA := register(a)
	_, chB := register(a)

	a.failWaiters(errors.New("broken pipe"))

	for i, ch := range []chan subprocessResponse{chA, chB} {
		resp := mustReceive(t, ch)
		if resp.err == nil {
			t.Errorf("call %d: expected an error after service exit", i)
		}
	}
}

func TestParsePoseResponse(t *testing.T) {
	resp := parsePoseResponse(`{"keypoints":{"leftShoulder":{"x":0.4,"y":0.3,"confidence":0.9}},"latencyMs":12.5}`)
	if resp.err != nil {
		t.Fatalf("unexpected error: %v", resp.err)
	}
	if resp.inference.LatencyMs != 12.5 {
		t.Errorf("latency = %v, want 12.5", resp.inference.LatencyMs)
	}
	i, _ := KeypointIndex("leftShoulder")
	if kp := resp.inference.Keypoints[i]; kp.Confidence != 0.9 {
		t.Errorf("leftShoulder confidence = %v, want 0.9", kp.Confidence)
	}

	resp = parsePoseResponse(`{"error":"no pose detected"}`)
	if resp.err == nil || resp.inference != nil {
		t.Errorf("expected a service error, got %+v", resp)
	}

	resp = parsePoseResponse("not json\n")
	if resp.err == nil {
		t.Error("expected a parse error")
	}
}
