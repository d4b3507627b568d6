package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/imperugo/sqs-dispatch/pkg/resolve"
	"github.com/imperugo/sqs-dispatch/pkg/transport"
)

// fakeResolver resolves names to a canonical URL form and records lookups.
type fakeResolver struct {
	mu      sync.Mutex
	calls   map[string]int
	failing map[string]error
	aliases map[string]string // name -> resolved URL override
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		calls:   make(map[string]int),
		failing: make(map[string]error),
		aliases: make(map[string]string),
	}
}

func (r *fakeResolver) Resolve(_ context.Context, name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[name]++
	if err, ok := r.failing[name]; ok {
		return "", err
	}
	if url, ok := r.aliases[name]; ok {
		return url, nil
	}
	return "https://sqs.test/123/" + name, nil
}

func (r *fakeResolver) callCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

type sentBatch struct {
	url     string
	entries []transport.Entry
}

type sentSingle struct {
	url          string
	body         string
	delaySeconds int32
}

// fakeTransport records every call and can fail selected batch calls. A
// non-zero blockFor makes batch calls sleep, exposing concurrency behavior.
type fakeTransport struct {
	mu      sync.Mutex
	batches []sentBatch
	singles []sentSingle

	// failWhen, when set, decides per batch call whether it fails.
	failWhen func(url string, entries []transport.Entry) error
	blockFor time.Duration

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (t *fakeTransport) SendSingle(_ context.Context, queueURL, body string, delaySeconds int32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.singles = append(t.singles, sentSingle{url: queueURL, body: body, delaySeconds: delaySeconds})
	return nil
}

func (t *fakeTransport) SendBatch(_ context.Context, queueURL string, entries []transport.Entry) error {
	cur := t.inFlight.Add(1)
	defer t.inFlight.Add(-1)
	for {
		maxSeen := t.maxInFlight.Load()
		if cur <= maxSeen || t.maxInFlight.CompareAndSwap(maxSeen, cur) {
			break
		}
	}

	if t.blockFor > 0 {
		time.Sleep(t.blockFor)
	}

	t.mu.Lock()
	t.batches = append(t.batches, sentBatch{url: queueURL, entries: entries})
	t.mu.Unlock()

	if t.failWhen != nil {
		return t.failWhen(queueURL, entries)
	}
	return nil
}

func (t *fakeTransport) sentBatches() []sentBatch {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]sentBatch(nil), t.batches...)
}

func (t *fakeTransport) sentSingles() []sentSingle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]sentSingle(nil), t.singles...)
}

// batchesByURL returns the recorded batch entry bodies grouped per queue URL
// in arrival order.
func (t *fakeTransport) batchesByURL() map[string][][]string {
	out := make(map[string][][]string)
	for _, b := range t.sentBatches() {
		bodies := make([]string, 0, len(b.entries))
		for _, e := range b.entries {
			bodies = append(bodies, e.Body)
		}
		out[b.url] = append(out[b.url], bodies)
	}
	return out
}

func requestsForQueue(queue string, n int) []OutboundRequest {
	out := make([]OutboundRequest, 0, n)
	for i := range n {
		out = append(out, OutboundRequest{Queue: queue, Body: fmt.Sprintf("%s-%d", queue, i)})
	}
	return out
}

var _ resolve.Resolver = (*fakeResolver)(nil)
var _ transport.Transport = (*fakeTransport)(nil)
