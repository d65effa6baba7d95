package notification

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"

	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/tracker"
	"github.com/kapu/rinaorc-staff-bot-go/pkg/errors"
)

type sentMessage struct {
	room string
	text string
}

type fakeIrisClient struct {
	mu       sync.Mutex
	sent     []sentMessage
	failures int
	calls    int
}

func (f *fakeIrisClient) SendMessage(_ context.Context, room, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return stdErrors.New("iris unavailable")
	}
	f.sent = append(f.sent, sentMessage{room: room, text: message})
	return nil
}

func (f *fakeIrisClient) Ping(context.Context) bool { return true }

type fakeResolver struct {
	asked []string
	ranks map[string]string
}

func (r *fakeResolver) ResolveRanks(_ context.Context, names []string) map[string]string {
	r.asked = append(r.asked, names...)
	return r.ranks
}

func newTestNotifier(client *fakeIrisClient, resolver RankResolver, cfg Config) *Notifier {
	n := NewNotifier(client, resolver, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	n.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	return n
}

func cycle(prev, cur domain.Snapshot, baseline bool) tracker.CycleResult {
	return tracker.CycleResult{
		Seq:      1,
		Baseline: baseline,
		Report:   domain.Diff(prev, cur),
		Previous: prev,
		Snapshot: cur,
	}
}

func TestNotifierSendsAlertWithResolvedRanks(t *testing.T) {
	prev := domain.MustSnapshot(domain.Role{Name: "Mod", Players: []string{"bob", "carol"}})
	cur := domain.MustSnapshot(domain.Role{Name: "Mod", Players: []string{"bob", "dave"}})

	client := &fakeIrisClient{}
	resolver := &fakeResolver{ranks: map[string]string{"carol": "VIP"}}
	n := newTestNotifier(client, resolver, Config{Rooms: []string{"r1", "r2"}})

	if err := n.Report(context.Background(), cycle(prev, cur, false)); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if len(client.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(client.sent))
	}
	if client.sent[0].room != "r1" || client.sent[1].room != "r2" {
		t.Fatalf("unexpected rooms: %+v", client.sent)
	}
	text := client.sent[0].text
	if !strings.Contains(text, "carol: Mod → VIP") || !strings.Contains(text, "dave: N/A → Mod") {
		t.Fatalf("unexpected alert:\n%s", text)
	}
	if len(resolver.asked) != 1 || resolver.asked[0] != "carol" {
		t.Fatalf("resolver must be asked only for players who left: %v", resolver.asked)
	}
}

func TestNotifierSkipsUnchangedAndBaseline(t *testing.T) {
	snap := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"a"}})
	client := &fakeIrisClient{}
	n := newTestNotifier(client, nil, Config{Rooms: []string{"r1"}})
	ctx := context.Background()

	if err := n.Report(ctx, cycle(snap, snap, false)); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if err := n.Report(ctx, cycle(domain.EmptySnapshot(), snap, true)); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if len(client.sent) != 0 {
		t.Fatalf("expected no messages, got %+v", client.sent)
	}
}

func TestNotifierBaselineSendsRoster(t *testing.T) {
	snap := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"a"}})
	client := &fakeIrisClient{}
	n := newTestNotifier(client, nil, Config{Rooms: []string{"r1"}, Baseline: true})

	if err := n.Report(context.Background(), cycle(domain.EmptySnapshot(), snap, true)); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if len(client.sent) != 1 || !strings.Contains(client.sent[0].text, "ADMIN [1]") {
		t.Fatalf("expected roster message, got %+v", client.sent)
	}
}

func TestNotifierRetriesThenSucceeds(t *testing.T) {
	prev := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"a"}})
	cur := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"b"}})
	client := &fakeIrisClient{failures: 2}
	n := newTestNotifier(client, nil, Config{Rooms: []string{"r1"}})

	if err := n.Report(context.Background(), cycle(prev, cur, false)); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if client.calls != 3 || len(client.sent) != 1 {
		t.Fatalf("expected success on third try: calls=%d sent=%d", client.calls, len(client.sent))
	}
}

func TestNotifierGivesUpAfterMaxTries(t *testing.T) {
	prev := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"a"}})
	cur := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"b"}})
	client := &fakeIrisClient{failures: 10}
	n := newTestNotifier(client, nil, Config{Rooms: []string{"r1"}})

	err := n.Report(context.Background(), cycle(prev, cur, false))
	var svcErr *errors.ServiceError
	if !stdErrors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", client.calls)
	}
}
