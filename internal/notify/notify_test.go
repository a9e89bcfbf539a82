package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nao1215/riskscope/internal/model"
	"github.com/nao1215/riskscope/internal/transport"
)

func alertDecision() model.Decision {
	return model.Decision{
		RequestID:     "req-1",
		Kind:          model.KindURL,
		InputRef:      "http://192.168.1.1/login",
		Findings:      model.URLFindings{URL: "http://192.168.1.1/login", RiskScore: 87, Source: model.SourceHeuristic},
		CombinedScore: 87,
		Action:        model.ActionAlert,
		Reason:        "URL risk_score 87 from heuristic signals: ip_host",
	}
}

// captureServer records the last request body and answers with status.
func captureServer(t *testing.T, status int) (*httptest.Server, <-chan []byte) {
	t.Helper()

	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
		bodies <- body
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope")) //nolint:errcheck // test server
	}))
	t.Cleanup(srv.Close)
	return srv, bodies
}

func TestWebhook(t *testing.T) {
	t.Parallel()

	t.Run("posts the decision", func(t *testing.T) {
		t.Parallel()

		srv, bodies := captureServer(t, http.StatusOK)
		w, err := NewWebhook(srv.URL, srv.Client())
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Notify(context.Background(), alertDecision()); err != nil {
			t.Fatalf("Notify() error = %v", err)
		}

		var got WebhookPayload
		if err := json.Unmarshal(<-bodies, &got); err != nil {
			t.Fatalf("payload is not a webhook payload: %v", err)
		}
		if got.Event != "risk_alert" || got.RequestID != "req-1" {
			t.Errorf("payload = %+v", got)
		}
		if got.Decision.CombinedScore != 87 || got.Decision.Action != model.ActionAlert {
			t.Errorf("decision = %+v", got.Decision)
		}
		if _, ok := got.Decision.Findings.(model.URLFindings); !ok {
			t.Errorf("findings type = %T, want URLFindings", got.Decision.Findings)
		}
	})

	t.Run("non-2xx is a status error", func(t *testing.T) {
		t.Parallel()

		srv, _ := captureServer(t, http.StatusInternalServerError)
		w, err := NewWebhook(srv.URL, nil)
		if err != nil {
			t.Fatal(err)
		}
		err = w.Notify(context.Background(), alertDecision())
		var se *transport.StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError || se.Body != "nope" {
			t.Errorf("Notify() error = %v, want status error 500", err)
		}
	})

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()

		if _, err := NewWebhook("", nil); !errors.Is(err, ErrMissingEndpoint) {
			t.Errorf("NewWebhook() error = %v, want ErrMissingEndpoint", err)
		}
	})
}

func TestSlack(t *testing.T) {
	t.Parallel()

	srv, bodies := captureServer(t, http.StatusOK)
	s, err := NewSlack(srv.URL, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Notify(context.Background(), alertDecision()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(<-bodies, &got); err != nil {
		t.Fatal(err)
	}
	want := "*Risk alert* kind=url score=87 action=alert\nURL risk_score 87 from heuristic signals: ip_host"
	if got["text"] != want {
		t.Errorf("text = %q, want %q", got["text"], want)
	}
	if s.Name() != ChannelSlack {
		t.Errorf("Name() = %q", s.Name())
	}
}

type recordingSender struct {
	mu       sync.Mutex
	failures int
	calls    int
	addr     string
	auth     smtp.Auth
	to       []string
	msg      string
}

func (r *recordingSender) send(addr string, a smtp.Auth, _ string, to []string, msg []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	r.addr, r.auth, r.to, r.msg = addr, a, to, string(msg)
	if r.calls <= r.failures {
		return errors.New("451 try again later")
	}
	return nil
}

func TestEmail(t *testing.T) {
	t.Parallel()

	cfg := EmailConfig{
		Host:     "smtp.example.com",
		Username: "alerts@example.com",
		Password: "hunter2",
		To:       []string{"soc@example.com", "oncall@example.com"},
	}

	t.Run("retries then succeeds", func(t *testing.T) {
		t.Parallel()

		rec := &recordingSender{failures: 2}
		e, err := NewEmail(cfg, WithEmailRetry(3, 0), withSendFunc(rec.send))
		if err != nil {
			t.Fatal(err)
		}
		if err := e.Notify(context.Background(), alertDecision()); err != nil {
			t.Fatalf("Notify() error = %v", err)
		}
		if rec.calls != 3 {
			t.Errorf("calls = %d, want 3", rec.calls)
		}
		if rec.addr != "smtp.example.com:587" {
			t.Errorf("addr = %q, want default port 587", rec.addr)
		}
		if rec.auth == nil {
			t.Error("expected PLAIN auth when a username is set")
		}
		for _, want := range []string{
			"Subject: [riskscope] url alert (score 87)\r\n",
			"From: alerts@example.com\r\n",
			"To: soc@example.com, oncall@example.com\r\n",
			"URL risk_score 87",
		} {
			if !strings.Contains(rec.msg, want) {
				t.Errorf("message missing %q:\n%s", want, rec.msg)
			}
		}
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		t.Parallel()

		rec := &recordingSender{failures: 10}
		e, err := NewEmail(cfg, WithEmailRetry(3, 0), withSendFunc(rec.send))
		if err != nil {
			t.Fatal(err)
		}
		if err := e.Notify(context.Background(), alertDecision()); err == nil {
			t.Error("Notify() expected error")
		}
		if rec.calls != 3 {
			t.Errorf("calls = %d, want 3", rec.calls)
		}
	})

	t.Run("no auth without username", func(t *testing.T) {
		t.Parallel()

		rec := &recordingSender{}
		e, err := NewEmail(EmailConfig{Host: "localhost", Port: 2525, From: "a@b", To: []string{"c@d"}}, withSendFunc(rec.send))
		if err != nil {
			t.Fatal(err)
		}
		if err := e.Notify(context.Background(), alertDecision()); err != nil {
			t.Fatal(err)
		}
		if rec.auth != nil || rec.addr != "localhost:2525" {
			t.Errorf("auth = %v addr = %q", rec.auth, rec.addr)
		}
	})

	t.Run("configuration errors", func(t *testing.T) {
		t.Parallel()

		if _, err := NewEmail(EmailConfig{Host: "h"}); !errors.Is(err, ErrNoRecipients) {
			t.Errorf("error = %v, want ErrNoRecipients", err)
		}
		if _, err := NewEmail(EmailConfig{To: []string{"x@y"}}); !errors.Is(err, ErrMissingEndpoint) {
			t.Errorf("error = %v, want ErrMissingEndpoint", err)
		}
	})
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafka(t *testing.T) {
	t.Parallel()

	t.Run("publishes keyed by kind", func(t *testing.T) {
		t.Parallel()

		fw := &fakeWriter{}
		k := &Kafka{writer: fw, topic: DefaultKafkaTopic}
		if err := k.Notify(context.Background(), alertDecision()); err != nil {
			t.Fatal(err)
		}
		if len(fw.msgs) != 1 {
			t.Fatalf("messages = %d, want 1", len(fw.msgs))
		}
		msg := fw.msgs[0]
		if string(msg.Key) != "url" {
			t.Errorf("key = %q, want url", msg.Key)
		}
		var d model.Decision
		if err := json.Unmarshal(msg.Value, &d); err != nil {
			t.Fatal(err)
		}
		if d.RequestID != "req-1" || d.CombinedScore != 87 {
			t.Errorf("decoded decision = %+v", d)
		}
		if err := k.Close(); err != nil || !fw.closed {
			t.Errorf("Close() = %v, closed = %v", err, fw.closed)
		}
	})

	t.Run("write error is wrapped", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("leader not available")
		k := &Kafka{writer: &fakeWriter{err: boom}, topic: "t"}
		if err := k.Notify(context.Background(), alertDecision()); !errors.Is(err, boom) {
			t.Errorf("Notify() error = %v", err)
		}
	})

	t.Run("constructor", func(t *testing.T) {
		t.Parallel()

		if _, err := NewKafka(nil, ""); !errors.Is(err, ErrNoBrokers) {
			t.Errorf("error = %v, want ErrNoBrokers", err)
		}
		k, err := NewKafka([]string{"localhost:9092"}, "")
		if err != nil {
			t.Fatal(err)
		}
		if k.topic != DefaultKafkaTopic || k.Name() != ChannelKafka {
			t.Errorf("topic = %q name = %q", k.topic, k.Name())
		}
		_ = k.Close() //nolint:errcheck // nothing was written
	})
}
