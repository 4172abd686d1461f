package capture

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrListenTimeout = errors.New("no speech before timeout")
	ErrUnrecognized  = errors.New("speech could not be recognized")
)

// Listener produces one utterance per call. io.EOF means the source is
// exhausted.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

type Config struct {
	Source        string        `default:"stdin"`
	SpoolDir      string        `split_words:"true"`
	PollInterval  time.Duration `split_words:"true" default:"500ms"`
	ListenTimeout time.Duration `split_words:"true" default:"5s"`
	Buffer        int           `default:"8"`
	Model         string        `default:"whisper-1"`
	Language      string        `default:"en"`
	APIKey        string        `envconfig:"API_KEY" split_words:"true"`
	BaseURL       string        `envconfig:"BASE_URL" split_words:"true"`
}

// Result is one listen outcome. Err is set for recoverable failures such as
// ErrListenTimeout and ErrUnrecognized.
type Result struct {
	Text string
	Err  error
	At   time.Time
}

// Session runs a listener on its own goroutine until stopped.
type Session struct {
	results chan Result
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Start begins listening. Results are delivered on a channel holding at most
// buffer entries; the listener blocks while it is full.
func Start(ctx context.Context, l Listener, buffer int) *Session {
	if buffer <= 0 {
		buffer = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		results: make(chan Result, buffer),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx, l)
	return s
}

func (s *Session) run(ctx context.Context, l Listener) {
	defer close(s.done)
	defer close(s.results)

	for ctx.Err() == nil {
		text, err := l.Listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, io.EOF) {
			log.Debug().Msg("capture source exhausted")
			return
		}
		if err != nil && !errors.Is(err, ErrListenTimeout) && !errors.Is(err, ErrUnrecognized) {
			log.Warn().Err(err).Msg("capture listen failed")
		}

		select {
		case s.results <- Result{Text: text, Err: err, At: time.Now().UTC()}:
		case <-ctx.Done():
			return
		}
	}
}

// Results is closed when the session ends.
func (s *Session) Results() <-chan Result {
	return s.results
}

// Done is closed once the listening goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stop cancels listening and waits for the goroutine to exit.
func (s *Session) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}
