package capture

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

// LineListener reads one utterance per line, e.g. from stdin.
type LineListener struct {
	lines   chan string
	done    chan struct{}
	once    sync.Once
	timeout time.Duration

	// err is the scanner's terminal error, published by closing lines.
	err error
}

func NewLineListener(r io.Reader, timeout time.Duration) *LineListener {
	l := &LineListener{lines: make(chan string), done: make(chan struct{}), timeout: timeout}
	go l.scan(r)
	return l
}

// scan exits at the end of input or once the listener is closed.
func (l *LineListener) scan(r io.Reader) {
	defer close(l.lines)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case l.lines <- sc.Text():
		case <-l.done:
			return
		}
	}
	l.err = sc.Err()
}

// Close stops delivering lines. A read already blocked on the reader is
// abandoned when it returns.
func (l *LineListener) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *LineListener) Listen(ctx context.Context) (string, error) {
	var timeout <-chan time.Time
	if l.timeout > 0 {
		t := time.NewTimer(l.timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-l.done:
		return "", io.EOF
	default:
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-l.done:
		return "", io.EOF
	case <-timeout:
		return "", ErrListenTimeout
	case text, ok := <-l.lines:
		if !ok {
			if l.err != nil {
				return "", l.err
			}
			return "", io.EOF
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", ErrUnrecognized
		}
		return text, nil
	}
}
