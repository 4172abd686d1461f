package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".webm": true,
	".flac": true,
}

// Transcriber is the subset of the OpenAI client used for speech-to-text.
type Transcriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// WhisperListener transcribes audio clips dropped into a spool directory,
// oldest name first. Processed clips are moved to a "done" subdirectory.
type WhisperListener struct {
	client   Transcriber
	dir      string
	model    string
	language string
	poll     time.Duration
	timeout  time.Duration
}

func NewWhisperClient(cfg Config) (*openai.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("capture api key is required for whisper")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oc.BaseURL = base
	}
	return openai.NewClientWithConfig(oc), nil
}

func NewWhisperListener(client Transcriber, cfg Config) (*WhisperListener, error) {
	if client == nil {
		return nil, errors.New("transcriber is required")
	}
	dir := strings.TrimSpace(cfg.SpoolDir)
	if dir == "" {
		return nil, errors.New("capture spool dir is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, "done"), 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &WhisperListener{
		client:   client,
		dir:      dir,
		model:    model,
		language: cfg.Language,
		poll:     poll,
		timeout:  cfg.ListenTimeout,
	}, nil
}

func (w *WhisperListener) Listen(ctx context.Context) (string, error) {
	var deadline <-chan time.Time
	if w.timeout > 0 {
		t := time.NewTimer(w.timeout)
		defer t.Stop()
		deadline = t.C
	}
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		clip, err := w.nextClip()
		if err != nil {
			return "", err
		}
		if clip != "" {
			return w.transcribe(ctx, clip)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline:
			return "", ErrListenTimeout
		case <-ticker.C:
		}
	}
}

func (w *WhisperListener) nextClip() (string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return "", fmt.Errorf("read spool dir: %w", err)
	}
	var clips []string
	for _, e := range entries {
		if e.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		clips = append(clips, e.Name())
	}
	if len(clips) == 0 {
		return "", nil
	}
	sort.Strings(clips)
	return filepath.Join(w.dir, clips[0]), nil
}

func (w *WhisperListener) transcribe(ctx context.Context, path string) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: path,
		Language: w.language,
	})
	if moveErr := os.Rename(path, filepath.Join(w.dir, "done", filepath.Base(path))); moveErr != nil {
		return "", fmt.Errorf("archive clip: %w", moveErr)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnrecognized, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnrecognized
	}
	return text, nil
}
