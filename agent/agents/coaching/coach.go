package coaching

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	"github.com/tanpawarit/ai-sales-assistant/agent/tool"
	"github.com/tanpawarit/ai-sales-assistant/pkg/capture"
	"github.com/tanpawarit/ai-sales-assistant/pkg/export"
)

// ErrorLabel fills the sentiment and tone columns of rows recording a capture
// failure.
const ErrorLabel = "Error"

const unrecognizedFeedback = "Error: Could not understand the audio."

type Config struct {
	// SheetRange sends coaching rows to their own tab of the export sheet.
	SheetRange string `split_words:"true" default:"Coaching!A1"`
}

// Note is the coaching produced for one utterance.
type Note struct {
	Text      string    `json:"text"`
	Sentiment string    `json:"sentiment"`
	Tone      string    `json:"tone"`
	Feedback  string    `json:"feedback"`
	At        time.Time `json:"at"`
	Warnings  []string  `json:"warnings,omitempty"`
}

func (n Note) row() export.FeedbackRow {
	return export.FeedbackRow{Text: n.Text, Sentiment: n.Sentiment, Tone: n.Tone, Feedback: n.Feedback}
}

// Coach classifies live utterances and records seller feedback for each.
type Coach struct {
	classifier contractx.Classifier
	sink       contractx.ExportSink
	now        func() time.Time
}

type Option func(*Coach)

func WithClock(now func() time.Time) Option {
	return func(c *Coach) {
		if now != nil {
			c.now = now
		}
	}
}

func New(classifier contractx.Classifier, sink contractx.ExportSink, opts ...Option) (*Coach, error) {
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if sink == nil {
		sink = export.LogSink{}
	}
	c := &Coach{classifier: classifier, sink: sink, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Analyze classifies text, derives feedback and appends the coaching row.
// An export failure is reported as a warning on the note.
func (c *Coach) Analyze(ctx context.Context, text string) (Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Note{}, fmt.Errorf("%w: utterance is empty", contractx.ErrValidation)
	}

	note := Note{Text: text, At: c.now().UTC()}
	var wg conc.WaitGroup
	wg.Go(func() { note.Sentiment = c.classifier.Classify(ctx, text, contractx.LabelSentiment) })
	wg.Go(func() { note.Tone = c.classifier.Classify(ctx, text, contractx.LabelTone) })
	wg.Wait()

	note.Feedback = tool.Feedback(note.Sentiment, note.Tone)
	if err := c.sink.AppendRow(ctx, note.row().Fields()); err != nil {
		log.Warn().Err(err).Msg("coaching: feedback export failed")
		note.Warnings = append(note.Warnings, "feedback export failed")
	}
	return note, nil
}

// Failure records a capture failure as an error row.
func (c *Coach) Failure(ctx context.Context, cause error) Note {
	feedback := unrecognizedFeedback
	if !errors.Is(cause, capture.ErrUnrecognized) {
		feedback = "Error: " + cause.Error()
	}
	note := Note{Sentiment: ErrorLabel, Tone: ErrorLabel, Feedback: feedback, At: c.now().UTC()}
	if err := c.sink.AppendRow(ctx, note.row().Fields()); err != nil {
		log.Warn().Err(err).Msg("coaching: error row export failed")
		note.Warnings = append(note.Warnings, "feedback export failed")
	}
	return note
}

// Run coaches every captured utterance until results close. Listen timeouts
// are silence and produce nothing; other capture errors produce error rows.
// It returns the number of utterances coached.
func (c *Coach) Run(ctx context.Context, results <-chan capture.Result, out io.Writer) int {
	coached := 0
	for res := range results {
		if errors.Is(res.Err, capture.ErrListenTimeout) {
			continue
		}
		if res.Err != nil {
			note := c.Failure(ctx, res.Err)
			fmt.Fprintln(out, note.Feedback)
			continue
		}

		note, err := c.Analyze(ctx, res.Text)
		if err != nil {
			continue
		}
		coached++
		fmt.Fprintf(out, "%s\n%s\n", note.Text, note.Feedback)
		for _, w := range note.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
	}
	return coached
}
