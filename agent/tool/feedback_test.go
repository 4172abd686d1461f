package tool

import (
	"strings"
	"testing"
)

func TestFeedback(t *testing.T) {
	t.Parallel()

	cases := []struct {
		sentiment string
		tone      string
		want      string
	}{
		{sentiment: "NEGATIVE", tone: "anger", want: "Consider calming the situation"},
		{sentiment: "NEGATIVE", tone: "sadness", want: "Empathize with the customer"},
		{sentiment: "NEGATIVE", tone: "fear", want: "reassure the customer with a detailed explanation"},
		{sentiment: "NEGATIVE", tone: "disgust", want: "Address the customer's concerns promptly"},
		{sentiment: "POSITIVE", tone: "joy", want: "Buyer is engaged"},
		{sentiment: "POSITIVE", tone: "surprise", want: "Customer is thrilled"},
		{sentiment: "POSITIVE", tone: "neutral", want: "The customer is satisfied"},
		{sentiment: "POSITIVE", tone: "sadness", want: "Continue delivering excellent service"},
		{sentiment: "NEUTRAL", tone: "disgust", want: "Reignite the customer's interest"},
		{sentiment: "NEUTRAL", tone: "fear", want: "Clarify any doubts"},
		{sentiment: "NEUTRAL", tone: "joy", want: "Maintain the current approach"},
		{sentiment: "UNKNOWN", tone: "UNKNOWN", want: "No specific advice for this combination"},
		{sentiment: "Error", tone: "Error", want: "No specific advice for this combination"},
	}

	for _, tc := range cases {
		t.Run(tc.sentiment+"/"+tc.tone, func(t *testing.T) {
			t.Parallel()
			got := Feedback(tc.sentiment, tc.tone)
			if !strings.Contains(got, tc.want) {
				t.Fatalf("Feedback(%q, %q) = %q, want it to contain %q", tc.sentiment, tc.tone, got, tc.want)
			}
		})
	}
}

func TestFeedbackPrefix(t *testing.T) {
	t.Parallel()

	got := Feedback("NEGATIVE", "anger")
	want := "Feedback: Sentiment is NEGATIVE with tone anger. Consider calming the situation or rephrasing. Offer immediate resolution."
	if got != want {
		t.Fatalf("Feedback() = %q, want %q", got, want)
	}
}
