package tool

import (
	"fmt"
	"strings"
)

type feedbackRule struct {
	sentiment string
	tones     []string
	advice    string
}

// Rules are checked in order; the first sentiment match with a matching tone
// wins, and an empty tone list is that sentiment's fallback. Tones accept
// both the classifier labels and the spoken-emotion names.
var feedbackRules = []feedbackRule{
	{sentiment: "negative", tones: []string{"anger", "angry"}, advice: "Consider calming the situation or rephrasing. Offer immediate resolution."},
	{sentiment: "negative", tones: []string{"sad"}, advice: "Empathize with the customer and provide a reassuring response."},
	{sentiment: "negative", tones: []string{"fear"}, advice: "Address the concerns and reassure the customer with a detailed explanation."},
	{sentiment: "negative", advice: "Address the customer's concerns promptly and offer assistance."},
	{sentiment: "positive", tones: []string{"joy", "happy"}, advice: "Buyer is engaged. Keep up the positive flow."},
	{sentiment: "positive", tones: []string{"surprise", "excited"}, advice: "Customer is thrilled. Consider suggesting additional products or upgrades."},
	{sentiment: "positive", tones: []string{"neutral", "relaxed"}, advice: "The customer is satisfied. Maintain a supportive tone."},
	{sentiment: "positive", advice: "Continue delivering excellent service to reinforce positive engagement."},
	{sentiment: "neutral", tones: []string{"bored", "disgust"}, advice: "Reignite the customer's interest with engaging details or promotions."},
	{sentiment: "neutral", tones: []string{"uncertain", "fear", "surprise"}, advice: "Clarify any doubts and provide additional information."},
	{sentiment: "neutral", advice: "Maintain the current approach, ensuring clarity and support."},
}

const noAdvice = "No specific advice for this combination. Continue monitoring the interaction."

// Feedback turns a sentiment and tone into live coaching for the seller.
func Feedback(sentiment, tone string) string {
	return fmt.Sprintf("Feedback: Sentiment is %s with tone %s. %s", sentiment, tone, advise(sentiment, tone))
}

func advise(sentiment, tone string) string {
	s := strings.ToLower(sentiment)
	t := strings.ToLower(tone)
	for _, r := range feedbackRules {
		if !strings.Contains(s, r.sentiment) {
			continue
		}
		if len(r.tones) == 0 {
			return r.advice
		}
		for _, want := range r.tones {
			if strings.Contains(t, want) {
				return r.advice
			}
		}
	}
	return noAdvice
}
