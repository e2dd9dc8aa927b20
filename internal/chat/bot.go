// Package chat implements MindBot, a keyword-driven support companion.
package chat

import (
	"fmt"
	"strings"
)

// Disclaimer is shown alongside every conversation
const Disclaimer = "MindBot is a supportive tool, not a substitute for professional medical advice. Always consult a qualified professional for your health concerns."

// Starters are suggested opening messages
var Starters = []string{
	"I'm feeling stressed about exams.",
	"How can I manage my anxiety?",
	"Tell me a positive affirmation.",
	"I'm struggling to get motivated.",
}

const fallback = "Thank you for sharing that with me. I'm here to listen. Could you tell me a little more about how you're feeling? If things feel heavy, talking to one of our counsellors can really help."

type rule struct {
	keywords []string
	reply    string
}

// rules are checked in order; the first match wins
var rules = []rule{
	{
		keywords: []string{"suicide", "kill myself", "end my life", "self harm", "self-harm", "hurt myself"},
		reply:    "I'm really sorry you're feeling this way, and I'm glad you told me. You don't have to go through this alone. Please reach out right now to a crisis line or emergency services, or contact someone you trust. You can also book a session with a counsellor from the Booking page.",
	},
	{
		keywords: []string{"exam", "test", "deadline", "stress", "assignment"},
		reply:    "Exam pressure is really common. Try breaking your revision into short, focused blocks with breaks in between, and be kind to yourself about what you can do today. A short walk or a few slow breaths between sessions can help reset your focus.",
	},
	{
		keywords: []string{"anxiety", "anxious", "panic", "nervous", "worried", "worry"},
		reply:    "When anxiety shows up, grounding can help: name five things you can see, four you can touch, three you can hear, two you can smell and one you can taste. Slow breathing, in for four and out for six, also calms the body. The Anxiety Assessment in Quizzes can help you understand your levels.",
	},
	{
		keywords: []string{"sleep", "insomnia", "tired", "exhausted"},
		reply:    "Rest matters a lot for how we feel. Keeping a regular bedtime, putting screens away half an hour before sleep and avoiding caffeine late in the day can make a real difference.",
	},
	{
		keywords: []string{"motivat", "procrastinat", "lazy", "can't focus", "cannot focus"},
		reply:    "Motivation often follows action rather than the other way round. Pick one tiny task you can finish in five minutes and start there. Celebrate small wins; they add up.",
	},
	{
		keywords: []string{"affirmation", "positive", "encourage"},
		reply:    "Here's one for you: \"I am doing the best I can, and that is enough. I am allowed to grow at my own pace.\"",
	},
	{
		keywords: []string{"lonely", "alone", "isolated", "no friends"},
		reply:    "Feeling lonely is hard, and it's more common than it seems. The Community page is a safe place to connect with other students, and reaching out to one person today, even with a short message, can help.",
	},
	{
		keywords: []string{"thank", "thanks", "grateful"},
		reply:    "You're very welcome. I'm glad I could be here for you. Come back any time you want to talk.",
	},
}

// Bot answers messages from one user
type Bot struct {
	firstName string
}

// NewBot creates a bot that greets the user by first name
func NewBot(firstName string) *Bot {
	if firstName == "" {
		firstName = "there"
	}
	return &Bot{firstName: firstName}
}

// Greeting is the bot's opening message
func (b *Bot) Greeting() string {
	return fmt.Sprintf("Hello %s! I'm MindBot, your AI mental health companion. I'm here to provide support, resources, and a listening ear whenever you need it. How are you feeling today?", b.firstName)
}

// Reply picks a response for message
func (b *Bot) Reply(message string) string {
	text := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.reply
			}
		}
	}
	return fallback
}
