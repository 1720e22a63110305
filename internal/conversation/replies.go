package conversation

import (
	"fmt"
	"strings"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/scoring"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	greetingMessage = `Hey there! 👋 Welcome to TalentScout!

I'm your AI assistant, and I'm excited to chat with you today. Think of this as a friendly conversation rather than a formal interview. I'm here to get to know you and your technical background.

We'll spend about 5-10 minutes together. I'll ask about your experience, what you're looking for, and dive into some tech topics that match your skills.

If you need to step away at any point, just say 'bye' and we can wrap up.

So, let's start with the basics: what should I call you?`

	nameRetry = "I didn't quite catch that - could you tell me your name again?"

	techStackPrompt = "Now for the fun part! Tell me about your tech stack - what languages, frameworks, databases, and tools do you work with? Just list them out however feels natural."

	parseEmptyGuidance = `I'm having a bit of trouble parsing that tech stack. No worries though!

Could you help me out by listing them a bit more clearly? Something like:
- Languages: Python, JavaScript
- Frameworks: React, Django
- Databases: PostgreSQL
- Tools: Docker, Git

Or just throw them at me in a list - whatever's easier for you!`

	firstQuestionLead = "Now, I'd love to dive a bit deeper! Don't worry about giving perfect textbook answers. I'm more interested in your real-world experience and how you think about these technologies."

	emptyAnswer = "Take your time! Whenever you're ready, here's the question again:"

	advancedLead   = "Let me dive deeper into your expertise:"
	behavioralLead = "I'd love to hear more about your experience. Here's something I'm curious about:"
	technicalTail  = "Feel free to share your experience or approach to this!"
	behavioralTail = "Take your time - I'm interested in hearing your real-world perspective on this!"

	closingQuestion = "Is there a project you're especially proud of that we haven't talked about yet?"

	endedNotice = "This conversation has ended. Start a new session whenever you'd like to chat again!"

	apology = "Sorry, something went wrong on my side. Could you say that again?"

	defaultName = "there"
)

var fieldPrompts = map[candidate.Field]string{
	candidate.FieldFullName:        "What should I call you?",
	candidate.FieldEmail:           "What's the best email to reach you at?",
	candidate.FieldPhone:           "And your phone number? (Don't worry, we keep everything secure!)",
	candidate.FieldExperienceYears: "How long have you been working in tech? Just give me a rough number of years.",
	candidate.FieldDesiredPosition: "What kind of role are you looking for? Feel free to mention a few if you're open to different opportunities!",
	candidate.FieldLocation:        "Where are you based? Just city and country is fine.",
}

var invalidPrompts = map[candidate.Field]string{
	candidate.FieldEmail:           "Hmm, that doesn't look like a valid email format. Could you double-check that for me?",
	candidate.FieldPhone:           "That phone number doesn't look quite right. Could you try again? I need 10 to 15 digits.",
	candidate.FieldExperienceYears: "I need a number for years of experience. How many years would you say? Anything from 0 to 50 works.",
}

var (
	feedbackPhrases = []string{
		"That's a great perspective!",
		"I love how you explained that!",
		"Really solid thinking there!",
		"Nice! That shows good understanding.",
		"Excellent insight!",
		"That's exactly the kind of insight we're looking for!",
	}

	followUpIntros = []string{
		"Let me ask you about something else.",
		"I'm curious about another area.",
		"Here's another one I'd love your thoughts on.",
		"Let's dive into something different.",
		"I have another question for you.",
	}

	goodbyes = []string{
		"Thanks so much for your time, %s! It was great chatting with you.",
		"Really enjoyed talking with you, %s! Thanks for stopping by.",
		"It was a pleasure meeting you, %s! Thanks for the conversation.",
		"Great talking with you today, %s! Thanks for your time.",
	}
)

func promptFor(field candidate.Field) string {
	if p, ok := fieldPrompts[field]; ok {
		return p
	}
	return fmt.Sprintf("What's your %s?", field.Label())
}

func invalidPrompt(field candidate.Field) string {
	if p, ok := invalidPrompts[field]; ok {
		return p
	}
	return fmt.Sprintf("Could you help me out with that %s again? %s", field.Label(), promptFor(field))
}

// transition acknowledges a stored field before the next prompt.
func transition(field candidate.Field, value string) string {
	switch field {
	case candidate.FieldEmail:
		return "Got it!"
	case candidate.FieldExperienceYears:
		return fmt.Sprintf("Nice! %s years of experience.", value)
	case candidate.FieldDesiredPosition:
		return "That sounds exciting!"
	case candidate.FieldLocation:
		return fmt.Sprintf("Cool! %s is a great place for tech.", value)
	default:
		return "Great!"
	}
}

func enterTechStack() string {
	return "Excellent! Now for my favorite part - " + techStackPrompt
}

func stackStarter(depth float64, analysis scoring.TechAnalysis) string {
	switch {
	case analysis.ModernStack:
		return "Impressive! You're working with a really modern tech stack."
	case analysis.FullStack:
		return "Great! I can see you have full-stack capabilities."
	case depth >= 8:
		return "Nice! You've got some solid technical depth there."
	default:
		return "Thanks for sharing your tech stack with me."
	}
}

func formatStack(stack candidate.TechStack) string {
	caser := cases.Title(language.English)
	lines := make([]string, 0, len(stack))
	for _, c := range stack {
		if len(c.Technologies) == 0 {
			continue
		}
		label := caser.String(strings.ReplaceAll(c.Name, "_", " "))
		lines = append(lines, fmt.Sprintf("- **%s**: %s", label, strings.Join(c.Technologies, ", ")))
	}
	return strings.Join(lines, "\n")
}

func completionText(name string, profile *candidate.Profile) string {
	years := "your"
	if profile.IsSet(candidate.FieldExperienceYears) {
		years = fmt.Sprintf("your %d", profile.Experience())
	}

	return fmt.Sprintf(`Thanks for sharing your thoughts, %s.

I really enjoyed our conversation! Here's what we covered today:

✅ Got to know you and your background
✅ Learned about %s years of experience
✅ Explored your tech stack and skills
✅ Had some great technical discussions

**What happens next?**
Our team will review everything we talked about today. You should hear back from us within 2-3 business days. If there's a good fit with any of our current openings, we'll set up a more detailed conversation with the hiring team.

Is there anything you'd like to know about TalentScout, our process, or the types of roles we're working on?`, name, years)
}

func politeClose(name string) string {
	return fmt.Sprintf(`Thanks so much, %s!

The technical part of our conversation is complete, but I'm happy to answer any questions you might have about TalentScout, our process, or the types of opportunities we're working on.

Otherwise, you should hear from us within 2-3 business days if there's a good match with any of our current openings.

Have a great day! 👋`, name)
}

func farewellSuffix(finished, collected bool) string {
	if finished {
		return "You should hear from us within 2-3 business days if there's a good match.\n\nBest of luck with your job search! 👋"
	}
	if collected {
		return "Even though we didn't finish everything, I got some good insights about your background. If you want to pick up where we left off, just start a new chat!\n\nBest of luck with your job search, and I hope we get to work together soon! 👋"
	}
	return "No worries about not finishing - these things happen! If you're interested in exploring opportunities with TalentScout in the future, feel free to come back anytime.\n\nTake care and best of luck with everything! 👋"
}

func displayName(profile *candidate.Profile) string {
	if name := strings.TrimSpace(profile.Value(candidate.FieldFullName)); name != "" {
		return name
	}
	return defaultName
}
