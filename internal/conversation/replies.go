package conversation

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"text/template"
)

// ReplyKind names one kind of bot message.
type ReplyKind string

const (
	ReplyAskName         ReplyKind = "ask_name"
	ReplyRestart         ReplyKind = "restart"
	ReplyGreeting        ReplyKind = "greeting"
	ReplyDiagnosis       ReplyKind = "diagnosis"
	ReplyAskDuration     ReplyKind = "ask_duration"
	ReplyNeedDetail      ReplyKind = "need_detail"
	ReplyNoMatch         ReplyKind = "no_match"
	ReplyInvalidDuration ReplyKind = "invalid_duration"
	ReplySeeDoctor       ReplyKind = "see_doctor"
	ReplyMonitor         ReplyKind = "monitor"
	ReplyCampusYes       ReplyKind = "campus_yes"
	ReplyCampusNo        ReplyKind = "campus_no"
	ReplyOfferDeclined   ReplyKind = "offer_declined"
)

// ReplyData is what reply templates can reference.
type ReplyData struct {
	Name       string
	Condition  string
	Treatments []string
	Days       int
	Threshold  int
	Campus     string
}

// Replies renders message text. It never influences stage transitions.
type Replies interface {
	Reply(kind ReplyKind, data ReplyData) string
}

var defaultReplyTemplates = map[ReplyKind][]string{
	ReplyAskName: {"Hi! I'm your campus health assistant. What should I call you?"},
	ReplyRestart: {"Let's start over. What should I call you?"},
	ReplyGreeting: {
		"👋 Hello {{.Name}}! How can I assist you today?",
		"Hi there, {{.Name}}! 😊 What brings you here?",
		"Greetings, {{.Name}}! 🌟 How may I help you?",
		"Welcome, {{.Name}}! 🤗 What would you like to know?",
		"Hey {{.Name}}! 👨‍⚕️ How can I be of service today?",
	},
	ReplyDiagnosis: {
		"{{.Name}}, based on your symptoms, you may have {{.Condition}}. Suggested precautions or treatments include: {{join .Treatments}}.",
	},
	ReplyAskDuration: {"{{.Name}}, how many days have you been experiencing these symptoms?"},
	ReplyNeedDetail:  {"I've noted your symptoms, {{.Name}}. Could you provide more details about how you're feeling?"},
	ReplyNoMatch: {
		"I'm not sure about your condition based on the information provided, {{.Name}}. Could you tell me more about your symptoms?",
	},
	ReplyInvalidDuration: {
		"I'm sorry, {{.Name}}, but I didn't understand that. Could you please enter the number of days you've been experiencing these symptoms?",
	},
	ReplySeeDoctor: {
		"{{.Name}}, since you've been experiencing these symptoms for {{.Days}} days, which is {{.Threshold}} or more days, I recommend consulting a doctor. Are you currently at {{.Campus}} campus? (Yes/No)",
	},
	ReplyMonitor: {
		"I understand, {{.Name}}. Since it's been less than {{.Threshold}} days, please monitor your symptoms closely. If they persist or worsen, please consult a doctor. Is there anything else I can help you with?",
	},
	ReplyCampusYes: {
		"Great, {{.Name}}. The campus clinic can see you today. Send your preferred appointment time (HH:MM, between 08:00 and 20:00) and I'll book the nearest free slot.",
	},
	ReplyCampusNo: {
		"Okay, {{.Name}}. Please visit a doctor or clinic near you soon, and seek urgent care if your symptoms get worse.",
	},
	ReplyOfferDeclined: {
		"No problem, {{.Name}}. I haven't booked anything. Send another preferred time whenever you're ready.",
	},
}

// TemplateReplies renders text/template variants, picking one at random
// when a kind has several.
type TemplateReplies struct {
	campus    string
	pick      func(n int) int
	templates map[ReplyKind][]*template.Template
}

// NewTemplateReplies compiles the built-in templates. pick chooses among
// variants and defaults to a uniform random choice.
func NewTemplateReplies(campus string, pick func(n int) int) *TemplateReplies {
	if pick == nil {
		pick = rand.IntN
	}
	funcs := template.FuncMap{"join": func(items []string) string { return strings.Join(items, ", ") }}
	r := &TemplateReplies{campus: campus, pick: pick, templates: make(map[ReplyKind][]*template.Template)}
	for kind, variants := range defaultReplyTemplates {
		for _, text := range variants {
			t := template.Must(template.New(string(kind)).Funcs(funcs).Option("missingkey=error").Parse(text))
			r.templates[kind] = append(r.templates[kind], t)
		}
	}
	return r
}

// Reply renders kind with data.
func (r *TemplateReplies) Reply(kind ReplyKind, data ReplyData) string {
	variants := r.templates[kind]
	if len(variants) == 0 {
		return ""
	}
	if data.Campus == "" {
		data.Campus = r.campus
	}
	t := variants[0]
	if len(variants) > 1 {
		t = variants[r.pick(len(variants))]
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}
