package socialproof

// Message categories. Time-of-day messages share one category regardless of
// which day part they were drawn from.
const (
	CategoryExclusivity = "exclusivity"
	CategoryTimeOfDay   = "time_of_day"
	CategoryGeographic  = "geographic"
	CategoryUrgency     = "urgency"
)

// LivePolite is the aria-live politeness applied to every rendered message.
const LivePolite = "polite"

// Message is one entry of a catalog pool.
type Message struct {
	Emoji    string `yaml:"emoji" json:"emoji"`
	Text     string `yaml:"text" json:"text"`
	Sub      string `yaml:"sub,omitempty" json:"sub,omitempty"`
	Category string `yaml:"-" json:"category"`
}

// Key identifies a message in the impression ledger.
func (m Message) Key() string {
	return m.Emoji + "_" + m.Text
}

// Display is what a Sink receives for a single render.
type Display struct {
	Emoji    string `json:"emoji"`
	Text     string `json:"text"`
	Sub      string `json:"sub,omitempty"`
	Category string `json:"category"`
	AriaLive string `json:"aria_live"`
}

func (m Message) display() Display {
	return Display{
		Emoji:    m.Emoji,
		Text:     m.Text,
		Sub:      m.Sub,
		Category: m.Category,
		AriaLive: LivePolite,
	}
}
