package prompt

// Fixed prompt templates. The translation template carries two placeholder
// tokens substituted at compose time; everything else is static text.

const TranslationSystem = "You are a bilingual assistant who translates and summarizes messages. " +
	"Always produce clear, natural output in the target language."

const translationTemplate = "Please translate the following message into {{TARGET_LANGUAGE}}.\n" +
	"Make the response concise and keep only essential information.\n" +
	"Remove redundant phrases, greetings that add no value, and unrelated details.\n" +
	"\n" +
	"Message:\n" +
	"{{CONTENT}}"

const ReplySystem = "You are a professional communication assistant. " +
	"Craft context-aware replies that align with the provided intent and tone prompt. " +
	"Always respect the reply language requirement."

const ReplyInstruction = "Given the JSON payload, craft a single reply message. " +
	"Use the history to understand the conversation flow (partner = sender, self = user). " +
	"Incorporate reference and quote materials when relevant. " +
	"Follow the tonePrompt exactly. " +
	"Return only the reply text."

// Tone is one entry of the closed tone table.
type Tone struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// DefaultToneID is used when a tone key is missing or unrecognized.
const DefaultToneID = "concise"

var tones = map[string]Tone{
	"concise": {
		ID:    "concise",
		Label: "简洁",
		Prompt: "Keep the reply short, direct, and focused on key points. " +
			"Avoid unnecessary embellishment.",
	},
	"business": {
		ID:    "business",
		Label: "商务礼貌",
		Prompt: "Write in a professional and courteous tone suitable for business communication. " +
			"Maintain clarity and respect.",
	},
	"casual": {
		ID:    "casual",
		Label: "随意口语",
		Prompt: "Use a relaxed, friendly tone with natural conversational phrasing. " +
			"Mild slang is acceptable if appropriate.",
	},
}

// ResolveTone maps a tone key to its table entry, defaulting to concise for
// unknown or empty keys.
func ResolveTone(key string) Tone {
	if tone, ok := tones[key]; ok {
		return tone
	}
	return tones[DefaultToneID]
}

// ToneIDs lists the valid tone keys in presentation order.
func ToneIDs() []string {
	return []string{"concise", "business", "casual"}
}
