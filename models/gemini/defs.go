package gemini

import "time"

const (
	DefaultModel   = "gemini-3-flash-preview"
	DefaultTimeout = 60 * time.Second

	// ChatTemperature keeps the assistant conversational without drifting.
	ChatTemperature float32 = 0.8
)

// Operation names used for metrics, logs and TransportError.Op.
const (
	OpAnalyzeAudio    = "analyze_audio"
	OpAnalyzeImage    = "analyze_image"
	OpNewConversation = "new_conversation"
	OpChat            = "chat"
)

const noMarkdownReminder = "Remember: DO NOT use any Markdown symbols like ** or ## in your response."

// SystemInstruction is shared by every call.
const SystemInstruction = `You are a professional pediatric consultant and parenting expert from Taiwan.
Please respond with a kind, gentle, patient, and professional tone in Traditional Chinese (using Taiwan-specific particles like 『喔』, 『囉』).

【Strict Formatting Rules】
1. Prohibit any Markdown symbols such as **, ##, ###, *, -, _, ` + "`" + ` etc.
2. Do not use bold text in your responses.
3. Use line breaks and spaces for headings instead of symbols.
4. For lists, use plain numbers (1. 2. 3.) or bullets (・), never asterisks (*).
5. Ensure the response looks like a clean, natural, and warm text conversation.`

const audioPrompt = "This is a recording of a baby crying. Analyze the cause and provide soothing advice. " + noMarkdownReminder

const imagePromptFormat = "Determine if this food is safe for a %d-month-old baby. " + noMarkdownReminder
