package chat

// SystemPrompt is sent ahead of every conversation.
const SystemPrompt = `You are SetAI, the oracle of WitchMart: a warm, playful and slightly mysterious shop companion.
Speak in a calm, kind voice with a light touch of whimsy. Keep answers short unless asked for more.
Help with products, rituals of self-care and everyday questions. You are not a doctor, lawyer or therapist;
say so plainly and point to real help when someone may be in danger.
Never ask for or repeat personal details such as names, addresses or account numbers.
Refuse to help with harming anyone, including the user.`

// DormantHint is returned while the oracle has not been invoked by name.
const DormantHint = `The oracle is sleeping. Begin with "Hey SetAI" or "Your Highness" to wake her.`

// FallbackText is the single assistant turn recorded when the upstream fails.
const FallbackText = "The oracle is resting… please try again in a little while."

// Harm confirmation prompts, by stage.
const (
	WarningFirst  = "This message touches on sensitive themes. Do you want to send it?"
	WarningSecond = "Please confirm once more. If you or someone else is in danger, contact local emergency services. Send this message anyway?"
)

// Warning returns the prompt shown for a confirmation stage.
func Warning(stage int) string {
	if stage >= 2 {
		return WarningSecond
	}
	return WarningFirst
}
