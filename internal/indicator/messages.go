package indicator

import (
	"fmt"
	"strings"

	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
)

// maxReasonLen keeps launch errors readable in a notification bubble.
const maxReasonLen = 96

func startedText(m mode.Mode) string {
	return fmt.Sprintf("%s mode on", modeLabel(m))
}

func stoppedText(m mode.Mode) string {
	return fmt.Sprintf("%s mode off", modeLabel(m))
}

func failedText(m mode.Mode, reason string) string {
	reason = shortReason(reason)
	if reason == "" {
		return fmt.Sprintf("%s mode failed", modeLabel(m))
	}
	return fmt.Sprintf("%s mode failed: %s", modeLabel(m), reason)
}

func modeLabel(m mode.Mode) string {
	return strings.ToUpper(string(m))
}

// shortReason keeps the first line of reason, truncated to maxReasonLen runes.
func shortReason(reason string) string {
	reason, _, _ = strings.Cut(strings.TrimSpace(reason), "\n")
	reason = strings.TrimSpace(reason)
	if runes := []rune(reason); len(runes) > maxReasonLen {
		return string(runes[:maxReasonLen-1]) + "…"
	}
	return reason
}
