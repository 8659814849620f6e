package application

import (
	"context"
	"log/slog"
	"strings"
)

// emit hands an event to the notifier. A failed notification is logged and does not undo the
// mutation that triggered it.
func emit(ctx context.Context, notifier Notifier, logger *slog.Logger, event NotificationEvent, fire bool) {
	if !fire || notifier == nil {
		return
	}
	if _, err := notifier.Add(ctx, event.Type, event.Message, event.RelatedID); err != nil {
		logger.WarnContext(ctx, "notification not recorded",
			"notification_type", event.Type, "related_id", event.RelatedID,
			"error", err, "error_kind", ErrorKind(err))
	}
}

func containsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
