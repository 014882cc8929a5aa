package notify

import (
	"context"

	"BizBooksPlatform/pkg/logger"
)

// LogNotifier writes events to the log instead of a broker. The code is
// logged at debug level so local flows can be completed by hand.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	n.log.Info("notification queued",
		logger.CtxField(ctx),
		logger.String("event_id", event.ID),
		logger.String("type", string(event.Type)),
		logger.String("email", event.Email),
	)
	n.log.Debug("notification code",
		logger.String("event_id", event.ID),
		logger.String("code", event.Code),
	)
	return nil
}
