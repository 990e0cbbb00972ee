package services

import (
	"context"
	"fmt"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/ports"
)

// OutputStreamer attaches consumers to a session's output log. A consumer
// first receives the persisted history after its cursor, then live messages.
type OutputStreamer struct {
	bus     *EventBus
	log     ports.OutputLog
	session ports.SessionReader
}

// NewOutputStreamer creates a new OutputStreamer
func NewOutputStreamer(bus *EventBus, log ports.OutputLog, session ports.SessionReader) *OutputStreamer {
	return &OutputStreamer{
		bus:     bus,
		log:     log,
		session: session,
	}
}

// Stream returns messages with Seq > afterSeq in order, without gaps or
// duplicates. The channel is closed when ctx ends, the session is deleted or
// the log cannot be read. A consumer too slow for the live bus is moved back
// onto the log and resubscribed, so it only ever lags, never loses messages.
func (o *OutputStreamer) Stream(ctx context.Context, sessionID string, afterSeq int64) (<-chan domain.OutputMessage, error) {
	if _, err := o.session.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	// Subscribe before reading history so nothing persisted in between is missed
	sub := o.subscribe(sessionID)
	history, err := o.log.ListOutput(ctx, sessionID, afterSeq, 0)
	if err != nil {
		o.bus.Unsubscribe(sub)
		return nil, fmt.Errorf("failed to read output history: %w", err)
	}

	out := make(chan domain.OutputMessage)
	go func() {
		defer close(out)
		defer func() { o.bus.Unsubscribe(sub) }()

		watermark := afterSeq
		send := func(msg domain.OutputMessage) bool {
			if msg.Seq <= watermark {
				return true
			}
			select {
			case out <- msg:
				watermark = msg.Seq
				return true
			case <-ctx.Done():
				return false
			}
		}
		catchUp := func(limit int) bool {
			missing, err := o.log.ListOutput(ctx, sessionID, watermark, limit)
			if err != nil {
				logging.Logger.Error("Failed to read output log", "session_id", sessionID, "error", err)
				return false
			}
			for _, m := range missing {
				if !send(m) {
					return false
				}
			}
			return true
		}

		for _, msg := range history {
			if !send(msg) {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done:
				logging.Logger.Info("Output consumer fell behind, resuming from the log",
					"session_id", sessionID, "after_seq", watermark)
				sub = o.subscribe(sessionID)
				if _, err := o.session.GetSession(ctx, sessionID); err != nil {
					return
				}
				if !catchUp(0) {
					return
				}
			case event := <-sub.C:
				if event.Type == domain.EventSessionDeleted {
					logging.Logger.Debug("Session deleted, ending output stream", "session_id", sessionID)
					return
				}
				msg := event.Payload.(domain.OutputMessage)
				// Another writer published out of order; fill the gap from the log
				if msg.Seq > watermark+1 && !catchUp(int(msg.Seq-watermark-1)) {
					return
				}
				if !send(msg) {
					return
				}
			}
		}
	}()

	return out, nil
}

func (o *OutputStreamer) subscribe(sessionID string) *Subscription {
	return o.bus.Subscribe(func(e domain.Event) bool {
		if e.Type == domain.EventSessionDeleted {
			p, ok := e.Payload.(domain.DeletedPayload)
			return ok && p.ID == sessionID
		}
		if e.Type != domain.EventSessionOutput {
			return false
		}
		msg, ok := e.Payload.(domain.OutputMessage)
		return ok && msg.SessionID == sessionID
	})
}
