package operations

import (
	"context"
	"time"

	"github.com/brojonat/solkit/service/nats"
)

func newOperationEvent(res *Result, wallet, receiver string, started, completed time.Time) *nats.OperationEvent {
	event := &nats.OperationEvent{
		Operation:           string(res.Operation),
		Signature:           res.Signature,
		WalletAddress:       wallet,
		ReceiverAddress:     receiver,
		Success:             res.Success,
		State:               string(res.State),
		Attempts:            res.Attempts,
		ErrorKind:           string(res.ErrorKind),
		Error:               res.Error,
		TokenAddress:        res.TokenAddress,
		TokenAccountAddress: res.TokenAccountAddress,
		StartedAt:           started.UTC(),
		CompletedAt:         completed.UTC(),
	}
	if res.Amount != nil {
		event.Amount = res.Amount.String()
	}
	if res.NewBalance != nil {
		event.NewBalance = res.NewBalance.String()
	}
	return event
}

// publish is best effort: an unreachable broker never changes the result.
func (s *Service) publish(ctx context.Context, event *nats.OperationEvent) {
	if s.publisher == nil || event.WalletAddress == "" {
		return
	}
	if err := s.publisher.PublishOperation(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish operation event",
			"operation", event.Operation,
			"wallet", event.WalletAddress,
			"error", err,
		)
	}
}
