package brokers

import (
	"context"
	"errors"

	"github.com/ruslano69/tdtp-tds/pkg/retry"
)

// retrying повторяет подключение и отправку по политике retry.Retryer
type retrying struct {
	Publisher
	retryer *retry.Retryer
}

// WithRetry оборачивает Publisher повторами Connect, Send и SendBatch.
// Повторяются только неотправленные сообщения: Send по одному, SendBatch по BatchError.
func WithRetry(p Publisher, r *retry.Retryer) Publisher {
	return &retrying{Publisher: p, retryer: r}
}

func (p *retrying) Connect(ctx context.Context) error {
	return p.retryer.Do(ctx, p.Publisher.Connect)
}

func (p *retrying) Send(ctx context.Context, message []byte) error {
	return p.retryer.Do(ctx, func(ctx context.Context) error {
		return p.Publisher.Send(ctx, message)
	})
}

// SendBatch повторяет пакетную отправку. Если брокер вернул BatchError,
// повторяются только неотправленные сообщения.
func (p *retrying) SendBatch(ctx context.Context, messages [][]byte) error {
	if b, ok := p.Publisher.(batchSender); ok {
		pending := messages
		return p.retryer.Do(ctx, func(ctx context.Context) error {
			err := b.SendBatch(ctx, pending)
			var be *BatchError
			if errors.As(err, &be) && len(be.Failed) > 0 {
				failed := make([][]byte, 0, len(be.Failed))
				for _, i := range be.Failed {
					if i >= 0 && i < len(pending) {
						failed = append(failed, pending[i])
					}
				}
				pending = failed
			}
			return err
		})
	}
	for _, msg := range messages {
		if err := p.Send(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}
