package mail

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/azrrael22/horse-reserved/internal/core/port"
	"github.com/azrrael22/horse-reserved/internal/infra/logger"
)

const dispatchQueueSize = 64

// Dispatcher delivers reset mail in the background. Enqueueing never blocks
// the request path; delivery failures are logged and swallowed so the reset
// flow's outward behavior stays independent of SMTP health.
type Dispatcher struct {
	sender      Sender
	from        string
	frontendURL string
	log         *zap.Logger

	queue chan port.PasswordResetMail
	stop  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewDispatcher constructs a dispatcher; call Start before enqueueing.
func NewDispatcher(sender Sender, from, frontendURL string, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		from:        from,
		frontendURL: frontendURL,
		log:         log,
		queue:       make(chan port.PasswordResetMail, dispatchQueueSize),
		stop:        make(chan struct{}),
	}
}

// Start launches the background delivery worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

// Close stops accepting new mail and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.stop)
	})
	d.wg.Wait()
}

// NotifyPasswordReset enqueues a reset mail for asynchronous delivery. If the
// queue is full or the dispatcher is shutting down the mail is dropped with a
// warning rather than stalling the caller.
func (d *Dispatcher) NotifyPasswordReset(ctx context.Context, mail port.PasswordResetMail) {
	select {
	case <-d.stop:
		d.log.Warn("reset mail dropped: dispatcher closed",
			zap.String("to", logger.MaskEmail(mail.To)),
		)
	case d.queue <- mail:
	default:
		d.log.Warn("reset mail dropped: queue full",
			zap.String("to", logger.MaskEmail(mail.To)),
		)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case mail := <-d.queue:
			d.deliver(mail)
		case <-d.stop:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case mail := <-d.queue:
					d.deliver(mail)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(mail port.PasswordResetMail) {
	msg := ResetMessage(d.from, mail.To, mail.FirstName, mail.TokenValue, d.frontendURL, mail.ValidFor)

	if err := d.sender.Send(msg); err != nil {
		d.log.Error("reset mail delivery failed",
			zap.String("to", logger.MaskEmail(mail.To)),
			zap.Error(err),
		)
		return
	}

	d.log.Info("reset mail delivered",
		zap.String("to", logger.MaskEmail(mail.To)),
	)
}
