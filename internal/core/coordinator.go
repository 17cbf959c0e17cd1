package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// LimitBehavior controls what a batch does when the rate governor disallows
// the next send.
type LimitBehavior string

const (
	// LimitWait sleeps out the governor's RetryAfter, bounded by a cumulative
	// ceiling, then re-evaluates.
	LimitWait LimitBehavior = "wait"
	// LimitStop aborts the remainder of the batch, reporting it as skipped.
	LimitStop LimitBehavior = "stop"
)

// DefaultMaxWait bounds the total time a batch spends waiting out the
// governor before giving up on the remaining candidates.
const DefaultMaxWait = 5 * time.Minute

// BatchOptions parameterizes a batch run. Policy is passed explicitly and is
// immutable for the duration of the batch.
type BatchOptions struct {
	Template   string
	CustomVars map[string]string
	Policy     RatePolicy
	DryRun     bool
	OnLimit    LimitBehavior
	MaxWait    time.Duration
	Attachment *Attachment

	// Progress, if set, is called before each candidate is processed.
	Progress func(current, total int, contact *Contact)
}

// DeliveryCoordinator drives batches of sends: it gates every send on the
// rate governor, renders and transmits, records the outcome in the ledger and
// transitions contact status.
//
// Precondition: at most one active batch per ledger at a time. The
// coordinator processes sequentially and never runs sends in parallel;
// serializing concurrent invocations is the caller's responsibility.
type DeliveryCoordinator struct {
	store       ContactStore
	ledger      SendLedger
	renderer    TemplateRenderer
	transmitter Transmitter
	governor    *RateGovernor
	logger      *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDeliveryCoordinator creates a coordinator over the given collaborators.
func NewDeliveryCoordinator(
	store ContactStore,
	ledger SendLedger,
	renderer TemplateRenderer,
	transmitter Transmitter,
	logger *zap.Logger,
) *DeliveryCoordinator {
	return &DeliveryCoordinator{
		store:       store,
		ledger:      ledger,
		renderer:    renderer,
		transmitter: transmitter,
		governor:    NewRateGovernor(ledger),
		logger:      logger,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// Governor exposes the coordinator's rate governor for status reporting.
func (c *DeliveryCoordinator) Governor() *RateGovernor {
	return c.governor
}

// SendAllPending runs a batch over every contact in pending status.
// Contacts already sent, replied or bounced are excluded; they remain
// addressable through SendTo.
func (c *DeliveryCoordinator) SendAllPending(ctx context.Context, opts BatchOptions) (*BatchResult, error) {
	pending, err := c.store.GetByStatus(ctx, StatusPending)
	if err != nil {
		return nil, &PersistenceError{Op: "store read", Err: err}
	}
	return c.SendBatch(ctx, pending, opts)
}

// SendTo runs a single-contact batch addressed by email, regardless of the
// contact's current status.
func (c *DeliveryCoordinator) SendTo(ctx context.Context, email string, opts BatchOptions) (*BatchResult, error) {
	contact, err := c.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return c.SendBatch(ctx, []*Contact{contact}, opts)
}

// Preview renders the message for a contact without touching the governor,
// ledger or store.
func (c *DeliveryCoordinator) Preview(contact *Contact, template string, customVars map[string]string) (*Message, error) {
	return c.renderer.Render(template, contact, customVars)
}

// SendBatch processes candidates in the order supplied. Per-contact render
// and transmission failures are isolated; ledger or store write failures
// abort the batch.
func (c *DeliveryCoordinator) SendBatch(ctx context.Context, candidates []*Contact, opts BatchOptions) (*BatchResult, error) {
	if opts.OnLimit == "" {
		opts.OnLimit = LimitWait
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWait
	}

	result := &BatchResult{Total: len(candidates)}
	var waited time.Duration

	for i, contact := range candidates {
		if opts.Progress != nil {
			opts.Progress(i+1, len(candidates), contact)
		}

		if opts.DryRun {
			c.previewCandidate(result, contact, opts)
			continue
		}

		proceed, err := c.awaitClearance(ctx, result, candidates[i:], opts, &waited)
		if err != nil {
			return result, err
		}
		if !proceed {
			return result, nil
		}

		msg, err := c.renderer.Render(opts.Template, contact, opts.CustomVars)
		if err != nil {
			c.logger.Warn("Render failed",
				zap.String("email", contact.Email),
				zap.String("template", opts.Template),
				zap.Error(err))
			result.Failed++
			result.Results = append(result.Results, SendResult{
				ContactID: contact.ID,
				Email:     contact.Email,
				Outcome:   BatchFailed,
				Reason:    err.Error(),
			})
			continue
		}

		sendErr := c.transmitter.Send(ctx, &OutboundEmail{
			To:         contact.Email,
			Subject:    msg.Subject,
			Body:       msg.Body,
			Attachment: opts.Attachment,
		})
		now := c.now()

		if sendErr != nil {
			// Failed attempts are recorded but never count toward caps, and
			// the contact's status is left untouched.
			attempt := SendAttempt{
				Timestamp: now,
				ContactID: contact.ID,
				Email:     contact.Email,
				Template:  opts.Template,
				Subject:   msg.Subject,
				Outcome:   OutcomeFailure,
				Reason:    sendErr.Error(),
			}
			if err := c.ledger.Append(ctx, attempt); err != nil {
				return result, &PersistenceError{Op: "ledger append", Err: err}
			}
			c.logger.Warn("Delivery failed",
				zap.String("email", contact.Email),
				zap.Error(sendErr))
			result.Failed++
			result.Results = append(result.Results, SendResult{
				ContactID: contact.ID,
				Email:     contact.Email,
				Outcome:   BatchFailed,
				Reason:    sendErr.Error(),
			})
			continue
		}

		attempt := SendAttempt{
			Timestamp: now,
			ContactID: contact.ID,
			Email:     contact.Email,
			Template:  opts.Template,
			Subject:   msg.Subject,
			Outcome:   OutcomeSuccess,
		}
		if err := c.ledger.Append(ctx, attempt); err != nil {
			return result, &PersistenceError{Op: "ledger append", Err: err}
		}
		if err := c.store.MarkSent(ctx, contact.ID, now); err != nil {
			return result, &PersistenceError{Op: "store save", Err: err}
		}
		contact.Status = StatusSent
		contact.LastContacted = &now

		c.logger.Info("Email sent",
			zap.String("email", contact.Email),
			zap.String("subject", msg.Subject))
		result.Sent++
		result.Results = append(result.Results, SendResult{
			ContactID: contact.ID,
			Email:     contact.Email,
			Outcome:   BatchSent,
		})

		// Minimum spacing between consecutive successful sends, even when the
		// governor alone would allow tighter bursts.
		if i < len(candidates)-1 && opts.Policy.MinDelay > 0 {
			if err := c.sleep(ctx, opts.Policy.MinDelay); err != nil {
				c.skipRemaining(result, candidates[i+1:], "batch cancelled")
				return result, err
			}
		}
	}

	return result, nil
}

// awaitClearance consults the governor for the next candidate in remaining,
// waiting or aborting per opts. It returns false when the remainder of the
// batch was skipped.
func (c *DeliveryCoordinator) awaitClearance(ctx context.Context, result *BatchResult, remaining []*Contact, opts BatchOptions, waited *time.Duration) (bool, error) {
	for {
		decision, err := c.governor.Evaluate(ctx, c.now(), opts.Policy)
		if err != nil {
			return false, err
		}
		if decision.Allowed {
			return true, nil
		}

		if opts.OnLimit == LimitStop {
			c.logger.Info("Rate limit reached, stopping batch",
				zap.String("reason", string(decision.Reason)),
				zap.Duration("retry_after", decision.RetryAfter))
			c.skipRemaining(result, remaining, string(decision.Reason))
			return false, nil
		}

		if *waited+decision.RetryAfter > opts.MaxWait {
			c.logger.Info("Rate limit wait ceiling exceeded, stopping batch",
				zap.String("reason", string(decision.Reason)),
				zap.Duration("retry_after", decision.RetryAfter),
				zap.Duration("waited", *waited))
			c.skipRemaining(result, remaining, string(decision.Reason))
			return false, nil
		}

		c.logger.Info("Rate limit reached, waiting",
			zap.String("reason", string(decision.Reason)),
			zap.Duration("retry_after", decision.RetryAfter))
		if err := c.sleep(ctx, decision.RetryAfter); err != nil {
			c.skipRemaining(result, remaining, "batch cancelled")
			return false, err
		}
		*waited += decision.RetryAfter
	}
}

func (c *DeliveryCoordinator) previewCandidate(result *BatchResult, contact *Contact, opts BatchOptions) {
	msg, err := c.renderer.Render(opts.Template, contact, opts.CustomVars)
	if err != nil {
		result.Failed++
		result.Results = append(result.Results, SendResult{
			ContactID: contact.ID,
			Email:     contact.Email,
			Outcome:   BatchFailed,
			Reason:    err.Error(),
		})
		return
	}
	result.Sent++
	result.Results = append(result.Results, SendResult{
		ContactID: contact.ID,
		Email:     contact.Email,
		Outcome:   BatchSent,
		Reason:    "dry_run",
		Preview:   "Subject: " + msg.Subject + "\n\n" + msg.Body,
	})
}

func (c *DeliveryCoordinator) skipRemaining(result *BatchResult, remaining []*Contact, reason string) {
	for _, contact := range remaining {
		result.Skipped++
		result.Results = append(result.Results, SendResult{
			ContactID: contact.ID,
			Email:     contact.Email,
			Outcome:   BatchSkipped,
			Reason:    reason,
		})
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsFatal reports whether a batch error means subsequent rate decisions would
// be unsafe (ledger or store writes failing).
func IsFatal(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
