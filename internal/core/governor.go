package core

import (
	"context"
	"time"
)

// Evaluate decides whether a send is permitted at now, given the ledger
// history and a rate policy. It is a pure function: identical inputs always
// yield an identical Decision, and it must be re-evaluated before every
// individual send rather than cached.
//
// Only successful attempts count toward the windows. The daily window is the
// local calendar day; the hourly window is a rolling hour ending at now.
// Checks apply in priority order: hourly cap, daily cap, minimum delay.
// history must contain at least every attempt after
// min(start of day, now-1h, now-MinDelay); older entries are harmless.
func Evaluate(now time.Time, history []SendAttempt, policy RatePolicy) Decision {
	hourAgo := now.Add(-time.Hour)
	dayStart := startOfDay(now)

	var (
		hourCount    int
		dayCount     int
		oldestInHour time.Time
		lastSuccess  time.Time
	)
	for _, a := range history {
		if a.Outcome != OutcomeSuccess {
			continue
		}
		ts := a.Timestamp
		if ts.After(now) {
			continue
		}
		if ts.After(hourAgo) {
			hourCount++
			if oldestInHour.IsZero() || ts.Before(oldestInHour) {
				oldestInHour = ts
			}
		}
		if !ts.Before(dayStart) {
			dayCount++
		}
		if ts.After(lastSuccess) {
			lastSuccess = ts
		}
	}

	if policy.EmailsPerHour > 0 && hourCount >= policy.EmailsPerHour {
		return Decision{
			Reason:     ReasonHourlyCap,
			RetryAfter: clampDuration(oldestInHour.Add(time.Hour).Sub(now)),
		}
	}
	if policy.MaxEmailsPerDay > 0 && dayCount >= policy.MaxEmailsPerDay {
		return Decision{
			Reason:     ReasonDailyCap,
			RetryAfter: clampDuration(dayStart.AddDate(0, 0, 1).Sub(now)),
		}
	}
	if policy.MinDelay > 0 && !lastSuccess.IsZero() {
		if since := now.Sub(lastSuccess); since < policy.MinDelay {
			return Decision{
				Reason:     ReasonMinDelay,
				RetryAfter: policy.MinDelay - since,
			}
		}
	}
	return Decision{Allowed: true, Reason: ReasonNone}
}

// RateGovernor snapshots the ledger and applies Evaluate. It has no state of
// its own; restarting the process changes nothing about its decisions.
type RateGovernor struct {
	ledger SendLedger
}

// NewRateGovernor creates a governor backed by the given ledger.
func NewRateGovernor(ledger SendLedger) *RateGovernor {
	return &RateGovernor{ledger: ledger}
}

// Evaluate fetches a sufficient ledger snapshot and decides whether a send is
// currently permitted under policy.
func (g *RateGovernor) Evaluate(ctx context.Context, now time.Time, policy RatePolicy) (Decision, error) {
	history, err := g.ledger.Recent(ctx, snapshotCutoff(now, policy))
	if err != nil {
		return Decision{}, &PersistenceError{Op: "ledger read", Err: err}
	}
	return Evaluate(now, history, policy), nil
}

// Statistics reports ledger accounting against policy at now.
func (g *RateGovernor) Statistics(ctx context.Context, now time.Time, policy RatePolicy) (*RateStats, error) {
	all, err := g.ledger.History(ctx, 0)
	if err != nil {
		return nil, &PersistenceError{Op: "ledger read", Err: err}
	}

	hourAgo := now.Add(-time.Hour)
	dayStart := startOfDay(now)
	stats := &RateStats{
		HourlyLimit: policy.EmailsPerHour,
		DailyLimit:  policy.MaxEmailsPerDay,
	}
	for _, a := range all {
		if a.Outcome != OutcomeSuccess {
			continue
		}
		stats.TotalSent++
		if a.Timestamp.After(hourAgo) && !a.Timestamp.After(now) {
			stats.EmailsLastHour++
		}
		if !a.Timestamp.Before(dayStart) && !a.Timestamp.After(now) {
			stats.EmailsToday++
		}
	}
	stats.HourlyRemaining = max(0, stats.HourlyLimit-stats.EmailsLastHour)
	stats.DailyRemaining = max(0, stats.DailyLimit-stats.EmailsToday)
	return stats, nil
}

// snapshotCutoff returns a timestamp strictly earlier than every attempt
// Evaluate needs to see. Recent is exclusive of its argument, so the cutoff
// backs off a step; an attempt stamped exactly at the start of the day still
// counts toward the daily cap.
func snapshotCutoff(now time.Time, policy RatePolicy) time.Time {
	cutoff := startOfDay(now)
	if h := now.Add(-time.Hour); h.Before(cutoff) {
		cutoff = h
	}
	if policy.MinDelay > 0 {
		if d := now.Add(-policy.MinDelay); d.Before(cutoff) {
			cutoff = d
		}
	}
	return cutoff.Add(-time.Nanosecond)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clampDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
