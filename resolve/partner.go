package resolve

import (
	"context"
	"strings"
	"time"

	"epack-comc-prices/domain"
	"epack-comc-prices/epack"
)

// PartnerUsernameProvider is the page-identity accessor: it reads the
// trade partner's username off the page, returning "" until the page
// has rendered it.
type PartnerUsernameProvider interface {
	PartnerUsername() string
}

// PartnerUsernameFunc adapts a function to PartnerUsernameProvider.
type PartnerUsernameFunc func() string

// PartnerUsername implements PartnerUsernameProvider.
func (f PartnerUsernameFunc) PartnerUsername() string {
	return f()
}

// retryDelays spaces the second and third username attempts; the trade
// record fetch can race the page's own initial render.
var retryDelays = []time.Duration{500 * time.Millisecond, time.Second}

// AwaitPartnerUsername asks the provider up to three times, waiting
// between attempts. Returns "" when the username never appears; role
// inference then stays indeterminate.
func AwaitPartnerUsername(ctx context.Context, provider PartnerUsernameProvider, sleep func(context.Context, time.Duration) error) string {
	if sleep == nil {
		sleep = sleepCtx
	}

	if name := provider.PartnerUsername(); name != "" {
		return name
	}
	for _, d := range retryDelays {
		if err := sleep(ctx, d); err != nil {
			return ""
		}
		if name := provider.PartnerUsername(); name != "" {
			return name
		}
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PartnerInfo is the partner summary the host renders next to the
// partner's name.
type PartnerInfo struct {
	LastSeen    string // relative time, "2 hours ago"
	Rating      int    // rating the partner gave the viewer, 0 = unrated
	RatingStars string // "★★★★☆", "" when unrated
}

// PartnerSummary builds the partner info for a trade. Returns nil when
// the partner username matches neither trade party.
func PartnerSummary(trade *domain.TradeRecord, partnerUsername string, now time.Time) *PartnerInfo {
	if trade == nil || partnerUsername == "" {
		return nil
	}

	var partner *domain.Party
	if strings.EqualFold(trade.Initiator.UserName, partnerUsername) {
		partner = &trade.Initiator
	} else if strings.EqualFold(trade.Counterparty.UserName, partnerUsername) {
		partner = &trade.Counterparty
	}
	if partner == nil {
		return nil
	}

	return &PartnerInfo{
		LastSeen:    epack.RelativeTime(partner.LastLogin, now),
		Rating:      partner.Rating,
		RatingStars: epack.RatingStars(partner.Rating),
	}
}
