// Package format renders addresses, amounts and feed records for display.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"carecircle-activity-svc/src/internal/models"
)

// ShortAddress abbreviates a hex address to 0x1234...abcd.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// Amount formats a token amount with at most four decimals, trailing zeros dropped.
func Amount(value float64) string {
	s := strconv.FormatFloat(value, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return s + " ETH"
}

func TimeAgo(ts, now time.Time) string {
	d := now.Sub(ts)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	default:
		return ts.Format("Jan 2, 2006")
	}
}

// Describe renders a one-line feed sentence for a record.
func Describe(r models.ActivityRecord) string {
	who := r.Actor.Nickname
	if who == "" {
		who = ShortAddress(r.Actor.Address)
	}

	switch r.Type {
	case models.ActivityMemberJoined:
		return who + " joined the circle"
	case models.ActivityMemberLeft:
		return who + " left the circle"
	case models.ActivityExpenseAdded:
		return withDetail(who+" added an expense", amountOf(r), description(r))
	case models.ActivityExpenseSettled:
		return withDetail(who+" settled an expense", amountOf(r), description(r))
	case models.ActivityProposalCreated:
		return withDetail(who+" created a proposal", "", description(r))
	case models.ActivityProposalApproved:
		return who + " approved a proposal"
	case models.ActivityProposalExecuted:
		return who + " executed a proposal"
	case models.ActivityContributionMade:
		if amount := amountOf(r); amount != "" {
			return who + " contributed " + amount
		}
		return who + " made a contribution"
	case models.ActivityAchievementEarned:
		return withDetail(who+" earned an achievement", "", stringMeta(r, models.MetaAchievement))
	case models.ActivityMilestoneReached:
		return withDetail("The circle reached a milestone", "", stringMeta(r, models.MetaMilestone))
	default:
		return who + " did something"
	}
}

func withDetail(base, amount, detail string) string {
	if amount != "" {
		base += " of " + amount
	}
	if detail != "" {
		base += ": " + detail
	}
	return base
}

func amountOf(r models.ActivityRecord) string {
	switch v := r.Metadata[models.MetaAmount].(type) {
	case float64:
		return Amount(v)
	case int:
		return Amount(float64(v))
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return Amount(f)
		}
		return v
	default:
		return ""
	}
}

func description(r models.ActivityRecord) string {
	return stringMeta(r, models.MetaDescription)
}

func stringMeta(r models.ActivityRecord, key string) string {
	if s, ok := r.Metadata[key].(string); ok {
		return s
	}
	return ""
}
