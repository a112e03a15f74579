package riskprofile

import (
	"context"
	"fmt"

	"dhankavach/internal/domain/models"
)

// communityReports are numbers with repeated public scam reports
var communityReports = []struct {
	phone   string
	scam    string
	reports int
}{
	{"9876543210", "Loan Fraud", 47},
	{"8765432109", "KYC Scam", 23},
	{"7654321098", "Investment Fraud", 89},
	{"9988776655", "Lottery Scam", 156},
	{"8899776655", "Tech Support Scam", 34},
}

// SeedCommunity loads the reported scam numbers into the shared profile.
// Re-seeding merges, so it is safe on every start.
func SeedCommunity(ctx context.Context, store Store, profileID string) (int, error) {
	p := Open(store, profileID)
	for _, r := range communityReports {
		score := 9
		if r.reports >= 50 {
			score = 10
		}
		_, err := p.Put(ctx, models.FlaggedEntity{
			ID:        r.phone,
			Kind:      models.EntityKindPhone,
			RiskScore: score,
			Source:    models.EntitySourceMessage,
			SourceRef: "community-reports",
		})
		if err != nil {
			return 0, fmt.Errorf("failed to seed %s: %w", r.phone, err)
		}
	}
	return len(communityReports), nil
}
