package service

import (
	"math"

	"anoa.com/karmafeed/pkg/dto"
)

// Tier thresholds on all-time karma. Tiers never demote unless karma is
// actually taken back by unlikes.
const (
	KarmaLegend      = 20000
	KarmaVeteran     = 5000
	KarmaNotable     = 1000
	KarmaContributor = 250
	KarmaRegular     = 50
	KarmaNewcomer    = 0
)

// Activity thresholds on windowed karma.
const (
	ActivityOnFire   = 100
	ActivityTrending = 50
	ActivityActive   = 20
)

var tiers = []struct {
	name      string
	threshold int
}{
	{"Legend", KarmaLegend},
	{"Veteran", KarmaVeteran},
	{"Notable", KarmaNotable},
	{"Contributor", KarmaContributor},
	{"Regular", KarmaRegular},
	{"Newcomer", KarmaNewcomer},
}

// GetKarmaTier places an all-time karma total on the tier ladder. Progress is
// the percentage of the next tier's threshold already reached.
func GetKarmaTier(allTimeKarma int) dto.KarmaTierStatus {
	status := dto.KarmaTierStatus{CurrentKarma: allTimeKarma}

	for i, tier := range tiers {
		if allTimeKarma < tier.threshold && i < len(tiers)-1 {
			continue
		}

		status.TierName = tier.name
		if i == 0 {
			status.NextTier = "Max Level"
			status.TargetKarma = tier.threshold
			status.Progress = 100
			return status
		}

		next := tiers[i-1]
		status.NextTier = next.name
		status.TargetKarma = next.threshold
		if allTimeKarma > 0 {
			status.Progress = math.Round(float64(allTimeKarma)/float64(next.threshold)*100*100) / 100
		}
		return status
	}
	return status
}

func GetActivityLabel(windowKarma int) string {
	switch {
	case windowKarma >= ActivityOnFire:
		return "On Fire"
	case windowKarma >= ActivityTrending:
		return "Trending"
	case windowKarma >= ActivityActive:
		return "Active"
	default:
		return ""
	}
}
