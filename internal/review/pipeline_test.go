package review

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tencent/WeKnora/internal/types"
)

func TestOverallRiskLevel(t *testing.T) {
	assert.Equal(t, types.RiskLevelLow, overallRiskLevel(nil))

	low := []types.RiskClause{{Level: types.RiskLevelLow}}
	assert.Equal(t, types.RiskLevelLow, overallRiskLevel(low))

	mixed := []types.RiskClause{{Level: types.RiskLevelLow}, {Level: types.RiskLevelMedium}}
	assert.Equal(t, types.RiskLevelMedium, overallRiskLevel(mixed))

	withHigh := []types.RiskClause{{Level: types.RiskLevelMedium}, {Level: types.RiskLevelHigh}, {Level: types.RiskLevelLow}}
	assert.Equal(t, types.RiskLevelHigh, overallRiskLevel(withHigh))
}

func TestCompletenessScore(t *testing.T) {
	assert.Equal(t, 100, completenessScore(0, types.RiskLevelLow))
	assert.Equal(t, 85, completenessScore(3, types.RiskLevelLow))
	// count penalty caps at 50
	assert.Equal(t, 50, completenessScore(30, types.RiskLevelLow))
	// HIGH adds 20 more on top of the capped count penalty
	assert.Equal(t, 30, completenessScore(30, types.RiskLevelHigh))
	assert.Equal(t, 90, completenessScore(0, types.RiskLevelMedium))
	// count penalty caps at 50 regardless of how far past it totalRisks goes
	assert.Equal(t, 30, completenessScore(100, types.RiskLevelHigh))
	// the 20-point floor is never reachable: the worst case (50 count cap +
	// 20 HIGH penalty) bottoms out at 30, so the clamp is a safety net only
	assert.Equal(t, completenessScore(30, types.RiskLevelHigh), completenessScore(1000, types.RiskLevelHigh))
}

func TestComplianceScore(t *testing.T) {
	assert.Equal(t, 100, complianceScore(0, types.RiskLevelLow))
	assert.Equal(t, 45, complianceScore(30, types.RiskLevelHigh))
	assert.Equal(t, complianceScore(30, types.RiskLevelHigh), complianceScore(1000, types.RiskLevelHigh))
	assert.NotEqual(t, completenessScore(5, types.RiskLevelHigh), complianceScore(5, types.RiskLevelHigh),
		"the two scores should diverge rather than track each other")
}

func TestJoinNonEmpty(t *testing.T) {
	assert.Equal(t, "", joinNonEmpty(nil, "; "))
	assert.Equal(t, "a; b", joinNonEmpty([]string{"a", "", "b"}, "; "))
}

func TestDedupeStrings(t *testing.T) {
	got := dedupeStrings([]string{"a", "", "b", "a", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestReviewDocID(t *testing.T) {
	assert.Equal(t, "review:42", reviewDocID(42))
}
