package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"sora-studio-backend/internal/pricing"
)

func TestVideoCost_Sora(t *testing.T) {
	// sora-2 prices flat per second regardless of size.
	assert.Equal(t, 0.40, pricing.VideoCost("sora-2", "1280x720", 4))
	assert.Equal(t, 0.80, pricing.VideoCost("sora-2", "720x1280", 8))
	assert.Equal(t, 1.20, pricing.VideoCost("sora-2", "1792x1024", 12))
}

func TestVideoCost_SoraPro(t *testing.T) {
	assert.Equal(t, 1.20, pricing.VideoCost("sora-2-pro", "1280x720", 4))
	assert.Equal(t, 2.40, pricing.VideoCost("sora-2-pro", "720x1280", 8))
	assert.Equal(t, 4.00, pricing.VideoCost("sora-2-pro", "1792x1024", 8))
	assert.Equal(t, 2.00, pricing.VideoCost("sora-2-pro", "1024x1792", 4))
}

func TestVideoCost_UnknownModelOrSize(t *testing.T) {
	assert.Equal(t, 0.0, pricing.VideoCost("dall-e-3", "1280x720", 4))
	assert.Equal(t, 0.0, pricing.VideoCost("sora-2-pro", "640x480", 4))
	assert.Equal(t, 0.0, pricing.VideoCost("", "", 10))
}

func TestVideoCost_GrowsWithDuration(t *testing.T) {
	shorter := pricing.VideoCost("sora-2", "1280x720", 4)
	longer := pricing.VideoCost("sora-2", "1280x720", 12)
	assert.Greater(t, longer, shorter)
}

func TestVideoCost_RoundsToCents(t *testing.T) {
	// 0.10 * 3 accumulates floating point noise; the result must be an
	// exact two-decimal dollar amount.
	assert.Equal(t, 0.30, pricing.VideoCost("sora-2", "1280x720", 3))
}

func TestUpgradeCost_UsesProPricing(t *testing.T) {
	assert.Equal(t, 4.00, pricing.UpgradeCost("1792x1024", 8))
	assert.Equal(t, 1.20, pricing.UpgradeCost("1280x720", 4))
	assert.Equal(t, pricing.VideoCost(pricing.ModelSoraPro, "720x1280", 8), pricing.UpgradeCost("720x1280", 8))
}

func TestPricePerSecond(t *testing.T) {
	assert.Equal(t, 0.10, pricing.PricePerSecond(pricing.ModelSora, "anything"))
	assert.Equal(t, 0.30, pricing.PricePerSecond(pricing.ModelSoraPro, "1280x720"))
	assert.Equal(t, 0.50, pricing.PricePerSecond(pricing.ModelSoraPro, "1024x1792"))
	assert.Equal(t, 0.0, pricing.PricePerSecond(pricing.ModelSoraPro, "4096x2160"))
}
