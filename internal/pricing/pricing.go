// Package pricing computes generation costs from the static Sora price
// table. Prices are per second of rendered video and depend on the model
// and, for the pro model, the output size.
package pricing

import "math"

const (
	ModelSora    = "sora-2"
	ModelSoraPro = "sora-2-pro"
)

// PricePerSecond returns the USD price per second for a model/size pair.
// Unknown combinations price at zero.
func PricePerSecond(model, size string) float64 {
	switch model {
	case ModelSora:
		return 0.10
	case ModelSoraPro:
		switch size {
		case "720x1280", "1280x720":
			return 0.30
		case "1024x1792", "1792x1024":
			return 0.50
		}
	}
	return 0
}

// VideoCost returns the total cost for a generation request, rounded
// half-up to two decimal places.
func VideoCost(model, size string, durationSeconds int) float64 {
	total := PricePerSecond(model, size) * float64(durationSeconds)
	return math.Round(total*100) / 100
}

// UpgradeCost prices re-rendering an existing video on the pro model with
// the source video's duration and size.
func UpgradeCost(size string, durationSeconds int) float64 {
	return VideoCost(ModelSoraPro, size, durationSeconds)
}
