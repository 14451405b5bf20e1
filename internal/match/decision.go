package match

const (
	// confidenceScale is the distance at which confidence reaches zero.
	// Visually identical photos land well inside 0-25 flipped bits, so
	// scaling against 25 instead of the full 64-bit space keeps the score
	// discriminating in the range that actually occurs.
	confidenceScale = 25.0

	// AcceptThreshold is the minimum confidence for a positive
	// identification (equivalent to distance <= 5).
	AcceptThreshold = 0.8
)

// Decision is the outcome of matching a scanned image. A rejected match is
// a valid result, not an error: Confidence is still reported but CardID is
// empty.
type Decision struct {
	CardID     string  `json:"card_id,omitempty"`
	Distance   int     `json:"-"`
	Confidence float64 `json:"confidence"`
	Accepted   bool    `json:"-"`
}

// Confidence maps a Hamming distance to a score in [0,1]. It is 1 only at
// distance 0, decreases linearly, and floors at 0 for distances >= 25.
func Confidence(distance int) float64 {
	c := 1 - float64(distance)/confidenceScale
	if c < 0 {
		return 0
	}
	return c
}

// Decide converts a nearest-neighbor result into an accept/reject decision.
// ok=false (empty index) yields confidence 0 with no card.
func Decide(m Match, ok bool) Decision {
	if !ok {
		return Decision{Confidence: 0}
	}

	confidence := Confidence(m.Distance)
	d := Decision{
		Distance:   m.Distance,
		Confidence: confidence,
	}
	if confidence >= AcceptThreshold {
		d.CardID = m.CardID
		d.Accepted = true
	}
	return d
}
