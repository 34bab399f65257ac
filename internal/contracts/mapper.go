package contracts

// PlacedSignature pairs a captured signature with the placement rectangle it
// renders into.
type PlacedSignature struct {
	Signature CapturedSignature `json:"signature"`
	Position  SignaturePosition `json:"position"`
}

// MapSignaturesToPositions associates captured signatures with placement
// records, grouped by page number for rendering.
//
// Positions are walked in caller-supplied order (callers fetch them ordered
// by ascending page). Each position takes the first captured signature whose
// signer type matches; duplicates of a signer type beyond the first are never
// attached. Positions with no matching signature produce no entry, so pages
// whose positions are all unmatched are absent from the result.
func MapSignaturesToPositions(signatures []CapturedSignature, positions []SignaturePosition) map[int][]PlacedSignature {
	placed := make(map[int][]PlacedSignature)
	for _, pos := range positions {
		sig, ok := firstBySignerType(signatures, pos.SignerType)
		if !ok {
			continue
		}
		placed[pos.PageNumber] = append(placed[pos.PageNumber], PlacedSignature{
			Signature: sig,
			Position:  pos,
		})
	}
	return placed
}

func firstBySignerType(signatures []CapturedSignature, signerType SignerType) (CapturedSignature, bool) {
	for _, sig := range signatures {
		if sig.SignerType == signerType {
			return sig, true
		}
	}
	return CapturedSignature{}, false
}
