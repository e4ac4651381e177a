package domain

// NoOperator is the placeholder used when a special phrase has no operator.
const NoOperator = "-"

// Operators allowed in stored special phrases.
const (
	OperatorIn   = "in"
	OperatorNear = "near"
)

// SpecialPhrase is a search phrase that maps onto a place class and type,
// e.g. "restaurants in" -> amenity/restaurant.
type SpecialPhrase struct {
	Phrase   string
	Class    string
	Type     string
	Operator string
}

// NormalizeOperator maps everything except "in" and "near" onto NoOperator.
func NormalizeOperator(op string) string {
	switch op {
	case OperatorIn, OperatorNear:
		return op
	}
	return NoOperator
}

// StoredOperator returns the operator as persisted: nil for NoOperator.
func (p SpecialPhrase) StoredOperator() *string {
	op := NormalizeOperator(p.Operator)
	if op == NoOperator {
		return nil
	}
	return &op
}

// SpecialPhraseToken is a special phrase together with its search token,
// ready to be inserted into the store.
type SpecialPhraseToken struct {
	SpecialPhrase
	Token string
}
