package state

// Class is the code-family classification produced by the trained model.
type Class string

const (
	ClassProduct Class = "product"
	ClassSet     Class = "set"
	ClassUnknown Class = "unknown"
)

// CodeModel is the per-order classification of 16-character prefixes
// into product and set-container families. Built once by the trainer
// from three exemplar assemblies, consulted read-only afterwards.
type CodeModel struct {
	ProductPrefixes    []string `json:"product_prefixes"`
	SetPrefixes        []string `json:"set_prefixes"`
	LearningSuccessful bool     `json:"learning_successful"`
}

// Prefix16 returns the literal first 16 characters of a scanned code
// (including the "01" application identifier of a DataMatrix). Shorter
// codes classify by their whole text.
func Prefix16(code string) string {
	if len(code) <= 16 {
		return code
	}
	return code[:16]
}

// Classify maps a code to its family by 16-character prefix.
func (m *CodeModel) Classify(code string) Class {
	p := Prefix16(code)
	for _, pp := range m.ProductPrefixes {
		if pp == p {
			return ClassProduct
		}
	}
	for _, sp := range m.SetPrefixes {
		if sp == p {
			return ClassSet
		}
	}
	return ClassUnknown
}

// HasProductPrefix reports whether the code's prefix is a product prefix.
func (m *CodeModel) HasProductPrefix(code string) bool {
	return m.Classify(code) == ClassProduct
}

// HasSetPrefix reports whether the code's prefix is a set prefix.
func (m *CodeModel) HasSetPrefix(code string) bool {
	return m.Classify(code) == ClassSet
}
