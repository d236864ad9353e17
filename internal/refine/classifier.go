package refine

import "strings"

// moreInfoTriggers are the phrases a model uses when it cannot proceed without
// more context. Matching is a lower-cased substring test.
var moreInfoTriggers = []string{
	"please provide more details",
	"can you clarify",
	"input required",
	"please specify",
	"need more information",
	"could you elaborate",
}

// NeedsMoreInfo reports whether text asks the user for more information.
func NeedsMoreInfo(text string) bool {
	lower := strings.ToLower(text)
	for _, trigger := range moreInfoTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// Classifier decides whether a model response is a request for more context.
type Classifier interface {
	NeedsMoreInfo(text string) bool
}

// KeywordClassifier is the trigger-phrase Classifier.
type KeywordClassifier struct{}

// NeedsMoreInfo implements Classifier.
func (KeywordClassifier) NeedsMoreInfo(text string) bool {
	return NeedsMoreInfo(text)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(text string) bool

// NeedsMoreInfo implements Classifier.
func (f ClassifierFunc) NeedsMoreInfo(text string) bool {
	return f(text)
}
