// Package stage provides the staged input collection engine: an ordered table
// of messages and questions whose values come from command-line arguments
// first and interactive prompts second.
package stage

import (
	"sort"
)

// Kind tells whether a stage prints a message or produces a value.
type Kind int

const (
	// Message stages print text and produce no value.
	Message Kind = iota
	// Question stages produce a value stored under the stage key.
	Question
)

// Spec is the declarative description of one configuration item.
type Spec struct {
	// Key is the answer key, also used as the long flag name.
	Key string

	// OrderNumber places the stage in the processing order.
	OrderNumber int

	Kind Kind

	// Message renders the text of a Message stage. Empty text is not printed.
	Message func(Answers) string

	// Condition restricts when a Question stage applies. Nil means always.
	Condition *Condition

	Schema *Schema
	Prompt *Prompt
	Flag   *Flag
}

// Condition decides whether a question applies given the prior answers.
type Condition struct {
	// Description is shown in the help text, e.g. `Used only when components is "be"`.
	Description  string
	IsApplicable func(Answers) bool
}

// PromptKind selects the interactive widget used to ask a question.
type PromptKind int

const (
	PromptInput PromptKind = iota
	PromptSelect
	PromptConfirm
)

// Prompt describes how to ask a question interactively.
type Prompt struct {
	Kind    PromptKind
	Message string
	// Choices for PromptSelect. When empty, the schema enum is used.
	Choices []string
	// Default is a string for input/select prompts and a bool for confirms.
	Default interface{}
}

// FlagType is the type CLI strings are coerced into before validation.
type FlagType int

const (
	FlagString FlagType = iota
	FlagBool
)

// Flag binds a stage to a command-line flag or to the positional argument.
type Flag struct {
	Alias       string
	Description string
	Type        FlagType
	// Positional binds the stage to the next unnamed argument instead of a flag.
	Positional bool
}

// Answers maps stage keys to already validated values.
type Answers map[string]interface{}

// Clone returns a shallow copy of the answers.
func (a Answers) Clone() Answers {
	clone := make(Answers, len(a))
	for k, v := range a {
		clone[k] = v
	}
	return clone
}

// String returns the value under key if it is a string.
func (a Answers) String(key string) (string, bool) {
	v, ok := a[key].(string)
	return v, ok
}

// Bool returns the value under key if it is a bool.
func (a Answers) Bool(key string) (bool, bool) {
	v, ok := a[key].(bool)
	return v, ok
}

// Has reports whether key has a value.
func (a Answers) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Without returns a copy of the answers without the given keys.
func (a Answers) Without(keys ...string) Answers {
	clone := a.Clone()
	for _, k := range keys {
		delete(clone, k)
	}
	return clone
}

// Origin records how the command-line value of a stage was consumed.
type Origin int

const (
	// OriginCLI marks a key whose answer came from the command line.
	OriginCLI Origin = iota + 1
	// OriginCLIRejected marks a key whose command-line value failed the schema.
	OriginCLIRejected
)

// Provenance tracks which keys have consumed their command-line value.
// A consumed key is exhausted: later rounds prompt for it instead of
// re-reading the flag.
type Provenance map[string]Origin

// Merge returns the union of both provenances, entries of other winning.
func (p Provenance) Merge(other Provenance) Provenance {
	merged := make(Provenance, len(p)+len(other))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Exhausted reports whether the command-line value of key was already consumed.
func (p Provenance) Exhausted(key string) bool {
	_, ok := p[key]
	return ok
}

// FromCLI reports whether the answer for key came from the command line.
func (p Provenance) FromCLI(key string) bool {
	return p[key] == OriginCLI
}

// Sorted returns the stages ordered by OrderNumber. Stages sharing a number
// keep their relative order.
func Sorted(stages []Spec) []Spec {
	sorted := make([]Spec, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OrderNumber < sorted[j].OrderNumber
	})
	return sorted
}
