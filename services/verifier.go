package services

import (
	"encoding/json"
	"errors"
	"strings"

	"knowme/models"
)

// AnswerValue decodes a submitted answer that may arrive as a bare
// string (multiple_choice) or as an array of strings (select_all).
type AnswerValue []string

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = AnswerValue{single}
		return nil
	}

	var multi []string
	if err := json.Unmarshal(data, &multi); err != nil {
		return errors.New("answer must be a string or an array of strings")
	}
	*a = multi
	return nil
}

// normalizeAnswer makes comparisons case- and surrounding-whitespace
// insensitive.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[normalizeAnswer(v)] = struct{}{}
	}
	return set
}

// VerifySingle checks a single-choice candidate against the stored
// correct answers. Membership is enough: legacy questions may list more
// than one valid answer.
func VerifySingle(correct []string, candidate string) bool {
	normalized := normalizeAnswer(candidate)
	for _, c := range correct {
		if normalizeAnswer(c) == normalized {
			return true
		}
	}
	return false
}

// VerifyMulti checks a select-all candidate set against the stored
// correct set. Exact set equality is required; there is no partial
// credit, so a subset or superset both fail.
func VerifyMulti(correct, candidate []string) bool {
	want := normalizeSet(correct)
	got := normalizeSet(candidate)
	if len(want) != len(got) {
		return false
	}
	for v := range got {
		if _, ok := want[v]; !ok {
			return false
		}
	}
	return true
}

// VerifyAnswer dispatches on the question's interaction mode. A
// multiple_choice candidate arrives as a one-element list.
func VerifyAnswer(question *models.Question, candidate []string) bool {
	if question.MultiSelect() {
		return VerifyMulti(question.CorrectAnswers, candidate)
	}
	if len(candidate) != 1 {
		return false
	}
	return VerifySingle(question.CorrectAnswers, candidate[0])
}
