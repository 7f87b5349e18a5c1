package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// codeAlphabet skips lookalike characters (0/O, 1/I/L) so access codes
// survive being read aloud or typed from a screenshot.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	accessCodeLength   = 6
	slugSuffixLength   = 6
	tokenByteLength    = 24
	maxGenerateRetries = 5
)

// QuizIdentifiers is the set of opaque identifiers minted per quiz. The
// dashboard token is deliberately independent of the public two: holding
// the code or slug must not help guess it.
type QuizIdentifiers struct {
	AccessCode     string
	URLSlug        string
	DashboardToken string
}

// ExistsFunc reports whether a candidate value is already taken for a
// given column.
type ExistsFunc func(column, value string) (bool, error)

// IdentifierGenerator mints collision-checked access codes, URL slugs
// and dashboard tokens. It retries each identifier a bounded number of
// times and fails with ErrGenerationExhausted rather than looping.
type IdentifierGenerator struct {
	exists ExistsFunc
}

func NewIdentifierGenerator(exists ExistsFunc) *IdentifierGenerator {
	return &IdentifierGenerator{exists: exists}
}

// Generate mints all three identifiers for a new quiz.
func (g *IdentifierGenerator) Generate(creatorName string) (*QuizIdentifiers, error) {
	code, err := g.unique("access_code", func() (string, error) {
		return randomCode(accessCodeLength)
	})
	if err != nil {
		return nil, err
	}

	slug, err := g.unique("url_slug", func() (string, error) {
		suffix, err := randomCode(slugSuffixLength)
		if err != nil {
			return "", err
		}
		return slugify(creatorName) + "-" + strings.ToLower(suffix), nil
	})
	if err != nil {
		return nil, err
	}

	token, err := g.unique("dashboard_token", randomToken)
	if err != nil {
		return nil, err
	}

	return &QuizIdentifiers{
		AccessCode:     code,
		URLSlug:        slug,
		DashboardToken: token,
	}, nil
}

func (g *IdentifierGenerator) unique(column string, mint func() (string, error)) (string, error) {
	for i := 0; i < maxGenerateRetries; i++ {
		candidate, err := mint()
		if err != nil {
			return "", fmt.Errorf("minting %s: %w", column, err)
		}

		taken, err := g.exists(column, candidate)
		if err != nil {
			return "", fmt.Errorf("checking %s collision: %w", column, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrGenerationExhausted, column)
}

func randomCode(length int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

func randomToken() (string, error) {
	bytes := make([]byte, tokenByteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// slugify lowercases the creator name and squeezes everything that is
// not a letter or digit into single dashes. An all-symbol name still
// yields a usable slug via the "quiz" fallback.
func slugify(name string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastDash = false
		case !lastDash:
			sb.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		return "quiz"
	}
	return slug
}
