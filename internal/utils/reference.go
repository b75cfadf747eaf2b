package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

const (
	PaymentReferencePrefix   = "RC"
	RemissionReferencePrefix = "RM"
)

var referencePattern = regexp.MustCompile(`^[A-Z]{2}-\d{4}-\d{4}-\d{4}-\d{4}$`)

// ReferenceGenerator produces payment, remission and ledger references.
type ReferenceGenerator struct {
	now    func() time.Time
	random func(max int64) int64
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{
		now: time.Now,
		random: func(max int64) int64 {
			n, err := rand.Int(rand.Reader, big.NewInt(max))
			if err != nil {
				return time.Now().UnixNano() % max
			}
			return n.Int64()
		},
	}
}

// NewFixedReferenceGenerator returns a generator with a fixed clock and random source.
func NewFixedReferenceGenerator(now time.Time, random int64) *ReferenceGenerator {
	return &ReferenceGenerator{
		now:    func() time.Time { return now },
		random: func(max int64) int64 { return random % max },
	}
}

// Payment returns a reference such as RC-1519-9028-2432-0001.
func (g *ReferenceGenerator) Payment() string {
	return g.grouped(PaymentReferencePrefix)
}

func (g *ReferenceGenerator) Remission() string {
	return g.grouped(RemissionReferencePrefix)
}

// Ledger returns a service request reference: the year and a 13 digit timestamp.
func (g *ReferenceGenerator) Ledger() string {
	now := g.now().UTC()
	return fmt.Sprintf("%04d-%013d", now.Year(), now.UnixMilli()%1e13)
}

func (g *ReferenceGenerator) grouped(prefix string) string {
	millis := g.now().UnixMilli() % 1e13
	digits := fmt.Sprintf("%013d%02d", millis, g.random(100))
	digits += string(rune('0' + luhnCheckDigit(digits)))
	return fmt.Sprintf("%s-%s-%s-%s-%s", prefix, digits[0:4], digits[4:8], digits[8:12], digits[12:16])
}

// ValidReference checks the grouped format and the trailing Luhn digit.
func ValidReference(ref string) bool {
	if !referencePattern.MatchString(ref) {
		return false
	}
	digits := strings.ReplaceAll(ref[3:], "-", "")
	return luhnCheckDigit(digits[:15]) == int(digits[15]-'0')
}

func luhnCheckDigit(digits string) int {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}
