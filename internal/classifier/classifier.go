// Package classifier labels inbound messages as receipt, sales, support or
// ignore using layered lexical heuristics. Classification is a pure
// function of the message fields; it performs no I/O.
package classifier

import (
	"fmt"
	"math"
	"strings"

	"inbox-triage-go/internal/address"
)

// Label is the classification category assigned to a message.
type Label string

// Classification labels in resolution priority order.
const (
	LabelReceipt Label = "receipt"
	LabelSales   Label = "sales"
	LabelSupport Label = "support"
	LabelIgnore  Label = "ignore"
)

// Reason codes surfaced with a classification.
const (
	ReasonAutomationFilter  = "non-business-automation-filter"
	ReasonSalesNeedsInquiry = "sales-needs-human-direct-inquiry"
	ReasonNoStrongSignal    = "no-strong-signal"
	ReasonDirectInquiry     = "direct-inquiry-present"
)

// Result represents the outcome of classifying one message. Reasons always
// holds at least one code, ordered by significance.
type Result struct {
	Label      Label    `json:"label"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// signals carries everything the rule table evaluates: the lower-cased
// text, the parsed sender, the boolean gate signals and the four lexicon
// scores.
type signals struct {
	sender address.Sender

	automatedSender  bool
	jobNetworkDomain bool
	hiringLanguage   bool
	directInquiry    bool

	receiptScore int
	salesScore   int
	supportScore int
	ignoreScore  int
}

// rule is one entry of the ordered classification table. Rules are
// evaluated top to bottom; the first rule that applies wins.
type rule struct {
	name  string
	apply func(s *signals) (Result, bool)
}

var rules = []rule{
	{
		// Recruiter, job-network and notification traffic is never a
		// lead unless it carries a direct inquiry. An automated sender
		// whose text has sales vocabulary falls through to the lexicon
		// stage so the downgrade reason reflects the missing inquiry.
		name: "automation-gate",
		apply: func(s *signals) (Result, bool) {
			if s.directInquiry {
				return Result{}, false
			}
			if !s.jobNetworkDomain && !s.hiringLanguage && !(s.automatedSender && s.salesScore == 0) {
				return Result{}, false
			}
			reasons := []string{ReasonAutomationFilter}
			if s.automatedSender {
				reasons = append(reasons, "automated-sender")
			}
			if s.jobNetworkDomain {
				reasons = append(reasons, "job-network-domain")
			}
			if s.hiringLanguage {
				reasons = append(reasons, "hiring-language")
			}
			return Result{Label: LabelIgnore, Confidence: 0.94, Reasons: reasons}, true
		},
	},
	{
		name: "receipt",
		apply: func(s *signals) (Result, bool) {
			if s.receiptScore == 0 || s.receiptScore < s.salesScore {
				return Result{}, false
			}
			return Result{
				Label:      LabelReceipt,
				Confidence: capped(0.65+0.08*float64(s.receiptScore), 0.96),
				Reasons:    []string{scoreReason("receipt", s.receiptScore)},
			}, true
		},
	},
	{
		// Marketing copy mentions "pricing" and "demo" too; sales needs
		// a human sender making a direct inquiry.
		name: "sales-downgrade",
		apply: func(s *signals) (Result, bool) {
			if s.salesScore == 0 {
				return Result{}, false
			}
			if s.directInquiry && !s.automatedSender && !s.jobNetworkDomain && !s.hiringLanguage {
				return Result{}, false
			}
			return Result{Label: LabelIgnore, Confidence: 0.90, Reasons: []string{ReasonSalesNeedsInquiry}}, true
		},
	},
	{
		name: "sales",
		apply: func(s *signals) (Result, bool) {
			if s.salesScore == 0 {
				return Result{}, false
			}
			return Result{
				Label:      LabelSales,
				Confidence: capped(0.62+0.07*float64(s.salesScore), 0.95),
				Reasons:    []string{scoreReason("sales", s.salesScore), ReasonDirectInquiry},
			}, true
		},
	},
	{
		name: "support",
		apply: func(s *signals) (Result, bool) {
			if s.supportScore == 0 {
				return Result{}, false
			}
			return Result{
				Label:      LabelSupport,
				Confidence: capped(0.58+0.08*float64(s.supportScore), 0.90),
				Reasons:    []string{scoreReason("support", s.supportScore)},
			}, true
		},
	},
	{
		name: "ignore-lexicon",
		apply: func(s *signals) (Result, bool) {
			if s.ignoreScore == 0 {
				return Result{}, false
			}
			return Result{
				Label:      LabelIgnore,
				Confidence: capped(0.60+0.08*float64(s.ignoreScore), 0.92),
				Reasons:    []string{scoreReason("ignore", s.ignoreScore)},
			}, true
		},
	},
	{
		name: "fallback",
		apply: func(s *signals) (Result, bool) {
			return Result{Label: LabelIgnore, Confidence: 0.52, Reasons: []string{ReasonNoStrongSignal}}, true
		},
	},
}

// Classify evaluates the ordered rule table over a message's subject,
// snippet and raw sender string and returns the first matching result.
func Classify(subject, snippet, sender string) Result {
	s := evaluate(subject, snippet, sender)
	for _, r := range rules {
		if result, ok := r.apply(s); ok {
			return result
		}
	}
	// The fallback rule always applies.
	return Result{Label: LabelIgnore, Confidence: 0.52, Reasons: []string{ReasonNoStrongSignal}}
}

// evaluate computes every signal the rule table consumes.
func evaluate(subject, snippet, sender string) *signals {
	text := strings.ToLower(strings.Join([]string{subject, snippet, sender}, " "))
	parsed := address.Parse(sender)

	return &signals{
		sender:           parsed,
		automatedSender:  containsAny(parsed.Local, automatedSenderSignals) || containsAny(text, automatedSenderSignals),
		jobNetworkDomain: matchesDomain(parsed.Domain, jobNetworkDomains),
		hiringLanguage:   containsAny(text, hiringLanguageSignals),
		directInquiry:    containsAny(text, directInquiryPhrases),
		receiptScore:     countHits(text, receiptKeywords),
		salesScore:       countHits(text, salesKeywords),
		supportScore:     countHits(text, supportKeywords),
		ignoreScore:      countHits(text, ignoreKeywords),
	}
}

func capped(confidence, ceiling float64) float64 {
	return math.Min(confidence, ceiling)
}

func scoreReason(lexicon string, score int) string {
	return fmt.Sprintf("%s-keywords:%d", lexicon, score)
}
