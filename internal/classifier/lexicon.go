package classifier

import "strings"

// Keyword lexicons. Scores are plain hit counts over the lower-cased
// subject + snippet + sender text, so multi-word entries must already be
// lower case.

var receiptKeywords = []string{
	"invoice",
	"receipt",
	"payment",
	"charged",
	"charge",
	"paid",
	"billed",
	"billing",
	"order confirmation",
	"purchase",
	"subscription renewal",
	"renewal",
	"transaction",
	"amount due",
	"statement",
}

var salesKeywords = []string{
	"inquiry",
	"interested",
	"consulting",
	"retainer",
	"engagement",
	"sponsorship",
	"sponsor",
	"advisory",
	"partnership",
	"partner with",
	"proposal",
	"pricing",
	"quote",
	"demo",
	"your services",
	"work with",
	"collaborate",
}

var supportKeywords = []string{
	"help",
	"support",
	"issue",
	"problem",
	"error",
	"bug",
	"broken",
	"not working",
	"trouble",
	"failed",
	"can't log",
	"cannot access",
	"question about",
	"how do i",
}

var ignoreKeywords = []string{
	"unsubscribe",
	"newsletter",
	"webinar",
	"discount",
	"promotion",
	"sale ends",
	"limited time",
	"free trial",
	"survey",
	"digest",
	"weekly update",
	"product update",
}

// Automated-sender markers, matched against the sender local-part and the
// full text.
var automatedSenderSignals = []string{
	"no-reply",
	"noreply",
	"do-not-reply",
	"donotreply",
	"notifications",
	"notification",
	"mailer-daemon",
	"digest",
	"alerts",
	"jobalerts",
	"newsletter",
	"marketing@",
	"updates@",
}

// Domains of job networks and recruiting/vendor systems whose mail is
// never a direct business lead.
var jobNetworkDomains = []string{
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"monster.com",
	"wellfound.com",
	"hired.com",
	"greenhouse.io",
	"lever.co",
	"workday.com",
	"myworkday.com",
	"ashbyhq.com",
	"smartrecruiters.com",
	"icims.com",
}

var hiringLanguageSignals = []string{
	"job alert",
	"job opportunity",
	"job opening",
	"job match",
	"new jobs",
	"we're hiring",
	"we are hiring",
	"apply now",
	"your application",
	"open position",
	"open role",
	"career opportunity",
	"recruiter",
	"recruiting",
	"recruitment",
	"talent acquisition",
	"interview invitation",
	"your resume",
	"your cv",
}

// Direct-inquiry phrases: explicit interest, consulting/sponsorship/
// advisory/retainer language, or a scheduling/pricing request. A bare
// mention of "pricing" or "demo" does not qualify.
var directInquiryPhrases = []string{
	"interested in",
	"we are interested",
	"would love to work",
	"work with you",
	"work together",
	"hire you",
	"engage you",
	"consulting",
	"sponsorship",
	"advisory",
	"retainer",
	"book a call",
	"schedule a call",
	"schedule a meeting",
	"set up a call",
	"hop on a call",
	"find a time",
	"your rates",
	"your pricing",
	"pricing for",
	"quote for",
	"send a quote",
	"proposal for",
	"scope of work",
	"statement of work",
}

func countHits(text string, lexicon []string) int {
	hits := 0
	for _, kw := range lexicon {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

func containsAny(text string, signals []string) bool {
	for _, s := range signals {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

func matchesDomain(domain string, list []string) bool {
	if domain == "" {
		return false
	}
	for _, d := range list {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}
