package verify

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/grounding"
	"github.com/seoulstay/concierge/pkg/korean"
)

// dropSentences removes the sentences of answer for which drop returns
// true, preserving line and bullet structure.
func dropSentences(answer string, drop func(sentence string) bool) string {
	var lines []string
	for _, line := range strings.Split(answer, "\n") {
		var kept []string
		for _, sent := range grounding.SplitSentences(line) {
			if !drop(sent) {
				kept = append(kept, sent)
			}
		}
		joined := strings.TrimSpace(strings.Join(kept, " "))
		if joined != "" && joined != "-" && joined != "•" {
			lines = append(lines, joined)
		}
	}
	return strings.Join(lines, "\n")
}

func despace(s string) string { return strings.ReplaceAll(s, " ", "") }

func normalizeNumeric(tok string) string {
	return despace(strings.ReplaceAll(tok, ",", ""))
}

// numericIssues lists the answer's numeric tokens that appear nowhere in
// the retrieved context.
func numericIssues(answer, context string) []string {
	ctx := normalizeNumeric(context)
	var issues []string
	for _, tok := range numericTokenRe.FindAllString(answer, -1) {
		if len(normalizeNumeric(tok)) < 3 {
			continue
		}
		if !strings.Contains(ctx, normalizeNumeric(tok)) {
			issues = append(issues, "numeric-not-in-context: "+tok)
		}
	}
	return issues
}

// scrubProperNouns deletes sentences that introduce names absent from both
// the whitelist and the context. Bilingual pairs, quoted names, and
// facility-suffixed names are all scanned.
func scrubProperNouns(answer, context string, known *config.KnownNames) (string, []string) {
	var issues []string
	lowCtx := strings.ToLower(context)

	unknown := func(name string) bool {
		name = strings.TrimSpace(name)
		if name == "" || known.Contains(name) {
			return false
		}
		return !strings.Contains(lowCtx, strings.ToLower(name))
	}

	badSentence := func(sent string) bool {
		for _, m := range bilingualNameRe.FindAllStringSubmatch(sent, -1) {
			if unknown(m[1]) && unknown(m[2]) {
				issues = append(issues, "unknown-name: "+m[1])
				return true
			}
		}
		for _, m := range quotedNameRe.FindAllStringSubmatch(sent, -1) {
			if unknown(m[1]) {
				issues = append(issues, "unknown-name: "+m[1])
				return true
			}
		}
		for _, m := range facilityNameRe.FindAllStringSubmatch(sent, -1) {
			name := korean.StripParticles(m[1])
			if genericFacilityPrefixes[name] {
				continue
			}
			if unknown(name) {
				issues = append(issues, "unknown-facility: "+name)
				return true
			}
		}
		return false
	}

	return dropSentences(answer, badSentence), issues
}

var genericFacilityPrefixes = map[string]bool{
	"저희": true, "이": true, "그": true, "해당": true, "호텔": true,
	"조식": true, "뷔페": true, "투숙객": true, "전문": true,
}

// personNameIssue fires when the query asks about a named person and the
// context never mentions them. Answering anything then would be invention.
func personNameIssue(query, context string) string {
	for _, m := range personRoleRe.FindAllStringSubmatch(query, -1) {
		if !strings.Contains(context, m[1]) {
			return "person-not-in-context: " + m[1]
		}
	}
	return ""
}

// scrubTransport removes fabricated route details and, for queries that are
// not about transportation at all, any transport sentence the model drifted
// into.
func scrubTransport(query, answer, context string) (string, []string) {
	var issues []string
	ctxFlat := despace(context)

	out := dropSentences(answer, func(sent string) bool {
		for _, re := range transportRouteRes {
			for _, m := range re.FindAllString(sent, -1) {
				if !strings.Contains(ctxFlat, despace(m)) {
					issues = append(issues, "transport-route-not-in-context: "+m)
					return true
				}
			}
		}
		return false
	})

	if !isTransportQuery(query) {
		out = dropSentences(out, func(sent string) bool {
			for _, kw := range []string{"지하철", "호선", "환승", "버스 ", "리무진"} {
				if strings.Contains(sent, kw) {
					issues = append(issues, "off-topic-transport")
					return true
				}
			}
			return false
		})
	}
	return out, issues
}

func isTransportQuery(query string) bool {
	for _, kw := range transportTopicKeywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

// scrubCategoryContamination drops sentences carrying another category's
// exclusive keywords. The query's own words are exempt: echoing the guest
// back is not contamination.
func scrubCategoryContamination(answer, query, category string) (string, []string) {
	if category == "" {
		return answer, nil
	}
	var issues []string
	out := dropSentences(answer, func(sent string) bool {
		for cat, kws := range config.CategoryExclusiveKeywords {
			if cat == category {
				continue
			}
			for _, kw := range kws {
				if strings.Contains(sent, kw) && !strings.Contains(query, kw) {
					issues = append(issues, "category-contamination: "+kw)
					return true
				}
			}
		}
		return false
	})
	return out, issues
}

// scrubHotelContamination removes sentences naming or dialing a different
// hotel that the context never mentions.
func scrubHotelContamination(answer, context, currentHotel string) (string, []string) {
	var issues []string
	out := dropSentences(answer, func(sent string) bool {
		for key, info := range config.Hotels {
			if key == currentHotel {
				continue
			}
			if strings.Contains(sent, info.Name) && !strings.Contains(context, info.Name) {
				issues = append(issues, "hotel-contamination: "+info.Name)
				return true
			}
			if strings.Contains(sent, info.Phone) && !strings.Contains(context, info.Phone) {
				issues = append(issues, "hotel-contamination: "+info.Phone)
				return true
			}
		}
		return false
	})
	return out, issues
}

// scrubPhones drops sentences whose phone numbers are neither in context
// nor a registered hotel line.
func scrubPhones(answer, context string) (string, []string) {
	var issues []string
	out := dropSentences(answer, func(sent string) bool {
		for _, phone := range phoneRe.FindAllString(sent, -1) {
			if strings.Contains(context, phone) || isHotelPhone(phone) {
				continue
			}
			issues = append(issues, "phone-not-in-context: "+phone)
			return true
		}
		return false
	})
	return out, issues
}

func isHotelPhone(phone string) bool {
	for _, info := range config.Hotels {
		if info.Phone == phone {
			return true
		}
	}
	return false
}

// scrubURLs drops sentences whose URLs are neither in context nor on a
// known hotel domain.
func scrubURLs(answer, context string) (string, []string) {
	var issues []string
	out := dropSentences(answer, func(sent string) bool {
		for _, raw := range urlRe.FindAllString(sent, -1) {
			if strings.Contains(context, raw) {
				continue
			}
			u, err := url.Parse(raw)
			if err == nil && isHotelDomain(u.Host) {
				continue
			}
			issues = append(issues, "url-not-in-context: "+raw)
			return true
		}
		return false
	})
	return out, issues
}

func isHotelDomain(host string) bool {
	for _, d := range config.HotelDomains {
		if host == d {
			return true
		}
	}
	return false
}

// priceManipulationIssue detects the digit-slip failure mode: an answer
// price that is exactly 10 or 100 times (or a tenth or hundredth of) a
// context price.
func priceManipulationIssue(answer, context string) string {
	ctxPrices := pricesOf(context)
	if len(ctxPrices) == 0 {
		return ""
	}
	for p := range pricesOf(answer) {
		if ctxPrices[p] {
			continue
		}
		for _, factor := range []int64{10, 100} {
			if ctxPrices[p*factor] || (p%factor == 0 && ctxPrices[p/factor]) {
				return "price-digit-manipulation: " + strconv.FormatInt(p, 10)
			}
		}
	}
	return ""
}

func pricesOf(s string) map[int64]bool {
	out := make(map[int64]bool)
	for _, tok := range priceTokenRe.FindAllString(s, -1) {
		digits := strings.TrimFunc(normalizeNumeric(tok), func(r rune) bool {
			return r < '0' || r > '9'
		})
		if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
			out[n] = true
		}
	}
	return out
}
