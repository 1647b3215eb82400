// Package grounding verifies that every sentence of a generated answer is
// supported by a span of retrieved text, with hard checks on numbers and
// proper nouns before anything is shown to a guest.
package grounding

import "strings"

// Query intents. A query may carry several; "general" stands in when no
// keyword list fires.
const (
	IntentFeeEntry    = "fee_entry"
	IntentFeeRental   = "fee_rental"
	IntentRentalItems = "rental_items"
	IntentRule        = "rule"
	IntentHours       = "hours"
	IntentLocation    = "location"
	IntentCapacity    = "capacity"
	IntentGeneral     = "general"
)

var intentKeywords = []struct {
	intent   string
	keywords []string
}{
	{IntentFeeRental, []string{"대여료", "대여 비용", "대여비", "렌탈 요금", "렌탈비"}},
	{IntentFeeEntry, []string{"입장료", "이용료", "이용 요금", "입장 요금", "요금", "가격", "비용", "얼마"}},
	{IntentRentalItems, []string{"대여", "렌탈", "빌릴", "빌려"}},
	{IntentRule, []string{"규정", "정책", "규칙", "금지", "허용", "제한"}},
	{IntentHours, []string{"시간", "몇시", "몇 시", "영업", "운영", "오픈", "마감", "언제"}},
	{IntentLocation, []string{"위치", "어디", "몇층", "몇 층", "찾아가"}},
	{IntentCapacity, []string{"인원", "몇명", "몇 명", "수용", "정원"}},
}

// ruleTriggers are the subjects for which a bare "가능" question is a policy
// question rather than a rental one.
var ruleTriggers = []string{
	"반려견", "반려동물", "애견", "강아지", "고양이",
	"아이", "어린이", "유아", "아기",
	"휠체어", "흡연", "취사", "외부 음식", "외부음식",
}

// ClassifyIntents buckets the query by keyword lists. "가능" alone is
// ambiguous: it counts as rental_items in a rental context and as rule only
// for the policy trigger subjects.
func ClassifyIntents(query string) []string {
	var intents []string
	seen := make(map[string]bool)
	add := func(intent string) {
		if !seen[intent] {
			seen[intent] = true
			intents = append(intents, intent)
		}
	}

	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(query, kw) {
				add(entry.intent)
				break
			}
		}
	}

	if strings.Contains(query, "가능") {
		switch {
		case strings.Contains(query, "대여") || strings.Contains(query, "렌탈"):
			add(IntentRentalItems)
		case hasRuleTrigger(query):
			add(IntentRule)
		}
	}

	if len(intents) == 0 {
		intents = append(intents, IntentGeneral)
	}
	return intents
}

func hasRuleTrigger(query string) bool {
	for _, t := range ruleTriggers {
		if strings.Contains(query, t) {
			return true
		}
	}
	return false
}
