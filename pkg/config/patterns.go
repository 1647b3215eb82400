package config

import (
	"regexp"

	"github.com/seoulstay/concierge/pkg/korean"
)

// InvalidQueryPatterns mark queries outside the FAQ domain. All patterns are
// compiled once at package init.
var InvalidQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[ㄱ-ㅎㅏ-ㅣ\s]+$`),     // bare jamo ("ㅋㅋ", "ㅇㅇ")
	regexp.MustCompile(`^[\d\s\pP]+$`),       // digits/punctuation only
	regexp.MustCompile(`^(안녕|하이|헬로|hello|hi)[\s!~?.]*$`),
	regexp.MustCompile(`(날씨|주식|로또|환율|뉴스)`), // off-domain chit-chat
}

// ValidQueryKeywords gate first-turn queries: with no history, at least one
// domain keyword must be present. Single-character entries are matched with
// the Hangul boundary rule.
var ValidQueryKeywords = buildValidQueryKeywords()

func buildValidQueryKeywords() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(kw string) {
		if kw == "" || seen[kw] {
			return
		}
		seen[kw] = true
		out = append(out, kw)
	}
	for _, kws := range CategoryKeywords {
		for _, kw := range kws {
			add(kw)
		}
	}
	for _, aliases := range HotelKeywords {
		for _, a := range aliases {
			add(a)
		}
	}
	for alias := range RestaurantAliases {
		add(alias)
	}
	for _, kw := range []string{"호텔", "투숙", "숙박", "와이파이", "수하물", "짐", "방", "층"} {
		add(kw)
	}
	return out
}

// HasValidQueryKeyword reports whether query carries any domain keyword.
func HasValidQueryKeyword(query string) bool {
	for _, kw := range ValidQueryKeywords {
		if korean.ContainsKeyword(query, kw) {
			return true
		}
	}
	return false
}

// IsInvalidQuery reports whether query matches an out-of-domain pattern or
// is keyboard mash.
func IsInvalidQuery(query string) bool {
	for _, re := range InvalidQueryPatterns {
		if re.MatchString(query) {
			return true
		}
	}
	return HasRepeatedRune(query, 7)
}

// HasRepeatedRune reports whether s contains the same rune repeated at least
// runLen times in a row. RE2 has no backreferences, so run detection is a
// loop rather than a pattern.
func HasRepeatedRune(s string, runLen int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= runLen {
			return true
		}
	}
	return false
}

// ForbiddenKeywords trigger the PII refusal: topics the bot must never
// handle over chat.
var ForbiddenKeywords = []string{
	"예약번호", "예약 번호", "카드번호", "카드 번호", "주민등록번호", "주민번호",
	"여권번호", "여권 번호", "비밀번호", "계좌번호", "계좌 번호",
}

// ContainsForbiddenKeyword reports whether query asks about PII-bound data.
func ContainsForbiddenKeyword(query string) bool {
	for _, kw := range ForbiddenKeywords {
		if korean.ContainsKeyword(query, kw) {
			return true
		}
	}
	return false
}

// SuspiciousPattern flags degenerate model output.
type SuspiciousPattern struct {
	Regex *regexp.Regexp
	Label string
}

// SuspiciousPatterns are checked against generated answers by the response
// quality verifier.
var SuspiciousPatterns = []SuspiciousPattern{
	{Regex: regexp.MustCompile(`[.]{4,}`), Label: "repeated-period"},
	{Regex: regexp.MustCompile(`[?!]{3,}`), Label: "repeated-punctuation"},
	{Regex: regexp.MustCompile(`[ㅋㅎㅠㅜ]{3,}`), Label: "jamo-laughter"},
	{Regex: regexp.MustCompile(`(홈|메뉴|로그인|회원가입)\s*[|>]\s*(홈|메뉴|로그인)`), Label: "navigation-dump"},
}

// AmbiguousPattern describes an under-specified question form. When it fires
// without a recoverable subject, the pipeline asks the general clarification
// instead of retrieving.
type AmbiguousPattern struct {
	Name          string
	Keywords      []string
	Exclude       []string
	Clarification string
	Options       []string
}

// AmbiguousPatterns in priority order. Transport comes first: transport
// disambiguation overrides the specific-target short-circuit.
var AmbiguousPatterns = []AmbiguousPattern{
	{
		Name:     "transport",
		Keywords: []string{"어떻게 가", "가는 방법", "어떻게 와", "찾아가", "오시는 길", "가는 길"},
		Exclude:  []string{"셔틀", "지하철", "버스", "택시", "공항", "리무진"},
		Clarification: "어느 호텔로 오시는 길이 궁금하신가요? 이용하실 교통수단(지하철, 버스, 자가용)을 함께 알려주시면 더 정확히 안내드릴 수 있어요.",
		Options:       []string{"지하철", "버스", "자가용", "공항 이동"},
	},
	{
		Name:          "hours",
		Keywords:      []string{"몇시", "몇 시", "운영 시간", "운영시간", "언제까지", "언제부터"},
		Exclude:       nil,
		Clarification: "어떤 시설의 운영 시간이 궁금하신가요? (조식, 수영장, 피트니스, 스파 등)",
		Options:       []string{"조식", "수영장", "피트니스", "스파"},
	},
	{
		Name:          "price",
		Keywords:      []string{"얼마", "가격", "요금", "비용"},
		Exclude:       nil,
		Clarification: "어떤 항목의 요금이 궁금하신가요? (객실, 조식, 주차, 스파 등)",
		Options:       []string{"객실", "조식", "주차", "스파"},
	},
	{
		Name:          "availability",
		Keywords:      []string{"있나요", "있어요", "가능한가요", "되나요"},
		Exclude:       nil,
		Clarification: "무엇이 가능한지 궁금하신가요? 시설이나 서비스 이름을 함께 알려주세요.",
		Options:       nil,
	},
}

// ContextClarification describes a context ("pet", "child") that usually
// needs a follow-up before a useful answer is possible.
type ContextClarification struct {
	Context        string
	Keywords       []string
	DirectTriggers []string
	Question       string
	Options        []string
}

// ContextClarifications in evaluation order.
var ContextClarifications = []ContextClarification{
	{
		Context:        "pet",
		Keywords:       []string{"반려견", "반려동물", "애견", "강아지", "펫", "고양이"},
		DirectTriggers: []string{"되나요", "가능", "데리고", "동반", "입장"},
		Question:       "반려동물 관련해서 어떤 점이 궁금하신가요? (동반 투숙 가능 여부, 추가 요금, 이용 제한 구역 등)",
		Options:        []string{"동반 투숙", "추가 요금", "이용 제한"},
	},
	{
		Context:        "child",
		Keywords:       []string{"아이", "어린이", "아기", "유아", "키즈"},
		DirectTriggers: []string{"되나요", "가능", "몇 살", "나이", "무료", "요금"},
		Question:       "어린이 관련해서 어떤 점이 궁금하신가요? (투숙 기준, 조식 요금, 키즈 시설 등)",
		Options:        []string{"투숙 기준", "조식 요금", "키즈 시설"},
	},
}

// ConcreteTargetKeywords are attribute words that, combined with a context
// keyword, make a query specific enough to answer ("반려견 요금", "아이 조식").
var ConcreteTargetKeywords = []string{
	"정책", "규정", "요금", "가격", "시간", "이용", "동반", "입장", "메뉴",
	"투숙", "무료", "기준", "체크인", "조식", "수영장",
}

// SpecificTargets short-circuit clarification: the query already names a
// concrete facility or service.
var SpecificTargets = buildSpecificTargets()

func buildSpecificTargets() []string {
	targets := []string{
		"체크인", "체크아웃", "조식", "수영장", "피트니스", "헬스장", "스파",
		"사우나", "주차", "발렛", "셔틀", "뷔페", "룸서비스", "와이파이",
	}
	for alias := range RestaurantAliases {
		targets = append(targets, alias)
	}
	return targets
}

// FallbackPhrases appear in honest deterministic refusals. They are exempt
// from forbidden-phrase scrubbing.
const (
	FallbackCannotConfirm = "문의하신 내용은 확인되지 않습니다"
	FallbackContactSuffix = "정확한 안내를 위해 호텔로 직접 문의 부탁드립니다"
)
