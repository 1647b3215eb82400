// Package verify applies the post-generation safety checks: response
// quality, claim grounding, and the hallucination guards for numbers,
// proper nouns, transport routes, phones, URLs, and prices.
package verify

import "regexp"

var (
	phoneRe = regexp.MustCompile(`0\d{1,2}-\d{3,4}-\d{4}`)
	urlRe   = regexp.MustCompile(`https?://[^\s)\]'"<>]+`)

	// Numeric tokens worth checking: prices, times, percents, floors,
	// headcounts, weights, ages, dates. Three or more characters; short
	// bare digits produce too many false positives.
	numericTokenRe = regexp.MustCompile(`\d{1,3}(?:,\d{3})+\s*원?|\d{1,2}:\d{2}|\d+\s*(?:원|%|퍼센트|시간|분|명|인|세|층|kg|키로|박)|\d{4}년|\d{1,2}월\s*\d{1,2}일|\d{3,}`)

	priceTokenRe = regexp.MustCompile(`\d{1,3}(?:,\d{3})+\s*원|\d{4,}\s*원`)

	bilingualNameRe = regexp.MustCompile(`([가-힣][가-힣\s]*[가-힣]|[가-힣])\s*\(\s*([A-Za-z][A-Za-z&'’.\s]*)\s*\)`)
	quotedNameRe    = regexp.MustCompile(`['"‘“]([가-힣A-Za-z][가-힣A-Za-z\s&]{1,20})['"’”]`)
	facilityNameRe  = regexp.MustCompile(`([가-힣A-Za-z]+)\s+(레스토랑|카페|라운지|센터|클럽|뷔페)(?:[^가-힣]|$)`)

	personRoleRe = regexp.MustCompile(`([가-힣]{2,4})\s*(셰프|쉐프|주방장|지배인|소믈리에|매니저|대표)`)

	// Transport route fabrications. Any of these in an answer must be
	// backed by context.
	transportRouteRes = []*regexp.Regexp{
		regexp.MustCompile(`\d+호선`),
		regexp.MustCompile(`지하철\s*[가-힣\d]*선`),
		regexp.MustCompile(`버스\s*\d+번`),
		regexp.MustCompile(`\d+번\s*버스`),
		regexp.MustCompile(`([가-힣]+)역에서\s*([가-힣]+)역`),
		regexp.MustCompile(`환승`),
	}

	repeatedPeriodRe = regexp.MustCompile(`\.{3,}`)
)

// transportTopicKeywords decide whether a query is about getting to the
// hotel at all.
var transportTopicKeywords = []string{
	"지하철", "버스", "택시", "셔틀", "공항", "리무진", "교통",
	"오시는 길", "가는 방법", "어떻게 가", "찾아가", "환승", "호선",
}

// cjkSubstitutions maps hanja the model slips into Korean answers onto
// their Korean readings. Applied before the blanket CJK strip so common
// cases stay readable.
var cjkSubstitutions = map[string]string{
	"無料": "무료", "有料": "유료", "時間": "시간", "可能": "가능",
	"不可": "불가", "予約": "예약", "利用": "이용", "案內": "안내",
	"朝食": "조식", "駐車": "주차",
}
