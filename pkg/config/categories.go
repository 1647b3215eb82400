package config

import "strings"

// Category keys used for detection, retrieval filtering, and contamination
// checks.
const (
	CategoryDining      = "dining"
	CategoryRooms       = "rooms"
	CategoryFacilities  = "facilities"
	CategoryTransport   = "transport"
	CategoryParking     = "parking"
	CategoryPet         = "pet"
	CategoryReservation = "reservation"
	CategoryCheckin     = "checkin"
	CategoryLocation    = "location"
	CategoryContact     = "contact"
	CategoryWedding     = "wedding"
	CategoryPricing     = "pricing"
)

// CategoryKeywords maps category to detection keywords. Order inside a list
// matters only for readability; detection walks categories in the order of
// categoryOrder and returns the first hit.
var CategoryKeywords = map[string][]string{
	CategoryDining: {
		"조식", "아침식사", "뷔페", "레스토랑", "식당", "메뉴", "디너", "런치",
		"브런치", "룸서비스", "바", "라운지", "카페", "베이커리",
	},
	CategoryCheckin:   {"체크인", "체크아웃", "입실", "퇴실", "얼리 체크인", "레이트 체크아웃"},
	CategoryRooms:     {"객실", "방", "스위트", "트윈", "더블", "온돌", "침대", "어메니티", "룸 타입"},
	CategoryParking:   {"주차", "발렛", "파킹", "주차장", "주차요금"},
	CategoryPet:       {"반려견", "반려동물", "애견", "강아지", "펫", "고양이"},
	CategoryTransport: {"셔틀", "공항", "지하철", "버스", "택시", "교통", "오시는 길", "가는 방법", "리무진"},
	CategoryFacilities: {
		"수영장", "피트니스", "헬스장", "스파", "사우나", "키즈", "수영", "풀",
		"비즈니스 센터", "라커",
	},
	CategoryReservation: {"예약", "취소", "변경", "환불", "예약금"},
	CategoryLocation:    {"위치", "주소", "어디에 있", "찾아가"},
	CategoryContact:     {"전화번호", "연락처", "대표번호", "전화", "문의처"},
	CategoryWedding:     {"웨딩", "결혼식", "연회", "컨벤션", "행사장"},
	CategoryPricing:     {"가격", "요금", "비용", "금액", "얼마"},
}

// categoryOrder fixes detection priority: concrete subjects before generic
// attribute categories (pricing last so "조식 가격" stays dining).
var categoryOrder = []string{
	CategoryDining, CategoryCheckin, CategoryParking, CategoryPet,
	CategoryFacilities, CategoryTransport, CategoryWedding, CategoryRooms,
	CategoryReservation, CategoryLocation, CategoryContact, CategoryPricing,
}

// DetectCategory returns the first category whose keyword appears in query,
// or "" when none matches.
func DetectCategory(query string) string {
	for _, cat := range categoryOrder {
		for _, kw := range CategoryKeywords[cat] {
			if strings.Contains(query, kw) {
				return cat
			}
		}
	}
	return ""
}

// SynonymEntry expands one query term into related terms for retrieval.
type SynonymEntry struct {
	Term     string
	Synonyms []string
}

// Synonyms is the query-expansion dictionary. Declared order is preserved;
// expansion uses the longest matching term only.
var Synonyms = []SynonymEntry{
	{Term: "조식", Synonyms: []string{"아침식사", "브렉퍼스트", "조찬"}},
	{Term: "수영장", Synonyms: []string{"풀", "인피니티풀", "실내수영장"}},
	{Term: "주차", Synonyms: []string{"파킹", "발렛", "주차장"}},
	{Term: "전화번호", Synonyms: []string{"연락처", "대표번호"}},
	{Term: "체크인", Synonyms: []string{"입실", "투숙 시작"}},
	{Term: "체크아웃", Synonyms: []string{"퇴실"}},
	{Term: "반려견", Synonyms: []string{"반려동물", "애견", "강아지"}},
	{Term: "피트니스", Synonyms: []string{"헬스장", "짐", "운동시설"}},
	{Term: "셔틀", Synonyms: []string{"셔틀버스", "리무진"}},
	{Term: "가격", Synonyms: []string{"요금", "비용", "금액"}},
	{Term: "위치", Synonyms: []string{"주소", "오시는 길"}},
	{Term: "스파", Synonyms: []string{"마사지", "사우나"}},
}

// Topic keys used for session continuity and follow-up reinforcement.
// Topics are finer-grained than categories: "breakfast" and "dining" are
// distinct topics that both live in the dining category.
const (
	TopicBreakfast = "breakfast"
	TopicDining    = "dining"
	TopicPool      = "pool"
	TopicFitness   = "fitness"
	TopicSpa       = "spa"
	TopicParking   = "parking"
	TopicCheckin   = "checkin"
	TopicRooms     = "rooms"
	TopicPricing   = "pricing"
	TopicPet       = "pet"
)

// TopicKeyword pairs a topic with its trigger keywords and the canonical
// phrase appended to a follow-up query that lost its subject.
type TopicKeyword struct {
	Topic     string
	Keywords  []string
	Canonical string
}

// TopicPriority is walked in order over recent user messages; the first hit
// wins. Specific topics come before generic ones.
var TopicPriority = []TopicKeyword{
	{Topic: TopicBreakfast, Keywords: []string{"조식", "아침식사", "브렉퍼스트"}, Canonical: "조식"},
	{Topic: TopicDining, Keywords: []string{"레스토랑", "식당", "뷔페", "디너", "메뉴", "런치"}, Canonical: "레스토랑"},
	{Topic: TopicPool, Keywords: []string{"수영장", "수영", "풀"}, Canonical: "수영장"},
	{Topic: TopicFitness, Keywords: []string{"피트니스", "헬스장", "짐"}, Canonical: "피트니스"},
	{Topic: TopicSpa, Keywords: []string{"스파", "사우나", "마사지"}, Canonical: "스파"},
	{Topic: TopicParking, Keywords: []string{"주차", "발렛", "파킹"}, Canonical: "주차"},
	{Topic: TopicCheckin, Keywords: []string{"체크인", "체크아웃", "입실", "퇴실"}, Canonical: "체크인"},
	{Topic: TopicRooms, Keywords: []string{"객실", "스위트", "침대", "룸"}, Canonical: "객실"},
	{Topic: TopicPricing, Keywords: []string{"가격", "요금", "얼마", "비용"}, Canonical: "가격"},
	{Topic: TopicPet, Keywords: []string{"반려견", "애견", "반려동물", "펫"}, Canonical: "반려동물"},
}

// DetectTopic returns the highest-priority topic whose keyword appears in
// text, or "".
func DetectTopic(text string) string {
	for _, tk := range TopicPriority {
		for _, kw := range tk.Keywords {
			if strings.Contains(text, kw) {
				return tk.Topic
			}
		}
	}
	return ""
}

// TopicCanonical returns the canonical search phrase for a topic.
func TopicCanonical(topic string) string {
	for _, tk := range TopicPriority {
		if tk.Topic == topic {
			return tk.Canonical
		}
	}
	return ""
}

// TopicHasKeyword reports whether text already carries a keyword of topic.
func TopicHasKeyword(text, topic string) bool {
	for _, tk := range TopicPriority {
		if tk.Topic != topic {
			continue
		}
		for _, kw := range tk.Keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
	}
	return false
}

// CategoryExclusiveKeywords lists, per category, keywords that belong to that
// category alone. A sentence carrying a foreign category's exclusive keyword
// is category contamination and gets dropped.
var CategoryExclusiveKeywords = map[string][]string{
	CategoryDining:     {"조식", "뷔페", "레스토랑", "디너", "런치", "메뉴"},
	CategoryFacilities: {"수영장", "피트니스", "사우나", "헬스장"},
	CategoryParking:    {"주차", "발렛"},
	CategoryPet:        {"반려견", "애견", "반려동물"},
	CategoryCheckin:    {"체크인", "체크아웃"},
	CategoryWedding:    {"웨딩", "결혼식", "연회"},
	CategoryTransport:  {"셔틀", "지하철", "리무진"},
}

// TopicCategory maps a session topic onto the category whose exclusive
// keywords it may legitimately use.
var TopicCategory = map[string]string{
	TopicBreakfast: CategoryDining,
	TopicDining:    CategoryDining,
	TopicPool:      CategoryFacilities,
	TopicFitness:   CategoryFacilities,
	TopicSpa:       CategoryFacilities,
	TopicParking:   CategoryParking,
	TopicCheckin:   CategoryCheckin,
	TopicRooms:     CategoryRooms,
	TopicPricing:   CategoryPricing,
	TopicPet:       CategoryPet,
}
