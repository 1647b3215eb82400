package config

import (
	"sort"
	"strings"
)

// Hotel keys for the five covered properties.
const (
	HotelJosunPalace     = "josun_palace"
	HotelWestinSeoul     = "westin_josun_seoul"
	HotelWestinBusan     = "westin_josun_busan"
	HotelGrandJosunBusan = "grand_josun_busan"
	HotelGrandJosunJeju  = "grand_josun_jeju"
)

// HotelInfo is the static contact card for one property.
type HotelInfo struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	LocationURL string `json:"location_url"`
}

// Hotels maps hotel key to its contact card.
var Hotels = map[string]HotelInfo{
	HotelJosunPalace: {
		Name:        "조선 팰리스 서울 강남",
		Phone:       "02-727-7200",
		LocationURL: "https://jpg.josunhotel.com/about/location.do",
	},
	HotelWestinSeoul: {
		Name:        "웨스틴 조선 서울",
		Phone:       "02-771-0500",
		LocationURL: "https://twcs.josunhotel.com/about/location.do",
	},
	HotelWestinBusan: {
		Name:        "웨스틴 조선 부산",
		Phone:       "051-749-7000",
		LocationURL: "https://twcb.josunhotel.com/about/location.do",
	},
	HotelGrandJosunBusan: {
		Name:        "그랜드 조선 부산",
		Phone:       "051-922-5000",
		LocationURL: "https://gjb.josunhotel.com/about/location.do",
	},
	HotelGrandJosunJeju: {
		Name:        "그랜드 조선 제주",
		Phone:       "064-734-4500",
		LocationURL: "https://gjj.josunhotel.com/about/location.do",
	},
}

// HotelDomains are the hosts an answer URL may point at without appearing in
// retrieved context.
var HotelDomains = []string{
	"jpg.josunhotel.com",
	"twcs.josunhotel.com",
	"twcb.josunhotel.com",
	"gjb.josunhotel.com",
	"gjj.josunhotel.com",
}

// HotelKeywords maps hotel key to the aliases a user may type.
var HotelKeywords = map[string][]string{
	HotelJosunPalace: {
		"조선 팰리스", "조선팰리스", "팰리스 호텔", "팰리스", "josun palace",
	},
	HotelWestinSeoul: {
		"웨스틴 조선 서울", "웨스틴조선 서울", "웨스틴 서울", "웨스틴조선서울", "westin josun seoul",
	},
	HotelWestinBusan: {
		"웨스틴 조선 부산", "웨스틴조선 부산", "웨스틴 부산", "웨스틴조선부산", "westin josun busan",
	},
	HotelGrandJosunBusan: {
		"그랜드 조선 부산", "그랜드조선 부산", "그랜드 부산", "그랜드조선부산", "grand josun busan",
	},
	HotelGrandJosunJeju: {
		"그랜드 조선 제주", "그랜드조선 제주", "그랜드 제주", "그랜드조선제주", "grand josun jeju",
	},
}

type hotelAlias struct {
	alias string
	hotel string
}

// hotelAliases is every alias sorted longest-first so a substring alias
// ("팰리스") never shadows a longer one ("조선 팰리스").
var hotelAliases = buildHotelAliases()

func buildHotelAliases() []hotelAlias {
	var out []hotelAlias
	for hotel, aliases := range HotelKeywords {
		for _, a := range aliases {
			out = append(out, hotelAlias{alias: a, hotel: hotel})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].alias) != len(out[j].alias) {
			return len(out[i].alias) > len(out[j].alias)
		}
		return out[i].alias < out[j].alias
	})
	return out
}

// DetectHotel returns the hotel key for the first (longest) alias found in
// query, or "" when none matches. Matching is case-insensitive for the
// English aliases.
func DetectHotel(query string) string {
	lower := strings.ToLower(query)
	for _, ha := range hotelAliases {
		if strings.Contains(lower, strings.ToLower(ha.alias)) {
			return ha.hotel
		}
	}
	return ""
}

// StripHotelAliases removes every hotel alias occurrence from query.
// Used before embedding so the hotel name does not dominate similarity.
func StripHotelAliases(query string) string {
	out := query
	for _, ha := range hotelAliases {
		out = removeFold(out, ha.alias)
	}
	return strings.Join(strings.Fields(out), " ")
}

// removeFold removes all case-insensitive occurrences of sub from s.
func removeFold(s, sub string) string {
	if sub == "" {
		return s
	}
	lower := strings.ToLower(s)
	lowerSub := strings.ToLower(sub)
	var b strings.Builder
	for {
		i := strings.Index(lower, lowerSub)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i+len(sub):]
		lower = lower[i+len(lowerSub):]
	}
}

// RestaurantAlias maps one restaurant alias to the properties operating it.
type RestaurantAlias struct {
	Restaurant string
	Hotels     []string
}

// RestaurantAliases indexes user-typed restaurant names. An alias present at
// more than one property forces a clarification downstream.
var RestaurantAliases = map[string]RestaurantAlias{
	"아리아": {Restaurant: "아리아 (ARIA)", Hotels: []string{HotelWestinSeoul, HotelGrandJosunBusan}},
	"aria": {Restaurant: "아리아 (ARIA)", Hotels: []string{HotelWestinSeoul, HotelGrandJosunBusan}},
	"콘스탄스": {Restaurant: "콘스탄스 (CONSTANS)", Hotels: []string{HotelJosunPalace}},
	"constans": {Restaurant: "콘스탄스 (CONSTANS)", Hotels: []string{HotelJosunPalace}},
	"이타닉 가든": {Restaurant: "이타닉 가든 (Eatanic Garden)", Hotels: []string{HotelJosunPalace}},
	"이타닉가든": {Restaurant: "이타닉 가든 (Eatanic Garden)", Hotels: []string{HotelJosunPalace}},
	"홍연": {Restaurant: "홍연 (HONG YUAN)", Hotels: []string{HotelWestinSeoul, HotelWestinBusan}},
	"팔레드신": {Restaurant: "팔레드신 (Palais de Chine)", Hotels: []string{HotelGrandJosunBusan}},
	"루브리카": {Restaurant: "루브리카 (RUBRICA)", Hotels: []string{HotelGrandJosunJeju}},
	"라운지앤바": {Restaurant: "라운지&바 (Lounge&Bar)", Hotels: []string{HotelJosunPalace}},
	"조선델리": {Restaurant: "조선델리 (JOSUN DELI)", Hotels: []string{HotelWestinSeoul, HotelGrandJosunBusan, HotelGrandJosunJeju}},
	"카멜리아": {Restaurant: "카멜리아 (CAMELLIA)", Hotels: []string{HotelWestinBusan}},
}

// AllHotelContacts renders a one-line contact list across the five hotels,
// used by refusal templates when no specific hotel is known.
func AllHotelContacts() string {
	keys := []string{
		HotelJosunPalace, HotelWestinSeoul, HotelWestinBusan,
		HotelGrandJosunBusan, HotelGrandJosunJeju,
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		h := Hotels[k]
		parts = append(parts, h.Name+" "+h.Phone)
	}
	return strings.Join(parts, ", ")
}
