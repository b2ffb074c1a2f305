package search

import "regexp"

// Patterns for deciding whether a message needs live facts. These mirror
// the topic categories whose answers go stale: prices, weather, news,
// and market indicators.
var (
	pricePattern = regexp.MustCompile(`(?i)(가격|시세|환율|주가|얼마|price|btc|eth|비트코인|이더리움|코인|주식|stock|nasdaq|나스닥|코스피|kospi|달러|원화|유가|금값)`)

	weatherPattern = regexp.MustCompile(`(?i)(날씨|기온|미세먼지|weather|temperature|forecast)`)

	newsPattern = regexp.MustCompile(`(?i)(뉴스|속보|소식|이슈|news|breaking|headline)`)

	indicatorPattern = regexp.MustCompile(`(?i)(김프|김치\s*프리미엄|kimchi\s*premium|도미넌스|dominance|공포\s*탐욕|fear\s*(and|&)?\s*greed|rsi|macd|펀딩비|funding\s*rate|미결제\s*약정|open\s*interest|금리|cpi|인플레이션|inflation|fomc|나스닥\s*선물|환율\s*전망)`)
)

// NeedsSearch reports whether the message asks about time-sensitive facts
func NeedsSearch(text string) bool {
	if indicatorPattern.MatchString(text) {
		return true
	}
	if pricePattern.MatchString(text) || weatherPattern.MatchString(text) || newsPattern.MatchString(text) {
		return true
	}
	// recency words alone carry no topic, so "지금 심심해" does not hit
	// the cascade
	return false
}

// IsIndicatorQuery reports whether the stricter market-indicator
// sub-pattern matches.
func IsIndicatorQuery(text string) bool {
	return indicatorPattern.MatchString(text)
}

// RewriteQuery turns an indicator question into an explicit request for
// current values so the answer tier returns numbers instead of prose.
func RewriteQuery(text string) string {
	if !IsIndicatorQuery(text) {
		return text
	}
	return text + " 현재 시장 지표 값 데이터 분석"
}
