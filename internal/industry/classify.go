package industry

import (
	"strings"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

type keywordRule struct {
	industry domain.Industry
	keywords []string
}

// Keyword table in match order. Dessert precedes cafe so that "디저트카페"
// lands on DESSERT; chicken precedes korean so "치킨" is not read as a
// generic Korean restaurant.
var classifier = []keywordRule{
	{domain.IndustryDessert, []string{"디저트", "dessert", "베이커리", "bakery", "제과", "케이크", "cake", "아이스크림", "ice cream", "도넛", "donut", "마카롱", "빙수"}},
	{domain.IndustryCafe, []string{"카페", "cafe", "café", "coffee", "커피", "찻집", "tea house", "다방"}},
	{domain.IndustryChicken, []string{"치킨", "chicken", "닭강정", "통닭", "호프"}},
	{domain.IndustryChinese, []string{"중식", "중국", "chinese", "짜장", "짬뽕", "마라", "딤섬", "dim sum"}},
	{domain.IndustryJapanese, []string{"일식", "japanese", "초밥", "sushi", "스시", "라멘", "ramen", "돈카츠", "돈까스", "이자카야", "우동"}},
	{domain.IndustryFastFood, []string{"패스트푸드", "fast food", "fastfood", "버거", "burger", "피자", "pizza", "샌드위치", "sandwich", "분식", "김밥", "떡볶이"}},
	{domain.IndustryWestern, []string{"양식", "western", "파스타", "pasta", "스테이크", "steak", "이탈리안", "italian", "브런치", "brunch", "레스토랑"}},
	{domain.IndustryKorean, []string{"한식", "korean", "백반", "국밥", "찌개", "고기", "삼겹살", "갈비", "bbq", "냉면", "해장국", "한정식"}},
}

// Classify maps a free-text industry label to an Industry.
// Matching is case-insensitive on substrings; unknown labels are OTHER.
func Classify(raw string) domain.Industry {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return domain.IndustryOther
	}

	if i := domain.Industry(strings.ToUpper(s)); i.Valid() {
		return i
	}

	for _, rule := range classifier {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.industry
			}
		}
	}
	return domain.IndustryOther
}

// Key returns the averages table key for i.
func Key(i domain.Industry) string {
	if i == domain.IndustryOther || !i.Valid() {
		return GeneralKey
	}
	return strings.ToLower(string(i))
}
