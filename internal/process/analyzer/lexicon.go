package analyzer

import "github.com/lueurxax/diary-replier/internal/core/domain"

type emotionEntry struct {
	code     string
	keywords []string
}

// emotionLexicon is ordered. Detection keeps this order when truncating.
var emotionLexicon = []emotionEntry{
	{code: domain.EmotionHappy, keywords: []string{"행복", "기쁨", "기분 좋", "뿌듯", "즐겁", "신나", "신남", "설렘", "재밌", "좋았"}},
	{code: domain.EmotionSad, keywords: []string{"슬프", "우울", "눈물", "상실", "허무", "외롭", "서운", "속상"}},
	{code: domain.EmotionAngry, keywords: []string{"화나", "짜증", "열받", "분노", "억울", "빡치", "화가", "성나"}},
	{code: domain.EmotionShy, keywords: []string{"부끄", "쑥스", "민망", "머쓱"}},
	{code: domain.EmotionEmpty, keywords: []string{"무기력", "멍하", "공허", "그냥그냥", "심심", "피곤", "지침", "번아웃", "과로"}},
}

var positiveWords = []string{"좋았", "만족", "성공", "칭찬", "뿌듯", "행복", "기쁨", "즐겁", "설렘"}

var negativeWords = []string{"힘들", "실수", "후회", "불안", "우울", "짜증", "화나", "좌절", "실망", "억울"}

var stopwords = map[string]struct{}{
	"오늘": {}, "오늘은": {}, "오늘도": {}, "그리고": {}, "그래서": {}, "하지만": {}, "그런데": {},
	"그냥": {}, "정말": {}, "너무": {}, "조금": {}, "진짜": {}, "나는": {}, "내가": {}, "나도": {},
	"우리": {}, "그게": {}, "이제": {}, "했다": {}, "있다": {}, "없다": {}, "같다": {}, "했어": {},
	"the": {}, "and": {}, "to": {}, "of": {}, "is": {}, "it": {}, "in": {},
}
