package reply

import "github.com/lueurxax/diary-replier/internal/core/domain"

// CrisisMessage replaces both replies when crisis language is detected.
const CrisisMessage = "지금 많이 힘드신 것 같아요. 무엇보다 당신의 안전이 가장 중요해요. " +
	"혼자 견디지 말고 지금 바로 자살예방 상담전화 109 또는 정신건강 위기상담전화 1577-0199에 연락해 주세요. " +
	"위급한 상황이라면 112나 119에 바로 도움을 요청하세요."

// Deterministic fallback replies.
const (
	FallbackShort  = "오늘도 수고 많았어요. 잠깐 쉬며 마음을 다독여 주세요."
	FallbackNormal = "오늘 많이 버거웠겠어요. 잠깐 쉬어가며 자신을 돌봐주는 것도 괜찮아요 🌿 " +
		"내일의 우선순위를 가볍게만 정해보면 마음이 한결 가벼워질 거예요."
)

// Advisory suffixes appended when the coarse risk scan fired.
const (
	riskSuffixShort  = " 위험하다고 느껴지면 109나 112에 바로 도움을 요청해 주세요."
	riskSuffixNormal = " 혹시 지금 안전이 걱정되는 상황이라면 혼자 견디지 말고 믿을 만한 사람이나 " +
		"전문 기관(자살예방 상담전화 109, 정신건강 위기상담 1577-0199, 긴급 112)에 꼭 도움을 요청해 주세요."
)

// CrisisPair returns the crisis message as both variants.
func CrisisPair() domain.ReplyPair {
	return domain.ReplyPair{Short: CrisisMessage, Normal: CrisisMessage}
}

// FallbackPair returns the template replies for the requested length.
func FallbackPair(length string) domain.ReplyPair {
	opts := domain.Options{Length: length}

	var pair domain.ReplyPair

	if opts.WantShort() {
		pair.Short = FallbackShort
	}

	if opts.WantNormal() {
		pair.Normal = FallbackNormal
	}

	return pair
}
