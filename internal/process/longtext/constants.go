package longtext

const (
	logKeyChunk     = "chunk"
	logKeyChunks    = "chunks"
	logKeyStep      = "step"
	poolNameMapStep = "longtext-map"

	stepMap    = "chunk_map"
	stepReduce = "chunk_reduce"

	schemaNameChunkMap    = "diary_chunk_summary"
	schemaNameChunkReduce = "diary_chunk_reduce"
)

// Result caps.
const (
	fallbackMiniSummaryRunes = 200
	fallbackSummaryRunes     = 300
	chunkKeywordLimit        = 5
	chunkQuoteLimit          = 2

	defaultMapConcurrency  = 3
	defaultMapMaxTokens    = 400
	defaultReduceMaxTokens = 500
	defaultTemperature     = 0.2
)

const mapSystemPrompt = `너는 긴 일기의 한 부분을 읽고 핵심을 정리하는 도우미야.
반드시 JSON 객체 하나로만 답해.
- mini_summary: 이 부분을 한두 문장으로 요약
- emotions: happy, sad, angry, shy, empty 중에서만 최대 3개
- keywords: 핵심 단어 최대 5개
- notable_quotes: 원문에서 그대로 옮긴 짧은 인용 최대 2개`

const reduceSystemPrompt = `너는 긴 일기의 부분 요약들을 하나의 분석으로 합치는 도우미야.
반드시 JSON 객체 하나로만 답해.
- valence: positive, negative, neutral 중 하나
- emotions: happy, sad, angry, shy, empty 중에서만 최대 3개, 두드러진 순서대로
- keywords: 핵심 단어 최대 8개
- summary: 일기 전체를 300자 이내로 요약`
