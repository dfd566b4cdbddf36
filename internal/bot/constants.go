package bot

import "time"

// MaxMessageSize is the maximum size for a single Telegram message part.
const MaxMessageSize = 4000

// Command names.
const (
	CmdStart  = "start"
	CmdHelp   = "help"
	CmdPreset = "preset"
	CmdLength = "length"
)

// Log field names.
const (
	LogFieldUserID  = "user_id"
	LogFieldCommand = "command"
)

// Message kinds for the bot metric.
const (
	kindCommand = "command"
	kindDiary   = "diary"
	kindInvalid = "invalid"
	kindError   = "error"
)

const (
	userIDPrefix          = "tg:"
	updateTimeout         = 60
	handleTimeout         = 2 * time.Minute
	maxConcurrentHandlers = 8
)

// User-facing texts.
const (
	msgHelp = "안녕하세요! 오늘 있었던 일을 일기처럼 적어 보내 주세요. 읽고 답장을 드릴게요.\n\n" +
		"/preset warm|coach|short - 답장 스타일을 바꿔요\n" +
		"/length short|normal - 답장 길이를 바꿔요"
	msgPresetUsage   = "사용법: /preset warm|coach|short"
	msgPresetSaved   = "답장 스타일을 %s(으)로 바꿨어요."
	msgLengthUsage   = "사용법: /length short|normal"
	msgLengthSaved   = "답장 길이를 %s(으)로 바꿨어요."
	msgUnknown       = "알 수 없는 명령이에요. /help 를 입력해 보세요."
	msgTooShort      = "일기를 조금 더 적어 주세요."
	msgTooLong       = "일기가 너무 길어요. 8000자 이하로 나눠서 보내 주세요."
	msgUnavailable   = "지금은 답장을 만들기 어려워요. 잠시 후 다시 시도해 주세요."
	msgPresetNoStore = "스타일은 이번 대화에서만 유지돼요."
)
