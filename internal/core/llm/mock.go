package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Canned mock replies. They respect the reply length bounds.
const (
	mockReplyShort  = "오늘 하루도 정말 애쓰셨어요. 스스로를 조금 더 칭찬해 주세요."
	mockReplyNormal = "오늘 있었던 일을 차분히 적어 주셔서 고마워요. 마음이 이리저리 움직인 하루였던 것 같아요. " +
		"그 안에서도 끝까지 해낸 자신을 한 번 다독여 주면 좋겠어요. 오늘 밤은 따뜻한 차 한 잔과 함께 조금 일찍 쉬어 보는 건 어떨까요?"
	mockMiniSummary = "하루의 일부를 담담하게 정리한 기록이에요."
	mockSummary     = "여러 장면이 이어진 하루를 정리한 일기예요."
	mockPlainText   = "오늘 하루도 수고 많으셨어요."
)

// mockProvider returns deterministic completions for local runs and tests.
type mockProvider struct{}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider() *mockProvider {
	return &mockProvider{}
}

// Name returns the provider identifier.
func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

// IsAvailable returns true as mock is always available.
func (p *mockProvider) IsAvailable() bool {
	return true
}

// Priority returns the provider priority.
func (p *mockProvider) Priority() int {
	return PriorityMock
}

// Model returns the mock model name.
func (p *mockProvider) Model() string {
	return string(ProviderMock)
}

// Complete returns a canned payload shaped for the task.
func (p *mockProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var payload any

	switch req.Task {
	case TaskReplyPair:
		payload = map[string]string{
			"reply_short":  mockReplyShort,
			"reply_normal": mockReplyNormal,
		}
	case TaskChunkMap:
		payload = map[string]any{
			"mini_summary":   mockMiniSummary,
			"emotions":       []string{},
			"keywords":       []string{},
			"notable_quotes": []string{},
		}
	case TaskChunkReduce:
		payload = map[string]any{
			"valence":  "neutral",
			"emotions": []string{"empty"},
			"keywords": []string{},
			"summary":  mockSummary,
		}
	case TaskReplySingle:
		return mockReplyNormal, nil
	default:
		return mockPlainText, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal mock payload: %w", err)
	}

	return string(raw), nil
}

// Ensure mockProvider implements Provider interface.
var _ Provider = (*mockProvider)(nil)
