package cryptoanalyst

import (
	"context"
	"errors"
	"testing"
)

func TestResolveAssetsWithoutCredential(t *testing.T) {
	core := setupTestCore(t, nil, AIConfig{})
	completionCalls := 0
	stubCompletion(t, func(context.Context, aiChatCompletionRequest) (aiChatCompletionResult, error) {
		completionCalls++
		return aiChatCompletionResult{}, nil
	})

	if got := core.ResolveAssets(context.Background(), "What about NEAR?"); got != defaultAssetIdentifiers {
		t.Errorf("got %q, want %q", got, defaultAssetIdentifiers)
	}
	if completionCalls != 0 {
		t.Errorf("expected no completion calls, got %d", completionCalls)
	}
}

func TestResolveAssetsNormalizesAnswer(t *testing.T) {
	core := setupTestCore(t, nil, testAIConfig())
	stubCompletion(t, func(_ context.Context, req aiChatCompletionRequest) (aiChatCompletionResult, error) {
		if len(req.Messages) != 1 || req.Messages[0].Role != RoleUser {
			t.Fatalf("unexpected resolver messages: %+v", req.Messages)
		}
		assertContains(t, req.Messages[0].Content, "What about NEAR?", "resolver prompt")
		return aiChatCompletionResult{Content: "  NEAR\n"}, nil
	})

	if got := core.ResolveAssets(context.Background(), "What about NEAR?"); got != "near" {
		t.Errorf("got %q, want near", got)
	}
}

func TestResolveAssetsFallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context, aiChatCompletionRequest) (aiChatCompletionResult, error)
	}{
		{"completion error", func(context.Context, aiChatCompletionRequest) (aiChatCompletionResult, error) {
			return aiChatCompletionResult{}, errors.New("upstream timeout")
		}},
		{"blank answer", func(context.Context, aiChatCompletionRequest) (aiChatCompletionResult, error) {
			return aiChatCompletionResult{Content: "   \n"}, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := setupTestCore(t, nil, testAIConfig())
			stubCompletion(t, tt.fn)
			if got := core.ResolveAssets(context.Background(), "Solana outlook"); got != defaultAssetIdentifiers {
				t.Errorf("got %q, want %q", got, defaultAssetIdentifiers)
			}
		})
	}
}
