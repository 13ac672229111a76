package google

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/assistant/memory_manager/providers/embedder"
)

type taskTypeKey struct{}

func WithTaskType(taskType genai.TaskType) embedder.Option {
	return func(o *embedder.Options) {
		o.Context = context.WithValue(o.Context, taskTypeKey{}, taskType)
	}
}

func TaskTypeFrom(ctx context.Context) (genai.TaskType, bool) {
	taskType, ok := ctx.Value(taskTypeKey{}).(genai.TaskType)
	return taskType, ok
}
