package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
	"unsafe"

	json "github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonrepair"
	"github.com/openai/openai-go/v2"
	"github.com/samber/lo"
)

var ErrEmptyCompletion = errors.New("completion has no choices")

// CompletionContent 取第一个 choice 的文本
func CompletionContent(completion *openai.ChatCompletion) (string, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return completion.Choices[0].Message.Content, nil
}

func ParseResult[T any](completion *openai.ChatCompletion) (T, error) {
	content, err := CompletionContent(completion)
	if err != nil {
		return lo.Empty[T](), err
	}
	return ParseJSON[T](content)
}

// ParseJSON 先修复模型常见的 JSON 瑕疵（markdown 围栏、单引号、尾逗号）再解码
func ParseJSON[T any](content string) (T, error) {
	content = stripFence(content)
	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return lo.Empty[T](), fmt.Errorf("failed to repair JSON: %w", err)
	}

	var result T
	if err := json.Unmarshal(unsafe.Slice(unsafe.StringData(repaired), len(repaired)), &result); err != nil {
		return lo.Empty[T](), fmt.Errorf("failed to parse result: %w", err)
	}
	return result, nil
}

func stripFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// RetryWithBackoff 执行泛型操作 op，并在失败时按指数退避重试。
// maxRetries 指定最大重试次数（不含首次尝试）；ctx 取消时立即返回。
func RetryWithBackoff[T any](ctx context.Context, op func() (T, error), maxRetries int) (T, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseDelay := 100 * time.Millisecond
	maxDelay := 5 * time.Second

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		res, err := op()
		if err == nil {
			return res, nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		// 指数退避：delay = min(maxDelay, baseDelay * 2^attempt)
		delay := baseDelay << attempt
		if delay > maxDelay {
			delay = maxDelay
		}

		// 带抖动：在 [delay/2, delay] 区间随机
		half := delay / 2
		jitter := half + time.Duration(rand.Int63n(int64(delay-half)+1))
		select {
		case <-ctx.Done():
			return lo.Empty[T](), ctx.Err()
		case <-time.After(jitter):
		}
	}

	return lo.Empty[T](), fmt.Errorf("after %d retries, last error: %w", maxRetries, lastErr)
}

func Avg(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return lo.Sum(data) / float64(len(data))
}

func StdDev(data []float64) float64 {
	// 至少需要2个点才能计算标准差
	if len(data) < 2 {
		return 0.0
	}

	mean := Avg(data)
	sumOfSquares := 0.0
	for _, val := range data {
		sumOfSquares += math.Pow(val-mean, 2)
	}

	// 使用样本标准差 (n-1)
	variance := sumOfSquares / float64(len(data)-1)
	return math.Sqrt(variance)
}

// Round2 四舍五入到两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
