package nickname

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const maxAttempts = 1000

// ErrExhausted 表示重试次数用尽（极不可能的碰撞风暴），
// 对应的发帖请求整体失败，不产生部分写入。
var ErrExhausted = errors.New("nickname allocation attempts exhausted")

// Allocate 为访客分配一个在 exists 范围内未被占用的昵称。
// 没有指定偏好昵称时随机生成（随机 UUID 去掉连字符后的前 4 位）。
//
// 本调用内部用 tried 集合避免重复探测，但不跨请求同步：
// 真正的唯一性保证是存储层的唯一约束，这里只是降低延迟的预检查。
func Allocate(preferred string, exists func(string) (bool, error)) (string, error) {
	candidate := preferred
	if candidate == "" {
		candidate = random()
	}

	tried := make(map[string]struct{})

	for i := 0; i < maxAttempts; i++ {
		if _, dup := tried[candidate]; dup {
			// 这一轮已经试过，换一个再来
			candidate = random()
			continue
		}
		tried[candidate] = struct{}{}

		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check nickname: %w", err)
		}
		if !taken {
			return candidate, nil
		}

		candidate = random()
	}

	return "", ErrExhausted
}

func random() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
}
