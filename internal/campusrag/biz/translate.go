package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"
	"golang.org/x/sync/errgroup"

	"github.com/kart-io/campus-rag/pkg/infra/tracing"
	"github.com/kart-io/campus-rag/pkg/llm"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
	"github.com/kart-io/campus-rag/pkg/utils/json"
)

// translateSystemPrompt 翻译链的系统提示词。
const translateSystemPrompt = "Translate the following text to %s. Provide only the translation."

// Translator 将 FAQ 并发翻译为目标语言。
// 并发度受 translate 池容量限制；任一条失败则整批失败。
type Translator struct {
	chat llm.ChatModel
	pool Pool
}

// NewTranslator 创建翻译器。
func NewTranslator(chat llm.ChatModel, pool Pool) *Translator {
	return &Translator{chat: chat, pool: pool}
}

// IsEnglish 判断目标语言是否为英文（不区分大小写）。
func IsEnglish(lang string) bool {
	return strings.EqualFold(strings.TrimSpace(lang), "en")
}

// Translate 逐条翻译 faqs，结果与输入等长同序。目标语言为 en 时原样返回，不调用模型。
func (t *Translator) Translate(ctx context.Context, faqs []string, lang string) (_ []string, err error) {
	ctx, span := tracing.Start(ctx, "biz.Translator.Translate",
		tracing.String("translate.lang", lang),
		tracing.Int("translate.faqs", len(faqs)),
	)
	defer func() { tracing.End(span, err) }()

	if IsEnglish(lang) || len(faqs) == 0 {
		return faqs, nil
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	system := llm.System(fmt.Sprintf(translateSystemPrompt, lang))

	out := make([]string, len(faqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, faq := range faqs {
		g.Go(func() error {
			return t.pool.SubmitWait(gctx, func() error {
				reply, err := t.chat.Chat(gctx, []llm.Message{system, llm.User(faq)}, llm.WithTemperature(0))
				if err != nil {
					return fmt.Errorf("translate faq %d: %w", i, err)
				}
				out[i] = NormalizeCompletion(reply)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.ErrTranslateFailed.WithCause(err)
	}
	return out, nil
}

// NormalizeCompletion 从补全结果中取出文本。
// 依次识别：JSON 对象的 content 字段、heading 字段、JSON 字符串，
// 其余按原始文本处理。无法识别的 JSON 对象返回空串并记录日志。
func NormalizeCompletion(reply string) string {
	text := strings.TrimSpace(reply)
	if text == "" {
		return ""
	}

	switch text[0] {
	case '{':
		var obj map[string]any
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			return text
		}
		for _, key := range []string{"content", "heading"} {
			if s, ok := obj[key].(string); ok {
				return strings.TrimSpace(s)
			}
		}
		logger.Warnw("unrecognized completion shape", "reply", text)
		return ""
	case '"':
		var s string
		if err := json.Unmarshal([]byte(text), &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return text
}
