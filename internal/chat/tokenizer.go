package chat

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer 精确 token 计数器，支持 tiktoken 和启发式回退
// Tokenizer provides precise token counting with tiktoken and heuristic fallback
type Tokenizer struct {
	encoder      *tiktoken.Tiktoken
	encodingName string
	fallback     bool // 是否使用启发式回退 / Whether using heuristic fallback
	mu           sync.RWMutex
}

var (
	defaultTokenizer     *Tokenizer
	defaultTokenizerOnce sync.Once
)

// DefaultTokenizer 返回全局默认的 tokenizer 实例
// DefaultTokenizer returns the global default tokenizer instance
func DefaultTokenizer() *Tokenizer {
	defaultTokenizerOnce.Do(func() {
		defaultTokenizer = NewTokenizer("cl100k_base")
	})
	return defaultTokenizer
}

// NewTokenizer 创建 tokenizer，如果 tiktoken 初始化失败则回退到启发式
// NewTokenizer creates a tokenizer, falls back to heuristic if tiktoken init fails
func NewTokenizer(encodingName string) *Tokenizer {
	t := &Tokenizer{encodingName: encodingName}

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		// 离线环境可能没有 BPE 缓存，回退到启发式
		// Offline environments may lack BPE cache, fallback to heuristic
		t.fallback = true
		return t
	}
	t.encoder = enc
	return t
}

// CountTurns 计算回合列表的总 token 数
// CountTurns returns total token count for a turn list
func (t *Tokenizer) CountTurns(turns []Turn) int {
	total := 0
	for _, turn := range turns {
		// 每回合约 4 token 的结构开销
		// ~4 tokens of structural overhead per turn
		total += 4
		total += t.CountText(turn.Role)
		total += t.CountText(turn.Content)
	}
	return total
}

// CountText 计算单个文本的 token 数
// CountText counts tokens for a single text string
func (t *Tokenizer) CountText(text string) int {
	if text == "" {
		return 0
	}
	if t.fallback {
		return heuristicTokenCount(text)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	tokens := t.encoder.Encode(text, nil, nil)
	return len(tokens)
}

// IsPrecise 返回是否使用精确计数
// IsPrecise returns whether precise counting is available
func (t *Tokenizer) IsPrecise() bool {
	return !t.fallback
}

// EncodingName 返回编码名称
// EncodingName returns the encoding name
func (t *Tokenizer) EncodingName() string {
	return t.encodingName
}

// heuristicTokenCount 启发式 token 估算
// heuristicTokenCount estimates tokens for mixed Devanagari/English text
func heuristicTokenCount(text string) int {
	if text == "" {
		return 0
	}
	// 天城文字符通常 1-2 token/字, 英文约 4 chars/token
	// Devanagari characters are typically 1-2 tokens each, English ~4 chars/token
	devCount := 0
	restCount := 0
	for _, r := range text {
		if isDevanagari(r) {
			devCount++
		} else {
			restCount++
		}
	}
	// Devanagari: ~1.5 tokens per character, rest: ~0.25 tokens per character
	estimate := int(float64(devCount)*1.5 + float64(restCount)*0.25)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func isDevanagari(r rune) bool {
	return (r >= 0x0900 && r <= 0x097F) || // Devanagari
		(r >= 0xA8E0 && r <= 0xA8FF) || // Devanagari Extended
		(r >= 0x1CD0 && r <= 0x1CFF) // Vedic Extensions
}
