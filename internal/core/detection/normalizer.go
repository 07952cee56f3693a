package detection

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// vocabularyByLength 依長度遞減排列的詞表，長詞優先比對
var vocabularyByLength = func() []string {
	tokens := make([]string, 0, len(foodVocabulary))
	for token := range foodVocabulary {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
	return tokens
}()

// Normalizer 將分類器標籤轉為標準食材 token
type Normalizer interface {
	Normalize(raw string) (string, bool)
}

// NormalizerFunc 讓普通函數實作 Normalizer
type NormalizerFunc func(raw string) (string, bool)

// Normalize 實作 Normalizer
func (f NormalizerFunc) Normalize(raw string) (string, bool) {
	return f(raw)
}

// DefaultNormalizer 使用內建詞表的 Normalizer
var DefaultNormalizer Normalizer = NormalizerFunc(Normalize)

// Normalize 將原始標籤轉為標準食材 token，非食材回傳 false。
//
// 順序：小寫化並把底線換成空白；任一單字命中黑名單即拒絕；
// 先比對單字開頭的詞表 token（取最長者），再退回任意位置的子字串
// （"cupcake" → "cake"）；每一輪都會再以去除複數字尾的形式比對一次。
func Normalize(raw string) (string, bool) {
	label := cleanLabel(raw)
	if label == "" {
		return "", false
	}

	if isBlacklisted(label) {
		return "", false
	}

	candidates := []string{label}
	if singular := singularize(label); singular != label {
		candidates = append(candidates, singular)
	}

	for _, match := range []func(label, token string) bool{containsAtWordStart, strings.Contains} {
		for _, candidate := range candidates {
			if token, ok := matchVocabulary(candidate, match); ok {
				return token, true
			}
		}
	}

	return "", false
}

// cleanLabel 小寫、底線轉空白、合併多餘空白
func cleanLabel(raw string) string {
	label := strings.ToLower(strings.ReplaceAll(raw, "_", " "))
	return strings.Join(strings.Fields(label), " ")
}

// words 以非字母切分
func words(label string) []string {
	return strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func isBlacklisted(label string) bool {
	for _, w := range words(label) {
		if _, ok := nonFoodBlacklist[w]; ok {
			return true
		}
		if _, ok := nonFoodBlacklist[singularize(w)]; ok {
			return true
		}
		if strings.HasSuffix(w, "s") {
			if _, ok := nonFoodBlacklist[strings.TrimSuffix(w, "s")]; ok {
				return true
			}
		}
	}
	return false
}

// matchVocabulary 找出符合 match 的最長詞表 token
func matchVocabulary(label string, match func(label, token string) bool) (string, bool) {
	for _, token := range vocabularyByLength {
		if match(label, token) {
			return token, true
		}
	}
	return "", false
}

// containsAtWordStart token 出現在 label 中且位於單字起點
// （"pineapple" 不會被當成 "apple"，但 "apple slices" 會）
func containsAtWordStart(label, token string) bool {
	for offset := 0; offset < len(label); {
		idx := strings.Index(label[offset:], token)
		if idx < 0 {
			return false
		}
		pos := offset + idx
		if pos == 0 {
			return true
		}
		if prev, _ := utf8.DecodeLastRuneInString(label[:pos]); !unicode.IsLetter(prev) {
			return true
		}
		offset = pos + 1
	}
	return false
}

// singularize 依序套用 ies→y、es→去除、s→去除（長度 > 3）
func singularize(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 3:
		return strings.TrimSuffix(s, "ies") + "y"
	case strings.HasSuffix(s, "es") && len(s) > 2:
		return strings.TrimSuffix(s, "es")
	case strings.HasSuffix(s, "s") && len(s) > 3:
		return strings.TrimSuffix(s, "s")
	}
	return s
}
