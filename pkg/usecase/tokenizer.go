package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// stopWords are Vietnamese and English function words that carry no topic.
// Words of two runes or fewer are dropped before this list is consulted.
var stopWords = map[string]struct{}{
	// Vietnamese
	"của": {}, "các": {}, "cho": {}, "với": {}, "này": {}, "những": {}, "được": {},
	"trong": {}, "thì": {}, "như": {}, "thế": {}, "nào": {}, "làm": {}, "sao": {},
	"tôi": {}, "bạn": {}, "mình": {}, "một": {}, "khi": {}, "nếu": {}, "hay": {},
	"hoặc": {}, "đang": {}, "rồi": {}, "vào": {}, "lên": {}, "tại": {},
	"cách": {}, "muốn": {}, "cần": {}, "giúp": {}, "không": {}, "phải": {},
	"nhưng": {}, "vẫn": {}, "cũng": {}, "đây": {}, "kia": {}, "đâu": {}, "bằng": {},
	"thể": {}, "xin": {}, "vui": {}, "lòng": {}, "hãy": {}, "nhé": {},
	// English
	"the": {}, "and": {}, "for": {}, "how": {}, "can": {}, "what": {}, "where": {},
	"when": {}, "why": {}, "which": {}, "who": {}, "with": {}, "this": {}, "that": {},
	"from": {}, "does": {}, "have": {}, "has": {}, "are": {}, "was": {}, "were": {},
	"you": {}, "your": {}, "our": {}, "will": {}, "would": {}, "should": {},
	"could": {}, "about": {}, "into": {}, "want": {}, "need": {}, "please": {},
	"there": {}, "their": {}, "them": {}, "then": {}, "than": {}, "any": {},
	"all": {}, "not": {}, "but": {}, "its": {}, "it's": {}, "i'm": {}, "way": {},
}

// tokenize lowercases question, splits it on whitespace and keeps the words that can
// identify a topic. Punctuation around a word is not part of it.
func tokenize(question string) []string {
	fields := strings.Fields(strings.ToLower(question))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		word := strings.TrimFunc(field, unicode.IsPunct)
		if utf8.RuneCountInString(word) <= 2 {
			continue
		}
		if _, ok := stopWords[word]; ok {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}
