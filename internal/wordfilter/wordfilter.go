// Package wordfilter extracts index-worthy words from document text,
// dropping common English filler so only object, concept, and technical
// terms survive.
package wordfilter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var wordRe = regexp.MustCompile(`\b[a-zA-Z]+(?:[_-][a-zA-Z]+)*\b`)

// Filter decides which words matter for a technical index.
type Filter struct {
	stopWords      map[string]bool
	technicalTerms map[string]bool

	// Length bounds applied before any other check.
	MinLength int
	MaxLength int
}

// New returns a filter loaded with the default stop and technical lists.
func New() *Filter {
	return &Filter{
		stopWords:      toSet(stopWords),
		technicalTerms: toSet(technicalTerms),
		MinLength:      2,
		MaxLength:      50,
	}
}

// ExtractSignificantWords returns the lowercase significant words of text,
// in order of appearance with repeats preserved.
func (f *Filter) ExtractSignificantWords(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var out []string
	for _, word := range wordRe.FindAllString(lower, -1) {
		if len(word) < f.MinLength || len(word) > f.MaxLength {
			continue
		}
		// Technical abbreviations beat the stop list.
		if f.technicalTerms[word] {
			out = append(out, word)
			continue
		}
		if f.stopWords[word] {
			continue
		}
		if mostlyDigits(word) {
			continue
		}
		if appearsCapitalized(text, word) || isTechnicalWord(word) {
			out = append(out, word)
			continue
		}
		if hasTechnicalSuffix(word) || strings.ContainsAny(word, "_-") {
			out = append(out, word)
			continue
		}
		// Remaining 3+ character words are assumed domain-specific.
		if len(word) >= 3 {
			out = append(out, word)
		}
	}
	return out
}

// WordCount pairs a word with how often it was seen.
type WordCount struct {
	Word  string
	Count int
}

// Frequencies counts significant words across texts, dropping words seen
// fewer than minFrequency times.
func (f *Filter) Frequencies(texts []string, minFrequency int) map[string]int {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, w := range f.ExtractSignificantWords(text) {
			counts[w]++
		}
	}
	for w, c := range counts {
		if c < minFrequency {
			delete(counts, w)
		}
	}
	return counts
}

// TopWords sorts a frequency map by descending count, ties alphabetical.
func TopWords(counts map[string]int) []WordCount {
	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	return out
}

func mostlyDigits(word string) bool {
	digits := 0
	for _, r := range word {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits == len(word) {
		return true
	}
	return float64(digits) > float64(len(word))*0.7
}

// appearsCapitalized reports whether the original text carries the word
// with an uppercase first letter, suggesting a proper noun or named term.
func appearsCapitalized(text, word string) bool {
	capitalized := strings.ToUpper(word[:1]) + word[1:]
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(capitalized) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

var versionRe = regexp.MustCompile(`^v?\d+(\.\d+)*[a-z]*$`)

func isTechnicalWord(word string) bool {
	if programmingTermSet[word] {
		return true
	}
	if strings.Contains(word, "_") {
		return true
	}
	if versionRe.MatchString(word) {
		return true
	}
	if len(word) >= 2 && len(word) <= 6 && word == strings.ToUpper(word) && word != strings.ToLower(word) {
		return true
	}
	return false
}

var technicalSuffixes = []string{
	"tion", "sion", "ness", "ment", "ity", "ism", "ist",
	"ing", "ical", "ous", "ious", "ful", "less", "able", "ible",
	"ive", "ative", "itive",
	"ware", "tech", "system", "frame", "protocol",
	"engine", "server", "client", "service", "driver", "handler",
}

func hasTechnicalSuffix(word string) bool {
	for _, s := range technicalSuffixes {
		if strings.HasSuffix(word, s) && len(word) > len(s) {
			return true
		}
	}
	return false
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

var stopWords = []string{
	// articles, pronouns, determiners
	"a", "an", "the",
	"i", "you", "he", "she", "it", "we", "they", "me", "him", "her", "us", "them",
	"my", "your", "his", "its", "our", "their", "mine", "yours", "hers", "ours", "theirs",
	"this", "that", "these", "those", "who", "whom", "whose", "which", "what",
	"some", "any", "all", "both", "each", "every", "either", "neither", "none",
	"own", "other", "another", "such", "same", "different",
	// conjunctions
	"and", "or", "but", "nor", "for", "so", "yet", "because", "since", "unless", "until",
	"while", "whereas", "although", "though", "if", "whether",
	// prepositions
	"in", "on", "at", "by", "with", "without", "through", "over", "under", "above", "below",
	"between", "among", "during", "before", "after", "within", "against", "toward", "towards",
	"from", "to", "into", "onto", "upon", "across", "along", "around", "behind", "beside",
	"beyond", "inside", "outside", "throughout", "up", "down", "off", "out",
	// auxiliaries and weak verbs
	"is", "are", "was", "were", "be", "been", "being", "have", "has", "had", "having",
	"do", "does", "did", "doing", "will", "would", "shall", "should", "could", "can",
	"may", "might", "must", "need",
	"get", "got", "getting", "give", "given", "go", "goes", "going", "went", "gone",
	"come", "came", "take", "took", "taken", "make", "made", "put",
	"say", "said", "see", "saw", "seen", "know", "knew", "known",
	"think", "thought", "look", "looked", "want", "wanted", "use", "used",
	"find", "found", "work", "call", "called", "try", "tried",
	"keep", "kept", "let", "set", "show", "shown", "tell", "told",
	// adverbs and hedges
	"not", "no", "yes", "well", "also", "just", "now", "then", "here", "there", "where",
	"when", "how", "why", "very", "too", "more", "most", "much", "many", "few",
	"little", "less", "least", "only", "even", "still", "already", "again",
	"back", "away", "never", "always", "sometimes", "often", "usually",
	"quite", "rather", "really", "actually", "probably", "maybe", "perhaps",
	"almost", "nearly", "about", "therefore", "thus", "hence", "however",
	// number words and ordinals
	"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"first", "second", "third", "last", "next", "previous",
	// size and quality fillers
	"new", "old", "small", "large", "long", "short", "low", "good", "bad",
	"right", "wrong", "true", "false", "real", "important", "possible", "sure",
	"way", "ways", "thing", "things", "something", "anything", "nothing", "everything",
	// document filler
	"example", "examples", "case", "cases", "section", "sections", "chapter", "chapters",
	"figure", "figures", "table", "tables", "page", "pages", "part", "parts",
	"note", "notes", "following", "shown", "described", "mentioned",
	"reference", "references", "text", "content", "information", "details",
	"description", "overview", "summary", "conclusion", "introduction", "background",
	"purpose", "goal", "result", "results", "issue", "issues", "problem", "problems",
	"solution", "solutions", "approach", "method", "methods", "technique", "techniques",
	"step", "steps", "process", "processes", "operation", "operations",
}

var technicalTerms = []string{
	"api", "apis", "sdk", "sdks", "ide", "ides", "gui", "guis", "cli", "clis",
	"http", "https", "ftp", "ssh", "ssl", "tls", "tcp", "udp", "ip", "dns",
	"url", "urls", "uri", "uris", "html", "css", "js", "xml", "json", "yaml",
	"sql", "nosql", "rest", "soap", "crud", "mvc", "orm",
	"cpu", "gpu", "ram", "rom", "ssd", "hdd", "usb", "bios", "uefi",
	"os", "vm", "vms", "docker", "kubernetes",
	"aws", "azure", "gcp", "saas", "paas", "iaas", "ci", "cd", "devops",
	"ai", "ml",
}

var programmingTermSet = toSet([]string{
	"class", "function", "method", "variable", "constant", "parameter",
	"argument", "return", "void", "int", "string", "boolean", "array",
	"list", "dict", "map", "tuple", "object", "instance",
	"interface", "abstract", "static", "public", "private", "protected",
	"virtual", "override", "inherit", "extend", "implement", "import",
	"export", "module", "package", "library", "framework", "namespace",
	"thread", "async", "sync", "callback", "event", "handler",
	"listener", "observer", "pattern", "singleton", "factory", "builder",
	"adapter", "facade", "proxy", "decorator", "strategy", "command",
	"iterator", "template", "generic", "exception", "error", "debug",
	"test", "unit", "integration", "mock", "stub", "fixture", "assert",
	"validate", "serialize", "deserialize", "encode", "decode", "parse",
	"compile", "runtime", "memory", "heap", "stack",
	"buffer", "cache", "database", "query", "index", "transaction",
	"commit", "rollback", "schema", "column", "row", "record",
	"primary", "foreign", "key", "constraint", "trigger", "procedure",
	"algorithm", "complexity", "optimization", "performance", "scalability",
	"security", "authentication", "authorization", "encryption", "hash",
	"token", "session", "cookie", "header", "request", "response",
	"endpoint", "route", "middleware", "pipeline", "queue", "worker",
	"scheduler", "daemon", "service", "microservice",
	"container", "orchestration", "deployment", "configuration", "environment",
	"production", "development", "staging", "testing", "debugging",
	"logging", "monitoring", "metrics", "analytics", "reporting",
})
