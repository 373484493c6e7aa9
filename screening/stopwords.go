package screening

import (
	"sort"
	"strings"
	"sync"

	"github.com/bbalet/stopwords"
)

// stopwordSet combines Tagalog and English function words, chat slang and
// number words. It is never modified after package initialisation.
var stopwordSet = buildStopwordSet(
	tagalogStopwords,
	englishStopwords,
	slangStopwords,
	numberStopwords,
)

var tagalogStopwords = []string{
	// Markers and linkers
	"ang", "ang mga", "mga", "ng", "nang", "sa", "si", "sina", "ni", "nina", "kay", "kina",
	"na", "ng", "at", "o", "pero", "ngunit", "subalit", "datapwat", "kung", "kapag", "pag",
	"para", "upang", "dahil", "kasi", "sapagkat", "palibhasa", "kaya", "kaya't", "kayat",
	"habang", "samantalang", "bago", "pagkatapos", "hanggang", "mula", "tungkol", "ayon",
	"laban", "patungo", "papunta", "galing", "gaya", "tulad", "parang", "kaysa", "kesa",
	// Pronouns
	"ako", "ko", "akin", "aking", "ikaw", "ka", "mo", "iyo", "iyong", "siya", "sya", "niya",
	"nya", "kanya", "kaniya", "kanyang", "kaniyang", "kami", "namin", "amin", "aming", "tayo",
	"natin", "atin", "ating", "kayo", "ninyo", "nyo", "inyo", "inyong", "sila", "nila",
	"kanila", "kanilang", "kita", "kata",
	// Demonstratives and locatives
	"ito", "iyan", "yan", "iyon", "yun", "yon", "dito", "diyan", "dyan", "doon", "dun",
	"nito", "niyan", "nyan", "niyon", "noon", "nun", "ganito", "ganyan", "ganoon", "ganun",
	"ganon", "heto", "ayan", "ayun", "ayon", "narito", "nariyan", "naroon", "andito",
	"andyan", "andun",
	// Interrogatives
	"ano", "anong", "sino", "sinong", "saan", "nasaan", "kailan", "bakit", "paano", "pano",
	"ilan", "magkano", "alin", "aling", "gaano",
	// Particles and adverbs
	"ba", "pa", "na", "din", "rin", "lang", "lamang", "naman", "nga", "pala", "kaya", "yata",
	"sana", "muna", "man", "daw", "raw", "po", "ho", "opo", "oho", "talaga", "tlga", "siguro",
	"baka", "marahil", "halos", "lalo", "masyado", "medyo", "sobra", "lahat", "bawat",
	"iba", "ibang", "isa", "isang", "ilang", "marami", "maraming", "kaunti", "konti",
	"wala", "walang", "mayroon", "meron", "may", "hindi", "di", "huwag", "wag", "oo", "hindi",
	"pwede", "puwede", "dapat", "kailangan", "gusto", "ayaw", "nais", "ibig",
	"ngayon", "kanina", "mamaya", "bukas", "kahapon", "lagi", "palagi", "minsan", "tuwing",
	"agad", "kaagad", "tapos", "saka", "sakali", "kahit", "kundi", "maging", "pati",
	"ganito", "rito", "roon", "riyan", "yung", "iyong", "ung", "un", "eh", "e", "ay",
	"nasa", "nag", "mag", "mang", "maka", "naka", "pinaka", "napaka", "sobrang",
	"talagang", "nung", "noong", "nang", "diba", "di ba", "ganun", "ano ba",
	"pag", "kung", "kapag", "siyang", "itong", "iyang", "yang", "yong",
	"ka na", "na lang", "lng", "nmn", "ksi", "kc", "dn", "rn", "pra", "sna",
}

var englishStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an", "and", "any",
	"are", "aren't", "as", "at", "be", "because", "been", "before", "being", "below",
	"between", "both", "but", "by", "can", "can't", "cannot", "could", "couldn't", "did",
	"didn't", "do", "does", "doesn't", "doing", "don't", "down", "during", "each", "few",
	"for", "from", "further", "had", "hadn't", "has", "hasn't", "have", "haven't", "having",
	"he", "he'd", "he'll", "he's", "her", "here", "here's", "hers", "herself", "him",
	"himself", "his", "how", "how's", "i", "i'd", "i'll", "i'm", "i've", "if", "in", "into",
	"is", "isn't", "it", "it's", "its", "itself", "let's", "me", "more", "most", "mustn't",
	"my", "myself", "no", "nor", "not", "of", "off", "on", "once", "only", "or", "other",
	"ought", "our", "ours", "ourselves", "out", "over", "own", "same", "shan't", "she",
	"she'd", "she'll", "she's", "should", "shouldn't", "so", "some", "such", "than", "that",
	"that's", "the", "their", "theirs", "them", "themselves", "then", "there", "there's",
	"these", "they", "they'd", "they'll", "they're", "they've", "this", "those", "through",
	"to", "too", "under", "until", "up", "very", "was", "wasn't", "we", "we'd", "we'll",
	"we're", "we've", "were", "weren't", "what", "what's", "when", "when's", "where",
	"where's", "which", "while", "who", "who's", "whom", "why", "why's", "with", "won't",
	"would", "wouldn't", "you", "you'd", "you'll", "you're", "you've", "your", "yours",
	"yourself", "yourselves", "will", "just", "also", "get", "got", "im", "dont", "cant",
	"wont", "didnt", "doesnt", "isnt", "youre", "ive", "thats", "theres", "lets",
	"shall", "may", "might", "must", "us", "yet", "ever", "even", "still", "really",
	"now", "then", "well", "much", "many", "every", "another", "one's", "via", "etc",
}

var slangStopwords = []string{
	// Chat and SMS shorthand
	"lol", "lmao", "lmfao", "rofl", "haha", "hahaha", "hahahaha", "hehe", "hehehe", "hihi",
	"huhu", "hahah", "ahaha", "xd", "omg", "omfg", "wtf", "idk", "idc", "imo", "imho",
	"tbh", "btw", "brb", "ttyl", "smh", "fyi", "irl", "ikr", "nvm", "pls", "plz", "thx",
	"ty", "u", "ur", "r", "ya", "yah", "yeah", "yep", "yup", "nope", "nah", "ok", "okay",
	"okey", "oki", "k", "kk", "hmm", "hmmm", "uhm", "um", "umm", "ah", "oh", "ohh", "eh",
	"ha", "hay", "naku", "nako", "hala", "grabe", "charot", "char", "chos", "sana all",
	"sanaol", "lodi", "petmalu", "werpa", "beh", "bes", "besh", "sis", "bro", "pre", "pare",
	"mars", "tol", "dre", "ate", "kuya", "te", "jusko", "hays", "haist", "hayst", "ayy",
	"ay", "uy", "huy", "oy", "hoy", "sige", "g", "gg", "wow", "yay",
}

var numberStopwords = []string{
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"isa", "dalawa", "tatlo", "apat", "lima", "anim", "pito", "walo", "siyam", "sampu",
	"wala", "uno", "dos", "tres", "kwatro", "singko", "sais", "siyete", "otso", "nuwebe",
}

func buildStopwordSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, w := range list {
			// Multi-word entries are split so membership works per token.
			for _, tok := range strings.Fields(strings.ToLower(w)) {
				set[tok] = struct{}{}
				if strings.ContainsRune(tok, '\'') {
					set[strings.ReplaceAll(tok, "'", "")] = struct{}{}
				}
			}
		}
	}
	return set
}

// bbalet/stopwords does not export its lists, so English membership is
// checked through CleanString and remembered per token.
var englishMemo sync.Map

// IsStopword reports whether token is in the stopword lexicon. Tokens are
// expected to be normalised (lowercase, no punctuation).
func IsStopword(token string) bool {
	if token == "" {
		return true
	}
	if _, ok := stopwordSet[token]; ok {
		return true
	}
	if !isASCIILetters(token) {
		return false
	}
	if v, ok := englishMemo.Load(token); ok {
		return v.(bool)
	}
	stop := strings.TrimSpace(stopwords.CleanString(token, "en", false)) == ""
	englishMemo.Store(token, stop)
	return stop
}

// Stopwords returns the built-in lexicon, sorted.
func Stopwords() []string {
	out := make([]string, 0, len(stopwordSet))
	for w := range stopwordSet {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func isASCIILetters(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return len(s) > 0
}
