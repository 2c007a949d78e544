package adhkar

import (
	"math/rand/v2"
	"strings"
)

type Category string

const (
	Morning Category = "morning"
	Evening Category = "evening"
	Sleep   Category = "sleep"
)

var Categories = []Category{Morning, Evening, Sleep}

// Dhikr is one remembrance and how many times it is recited.
type Dhikr struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

var collection = map[Category][]Dhikr{
	Morning: {
		{Text: "أَصْبَحْنَا وَأَصْبَحَ الْمُلْكُ لِلَّهِ، وَالْحَمْدُ لِلَّهِ، لاَ إِلَهَ إِلاَّ اللَّهُ وَحْدَهُ لاَ شَرِيكَ لَهُ", Count: 1},
		{Text: "اللَّهُمَّ بِكَ أَصْبَحْنَا، وَبِكَ أَمْسَيْنَا، وَبِكَ نَحْيَا، وَبِكَ نَمُوتُ، وَإِلَيْكَ النُّشُورُ", Count: 1},
		{Text: "سُبْحَانَ اللَّهِ وَبِحَمْدِهِ", Count: 100},
		{Text: "لاَ إِلَهَ إِلاَّ اللَّهُ وَحْدَهُ لاَ شَرِيكَ لَهُ، لَهُ الْمُلْكُ وَلَهُ الْحَمْدُ وَهُوَ عَلَى كُلِّ شَيْءٍ قَدِيرٌ", Count: 100},
	},
	Evening: {
		{Text: "أَمْسَيْنَا وَأَمْسَى الْمُلْكُ لِلَّهِ، وَالْحَمْدُ لِلَّهِ، لاَ إِلَهَ إِلاَّ اللَّهُ وَحْدَهُ لاَ شَرِيكَ لَهُ", Count: 1},
		{Text: "اللَّهُمَّ بِكَ أَمْسَيْنَا، وَبِكَ أَصْبَحْنَا، وَبِكَ نَحْيَا، وَبِكَ نَمُوتُ، وَإِلَيْكَ الْمَصِيرُ", Count: 1},
		{Text: "سُبْحَانَ اللَّهِ وَبِحَمْدِهِ", Count: 100},
		{Text: "لاَ إِلَهَ إِلاَّ اللَّهُ وَحْدَهُ لاَ شَرِيكَ لَهُ، لَهُ الْمُلْكُ وَلَهُ الْحَمْدُ وَهُوَ عَلَى كُلِّ شَيْءٍ قَدِيرٌ", Count: 100},
	},
	Sleep: {
		{Text: "بِاسْمِكَ رَبِّي وَضَعْتُ جَنْبِي، وَبِكَ أَرْفَعُهُ، فَإِنْ أَمْسَكْتَ نَفْسِي فَارْحَمْهَا، وَإِنْ أَرْسَلْتَهَا فَاحْفَظْهَا بِمَا تَحْفَظُ بِهِ عِبَادَكَ الصَّالِحِينَ", Count: 1},
		{Text: "اللَّهُمَّ إِنِّي أَسْلَمْتُ نَفْسِي إِلَيْكَ، وَفَوَّضْتُ أَمْرِي إِلَيْكَ، وَوَجَّهْتُ وَجْهِي إِلَيْكَ، وَأَلْجَأْتُ ظَهْرِي إِلَيْكَ، رَغْبَةً وَرَهْبَةً إِلَيْكَ، لاَ مَلْجَأَ وَلاَ مَنْجَى مِنْكَ إِلاَّ إِلَيْكَ", Count: 1},
		{Text: "سُبْحَانَ اللَّهِ", Count: 33},
		{Text: "الْحَمْدُ لِلَّهِ", Count: 33},
		{Text: "اللَّهُ أَكْبَرُ", Count: 34},
	},
}

// SalawatTitle heads the recurring salah-on-the-prophet notification.
const SalawatTitle = "الصلاة على النبي ﷺ"

var salawat = []string{
	"اللَّهُمَّ صَلِّ عَلَى مُحَمَّدٍ وَعَلَى آلِ مُحَمَّدٍ",
	"صَلَّى اللَّهُ عَلَيْهِ وَسَلَّمَ",
	"اللَّهُمَّ صَلِّ عَلَى نَبِيِّنَا مُحَمَّدٍ",
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// ForCategory returns a copy of the adhkar of a category. Unknown categories
// yield an empty list.
func ForCategory(c Category) []Dhikr {
	list := collection[c]
	out := make([]Dhikr, len(list))
	copy(out, list)
	return out
}

// SalawatMessages returns the message pool of the recurring nudge.
func SalawatMessages() []string {
	out := make([]string, len(salawat))
	copy(out, salawat)
	return out
}

// RandomSalawat picks a message using intn, which must behave like rand.IntN.
// A nil intn uses math/rand/v2.
func RandomSalawat(intn func(int) int) string {
	if intn == nil {
		intn = rand.IntN
	}
	return salawat[intn(len(salawat))]
}
