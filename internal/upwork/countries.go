package upwork

import "strings"

// countryAliases maps ISO alpha-2/alpha-3 codes and common variants
// (lowercased) to one canonical English name. The feed is inconsistent about
// which form it sends, and analytics group by the canonical name.
var countryAliases = map[string]string{
	"us":                       "United States",
	"usa":                      "United States",
	"u.s.":                     "United States",
	"u.s.a.":                   "United States",
	"united states of america": "United States",
	"gb":                       "United Kingdom",
	"gbr":                      "United Kingdom",
	"uk":                       "United Kingdom",
	"great britain":            "United Kingdom",
	"england":                  "United Kingdom",
	"ae":                       "United Arab Emirates",
	"are":                      "United Arab Emirates",
	"uae":                      "United Arab Emirates",
	"au":                       "Australia",
	"aus":                      "Australia",
	"ca":                       "Canada",
	"can":                      "Canada",
	"de":                       "Germany",
	"deu":                      "Germany",
	"deutschland":              "Germany",
	"fr":                       "France",
	"fra":                      "France",
	"es":                       "Spain",
	"esp":                      "Spain",
	"it":                       "Italy",
	"ita":                      "Italy",
	"nl":                       "Netherlands",
	"nld":                      "Netherlands",
	"holland":                  "Netherlands",
	"the netherlands":          "Netherlands",
	"ch":                       "Switzerland",
	"che":                      "Switzerland",
	"se":                       "Sweden",
	"swe":                      "Sweden",
	"no":                       "Norway",
	"nor":                      "Norway",
	"dk":                       "Denmark",
	"dnk":                      "Denmark",
	"pl":                       "Poland",
	"pol":                      "Poland",
	"ua":                       "Ukraine",
	"ukr":                      "Ukraine",
	"ru":                       "Russia",
	"rus":                      "Russia",
	"russian federation":       "Russia",
	"in":                       "India",
	"ind":                      "India",
	"pk":                       "Pakistan",
	"pak":                      "Pakistan",
	"bd":                       "Bangladesh",
	"bgd":                      "Bangladesh",
	"ph":                       "Philippines",
	"phl":                      "Philippines",
	"the philippines":          "Philippines",
	"id":                       "Indonesia",
	"idn":                      "Indonesia",
	"vn":                       "Vietnam",
	"vnm":                      "Vietnam",
	"viet nam":                 "Vietnam",
	"cn":                       "China",
	"chn":                      "China",
	"jp":                       "Japan",
	"jpn":                      "Japan",
	"kr":                       "South Korea",
	"kor":                      "South Korea",
	"republic of korea":        "South Korea",
	"korea, republic of":       "South Korea",
	"br":                       "Brazil",
	"bra":                      "Brazil",
	"ar":                       "Argentina",
	"arg":                      "Argentina",
	"mx":                       "Mexico",
	"mex":                      "Mexico",
	"co":                       "Colombia",
	"col":                      "Colombia",
	"cl":                       "Chile",
	"chl":                      "Chile",
	"il":                       "Israel",
	"isr":                      "Israel",
	"sa":                       "Saudi Arabia",
	"sau":                      "Saudi Arabia",
	"tr":                       "Turkey",
	"tur":                      "Turkey",
	"turkiye":                  "Turkey",
	"türkiye":                  "Turkey",
	"eg":                       "Egypt",
	"egy":                      "Egypt",
	"ng":                       "Nigeria",
	"nga":                      "Nigeria",
	"za":                       "South Africa",
	"zaf":                      "South Africa",
	"ke":                       "Kenya",
	"ken":                      "Kenya",
	"nz":                       "New Zealand",
	"nzl":                      "New Zealand",
	"ie":                       "Ireland",
	"irl":                      "Ireland",
	"pt":                       "Portugal",
	"prt":                      "Portugal",
	"ro":                       "Romania",
	"rou":                      "Romania",
	"cz":                       "Czech Republic",
	"cze":                      "Czech Republic",
	"czechia":                  "Czech Republic",
	"at":                       "Austria",
	"aut":                      "Austria",
	"be":                       "Belgium",
	"bel":                      "Belgium",
	"fi":                       "Finland",
	"fin":                      "Finland",
	"gr":                       "Greece",
	"grc":                      "Greece",
	"hu":                       "Hungary",
	"hun":                      "Hungary",
	"sg":                       "Singapore",
	"sgp":                      "Singapore",
	"hk":                       "Hong Kong",
	"hkg":                      "Hong Kong",
	"my":                       "Malaysia",
	"mys":                      "Malaysia",
	"th":                       "Thailand",
	"tha":                      "Thailand",
	"lk":                       "Sri Lanka",
	"lka":                      "Sri Lanka",
	"np":                       "Nepal",
	"npl":                      "Nepal",
}

// CanonicalCountry normalizes a country value via the alias table. Unknown
// values pass through trimmed and unchanged.
func CanonicalCountry(value string) string {
	trimmed := strings.TrimSpace(value)
	if canonical, ok := countryAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}
