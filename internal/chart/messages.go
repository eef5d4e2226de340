package chart

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys for chart labels.
const (
	keyXLabel      = "chart.x_label"
	keyYLabel      = "chart.y_label"
	keySusceptible = "chart.series.susceptible"
	keyInfected    = "chart.series.infected"
	keyRemoved     = "chart.series.removed"
	keyTotalCases  = "chart.series.total_cases"
)

var supported = []language.Tag{language.English, language.Swedish}

var matcher = language.NewMatcher(supported)

func init() {
	en := language.English
	message.SetString(en, keyXLabel, "Time elapsed (days)")
	message.SetString(en, keyYLabel, "Number of people")
	message.SetString(en, keySusceptible, "Number susceptible")
	message.SetString(en, keyInfected, "Number infected")
	message.SetString(en, keyRemoved, "Number removed")
	message.SetString(en, keyTotalCases, "Total cases")

	sv := language.Swedish
	message.SetString(sv, keyXLabel, "Tid (dagar)")
	message.SetString(sv, keyYLabel, "Antal personer")
	message.SetString(sv, keySusceptible, "Antal mottagliga")
	message.SetString(sv, keyInfected, "Antal smittade")
	message.SetString(sv, keyRemoved, "Antal borträknade")
	message.SetString(sv, keyTotalCases, "Antal fall")
}

// Languages lists the supported label languages, default first.
func Languages() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// MatchLanguage resolves a BCP 47 string to the closest supported tag.
// Empty or unparseable input yields English.
func MatchLanguage(lang string) language.Tag {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return supported[0]
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return supported[0]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return supported[0]
	}
	return supported[idx]
}

// Labels are the localized axis labels and series captions.
type Labels struct {
	X           string
	Y           string
	Susceptible string
	Infected    string
	Removed     string
	TotalCases  string
}

// LabelsFor returns the labels for lang.
func LabelsFor(lang string) Labels {
	p := message.NewPrinter(MatchLanguage(lang))
	return Labels{
		X:           p.Sprintf(keyXLabel),
		Y:           p.Sprintf(keyYLabel),
		Susceptible: p.Sprintf(keySusceptible),
		Infected:    p.Sprintf(keyInfected),
		Removed:     p.Sprintf(keyRemoved),
		TotalCases:  p.Sprintf(keyTotalCases),
	}
}
