package pipeline

import "fmt"

// Locale controls the natural language and fixed labels of the generated deck.
type Locale struct {
	Code       string
	Language   string
	DeckTitle  string
	TOCHeading string
}

var locales = map[string]Locale{
	"ja": {Code: "ja", Language: "Japanese", DeckTitle: "ビジネス企画書", TOCHeading: "目次"},
	"en": {Code: "en", Language: "English", DeckTitle: "Business Plan", TOCHeading: "Table of Contents"},
}

// LocaleFor returns the locale for code, falling back to Japanese.
func LocaleFor(code string) Locale {
	if l, ok := locales[code]; ok {
		return l
	}
	return locales["ja"]
}

// Header is the Marp front matter placed at the top of every deck.
func (l Locale) Header() string {
	return fmt.Sprintf(`---
marp: true
title: %s
theme: default
style: |
  section {
    font-size: 22px;
  }
---
`, l.DeckTitle)
}
