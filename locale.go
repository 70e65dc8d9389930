/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/Seednode/simonbox/simon"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	msgIdle     = "Press any key to start"
	msgLevel    = "Level %d"
	msgGameOver = "Game Over! Your score: %d. Press any key to start again"
)

var translations = map[language.Tag][3]string{
	language.English: {msgIdle, msgLevel, msgGameOver},
	language.German: {
		"Drücke eine beliebige Taste zum Starten",
		"Stufe %d",
		"Spiel vorbei! Deine Punktzahl: %d. Drücke eine Taste für ein neues Spiel",
	},
	language.French: {
		"Appuie sur une touche pour commencer",
		"Niveau %d",
		"Partie terminée ! Ton score : %d. Appuie sur une touche pour rejouer",
	},
	language.Spanish: {
		"Pulsa cualquier tecla para empezar",
		"Nivel %d",
		"¡Fin del juego! Tu puntuación: %d. Pulsa una tecla para volver a jugar",
	},
}

var supportedLanguages = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

func init() {
	for tag, t := range translations {
		for i, key := range []string{msgIdle, msgLevel, msgGameOver} {
			_ = message.SetString(tag, key, t[i])
		}
	}
}

// matchLanguage picks the best supported language for the given preferences,
// falling back to fallback when nothing matches.
func matchLanguage(fallback string, prefs ...string) language.Tag {
	for _, pref := range prefs {
		if pref == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil || len(tags) == 0 {
			continue
		}
		if tag, _, conf := languageMatcher.Match(tags...); conf != language.No {
			return baseTag(tag)
		}
	}

	tag, err := language.Parse(fallback)
	if err != nil {
		return language.English
	}
	matched, _, _ := languageMatcher.Match(tag)

	return baseTag(matched)
}

// baseTag strips the -u-rg extension the matcher adds, so catalog lookups hit.
func baseTag(tag language.Tag) language.Tag {
	base, _ := tag.Base()
	t, err := language.Compose(base)
	if err != nil {
		return language.English
	}
	return t
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

func statusText(p *message.Printer, s simon.Status) string {
	switch s.Kind {
	case simon.StatusLevel:
		return p.Sprintf(msgLevel, s.Level)
	case simon.StatusGameOver:
		return p.Sprintf(msgGameOver, s.Score)
	default:
		return p.Sprintf(msgIdle)
	}
}
