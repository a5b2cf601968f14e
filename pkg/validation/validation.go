// Package validation holds the synchronous field checks run before any
// network call. Every function is pure: the same input always yields the
// same verdict.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/latoulicious/arise-companion/pkg/apperror"
)

var forbiddenChars = regexp.MustCompile(`<|>|\{|\}`)

// Enumerations shared by the managed entities
var (
	Elements           = []string{"Feu", "Eau", "Vent", "Lumière", "Ténèbres"}
	Rarities           = []string{"SSR", "SR", "R"}
	HunterClasses      = []string{"Assassin", "Combattant", "Mage", "Tank", "Soutien", "Ranger"}
	ArtifactCategories = []string{"Armure", "Accessoire"}
	SkillTypes         = []string{"Base", "Principale", "Ultime", "Passive", "QTE"}
	CoreSlots          = []int{1, 2, 3}
	SetBonusPieces     = []int{2, 4, 8}
	TierLabels         = []string{"SSS", "SS", "S", "A", "B", "C"}
	YoutubeHosts       = []string{"youtube.com", "www.youtube.com", "m.youtube.com", "youtu.be"}
)

// Name checks a required display name: trimmed, length in [min,max] runes,
// and free of the characters < > { }.
func Name(value string, min, max int) error {
	name := strings.TrimSpace(value)
	if name == "" {
		return apperror.Validation("Le nom est requis")
	}
	n := utf8.RuneCountInString(name)
	if n < min || n > max {
		return apperror.Newf(apperror.KindValidation, "Le nom doit contenir entre %d et %d caractères", min, max)
	}
	if forbiddenChars.MatchString(name) {
		return apperror.Validation("Le nom contient des caractères interdits (< > { })")
	}
	return nil
}

// Required rejects an empty (after trimming) value
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Newf(apperror.KindValidation, "Le champ %s est requis", field)
	}
	return nil
}

// MaxLen rejects values longer than max runes. A max of zero disables the check.
func MaxLen(field, value string, max int) error {
	if max > 0 && utf8.RuneCountInString(value) > max {
		return apperror.Newf(apperror.KindValidation, "Le champ %s ne peut pas dépasser %d caractères", field, max)
	}
	return nil
}

// OneOf rejects a value outside the allowed literal set
func OneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return apperror.Newf(apperror.KindValidation, "Valeur invalide pour %s : %q (valeurs autorisées : %s)",
		field, value, strings.Join(allowed, ", "))
}

// OneOfInt is OneOf for integer enumerations such as core slots
func OneOfInt(field string, value int, allowed []int) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	parts := make([]string, len(allowed))
	for i, a := range allowed {
		parts[i] = fmt.Sprint(a)
	}
	return apperror.Newf(apperror.KindValidation, "Valeur invalide pour %s : %d (valeurs autorisées : %s)",
		field, value, strings.Join(parts, ", "))
}

// IntRange rejects values outside [min,max]
func IntRange(field string, value, min, max int) error {
	if value < min || value > max {
		return apperror.Newf(apperror.KindValidation, "Le champ %s doit être compris entre %d et %d", field, min, max)
	}
	return nil
}

// URL checks an absolute http(s) URL whose host is in hosts (any host when empty)
func URL(field, value string, hosts []string) error {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.Newf(apperror.KindValidation, "Le champ %s doit être une URL valide", field)
	}
	if len(hosts) == 0 {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range hosts {
		if host == h {
			return nil
		}
	}
	return apperror.Newf(apperror.KindValidation, "Le champ %s doit pointer vers %s", field, strings.Join(hosts, ", "))
}

// First returns the first non-nil error, letting validators read as a list of checks
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
