package currency

import "golang.org/x/text/language"

// placement is the side of the number a locale writes the currency symbol
// on, per the CLDR standard currency pattern.
type placement int

const (
	symbolPrefix       placement = iota // ¤#,##0
	symbolPrefixSpaced                  // ¤ #,##0
	symbolSuffix                        // #,##0 ¤
)

const nbsp = "\u00a0"

// Keyed by language, or language-region where a region differs.
var placements = map[string]placement{ //nolint:gochecknoglobals // lookup table
	"bg": symbolSuffix,
	"ca": symbolSuffix,
	"cs": symbolSuffix,
	"da": symbolSuffix,
	"de": symbolSuffix,
	"el": symbolSuffix,
	"es": symbolSuffix,
	"et": symbolSuffix,
	"fi": symbolSuffix,
	"fr": symbolSuffix,
	"hr": symbolSuffix,
	"hu": symbolSuffix,
	"it": symbolSuffix,
	"lt": symbolSuffix,
	"lv": symbolSuffix,
	"nb": symbolSuffix,
	"no": symbolSuffix,
	"pl": symbolSuffix,
	"pt": symbolPrefixSpaced,
	"ro": symbolSuffix,
	"ru": symbolSuffix,
	"sk": symbolSuffix,
	"sl": symbolSuffix,
	"sv": symbolSuffix,
	"uk": symbolSuffix,
	"nl": symbolPrefixSpaced,

	"de-AT":  symbolPrefixSpaced,
	"de-CH":  symbolPrefixSpaced,
	"de-LI":  symbolPrefixSpaced,
	"it-CH":  symbolPrefixSpaced,
	"pt-PT":  symbolSuffix,
	"es-MX":  symbolPrefix,
	"es-US":  symbolPrefix,
	"es-419": symbolPrefix,
}

func placementFor(tag language.Tag) placement {
	base, _ := tag.Base()
	if region, conf := tag.Region(); conf == language.Exact {
		if p, ok := placements[base.String()+"-"+region.String()]; ok {
			return p
		}
	}
	if p, ok := placements[base.String()]; ok {
		return p
	}
	return symbolPrefix
}
