package documents

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// FilingPath builds the storage path documents/<category>/<yyyy>/<mm>/<client>/<file>.
// Missing parts fall back to the general category and the "sem-cliente" folder.
func FilingPath(category, clientID, fileName string, at time.Time) string {
	if category == "" {
		category = CategoryGeneral
	}

	if clientID == "" {
		clientID = "sem-cliente"
	}

	if fileName == "" {
		fileName = fmt.Sprintf("documento-%d.txt", at.Unix())
	}

	return path.Join(
		"documents",
		slug(category),
		fmt.Sprintf("%04d", at.Year()),
		fmt.Sprintf("%02d", int(at.Month())),
		slug(clientID),
		path.Base(fileName),
	)
}

func slug(value string) string {
	value = Fold(strings.TrimSpace(value))

	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, value)
}
