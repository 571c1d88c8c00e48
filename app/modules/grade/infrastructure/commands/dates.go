package gradecommands

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var errUnparsableDate = errors.New("could not recognize date")

var slashDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})$`)

// dateParser turns command arguments into a month and day.
type dateParser struct {
	w *when.Parser
}

func newDateParser() *dateParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &dateParser{w: w}
}

// parse accepts "<month> <day>", "m/d" or a natural-language date such as
// "tomorrow", resolved against now.
func (p *dateParser) parse(args []string, now time.Time) (month, day int, err error) {
	if len(args) == 2 {
		m, errM := strconv.Atoi(args[0])
		d, errD := strconv.Atoi(args[1])
		if errM == nil && errD == nil {
			return m, d, nil
		}
	}
	if len(args) == 1 {
		if match := slashDate.FindStringSubmatch(args[0]); match != nil {
			m, _ := strconv.Atoi(match[1])
			d, _ := strconv.Atoi(match[2])
			return m, d, nil
		}
	}

	text := strings.ToLower(strings.Join(args, " "))
	if text == "" {
		return 0, 0, errUnparsableDate
	}
	r, err := p.w.Parse(text, now)
	if err != nil || r == nil {
		return 0, 0, errUnparsableDate
	}
	return int(r.Time.Month()), r.Time.Day(), nil
}
