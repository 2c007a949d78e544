package format

import (
	"regexp"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult contains plain text and message entities
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

var (
	headerRe      = regexp.MustCompile(`(?m)^#{1,6}\s+(.+?)$`)
	boldRe        = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	codeRe        = regexp.MustCompile("`([^`]+?)`")
	starItalicRe  = regexp.MustCompile(`(?:^|[^*])\*([^*\n]+?)\*(?:[^*]|$)`)
	underItalicRe = regexp.MustCompile(`(?:^|[^_\w])_([^_\n]+?)_(?:[^_\w]|$)`)
)

// UTF16Len returns the length of s in UTF-16 code units, the unit Telegram
// uses for entity offsets.
func UTF16Len(s string) int {
	length := 0
	for _, b := range []byte(s) {
		if (b & 0xc0) != 0x80 {
			if b >= 0xf0 {
				length += 2
			} else {
				length++
			}
		}
	}
	return length
}

// ParseMarkdown converts a small Markdown subset into plain text plus
// Telegram entities:
//   - **bold** or __bold__
//   - *italic* or _italic_
//   - `code`
//   - # Header, rendered bold
//
// Underscores inside words (snake_case, user names) are left alone.
func ParseMarkdown(text string) ParseResult {
	p := &parser{text: headerRe.ReplaceAllString(text, "**$1**")}

	p.strip(boldRe, "bold")
	p.strip(codeRe, "code")
	p.stripItalic(starItalicRe)
	p.stripItalic(underItalicRe)

	sort.SliceStable(p.entities, func(i, j int) bool {
		return p.entities[i].Offset < p.entities[j].Offset
	})

	return ParseResult{
		Text:     strings.TrimRight(p.text, " \n"),
		Entities: p.entities,
	}
}

type parser struct {
	text     string
	entities []tgbotapi.MessageEntity
}

// replace swaps text[start:end] for inner, where inner sits at
// text[innerStart:innerEnd], records the entity and shifts entities recorded
// earlier so their offsets stay valid.
func (p *parser) replace(kind string, start, end, innerStart, innerEnd int) {
	startU := UTF16Len(p.text[:start])
	openU := UTF16Len(p.text[start:innerStart])
	innerU := UTF16Len(p.text[innerStart:innerEnd])
	closeU := UTF16Len(p.text[innerEnd:end])
	endU := startU + openU + innerU + closeU

	for i := range p.entities {
		e := &p.entities[i]
		switch {
		case e.Offset >= endU:
			e.Offset -= openU + closeU
		case e.Offset >= startU+openU:
			e.Offset -= openU
		case e.Offset+e.Length >= endU:
			e.Length -= openU + closeU
		}
	}

	p.entities = append(p.entities, tgbotapi.MessageEntity{
		Type:   kind,
		Offset: startU,
		Length: innerU,
	})
	p.text = p.text[:start] + p.text[innerStart:innerEnd] + p.text[end:]
}

// strip removes the markers of every match of re, where the first non-empty
// group is the inner text.
func (p *parser) strip(re *regexp.Regexp, kind string) {
	for {
		loc := re.FindStringSubmatchIndex(p.text)
		if loc == nil {
			return
		}
		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] != -1 {
				p.replace(kind, loc[0], loc[1], loc[g], loc[g+1])
				break
			}
		}
	}
}

// stripItalic handles single-character markers. The patterns consume one
// neighbouring character on each side, so the marker positions are derived
// from the inner group.
func (p *parser) stripItalic(re *regexp.Regexp) {
	from := 0
	for from < len(p.text) {
		loc := re.FindStringSubmatchIndex(p.text[from:])
		if loc == nil {
			return
		}
		innerStart, innerEnd := from+loc[2], from+loc[3]
		p.replace("italic", innerStart-1, innerEnd+1, innerStart, innerEnd)
		from = innerEnd - 1
	}
}
