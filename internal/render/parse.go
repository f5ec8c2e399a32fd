package render

import (
	"fmt"
	"strings"
)

const (
	tagOpen   = "<%"
	tagClose  = "%>"
	tagOutput = "<%="
)

// rawTag is one <% ... %> directive with its 1-based source line.
type rawTag struct {
	content string
	output  bool
	line    int
}

// segment is either literal text or a directive.
type segment struct {
	text  string
	tag   *rawTag
	isTag bool
}

// Parse splits the body into text and directive segments and builds the node
// tree. Literal template-syntax characters outside tags survive verbatim.
func Parse(body string) (*Template, error) {
	segs, err := split(body)
	if err != nil {
		return nil, err
	}
	p := &parser{segs: segs}
	nodes, err := p.block(nil)
	if err != nil {
		return nil, err
	}
	return &Template{nodes: nodes}, nil
}

func split(body string) ([]segment, error) {
	var segs []segment
	line := 1
	for len(body) > 0 {
		open := strings.Index(body, tagOpen)
		if open < 0 {
			segs = append(segs, segment{text: body})
			break
		}
		if open > 0 {
			text := body[:open]
			segs = append(segs, segment{text: text})
			line += strings.Count(text, "\n")
			body = body[open:]
		}
		tagLine := line
		output := strings.HasPrefix(body, tagOutput)
		start := len(tagOpen)
		if output {
			start = len(tagOutput)
		}
		end := strings.Index(body, tagClose)
		if end < 0 {
			return nil, fmt.Errorf("render: line %d: unterminated %q tag", tagLine, tagOpen)
		}
		content := body[start:end]
		line += strings.Count(content, "\n")
		segs = append(segs, segment{isTag: true, tag: &rawTag{
			content: strings.TrimSpace(content),
			output:  output,
			line:    tagLine,
		}})
		body = body[end+len(tagClose):]
	}
	return segs, nil
}

type parser struct {
	segs []segment
	pos  int
}

// block consumes segments until EOF or one of the stop keywords ("else",
// "end") is hit; the stop tag is left for the caller to consume.
func (p *parser) block(stop []string) ([]node, error) {
	var nodes []node
	for p.pos < len(p.segs) {
		seg := p.segs[p.pos]
		if !seg.isTag {
			nodes = append(nodes, textNode{text: seg.text})
			p.pos++
			continue
		}
		tag := seg.tag
		if tag.output {
			e, err := parseExpr(tag.content, tag.line)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, interpNode{expr: e, line: tag.line})
			p.pos++
			continue
		}
		keyword := firstWord(tag.content)
		for _, s := range stop {
			if keyword == s {
				return nodes, nil
			}
		}
		switch keyword {
		case "if":
			n, err := p.parseIf(tag)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case "for":
			n, err := p.parseFor(tag)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case "else", "end":
			return nil, fmt.Errorf("render: line %d: unexpected %q", tag.line, keyword)
		default:
			return nil, fmt.Errorf("render: line %d: unknown directive %q", tag.line, tag.content)
		}
	}
	return nodes, nil
}

func (p *parser) parseIf(tag *rawTag) (node, error) {
	cond, err := parseExpr(strings.TrimSpace(strings.TrimPrefix(tag.content, "if")), tag.line)
	if err != nil {
		return nil, err
	}
	p.pos++
	then, err := p.block([]string{"else", "end"})
	if err != nil {
		return nil, err
	}
	var elseBody []node
	term, err := p.terminator(tag)
	if err != nil {
		return nil, err
	}
	if term == "else" {
		elseBody, err = p.block([]string{"end"})
		if err != nil {
			return nil, err
		}
		if term, err = p.terminator(tag); err != nil {
			return nil, err
		}
		if term != "end" {
			return nil, fmt.Errorf("render: line %d: %q block not closed with end", tag.line, "if")
		}
	}
	return ifNode{cond: cond, then: then, elseBody: elseBody, line: tag.line}, nil
}

func (p *parser) parseFor(tag *rawTag) (node, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(tag.content, "for"))
	binding, seqSrc, ok := strings.Cut(rest, " in ")
	binding = strings.TrimSpace(binding)
	if !ok || binding == "" || !isIdent(binding) {
		return nil, fmt.Errorf("render: line %d: malformed for directive %q", tag.line, tag.content)
	}
	seq, err := parseExpr(strings.TrimSpace(seqSrc), tag.line)
	if err != nil {
		return nil, err
	}
	p.pos++
	body, err := p.block([]string{"end"})
	if err != nil {
		return nil, err
	}
	term, err := p.terminator(tag)
	if err != nil {
		return nil, err
	}
	if term != "end" {
		return nil, fmt.Errorf("render: line %d: %q block not closed with end", tag.line, "for")
	}
	return forNode{binding: binding, seq: seq, body: body, line: tag.line}, nil
}

// terminator consumes the else/end tag the preceding block stopped at.
func (p *parser) terminator(opened *rawTag) (string, error) {
	if p.pos >= len(p.segs) {
		return "", fmt.Errorf("render: line %d: block opened here is never closed", opened.line)
	}
	seg := p.segs[p.pos]
	if !seg.isTag || seg.tag.output {
		return "", fmt.Errorf("render: line %d: block opened here is never closed", opened.line)
	}
	p.pos++
	return firstWord(seg.tag.content), nil
}

func firstWord(s string) string {
	w, _, _ := strings.Cut(s, " ")
	return w
}

func isIdent(s string) bool {
	for i, r := range s {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		if i == 0 && !alpha {
			return false
		}
		if !alpha && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return s != ""
}
