package main

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// renderHTML writes reports as a standalone HTML page with one table row
// per diagnostic.
func renderHTML(w io.Writer, reports []report) error {
	summary := "no problems"
	if len(reports) > 0 {
		summary = fmt.Sprintf("%d problem(s)", len(reports))
	}

	table := element(atom.Table, nil,
		element(atom.Tr, nil,
			element(atom.Th, nil, text("File")),
			element(atom.Th, nil, text("Line")),
			element(atom.Th, nil, text("Severity")),
			element(atom.Th, nil, text("Message")),
		),
	)
	for _, r := range reports {
		table.AppendChild(element(atom.Tr, class("diagnostic"),
			element(atom.Td, class("file"), text(r.File)),
			element(atom.Td, class("line"), text(strconv.Itoa(r.Line))),
			element(atom.Td, class("severity"), text(r.Severity)),
			element(atom.Td, class("message"), text(r.Message)),
		))
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html, nil,
		element(atom.Head, nil,
			element(atom.Meta, []html.Attribute{{Key: "charset", Val: "utf-8"}}),
			element(atom.Title, nil, text("remlint")),
		),
		element(atom.Body, nil,
			element(atom.H1, nil, text("remlint")),
			element(atom.P, class("summary"), text(summary)),
			table,
		),
	))
	if err := html.Render(w, doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func element(a atom.Atom, attr []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attr}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func class(name string) []html.Attribute {
	return []html.Attribute{{Key: "class", Val: name}}
}
