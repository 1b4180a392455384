package msbuild

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// element is the subset of an XML element the evaluator needs. Names drop
// their namespace so both legacy (xmlns) and SDK-style projects look alike.
type element struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Line     int
	Children []*element
}

func (el *element) attr(name string) string {
	return el.Attrs[name]
}

type document struct {
	Path string
	Root *element
}

func loadDocument(path string) (*document, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError("open", path, 0, ErrProjectNotFound, "%s", path)
		}
		return nil, &ResolveError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	return parseDocument(path, f)
}

func parseDocument(path string, r io.Reader) (*document, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	var (
		root  *element
		stack []*element
		text  strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			return nil, newError("parse", path, line, ErrInvalidProject, "%v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := dec.InputPos()
			el := &element{
				Name:  t.Name.Local,
				Attrs: make(map[string]string, len(t.Attr)),
				Line:  line,
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, newError("parse", path, line, ErrInvalidProject, "multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
			text.Reset()

		case xml.CharData:
			text.Write(t)

		case xml.EndElement:
			el := stack[len(stack)-1]
			if len(el.Children) == 0 {
				el.Text = strings.TrimSpace(text.String())
			}
			stack = stack[:len(stack)-1]
			text.Reset()
		}
	}

	if root == nil {
		return nil, newError("parse", path, 0, ErrInvalidProject, "empty document")
	}
	if root.Name != "Project" {
		return nil, newError("parse", path, root.Line, ErrInvalidProject,
			"%s", fmt.Sprintf("root element is <%s>, expected <Project>", root.Name))
	}

	return &document{Path: path, Root: root}, nil
}
