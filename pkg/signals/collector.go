// Package signals reads a form control's attributes, associated label,
// surrounding text, and interaction state into a SignalBundle for scoring.
// Collection never fails: a detached or half-built element just produces
// empty signals and scores lower downstream.
package signals

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/formsense/formsense/models"
)

// maxSiblingLabelLen bounds how long a preceding sibling's text may be to
// still count as a label.
const maxSiblingLabelLen = 100

// Collector gathers signal bundles for controls within one document.
type Collector struct {
	doc  *goquery.Document
	page *PageContext
}

// NewCollector creates a collector for a document. page may be nil when no
// page-level context is wanted (tests mostly).
func NewCollector(doc *goquery.Document, page *PageContext) *Collector {
	return &Collector{doc: doc, page: page}
}

// Page returns the page context the collector was built with.
func (c *Collector) Page() *PageContext {
	return c.page
}

// Label returns just the inferred label for a control, for callers that
// report on fields without collecting a full bundle.
func (c *Collector) Label(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return c.inferLabel(sel)
}

// Collect builds the signal bundle for one control. sel must wrap a single
// input, select, or textarea node.
func (c *Collector) Collect(sel *goquery.Selection) models.SignalBundle {
	var b models.SignalBundle
	if sel == nil || sel.Length() == 0 {
		return b
	}

	b.Attributes = collectAttributes(sel)
	b.Context = c.collectContext(sel)
	b.Structure = c.collectStructure(sel)
	b.Visual = collectVisual(sel, b.Attributes)
	b.Behavioral = collectBehavioral(sel)
	return b
}

func collectAttributes(sel *goquery.Selection) models.AttributeSet {
	return models.AttributeSet{
		Name:         sel.AttrOr("name", ""),
		ID:           sel.AttrOr("id", ""),
		Class:        sel.AttrOr("class", ""),
		Placeholder:  sel.AttrOr("placeholder", ""),
		Type:         sel.AttrOr("type", ""),
		Autocomplete: sel.AttrOr("autocomplete", ""),
		AriaLabel:    sel.AttrOr("aria-label", ""),
	}
}

func (c *Collector) collectContext(sel *goquery.Selection) models.ContextSignals {
	ctx := models.ContextSignals{
		Label:      c.inferLabel(sel),
		ParentText: parentText(sel),
	}
	if c.page != nil {
		ctx.PageTitle = c.page.Title
		ctx.Headings = c.page.Headings
		ctx.SiteName = c.page.SiteName
		ctx.Language = c.page.Language
	}
	return ctx
}

// inferLabel resolves the control's label in priority order: wrapping
// <label> ancestor, label[for=id], then the nearest preceding sibling with
// short text. First match wins; "" when nothing matches.
func (c *Collector) inferLabel(sel *goquery.Selection) string {
	// (a)+(c): native association via an ancestor <label>. Nearest wins.
	if wrap := sel.Closest("label"); wrap.Length() > 0 {
		if text := textWithoutControls(wrap.Get(0)); text != "" {
			return text
		}
	}

	// (b): label[for=id] lookup.
	if id := sel.AttrOr("id", ""); id != "" && c.doc != nil {
		found := ""
		c.doc.Find("label").EachWithBreak(func(i int, lab *goquery.Selection) bool {
			if lab.AttrOr("for", "") != id {
				return true
			}
			found = textWithoutControls(lab.Get(0))
			return false
		})
		if found != "" {
			return found
		}
	}

	// (d): nearest preceding sibling whose text is short.
	if node := sel.Get(0); node != nil {
		for prev := node.PrevSibling; prev != nil; prev = prev.PrevSibling {
			var text string
			switch prev.Type {
			case html.TextNode:
				text = normalizeSpace(prev.Data)
			case html.ElementNode:
				if isFormControlNode(prev) {
					continue
				}
				text = textWithoutControls(prev)
			default:
				continue
			}
			if text == "" {
				continue
			}
			if len(text) < maxSiblingLabelLen {
				return text
			}
			// Long sibling text is context, not a label. Stop looking.
			return ""
		}
	}

	return ""
}

// parentText reads the parent's text with nested form controls stripped so
// the control's own value never echoes back as a "label".
func parentText(sel *goquery.Selection) string {
	parent := sel.Parent()
	if parent.Length() == 0 {
		return ""
	}
	text := textWithoutControls(parent.Get(0))
	if len(text) > 300 {
		text = text[:300]
	}
	return text
}

func (c *Collector) collectStructure(sel *goquery.Selection) models.StructureSignals {
	st := models.StructureSignals{TagName: goquery.NodeName(sel)}

	form := sel.Closest("form")
	if form.Length() > 0 {
		st.FormClass = form.AttrOr("class", "")
	}
	if fieldset := sel.Closest("fieldset"); fieldset.Length() > 0 {
		st.Legend = normalizeSpace(fieldset.Find("legend").First().Text())
	}
	st.Position = c.positionIndex(sel, form)
	return st
}

// positionIndex is the control's document-order index among its form's
// controls, or among all of the document's controls outside any form.
func (c *Collector) positionIndex(sel *goquery.Selection, form *goquery.Selection) int {
	scope := form
	if scope == nil || scope.Length() == 0 {
		if c.doc == nil {
			return 0
		}
		scope = c.doc.Selection
	}
	target := sel.Get(0)
	index := 0
	found := 0
	scope.Find("input, select, textarea").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if s.Get(0) == target {
			found = index
			return false
		}
		index++
		return true
	})
	return found
}

func collectVisual(sel *goquery.Selection, attrs models.AttributeSet) models.VisualSignals {
	var v models.VisualSignals
	v.Width, _ = strconv.Atoi(sel.AttrOr("width", ""))
	v.Height, _ = strconv.Atoi(sel.AttrOr("height", ""))

	if strings.EqualFold(attrs.Type, "hidden") {
		v.Hidden = true
	}
	style := strings.ToLower(sel.AttrOr("style", ""))
	if strings.Contains(style, "display:none") || strings.Contains(style, "display: none") ||
		strings.Contains(style, "visibility:hidden") || strings.Contains(style, "visibility: hidden") {
		v.Hidden = true
	}
	if _, ok := sel.Attr("hidden"); ok {
		v.Hidden = true
	}
	return v
}

func collectBehavioral(sel *goquery.Selection) models.BehavioralSignals {
	var b models.BehavioralSignals
	b.Value = sel.AttrOr("value", "")
	if goquery.NodeName(sel) == "textarea" {
		b.Value = strings.TrimSpace(sel.Text())
	}
	b.HasValue = b.Value != ""
	_, b.Required = sel.Attr("required")
	_, b.Autofocus = sel.Attr("autofocus")
	return b
}

var spaceRe = regexp.MustCompile(`\s+`)

func normalizeSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func isFormControlNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Input, atom.Select, atom.Textarea, atom.Button, atom.Option, atom.Script, atom.Style:
		return true
	}
	return false
}

// textWithoutControls concatenates the text content of a node, skipping
// form-control and script/style subtrees.
func textWithoutControls(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
			return
		}
		if isFormControlNode(node) {
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return normalizeSpace(sb.String())
}
