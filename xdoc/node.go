package xdoc

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
)

// Node is opaque handle to a node of loaded document: document itself,
// element, attribute, text or comment. Zero value does not point anywhere.
type Node struct {
	nav *navigator
}

// DocumentNode returns handle to the document node.
func DocumentNode(doc *etree.Document) Node {
	if doc == nil {
		return Node{}
	}
	return Node{nav: &navigator{root: &doc.Element, curr: &doc.Element, attr: -1}}
}

// ElementNode returns handle to an element. Document root is found by
// following parents, so element has to be attached to a document for
// absolute expressions to work as expected.
func ElementNode(el *etree.Element) Node {
	if el == nil {
		return Node{}
	}
	root := el
	for root.Parent() != nil {
		root = root.Parent()
	}
	return Node{nav: &navigator{root: root, curr: el, attr: -1}}
}

// IsZero reports whether node handle is empty.
func (n Node) IsZero() bool {
	return n.nav == nil || n.nav.curr == nil
}

// Type returns kind of the node.
func (n Node) Type() xpath.NodeType {
	if n.IsZero() {
		return xpath.RootNode
	}
	return n.nav.NodeType()
}

// Value returns XPath string value of the node.
func (n Node) Value() string {
	if n.IsZero() {
		return ""
	}
	return n.nav.Value()
}

// Element returns element node points to. For attributes, text and comments
// it is the containing element, for document node it is the document
// element wrapper.
func (n Node) Element() *etree.Element {
	if n.IsZero() {
		return nil
	}
	if el, ok := n.nav.curr.(*etree.Element); ok {
		return el
	}
	return n.nav.curr.Parent()
}

// Same reports whether both handles point to the same node.
func (n Node) Same(o Node) bool {
	if n.IsZero() || o.IsZero() {
		return n.IsZero() && o.IsZero()
	}
	return n.nav.curr == o.nav.curr && n.nav.attr == o.nav.attr
}

// Path returns positional path of the node from the document root, e.g.
// "/catalog/book[2]/@id". It is meant for people, not for evaluation.
func (n Node) Path() string {
	if n.IsZero() {
		return ""
	}
	var (
		parts []string
		tok   = n.nav.curr
	)
	if n.nav.attr >= 0 {
		a := n.nav.attrs()[n.nav.attr]
		parts = append(parts, "@"+a.FullKey())
	}
	for tok != nil && tok != etree.Token(n.nav.root) {
		parent := tok.Parent()
		switch t := tok.(type) {
		case *etree.Element:
			parts = append(parts, stepName(parent, t))
		case *etree.CharData:
			parts = append(parts, fmt.Sprintf("text()[%d]", position(parent, tok)))
		case *etree.Comment:
			parts = append(parts, fmt.Sprintf("comment()[%d]", position(parent, tok)))
		}
		if parent == nil {
			break
		}
		tok = parent
	}
	slices.Reverse(parts)
	return "/" + strings.Join(parts, "/")
}

func (n Node) String() string {
	return n.Path()
}

func stepName(parent *etree.Element, el *etree.Element) string {
	if parent == nil {
		return el.FullTag()
	}
	var count, pos int
	for _, c := range parent.ChildElements() {
		if c.FullTag() == el.FullTag() {
			count++
			if c == el {
				pos = count
			}
		}
	}
	if count > 1 {
		return fmt.Sprintf("%s[%d]", el.FullTag(), pos)
	}
	return el.FullTag()
}

// position returns 1-based position of token among siblings of the same
// kind.
func position(parent *etree.Element, tok etree.Token) int {
	if parent == nil {
		return 1
	}
	var pos int
	for _, c := range parent.Child {
		if tokenKind(c) == tokenKind(tok) {
			pos++
		}
		if c == tok {
			break
		}
	}
	return pos
}

func tokenKind(tok etree.Token) xpath.NodeType {
	switch tok.(type) {
	case *etree.CharData:
		return xpath.TextNode
	case *etree.Comment:
		return xpath.CommentNode
	case *etree.Element:
		return xpath.ElementNode
	}
	return xpath.RootNode
}

// orderKey returns vector which sorts nodes in document order: element
// precedes its attributes, attributes precede children.
func (n Node) orderKey() []int {
	var key []int
	if n.nav.attr >= 0 {
		key = append(key, math.MinInt32+n.nav.attr)
	}
	for tok := n.nav.curr; tok != nil && tok != etree.Token(n.nav.root); tok = tok.Parent() {
		key = append(key, tok.Index())
		if tok.Parent() == nil {
			break
		}
	}
	slices.Reverse(key)
	return key
}

// navigator implements xpath.NodeNavigator on top of etree tokens. Namespace
// declarations, processing instructions and directives are invisible, as is
// text outside of document element.
type navigator struct {
	root *etree.Element
	curr etree.Token
	attr int
}

var _ xpath.NodeNavigator = (*navigator)(nil)

func (nav *navigator) attrs() []etree.Attr {
	if el, ok := nav.curr.(*etree.Element); ok {
		return el.Attr
	}
	return nil
}

func isNamespaceDecl(a *etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

// visible reports whether token takes part in navigation.
func (nav *navigator) visible(tok etree.Token) bool {
	switch tok.(type) {
	case *etree.Element, *etree.Comment:
		return true
	case *etree.CharData:
		return tok.Parent() != nav.root
	}
	return false
}

func (nav *navigator) NodeType() xpath.NodeType {
	if nav.attr >= 0 {
		return xpath.AttributeNode
	}
	switch nav.curr.(type) {
	case *etree.Element:
		if nav.curr == etree.Token(nav.root) {
			return xpath.RootNode
		}
		return xpath.ElementNode
	case *etree.CharData:
		return xpath.TextNode
	case *etree.Comment:
		return xpath.CommentNode
	}
	return xpath.RootNode
}

func (nav *navigator) LocalName() string {
	if nav.attr >= 0 {
		return nav.attrs()[nav.attr].Key
	}
	if el, ok := nav.curr.(*etree.Element); ok && nav.curr != etree.Token(nav.root) {
		return el.Tag
	}
	return ""
}

// defaultNamespacePrefix is reported for elements placed into namespace by
// xmlns="..." declaration. It is not a valid name prefix, so unprefixed name
// tests never match such elements and only prefixed ones (compared by URI)
// do.
const defaultNamespacePrefix = "#default"

func (nav *navigator) Prefix() string {
	if nav.attr >= 0 {
		return nav.attrs()[nav.attr].Space
	}
	if el, ok := nav.curr.(*etree.Element); ok && nav.curr != etree.Token(nav.root) {
		if el.Space == "" && el.NamespaceURI() != "" {
			return defaultNamespacePrefix
		}
		return el.Space
	}
	return ""
}

// NamespaceURL is used by expression evaluator to match prefixed names.
func (nav *navigator) NamespaceURL() string {
	if nav.attr >= 0 {
		a := &nav.attrs()[nav.attr]
		switch a.Space {
		case "":
			// default namespace does not apply to attributes
			return ""
		case "xml":
			return XMLNamespace
		}
		return a.NamespaceURI()
	}
	if el, ok := nav.curr.(*etree.Element); ok && nav.curr != etree.Token(nav.root) {
		if el.Space == "xml" {
			return XMLNamespace
		}
		return el.NamespaceURI()
	}
	return ""
}

func (nav *navigator) Value() string {
	if nav.attr >= 0 {
		return nav.attrs()[nav.attr].Value
	}
	switch t := nav.curr.(type) {
	case *etree.Element:
		var sb strings.Builder
		collectText(&sb, t)
		return sb.String()
	case *etree.CharData:
		return t.Data
	case *etree.Comment:
		return t.Data
	}
	return ""
}

func collectText(sb *strings.Builder, el *etree.Element) {
	for _, c := range el.Child {
		switch t := c.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			collectText(sb, t)
		}
	}
}

func (nav *navigator) Copy() xpath.NodeNavigator {
	c := *nav
	return &c
}

func (nav *navigator) MoveToRoot() {
	nav.curr = nav.root
	nav.attr = -1
}

func (nav *navigator) MoveToParent() bool {
	if nav.attr >= 0 {
		nav.attr = -1
		return true
	}
	if nav.curr == etree.Token(nav.root) {
		return false
	}
	parent := nav.curr.Parent()
	if parent == nil {
		return false
	}
	nav.curr = parent
	return true
}

func (nav *navigator) MoveToNextAttribute() bool {
	if nav.NodeType() != xpath.ElementNode && nav.NodeType() != xpath.AttributeNode {
		return false
	}
	attrs := nav.attrs()
	for i := nav.attr + 1; i < len(attrs); i++ {
		if !isNamespaceDecl(&attrs[i]) {
			nav.attr = i
			return true
		}
	}
	return false
}

func (nav *navigator) MoveToChild() bool {
	if nav.attr >= 0 {
		return false
	}
	el, ok := nav.curr.(*etree.Element)
	if !ok {
		return false
	}
	for _, c := range el.Child {
		if nav.visible(c) {
			nav.curr = c
			return true
		}
	}
	return false
}

func (nav *navigator) MoveToFirst() bool {
	if nav.attr >= 0 {
		return false
	}
	parent := nav.curr.Parent()
	if parent == nil || nav.curr == etree.Token(nav.root) {
		return false
	}
	for _, c := range parent.Child {
		if nav.visible(c) {
			nav.curr = c
			return true
		}
	}
	return false
}

func (nav *navigator) MoveToNext() bool {
	return nav.moveSibling(1)
}

func (nav *navigator) MoveToPrevious() bool {
	return nav.moveSibling(-1)
}

func (nav *navigator) moveSibling(step int) bool {
	if nav.attr >= 0 || nav.curr == etree.Token(nav.root) {
		return false
	}
	parent := nav.curr.Parent()
	if parent == nil {
		return false
	}
	for i := nav.curr.Index() + step; i >= 0 && i < len(parent.Child); i += step {
		if c := parent.Child[i]; nav.visible(c) {
			nav.curr = c
			return true
		}
	}
	return false
}

func (nav *navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*navigator)
	if !ok || o.root != nav.root {
		return false
	}
	*nav = *o
	return true
}
