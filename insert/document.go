// Package insert puts resolved fragments into XML documents on disk.
package insert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
	sprig "github.com/go-task/slim-sprig/v3"
	"go.uber.org/zap"

	"importmore/common"
	"importmore/config"
	"importmore/flow"
	"importmore/xdoc"
)

// wrapper holds parsed fragment together with namespace declarations in
// scope at the insert location.
const wrapperTag = "importmore-fragment"

// Document is an XML file fragments are inserted into. It implements
// flow.Inserter.
type Document struct {
	path string
	doc  *etree.Document
	log  *zap.Logger
	// bindings for insert location expressions, see UseNamespaces
	ns xdoc.Namespaces

	nextEditable string
	modified     bool
}

var _ flow.Inserter = (*Document)(nil)

// Open reads and parses target document.
func Open(path string, log *zap.Logger) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read target document: %w", err)
	}
	doc, err := xdoc.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse target document %q: %w", path, err)
	}
	return &Document{path: path, doc: doc, log: log.Named("insert")}, nil
}

// UseNamespaces makes bindings available to insert location expressions in
// addition to prefixes declared on the document element. Given bindings win
// over declarations with the same prefix. Elements in default namespace of
// the document can only be located through a bound prefix.
func (d *Document) UseNamespaces(ns xdoc.Namespaces) { d.ns = ns }

// Path returns name of the underlying file.
func (d *Document) Path() string { return d.path }

// Modified reports whether anything was inserted.
func (d *Document) Modified() bool { return d.modified }

// NextEditable returns path of the first empty element of the last inserted
// fragment when it was requested, empty string otherwise.
func (d *Document) NextEditable() string { return d.nextEditable }

// InsertOrReplace parses fragment in the namespace context of the node
// args.Location selects and inserts it at requested position. With
// RemoveSelection located node is replaced and position is ignored.
func (d *Document) InsertOrReplace(ctx context.Context, fragment string, args flow.InsertArgs) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	position := args.Position
	if position == "" {
		position = common.InsertPositionInsideLast
	}
	if !position.IsValid() {
		return fmt.Errorf("insert position %q: %w", position, common.ErrInvalidInsertPosition)
	}

	target, err := d.locate(args.Location)
	if err != nil {
		return err
	}
	tokens, err := parseFragment(fragment, target)
	if err != nil {
		return err
	}
	if args.RemoveSelection {
		position = common.InsertPositionBefore
	}
	if !position.Inside() && target.Parent() == &d.doc.Element {
		n := countElements(tokens)
		if n > 0 && !(args.RemoveSelection && n == 1) {
			return fmt.Errorf("unable to insert %s document element: only one root element is allowed", position)
		}
	}

	switch position {
	case common.InsertPositionInsideFirst:
		for i, t := range tokens {
			target.InsertChildAt(i, t)
		}
	case common.InsertPositionInsideLast:
		for _, t := range tokens {
			target.AddChild(t)
		}
	case common.InsertPositionBefore, common.InsertPositionAfter:
		parent, idx := target.Parent(), target.Index()
		if position == common.InsertPositionAfter {
			idx++
		}
		for i, t := range tokens {
			parent.InsertChildAt(idx+i, t)
		}
	default:
		return fmt.Errorf("insert position %q: %w", position, common.ErrInvalidInsertPosition)
	}

	if args.RemoveSelection {
		if parent := target.Parent(); parent != nil {
			parent.RemoveChild(target)
		}
		if d.doc.Root() == nil {
			return errors.New("replacement left document without root element")
		}
	}

	d.modified = true
	d.nextEditable = ""
	if args.GoToNextEditable {
		if el := firstEditable(tokens); el != nil {
			d.nextEditable = xdoc.ElementNode(el).Path()
		}
	}

	d.log.Debug("Fragment inserted",
		zap.String("location", args.Location),
		zap.Stringer("position", position),
		zap.Bool("replaced", args.RemoveSelection),
		zap.Int("tokens", len(tokens)),
		zap.String("next_editable", d.nextEditable))
	return nil
}

// locate finds element expression selects. Namespace declarations of the
// root element and bindings given to UseNamespaces are available to the
// expression. Empty expression selects document element.
func (d *Document) locate(expression string) (*etree.Element, error) {
	root := d.doc.Root()
	if strings.TrimSpace(expression) == "" {
		return root, nil
	}
	ns, err := locationNamespaces(root, d.ns)
	if err != nil {
		return nil, err
	}
	nodes, err := xdoc.Select(xdoc.DocumentNode(d.doc), expression, ns)
	if err != nil {
		return nil, fmt.Errorf("unable to locate insert position: %w", err)
	}
	for _, n := range nodes {
		if el := n.Element(); el != nil && el != &d.doc.Element && n.Type() == xpath.ElementNode {
			return el, nil
		}
	}
	return nil, fmt.Errorf("insert location %q does not select any element", expression)
}

// locationNamespaces merges prefixed namespace declarations of element with
// explicit bindings, the latter take precedence.
func locationNamespaces(el *etree.Element, explicit xdoc.Namespaces) (xdoc.Namespaces, error) {
	var prefixes, uris []string
	for _, b := range explicit.Bindings() {
		prefixes = append(prefixes, b.Prefix)
		uris = append(uris, b.URI)
	}
	for _, a := range el.Attr {
		if a.Space != "xmlns" {
			continue
		}
		if _, ok := explicit.Lookup(a.Key); ok {
			continue
		}
		prefixes = append(prefixes, a.Key)
		uris = append(uris, a.Value)
	}
	return xdoc.NewNamespaces(prefixes, uris)
}

// inScopeDeclarations collects namespace declarations visible at element,
// inner declarations shadow outer ones.
func inScopeDeclarations(el *etree.Element) []etree.Attr {
	var (
		decls []etree.Attr
		seen  = make(map[string]struct{})
	)
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if !(a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")) {
				continue
			}
			key := a.FullKey()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			decls = append(decls, a)
		}
	}
	return decls
}

// parseFragment parses fragment as content of the element having the same
// namespace declarations as target, so prefixes resolve identically once
// inserted.
func parseFragment(fragment string, target *etree.Element) ([]etree.Token, error) {
	var sb strings.Builder
	sb.WriteString("<" + wrapperTag)
	for _, a := range inScopeDeclarations(target) {
		var val bytes.Buffer
		xmlEscape(&val, a.Value)
		fmt.Fprintf(&sb, ` %s="%s"`, a.FullKey(), val.String())
	}
	sb.WriteString(">")
	sb.WriteString(fragment)
	sb.WriteString("</" + wrapperTag + ">")

	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromString(sb.String()); err != nil {
		return nil, &xdoc.XMLError{Err: fmt.Errorf("fragment is not well-formed: %w", err)}
	}
	wrapper := doc.Root()
	if wrapper == nil || wrapper.Tag != wrapperTag {
		return nil, &xdoc.XMLError{Err: errors.New("fragment is not well-formed")}
	}
	if err := checkBound(wrapper); err != nil {
		return nil, &xdoc.XMLError{Err: err}
	}
	return append([]etree.Token(nil), wrapper.Child...), nil
}

// checkBound makes sure every prefix used in fragment is declared.
func checkBound(el *etree.Element) error {
	for _, c := range el.ChildElements() {
		if c.Space != "" && c.Space != "xml" && c.Space != "xmlns" && c.NamespaceURI() == "" {
			return fmt.Errorf("element %s: namespace prefix %q is not declared", c.FullTag(), c.Space)
		}
		for _, a := range c.Attr {
			if a.Space != "" && a.Space != "xml" && a.Space != "xmlns" && a.NamespaceURI() == "" {
				return fmt.Errorf("attribute %s: namespace prefix %q is not declared", a.FullKey(), a.Space)
			}
		}
		if err := checkBound(c); err != nil {
			return err
		}
	}
	return nil
}

func xmlEscape(buf *bytes.Buffer, s string) {
	r := strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `"`, "&quot;")
	buf.WriteString(r.Replace(s))
}

func countElements(tokens []etree.Token) (n int) {
	for _, t := range tokens {
		if _, ok := t.(*etree.Element); ok {
			n++
		}
	}
	return n
}

// firstEditable returns first element in document order which has neither
// child elements nor text.
func firstEditable(tokens []etree.Token) *etree.Element {
	for _, t := range tokens {
		el, ok := t.(*etree.Element)
		if !ok {
			continue
		}
		if len(el.ChildElements()) == 0 && strings.TrimSpace(el.Text()) == "" {
			return el
		}
		if found := firstEditable(el.Child); found != nil {
			return found
		}
	}
	return nil
}

// Serialize returns document as text.
func (d *Document) Serialize() (string, error) {
	return d.doc.WriteToString()
}

// Save writes document back, making backup copy of the original first when
// configured.
func (d *Document) Save(cfg *config.TargetConfig) (backup string, err error) {
	if cfg != nil && cfg.Backup {
		if backup, err = d.backup(cfg.BackupNameTemplate); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	if _, err := d.doc.WriteTo(&buf); err != nil {
		return backup, fmt.Errorf("unable to serialize document: %w", err)
	}
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return backup, fmt.Errorf("unable to write document: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		os.Remove(tmp)
		return backup, fmt.Errorf("unable to replace document: %w", err)
	}
	d.log.Info("Document saved", zap.String("path", d.path), zap.String("backup", backup))
	return backup, nil
}

// BackupValues are available to backup name template.
type BackupValues struct {
	// Base name without extension.
	Name string
	// Extension including leading dot.
	Ext string
	Dir string
}

// BackupName expands backup name template for document path.
func BackupName(field, path string) (string, error) {
	tmpl, err := template.New(string(config.BackupNameTemplateFieldName)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", config.BackupNameTemplateFieldName, err)
	}

	ext := filepath.Ext(path)
	values := BackupValues{
		Name: strings.TrimSuffix(filepath.Base(path), ext),
		Ext:  ext,
		Dir:  filepath.Dir(path),
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	name := config.CleanFileName(strings.TrimSpace(buf.String()))
	if name == "" || name == filepath.Base(path) {
		return "", fmt.Errorf("backup name %q is not usable", name)
	}
	return filepath.Join(values.Dir, name), nil
}

func (d *Document) backup(field string) (string, error) {
	name, err := BackupName(field, d.path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(d.path)
	if err != nil {
		return "", fmt.Errorf("unable to read original for backup: %w", err)
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return "", fmt.Errorf("unable to write backup: %w", err)
	}
	return name, nil
}
