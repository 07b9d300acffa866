package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/slidecraft-project/slidecraft/pkg/utils"
)

// FieldError locates a single schema violation.
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) String() string {
	return e.Path + ": " + e.Message
}

// SchemaError reports every field-level violation found in an analysis
// payload. Any SchemaError aborts the slide: a materially malformed
// analysis cannot be rendered without misleading the user.
type SchemaError struct {
	Fields []FieldError
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return "schema validation error: " + strings.Join(msgs, "; ")
}

// Parse extracts the candidate JSON from raw model output and validates it.
func Parse(raw string) (*SlideAnalysis, error) {
	doc, err := ExtractJSON(raw)
	if err != nil {
		return nil, &SchemaError{Fields: []FieldError{{Path: "$", Message: err.Error()}}}
	}
	return Validate([]byte(doc))
}

// Validate strictly checks an analysis document: required fields, enum
// membership and numeric types. It returns *SchemaError on any violation.
func Validate(data []byte) (*SlideAnalysis, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &SchemaError{Fields: []FieldError{{Path: "$", Message: "invalid JSON: " + err.Error()}}}
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, &SchemaError{Fields: []FieldError{{Path: "$", Message: "root is not an object"}}}
	}

	v := &validator{}
	out := &SlideAnalysis{
		BackgroundColor: v.hexColor(obj, "backgroundColor", "backgroundColor", true),
		SlideTitle:      v.str(obj, "slideTitle", "slideTitle", true),
	}

	for i, el := range v.arr(obj, "textElements", true) {
		out.TextElements = append(out.TextElements, v.textElement(el, fmt.Sprintf("textElements[%d]", i)))
	}
	for i, el := range v.arr(obj, "graphicRegions", true) {
		out.GraphicRegions = append(out.GraphicRegions, v.graphicRegion(el, fmt.Sprintf("graphicRegions[%d]", i)))
	}
	for i, el := range v.arr(obj, "shapeElements", false) {
		out.ShapeElements = append(out.ShapeElements, v.shapeElement(el, fmt.Sprintf("shapeElements[%d]", i)))
	}
	for i, el := range v.arr(obj, "tableElements", false) {
		out.TableElements = append(out.TableElements, v.tableElement(el, fmt.Sprintf("tableElements[%d]", i)))
	}

	if len(v.errs) > 0 {
		return nil, &SchemaError{Fields: v.errs}
	}
	return out, nil
}

type validator struct {
	errs []FieldError
}

func (v *validator) fail(path, msg string) {
	v.errs = append(v.errs, FieldError{Path: path, Message: msg})
}

func (v *validator) str(obj map[string]any, key, path string, required bool) string {
	raw, present := obj[key]
	if !present || raw == nil {
		if required {
			v.fail(path, "required string is missing")
		}
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		v.fail(path, "must be a string")
		return ""
	}
	return s
}

func (v *validator) num(obj map[string]any, key, path string, required bool) float64 {
	raw, present := obj[key]
	if !present || raw == nil {
		if required {
			v.fail(path, "required number is missing")
		}
		return 0
	}
	n, ok := raw.(float64)
	if !ok {
		v.fail(path, "must be a number")
		return 0
	}
	return n
}

func (v *validator) intAt(obj map[string]any, key, path string) int {
	raw, present := obj[key]
	if !present || raw == nil {
		return 0
	}
	n, ok := raw.(float64)
	if !ok || n != math.Trunc(n) || n < 0 {
		v.fail(path, "must be a non-negative integer")
		return 0
	}
	return int(n)
}

func (v *validator) arr(obj map[string]any, key string, required bool) []any {
	raw, present := obj[key]
	if !present || raw == nil {
		if required {
			v.fail(key, "required array is missing")
		}
		return nil
	}
	a, ok := raw.([]any)
	if !ok {
		v.fail(key, "must be an array")
		return nil
	}
	return a
}

func (v *validator) obj(el any, path string) map[string]any {
	obj, ok := el.(map[string]any)
	if !ok {
		v.fail(path, "must be an object")
		return nil
	}
	return obj
}

// hexColor accepts exactly six hex digits with no '#' prefix and
// normalizes to upper case.
func (v *validator) hexColor(obj map[string]any, key, path string, required bool) string {
	s := v.str(obj, key, path, required)
	if s == "" {
		return ""
	}
	if !IsHexColor(s) {
		v.fail(path, fmt.Sprintf("%q is not a 6-hex-digit color", s))
		return ""
	}
	return strings.ToUpper(s)
}

// IsHexColor reports whether s is exactly six hex digits, no '#'.
// Three-digit shorthand is rejected even though colorful accepts it.
func IsHexColor(s string) bool {
	if len(s) != 6 {
		return false
	}
	if _, err := colorful.Hex("#" + s); err != nil {
		return false
	}
	return true
}

func (v *validator) enum(obj map[string]any, key, path string, allowed []string, required bool) string {
	s := v.str(obj, key, path, required)
	if s == "" {
		return ""
	}
	if utils.Contains(allowed, s) {
		return s
	}
	v.fail(path, fmt.Sprintf("%q is not one of %s", s, strings.Join(allowed, "|")))
	return ""
}

func (v *validator) box(obj map[string]any, path string) Box {
	return Box{
		X:      v.num(obj, "x", path+".x", true),
		Y:      v.num(obj, "y", path+".y", true),
		Width:  v.num(obj, "width", path+".width", true),
		Height: v.num(obj, "height", path+".height", true),
	}
}

var (
	fontWeights = []string{"light", "normal", "medium", "bold", "black"}
	fontStyles  = []string{"serif", "sans-serif"}
	aligns      = []string{"left", "center", "right"}
	valigns     = []string{"top", "middle", "bottom"}
	roles       = []string{"title", "subtitle", "body", "footer", "logo"}
	shapeTypes  = []string{
		"rect", "roundRect", "ellipse", "triangle", "line", "arrow",
		"rightArrow", "leftArrow", "upArrow", "downArrow",
	}
)

func (v *validator) textElement(el any, path string) TextElement {
	obj := v.obj(el, path)
	if obj == nil {
		return TextElement{}
	}
	return TextElement{
		Content:     v.str(obj, "content", path+".content", true),
		Box:         v.box(obj, path),
		FontSize:    v.num(obj, "fontSize", path+".fontSize", true),
		FontWeight:  FontWeight(v.enum(obj, "fontWeight", path+".fontWeight", fontWeights, true)),
		FontStyle:   FontStyle(v.enum(obj, "fontStyle", path+".fontStyle", fontStyles, true)),
		Color:       v.hexColor(obj, "color", path+".color", true),
		Align:       Align(v.enum(obj, "align", path+".align", aligns, true)),
		Role:        Role(v.enum(obj, "role", path+".role", roles, true)),
		IndentLevel: v.intAt(obj, "indentLevel", path+".indentLevel"),
	}
}

func (v *validator) graphicRegion(el any, path string) GraphicRegion {
	obj := v.obj(el, path)
	if obj == nil {
		return GraphicRegion{}
	}
	return GraphicRegion{
		Description: v.str(obj, "description", path+".description", true),
		Box:         v.box(obj, path),
	}
}

func (v *validator) shapeElement(el any, path string) ShapeElement {
	obj := v.obj(el, path)
	if obj == nil {
		return ShapeElement{}
	}
	se := ShapeElement{
		Type:         ShapeType(v.enum(obj, "type", path+".type", shapeTypes, true)),
		Box:          v.box(obj, path),
		FillColor:    v.hexColor(obj, "fillColor", path+".fillColor", false),
		LineColor:    v.hexColor(obj, "lineColor", path+".lineColor", false),
		LineWidth:    v.num(obj, "lineWidth", path+".lineWidth", false),
		Rotate:       v.num(obj, "rotate", path+".rotate", false),
		CornerRadius: v.num(obj, "cornerRadius", path+".cornerRadius", false),
	}
	if raw, present := obj["text"]; present && raw != nil {
		tobj := v.obj(raw, path+".text")
		if tobj != nil {
			se.Text = &ShapeText{
				Content:    v.str(tobj, "content", path+".text.content", true),
				Color:      v.hexColor(tobj, "color", path+".text.color", false),
				FontSize:   v.num(tobj, "fontSize", path+".text.fontSize", false),
				FontWeight: FontWeight(v.enum(tobj, "fontWeight", path+".text.fontWeight", fontWeights, false)),
				Align:      Align(v.enum(tobj, "align", path+".text.align", aligns, false)),
				VAlign:     VAlign(v.enum(tobj, "valign", path+".text.valign", valigns, false)),
			}
		}
	}
	return se
}

func (v *validator) tableElement(el any, path string) TableElement {
	obj := v.obj(el, path)
	if obj == nil {
		return TableElement{}
	}
	te := TableElement{
		Box:         v.box(obj, path),
		RowsJSON:    v.str(obj, "rowsJson", path+".rowsJson", true),
		FontSize:    v.num(obj, "fontSize", path+".fontSize", false),
		BorderColor: v.hexColor(obj, "borderColor", path+".borderColor", false),
		HeaderRows:  v.intAt(obj, "headerRows", path+".headerRows"),
	}
	if raw, present := obj["rowHeights"]; present && raw != nil {
		a, ok := raw.([]any)
		if !ok {
			v.fail(path+".rowHeights", "must be an array of numbers")
		} else {
			for i, h := range a {
				n, ok := h.(float64)
				if !ok {
					v.fail(fmt.Sprintf("%s.rowHeights[%d]", path, i), "must be a number")
					continue
				}
				te.RowHeights = append(te.RowHeights, n)
			}
		}
	}
	return te
}
