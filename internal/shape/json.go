package shape

import (
	"encoding/json"
	"fmt"
)

// List is an ordered shape slice that round-trips through JSON with a
// "type" discriminator on every element.
type List []Shape

func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(List, 0, len(raw))
	for i, r := range raw {
		s, err := Unmarshal(r)
		if err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
		out = append(out, s)
	}
	*l = out
	return nil
}

// Unmarshal decodes a single tagged shape.
func Unmarshal(data []byte) (Shape, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	var s Shape
	switch head.Type {
	case KindRectangle:
		s = &Rectangle{}
	case KindCircle:
		s = &Circle{}
	case KindTriangle:
		s = &Triangle{}
	case KindPath, KindEraser:
		s = &Path{Erase: head.Type == KindEraser}
	case KindImage:
		s = &Image{}
	default:
		return nil, fmt.Errorf("unknown shape type %q", head.Type)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.Type, err)
	}
	return s, nil
}

func (r *Rectangle) MarshalJSON() ([]byte, error) {
	type plain Rectangle
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{r.Kind(), plain(*r)})
}

func (c *Circle) MarshalJSON() ([]byte, error) {
	type plain Circle
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{c.Kind(), plain(*c)})
}

func (t *Triangle) MarshalJSON() ([]byte, error) {
	type plain Triangle
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{t.Kind(), plain(*t)})
}

func (p *Path) MarshalJSON() ([]byte, error) {
	type plain Path
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{p.Kind(), plain(*p)})
}

func (im *Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{im.Kind(), plain(*im)})
}
