package main

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// goScalar is the builtin Go type backing a WireKind; every wire-mapped
// field is encoded via an identity conversion through it, so a named
// type (Mark, backed by uint8) and the builtin itself share one
// read/write closure shape.
var goScalar = map[string]string{
	"Bool":   "bool",
	"U8":     "uint8",
	"U32":    "uint32",
	"U64":    "uint64",
	"I32":    "int32",
	"I64":    "int64",
	"F32":    "float32",
	"F64":    "float64",
	"String": "string",
}

type tmplField struct {
	Name     string
	Type     string
	ElemType string
	ArrayLen int
	WriteFn  string
	ReadFn   string
}

func scalarFns(goType, wireKind string) (write, read string) {
	basic := goScalar[wireKind]
	write = fmt.Sprintf("func(w *wire.Writer, v %s) { w.Write%s(%s(v)) }", goType, wireKind, basic)
	read = fmt.Sprintf("func(r *wire.Reader) (%s, error) { v, err := r.Read%s(); return %s(v), err }", goType, wireKind, goType)
	return write, read
}

type tmplData struct {
	Package    string
	PlayerType string
	RoomType   string
	MaxPlayers int

	PlayerPlain   []tmplField // name, disconnected, private, scalar
	RoomScalar    []tmplField
	RoomArray     []tmplField
	RoomNullable  []tmplField
	PlayersField  tmplField
	PrivateFields []tmplField

	// NameField/DisconnectedField/HostField carry the tagged field's
	// actual discovered identifier, the same way PlayersField does, so
	// NewSchema's accessor closures bind to whatever the schema author
	// named the field rather than to a literal "Name"/"Disconnected"/
	// "Host".
	NameField         tmplField
	DisconnectedField tmplField
	HostField         tmplField
}

func buildTmplData(sc *schema) (*tmplData, error) {
	d := &tmplData{
		Package:    sc.Package,
		PlayerType: sc.PlayerType,
		RoomType:   sc.RoomType,
		MaxPlayers: sc.MaxPlayers,
	}

	for _, f := range sc.PlayerFields {
		switch f.Kind {
		case kindName:
			tf := tmplField{Name: f.Name, Type: f.Type}
			d.PlayerPlain = append(d.PlayerPlain, tf)
			d.NameField = tf
		case kindDisconnected:
			write, read := scalarFns(f.Type, f.WireKind)
			tf := tmplField{Name: f.Name, Type: f.Type, WriteFn: write, ReadFn: read}
			d.PlayerPlain = append(d.PlayerPlain, tf)
			d.DisconnectedField = tf
		case kindPrivate, kindScalar:
			write, read := scalarFns(f.Type, f.WireKind)
			tf := tmplField{Name: f.Name, Type: f.Type, WriteFn: write, ReadFn: read}
			d.PlayerPlain = append(d.PlayerPlain, tf)
			if f.Kind == kindPrivate {
				d.PrivateFields = append(d.PrivateFields, tf)
			}
		default:
			return nil, fmt.Errorf("unexpected player field kind for %s", f.Name)
		}
	}

	for _, f := range sc.RoomFields {
		switch f.Kind {
		case kindHost:
			write, read := scalarFns("uint8", "U8")
			tf := tmplField{Name: f.Name, Type: f.Type, WriteFn: write, ReadFn: read}
			d.RoomScalar = append(d.RoomScalar, tf)
			d.HostField = tf
		case kindPlayers:
			d.PlayersField = tmplField{Name: f.Name, Type: f.Type, ElemType: f.ElemType}
		case kindArray:
			write, read := scalarFns(f.ElemType, f.WireKind)
			d.RoomArray = append(d.RoomArray, tmplField{Name: f.Name, Type: f.Type, ElemType: f.ElemType, ArrayLen: f.ArrayLen, WriteFn: write, ReadFn: read})
		case kindNullable:
			write, read := scalarFns(f.ElemType, f.WireKind)
			d.RoomNullable = append(d.RoomNullable, tmplField{Name: f.Name, Type: f.Type, ElemType: f.ElemType, WriteFn: write, ReadFn: read})
		case kindScalar:
			write, read := scalarFns(f.Type, f.WireKind)
			d.RoomScalar = append(d.RoomScalar, tmplField{Name: f.Name, Type: f.Type, WriteFn: write, ReadFn: read})
		default:
			return nil, fmt.Errorf("unexpected room field kind for %s", f.Name)
		}
	}

	if d.PlayersField.Name == "" {
		return nil, fmt.Errorf("room struct has no roomforge:\"players\" field")
	}
	return d, nil
}

const genTemplate = `// Code generated by roomgen. DO NOT EDIT.
//
// Source: {{.SourceFile}}

package {{.Package}}

import (
	"github.com/tidegate/roomforge/internal/gameroom"
	"github.com/tidegate/roomforge/internal/opt"
	"github.com/tidegate/roomforge/internal/protocol"
	"github.com/tidegate/roomforge/internal/util/clone"
	"github.com/tidegate/roomforge/internal/wire"
)

// PlayerOpt is the opt companion of {{.PlayerType}}.
type PlayerOpt struct {
{{- range .PlayerPlain}}
	{{.Name}} *{{.Type}}
{{- end}}
}

// RoomOpt is the opt companion of {{.RoomType}}.
type RoomOpt struct {
{{- range .RoomScalar}}
	{{.Name}} *{{.Type}}
{{- end}}
	{{.PlayersField.Name}} []*opt.Slot[PlayerOpt]
{{- range .RoomArray}}
	{{.Name}} []*{{.ElemType}}
{{- end}}
{{- range .RoomNullable}}
	{{.Name}} *opt.Slot[{{.ElemType}}]
{{- end}}
}

func (p {{.PlayerType}}) Clone() {{.PlayerType}} { return p }

func (r {{.RoomType}}) Clone() {{.RoomType}} {
	return {{.RoomType}}{
{{- range .RoomScalar}}
		{{.Name}}: r.{{.Name}},
{{- end}}
		{{.PlayersField.Name}}: clone.DeepSlice(r.{{.PlayersField.Name}}),
{{- range .RoomArray}}
		{{.Name}}: append([]{{.ElemType}}(nil), r.{{.Name}}...),
{{- end}}
{{- range .RoomNullable}}
		{{.Name}}: clone.TrivialPtr(r.{{.Name}}),
{{- end}}
	}
}

func diffPlayer(a, b {{.PlayerType}}) *PlayerOpt {
	var out PlayerOpt
	changed := false
{{- range .PlayerPlain}}
	if d := opt.DiffScalar(a.{{.Name}}, b.{{.Name}}); d != nil {
		out.{{.Name}} = d
		changed = true
	}
{{- end}}
	if !changed {
		return nil
	}
	return &out
}

func applyPlayer(dst *{{.PlayerType}}, d PlayerOpt) {
{{- range .PlayerPlain}}
	opt.ApplyScalar(&dst.{{.Name}}, d.{{.Name}})
{{- end}}
}

func intoPlayer(a {{.PlayerType}}) PlayerOpt {
	return PlayerOpt{
{{- range .PlayerPlain}}
		{{.Name}}: &a.{{.Name}},
{{- end}}
	}
}

func fromPlayer(d PlayerOpt) {{.PlayerType}} {
	var p {{.PlayerType}}
{{- range .PlayerPlain}}
	if d.{{.Name}} != nil {
		p.{{.Name}} = *d.{{.Name}}
	}
{{- end}}
	return p
}

func diffRoom(a, b {{.RoomType}}) *RoomOpt {
	var out RoomOpt
	changed := false
{{- range .RoomScalar}}
	if d := opt.DiffScalar(a.{{.Name}}, b.{{.Name}}); d != nil {
		out.{{.Name}} = d
		changed = true
	}
{{- end}}
	if d := opt.DiffSeq(a.{{.PlayersField.Name}}, b.{{.PlayersField.Name}}, diffPlayer, intoPlayer); d != nil {
		out.{{.PlayersField.Name}} = d
		changed = true
	}
{{- range .RoomArray}}
	if d := opt.DiffArray(a.{{.Name}}, b.{{.Name}}); d != nil {
		out.{{.Name}} = d
		changed = true
	}
{{- end}}
{{- range .RoomNullable}}
	if d := opt.DiffSlot(a.{{.Name}}, b.{{.Name}}, opt.DiffScalar[{{.ElemType}}], func(v {{.ElemType}}) {{.ElemType}} { return v }); d != nil {
		out.{{.Name}} = d
		changed = true
	}
{{- end}}
	if !changed {
		return nil
	}
	return &out
}

func applyRoom(dst *{{.RoomType}}, d RoomOpt) {
{{- range .RoomScalar}}
	opt.ApplyScalar(&dst.{{.Name}}, d.{{.Name}})
{{- end}}
	opt.ApplySeq(dst.{{.PlayersField.Name}}, d.{{.PlayersField.Name}}, applyPlayer, fromPlayer)
{{- range .RoomArray}}
	opt.ApplyArray(dst.{{.Name}}, d.{{.Name}})
{{- end}}
{{- range .RoomNullable}}
	opt.ApplySlot(&dst.{{.Name}}, d.{{.Name}}, func(dst *{{.ElemType}}, v {{.ElemType}}) { *dst = v }, func(v {{.ElemType}}) {{.ElemType}} { return v })
{{- end}}
}

func intoOptRoom(a {{.RoomType}}) RoomOpt {
	return RoomOpt{
{{- range .RoomScalar}}
		{{.Name}}: &a.{{.Name}},
{{- end}}
		{{.PlayersField.Name}}: opt.IntoOptSeq(a.{{.PlayersField.Name}}, intoPlayer),
{{- range .RoomArray}}
		{{.Name}}: opt.IntoOptArray(a.{{.Name}}),
{{- end}}
{{- range .RoomNullable}}
		{{.Name}}: opt.IntoOptSlot(a.{{.Name}}, func(v {{.ElemType}}) {{.ElemType}} { return v }),
{{- end}}
	}
}

func fromOptRoom(d RoomOpt) {{.RoomType}} {
	var out {{.RoomType}}
{{- range .RoomScalar}}
	if d.{{.Name}} != nil {
		out.{{.Name}} = *d.{{.Name}}
	}
{{- end}}
	out.{{.PlayersField.Name}} = opt.FromOptSeq({{.MaxPlayers}}, d.{{.PlayersField.Name}}, fromPlayer)
{{- range .RoomArray}}
	out.{{.Name}} = opt.FromOptArray({{.ArrayLen}}, d.{{.Name}})
{{- end}}
{{- range .RoomNullable}}
	out.{{.Name}} = opt.FromOptSlot(d.{{.Name}}, func(v {{.ElemType}}) {{.ElemType}} { return v })
{{- end}}
	return out
}

func writeName(w *wire.Writer, n protocol.Name) { w.WriteRaw(n[:]) }

func readName(r *wire.Reader) (protocol.Name, error) {
	var n protocol.Name
	raw, err := r.ReadRaw(protocol.NameLen)
	if err != nil {
		return n, err
	}
	copy(n[:], raw)
	return n, nil
}

func writePlayerOpt(w *wire.Writer, p PlayerOpt) {
{{- range .PlayerPlain}}
{{- if eq .Type "protocol.Name"}}
	wire.WriteOption(w, p.{{.Name}}, writeName)
{{- else}}
	wire.WriteOption(w, p.{{.Name}}, {{.WriteFn}})
{{- end}}
{{- end}}
}

func readPlayerOpt(r *wire.Reader) (PlayerOpt, error) {
	var out PlayerOpt
	var err error
{{- range .PlayerPlain}}
{{- if eq .Type "protocol.Name"}}
	out.{{.Name}}, err = wire.ReadOption(r, readName)
{{- else}}
	out.{{.Name}}, err = wire.ReadOption(r, {{.ReadFn}})
{{- end}}
	if err != nil {
		return PlayerOpt{}, err
	}
{{- end}}
	return out, nil
}

// WriteRoomOpt encodes a {{.RoomType}} delta.
func WriteRoomOpt(w *wire.Writer, o RoomOpt) {
{{- range .RoomScalar}}
	wire.WriteOption(w, o.{{.Name}}, {{.WriteFn}})
{{- end}}
	if o.{{.PlayersField.Name}} == nil {
		w.WriteBool(false)
	} else {
		w.WriteBool(true)
		for _, slot := range o.{{.PlayersField.Name}} {
			wire.WriteOption(w, slot, func(w *wire.Writer, s opt.Slot[PlayerOpt]) {
				w.WriteBool(s.Present)
				if s.Present {
					writePlayerOpt(w, s.Value)
				}
			})
		}
	}
{{- range .RoomArray}}
	if o.{{.Name}} == nil {
		w.WriteBool(false)
	} else {
		w.WriteBool(true)
		for _, c := range o.{{.Name}} {
			wire.WriteOption(w, c, {{.WriteFn}})
		}
	}
{{- end}}
{{- range .RoomNullable}}
	wire.WriteOption(w, o.{{.Name}}, func(w *wire.Writer, s opt.Slot[{{.ElemType}}]) {
		w.WriteBool(s.Present)
		if s.Present {
			{{.WriteFn}}(w, s.Value)
		}
	})
{{- end}}
}

// ReadRoomOpt decodes a {{.RoomType}} delta.
func ReadRoomOpt(r *wire.Reader) (RoomOpt, error) {
	var o RoomOpt
	var err error
{{- range .RoomScalar}}
	o.{{.Name}}, err = wire.ReadOption(r, {{.ReadFn}})
	if err != nil {
		return o, err
	}
{{- end}}

	present, err := r.ReadBool()
	if err != nil {
		return o, err
	}
	if present {
		players := make([]*opt.Slot[PlayerOpt], {{.MaxPlayers}})
		for i := 0; i < {{.MaxPlayers}}; i++ {
			slot, err := wire.ReadOption(r, func(r *wire.Reader) (opt.Slot[PlayerOpt], error) {
				present, err := r.ReadBool()
				if err != nil {
					return opt.Slot[PlayerOpt]{}, err
				}
				if !present {
					return opt.Slot[PlayerOpt]{Present: false}, nil
				}
				p, err := readPlayerOpt(r)
				return opt.Slot[PlayerOpt]{Present: true, Value: p}, err
			})
			if err != nil {
				return o, err
			}
			players[i] = slot
		}
		o.{{.PlayersField.Name}} = players
	}
{{range .RoomArray}}
	present, err = r.ReadBool()
	if err != nil {
		return o, err
	}
	if present {
		vs := make([]*{{.ElemType}}, {{.ArrayLen}})
		for i := 0; i < {{.ArrayLen}}; i++ {
			c, err := wire.ReadOption(r, {{.ReadFn}})
			if err != nil {
				return o, err
			}
			vs[i] = c
		}
		o.{{.Name}} = vs
	}
{{end}}
{{- range .RoomNullable}}
	o.{{.Name}}, err = wire.ReadOption(r, func(r *wire.Reader) (opt.Slot[{{.ElemType}}], error) {
		present, err := r.ReadBool()
		if err != nil {
			return opt.Slot[{{.ElemType}}]{}, err
		}
		if !present {
			return opt.Slot[{{.ElemType}}]{Present: false}, nil
		}
		v, err := {{.ReadFn}}(r)
		return opt.Slot[{{.ElemType}}]{Present: true, Value: v}, err
	})
	if err != nil {
		return o, err
	}
{{- end}}
	return o, nil
}

// ReadServerGameEvent decodes the (empty) server game event payload; used
// by clients decoding ServerMessage, not by gameroom.Schema itself.
func ReadServerGameEvent(r *wire.Reader) (ServerGameEvent, error) {
	return ServerGameEvent{}, nil
}

func playerAt(room *{{.RoomType}}, i int) *{{.PlayerType}} { return room.{{.PlayersField.Name}}[i] }
func setPlayerAt(room *{{.RoomType}}, i int, p *{{.PlayerType}}) { room.{{.PlayersField.Name}}[i] = p }

// NewSchema builds the gameroom.Schema for {{.PlayerType}}/{{.RoomType}}. It wires the
// generated capability accessors and wire codec together with the
// hand-written ValidateEvent/OnEvent/Redact hooks.
func NewSchema() *gameroom.Schema[{{.RoomType}}, RoomOpt, {{.PlayerType}}, ClientGameEvent, ServerGameEvent] {
	return &gameroom.Schema[{{.RoomType}}, RoomOpt, {{.PlayerType}}, ClientGameEvent, ServerGameEvent]{
		MaxPlayers: {{.MaxPlayers}},
		NewRoom: func() {{.RoomType}} {
			return {{.RoomType}}{ {{.PlayersField.Name}}: make([]*{{.PlayerType}}, {{.MaxPlayers}}){{range .RoomArray}}, {{.Name}}: make([]{{.ElemType}}, {{.ArrayLen}}){{end}} }
		},
		CloneRoom:             func(r {{.RoomType}}) {{.RoomType}} { return r.Clone() },
		DiffRoom:              diffRoom,
		ApplyRoom:             applyRoom,
		IntoOptRoom:           intoOptRoom,
		FromOptRoom:           fromOptRoom,
		WriteRoomOpt:          WriteRoomOpt,
		WriteGameEvent:        WriteServerGameEvent,
		ReadClientGameEvent:   ReadClientGameEvent,
		PlayerAt:              playerAt,
		SetPlayerAt:           setPlayerAt,
		Host:                  func(room *{{.RoomType}}) uint8 { return room.{{.HostField.Name}} },
		SetHost:               func(room *{{.RoomType}}, h uint8) { room.{{.HostField.Name}} = h },
		NewPlayer:             func(name protocol.Name) {{.PlayerType}} { return {{.PlayerType}}{ {{.NameField.Name}}: name} },
		PlayerName:            func(p *{{.PlayerType}}) protocol.Name { return p.{{.NameField.Name}} },
		PlayerDisconnected:    func(p *{{.PlayerType}}) bool { return p.{{.DisconnectedField.Name}} },
		SetPlayerDisconnected: func(p *{{.PlayerType}}, v bool) { p.{{.DisconnectedField.Name}} = v },
		ValidateEvent:         ValidateEvent,
		OnEvent:               OnEvent,
		Redact:                Redact,
	}
}
`

func emit(sc *schema, sourceFile string) ([]byte, error) {
	data, err := buildTmplData(sc)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("roomgen").Parse(genTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		*tmplData
		SourceFile string
	}{data, sourceFile})
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	out := buf.String()
	out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	return []byte(out), nil
}
