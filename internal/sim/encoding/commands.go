package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/move"
)

// EncodeCommands packs a command list into base64(varint records). Runs of
// payload-free commands are (kind, run). A command carrying a payload is
// (kind, 0) followed by its payload fields.
func EncodeCommands(cmds []move.Command) string {
	var buf bytes.Buffer
	w := writer{buf: &buf}

	i := 0
	for i < len(cmds) {
		c := cmds[i]
		if hasPayload(c.Payload) {
			w.uvarint(uint64(c.Kind))
			w.uvarint(0)
			w.payload(c.Payload)
			i++
			continue
		}
		run := 1
		for j := i + 1; j < len(cmds) && cmds[j].Kind == c.Kind && !hasPayload(cmds[j].Payload) && run < 1<<31; j++ {
			run++
		}
		w.uvarint(uint64(c.Kind))
		w.uvarint(uint64(run))
		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func DecodeCommands(b64 string) ([]move.Command, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	r := reader{raw: raw}
	var out []move.Command
	for r.i < len(raw) {
		k, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		kind := move.StepKind(k)
		if !kind.Valid() {
			return nil, fmt.Errorf("bad step kind %d at %d", k, r.i)
		}
		run, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		if run == 0 {
			pl, err := r.payload()
			if err != nil {
				return nil, err
			}
			out = append(out, move.Command{Kind: kind, Payload: pl})
			continue
		}
		if run > 1<<16 {
			return nil, fmt.Errorf("run too long: %d", run)
		}
		for k := 0; k < int(run); k++ {
			out = append(out, move.Command{Kind: kind, Payload: move.NoPayload()})
		}
	}
	return out, nil
}

func hasPayload(p move.Payload) bool {
	return p.Target != nil || p.Equipment >= 0 || len(p.Units) > 0 || p.Maneuver != 0
}

type writer struct {
	buf *bytes.Buffer
	tmp [binary.MaxVarintLen64]byte
}

func (w *writer) uvarint(v uint64) {
	n := binary.PutUvarint(w.tmp[:], v)
	w.buf.Write(w.tmp[:n])
}

func (w *writer) varint(v int64) {
	n := binary.PutVarint(w.tmp[:], v)
	w.buf.Write(w.tmp[:n])
}

func (w *writer) str(s string) {
	w.uvarint(uint64(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) payload(p move.Payload) {
	w.varint(int64(p.Equipment))
	w.uvarint(uint64(p.Maneuver))
	if p.Target == nil {
		w.buf.WriteByte(0)
	} else {
		w.buf.WriteByte(1)
		w.str(string(p.Target.Kind))
		w.str(p.Target.ID)
		w.varint(int64(p.Target.Pos.Q))
		w.varint(int64(p.Target.Pos.R))
	}
	w.uvarint(uint64(len(p.Units)))
	for _, u := range p.Units {
		w.str(u)
	}
}

type reader struct {
	raw []byte
	i   int
}

func (r *reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.raw[r.i:])
	if n <= 0 {
		return 0, fmt.Errorf("bad varint at %d", r.i)
	}
	r.i += n
	return v, nil
}

func (r *reader) varint() (int64, error) {
	v, n := binary.Varint(r.raw[r.i:])
	if n <= 0 {
		return 0, fmt.Errorf("bad varint at %d", r.i)
	}
	r.i += n
	return v, nil
}

func (r *reader) byte() (byte, error) {
	if r.i >= len(r.raw) {
		return 0, fmt.Errorf("truncated at %d", r.i)
	}
	b := r.raw[r.i]
	r.i++
	return b, nil
}

func (r *reader) str() (string, error) {
	n, err := r.uvarint()
	if err != nil {
		return "", err
	}
	if n > uint64(len(r.raw)-r.i) {
		return "", fmt.Errorf("string overruns input at %d", r.i)
	}
	s := string(r.raw[r.i : r.i+int(n)])
	r.i += int(n)
	return s, nil
}

func (r *reader) payload() (move.Payload, error) {
	p := move.NoPayload()
	eq, err := r.varint()
	if err != nil {
		return p, err
	}
	p.Equipment = int(eq)
	mv, err := r.uvarint()
	if err != nil {
		return p, err
	}
	p.Maneuver = int(mv)
	flag, err := r.byte()
	if err != nil {
		return p, err
	}
	if flag == 1 {
		var t move.TargetRef
		kind, err := r.str()
		if err != nil {
			return p, err
		}
		t.Kind = move.TargetKind(kind)
		if t.ID, err = r.str(); err != nil {
			return p, err
		}
		q, err := r.varint()
		if err != nil {
			return p, err
		}
		rr, err := r.varint()
		if err != nil {
			return p, err
		}
		t.Pos = hex.Pos{Q: int(q), R: int(rr)}
		p.Target = &t
	}
	n, err := r.uvarint()
	if err != nil {
		return p, err
	}
	if n > uint64(len(r.raw)) {
		return p, fmt.Errorf("unit count too large: %d", n)
	}
	for k := 0; k < int(n); k++ {
		u, err := r.str()
		if err != nil {
			return p, err
		}
		p.Units = append(p.Units, u)
	}
	return p, nil
}
