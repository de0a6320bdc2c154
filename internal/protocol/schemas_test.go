package protocol_test

import (
	"encoding/json"
	"testing"

	"hexmove.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	samples := map[string]string{
		protocol.TypeHello: `{"type":"HELLO","protocol_version":"1.0","player":"red"}`,
		protocol.TypeMovePath: `{
		  "type":"MOVE_PATH",
		  "protocol_version":"1.0",
		  "path_id":"P1",
		  "entity_id":"hunchback",
		  "steps":[
		    {"kind":"FORWARD"},
		    {"kind":"TURN_RIGHT"},
		    {"kind":"CHARGE","target":{"kind":"UNIT","id":"bulldog","q":1,"r":2}},
		    {"kind":"LAY_MINE","equipment":0},
		    {"kind":"LAUNCH","units":["f1","f2"]}
		  ],
		  "claim":{"q":1,"r":2,"facing":"NE","mp":4}
		}`,
		protocol.TypeMoveResult: `{"type":"MOVE_RESULT","protocol_version":"1.0","path_id":"P1","accepted":false,"code":"E_REPLAY_MISMATCH","steps_applied":0}`,
	}
	for typ, raw := range samples {
		if err := protocol.Validate(typ, []byte(raw)); err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
	}
}

func TestSchemas_RejectBadMovePath(t *testing.T) {
	cases := map[string]string{
		"missing claim":   `{"type":"MOVE_PATH","protocol_version":"1.0","path_id":"P1","entity_id":"x","steps":[]}`,
		"lower kind":      `{"type":"MOVE_PATH","protocol_version":"1.0","path_id":"P1","entity_id":"x","steps":[{"kind":"forward"}],"claim":{"q":0,"r":0,"facing":"N","mp":0}}`,
		"bad facing":      `{"type":"MOVE_PATH","protocol_version":"1.0","path_id":"P1","entity_id":"x","steps":[],"claim":{"q":0,"r":0,"facing":"UP","mp":0}}`,
		"extra field":     `{"type":"MOVE_PATH","protocol_version":"1.0","path_id":"P1","entity_id":"x","steps":[],"claim":{"q":0,"r":0,"facing":"N","mp":0},"teleport":true}`,
		"negative equip":  `{"type":"MOVE_PATH","protocol_version":"1.0","path_id":"P1","entity_id":"x","steps":[{"kind":"LAY_MINE","equipment":-1}],"claim":{"q":0,"r":0,"facing":"N","mp":0}}`,
		"building target": `{"type":"MOVE_PATH","protocol_version":"1.0","path_id":"P1","entity_id":"x","steps":[{"kind":"CHARGE","target":{"kind":"TREE","id":"t","q":0,"r":1}}],"claim":{"q":0,"r":0,"facing":"N","mp":0}}`,
	}
	for name, raw := range cases {
		if err := protocol.ValidateMovePath([]byte(raw)); err == nil {
			t.Fatalf("%s: expected schema error", name)
		}
	}
}

func TestMessagesMatchSchemas(t *testing.T) {
	eq := 2
	msg := protocol.MovePathMsg{
		Type:            protocol.TypeMovePath,
		ProtocolVersion: protocol.Version,
		PathID:          "P7",
		EntityID:        "wasp",
		Steps: []protocol.StepWire{
			{Kind: "START_JUMP"},
			{Kind: "FORWARD"},
			{Kind: "LAY_MINE", Equipment: &eq},
		},
		Claim: protocol.ClaimWire{Q: 0, R: 1, Facing: "N", MP: 1},
	}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := protocol.ValidateMovePath(b); err != nil {
		t.Fatalf("validate: %v", err)
	}

	res := protocol.MoveResultMsg{
		Type:            protocol.TypeMoveResult,
		ProtocolVersion: protocol.Version,
		PathID:          "P7",
		Accepted:        true,
		StepsApplied:    3,
		Final:           &protocol.ClaimWire{Q: 0, R: 1, Facing: "N", MP: 1},
		StateDigest:     "abc",
	}
	b, err = json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := protocol.Validate(protocol.TypeMoveResult, b); err != nil {
		t.Fatalf("validate result: %v", err)
	}
}
