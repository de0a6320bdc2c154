package encoding

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"hexmove.ai/internal/protocol"
	"hexmove.ai/internal/sim/game"
)

type digestView struct {
	Round    int                   `json:"round"`
	Moved    []string              `json:"moved"`
	Entities []protocol.EntityWire `json:"entities"`
}

// Digest hashes the canonical JSON of every entity plus round bookkeeping.
// Terrain is static and covered by the board sent in WELCOME.
func Digest(s *game.State) string {
	v := digestView{Round: s.Round(), Moved: s.Moved()}
	for _, e := range s.Entities() {
		v.Entities = append(v.Entities, EntityToWire(e))
	}
	b, _ := json.Marshal(v)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
