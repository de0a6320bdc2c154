package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type              string     `json:"type"`
	ProtocolVersion   string     `json:"protocol_version"`
	SupportedVersions []string   `json:"supported_versions,omitempty"`
	Player            string     `json:"player"`
	Auth              *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Player          string         `json:"player"`
	RulesDigest     string         `json:"rules_digest"`
	Catalogs        CatalogDigests `json:"catalogs"`
	Board           BoardMsg       `json:"board"`
}

type CatalogDigests struct {
	LocomotionDigest string `json:"locomotion_digest"`
	TerrainDigest    string `json:"terrain_digest"`
	ManeuversDigest  string `json:"maneuvers_digest"`
	TuningDigest     string `json:"tuning_digest"`
}

type BoardMsg struct {
	Radius int       `json:"radius"`
	Hexes  []HexWire `json:"hexes"`
}

type HexWire struct {
	Q         int    `json:"q"`
	R         int    `json:"r"`
	Terrain   string `json:"terrain"`
	Level     int    `json:"level,omitempty"`
	Depth     int    `json:"depth,omitempty"`
	Minefield bool   `json:"minefield,omitempty"`
	Hazard    bool   `json:"hazard,omitempty"`
	Building  string `json:"building,omitempty"`
	CF        int    `json:"cf,omitempty"`
}

// STATE (server -> client): sent after the handshake and after every ruling.
type StateMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Round           int          `json:"round"`
	Active          string       `json:"active"`
	ActiveOwner     string       `json:"active_owner"`
	Moved           []string     `json:"moved,omitempty"`
	Entities        []EntityWire `json:"entities"`
	StateDigest     string       `json:"state_digest"`
}

type EntityWire struct {
	ID      string      `json:"id"`
	Owner   string      `json:"owner"`
	Class   string      `json:"class"`
	Profile ProfileWire `json:"profile"`
	Status  []string    `json:"status,omitempty"`
	State   StateWire   `json:"state"`
}

type ProfileWire struct {
	Walk       int `json:"walk"`
	Run        int `json:"run"`
	Boost      int `json:"boost,omitempty"`
	Jump       int `json:"jump,omitempty"`
	Swim       int `json:"swim,omitempty"`
	SafeThrust int `json:"safe_thrust,omitempty"`
	MaxThrust  int `json:"max_thrust,omitempty"`
	Tonnage    int `json:"tonnage"`
	Piloting   int `json:"piloting"`
}

type StateWire struct {
	Q            int    `json:"q"`
	R            int    `json:"r"`
	Facing       string `json:"facing"`
	Elevation    int    `json:"elevation,omitempty"`
	Velocity     int    `json:"velocity,omitempty"`
	NextVelocity int    `json:"next_velocity,omitempty"`
	Vectors      [6]int `json:"vectors"`
	Fuel         int    `json:"fuel,omitempty"`
	AccelUsed    int    `json:"accel_used,omitempty"`
	DecelUsed    int    `json:"decel_used,omitempty"`
	Airborne     bool   `json:"airborne,omitempty"`
	InSpace      bool   `json:"in_space,omitempty"`
}

// MOVE_PATH (client -> server): a committed path. The server replays the
// steps itself; Claim is what the client's own validation predicted.
type MovePathMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	PathID          string     `json:"path_id"`
	EntityID        string     `json:"entity_id"`
	Vector          bool       `json:"vector,omitempty"`
	Swim            bool       `json:"swim,omitempty"`
	Forced          bool       `json:"forced,omitempty"`
	Steps           []StepWire `json:"steps"`
	Claim           ClaimWire  `json:"claim"`
}

type StepWire struct {
	Kind      string      `json:"kind"`
	Target    *TargetWire `json:"target,omitempty"`
	Equipment *int        `json:"equipment,omitempty"`
	Units     []string    `json:"units,omitempty"`
	Maneuver  int         `json:"maneuver,omitempty"`
}

type TargetWire struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Q    int    `json:"q"`
	R    int    `json:"r"`
}

type ClaimWire struct {
	Q      int    `json:"q"`
	R      int    `json:"r"`
	Facing string `json:"facing"`
	MP     int    `json:"mp"`
}

// MOVE_RESULT (server -> client)
type MoveResultMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	PathID          string     `json:"path_id"`
	EntityID        string     `json:"entity_id,omitempty"`
	Accepted        bool       `json:"accepted"`
	Code            string     `json:"code,omitempty"`
	Message         string     `json:"message,omitempty"`
	StepsApplied    int        `json:"steps_applied"`
	Final           *ClaimWire `json:"final,omitempty"`
	StateDigest     string     `json:"state_digest,omitempty"`
}
