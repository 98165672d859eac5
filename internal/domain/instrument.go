package domain

// InstrumentMessage is a configuration message published to the instrument
// before consumption starts.
type InstrumentMessage struct {
	Topic   string `toml:"topic" json:"topic"`
	Payload string `toml:"payload" json:"payload"`
}
