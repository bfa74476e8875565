package events

// Próximas filas possíveis para uma partida que ficou ready
const (
	NextQueueTitan007 = "titan007"
	NextQueueFotmob   = "fotmob"
)

// StageContinuation é publicado no tópico "match_continuation" para continuar
// o processamento de uma partida em outro estágio.
type StageContinuation struct {
	MessageID       string            `json:"message_id"`
	MatchExternalID string            `json:"match_external_id"`
	NextQueue       string            `json:"next_queue"`
	Extra           map[string]string `json:"extra,omitempty"`
}
