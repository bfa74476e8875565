package topics

const (
	// Sinais de arbitragem
	SurebetSignals = "surebet_signals"

	// Continuação de estágios por partida
	MatchContinuation = "match_continuation"

	// Recomendações finais
	PromotedOdds = "promoted_odds"

	// DLQs
	SurebetSignalsDLQ    = "surebet_signals_dlq"
	MatchContinuationDLQ = "match_continuation_dlq"
)
