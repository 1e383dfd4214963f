package usage

import embeddinguc "github.com/Autilos/perfun-bot-new/internal/usecase/embedding"

// BudgetReader provides read-only access to token budget state.
type BudgetReader interface {
	Usage() embeddinguc.BudgetUsage
}
