package store

import (
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/core/db"
)

type Stores struct {
	conn db.DBTX
}

func NewStores(conn db.DBTX) *Stores {
	return &Stores{conn: conn}
}

func (s *Stores) Evaluations() EvaluationStore {
	return newEvaluationStore(s.conn)
}

func (s *Stores) LLMCalls() LLMCallStore {
	return newLLMCallStore(s.conn)
}
