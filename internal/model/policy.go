package model

const NoPolicyAnswer = "I could not find relevant information in the knowledge base to answer this question."

type PolicySource struct {
	Document  string  `json:"document"`
	Page      int     `json:"page"`
	Relevance float64 `json:"relevance"`
}

type PolicyAnswer struct {
	Question        string         `json:"question"`
	Answer          string         `json:"answer"`
	Sources         []PolicySource `json:"sources"`
	Confidence      float64        `json:"confidence"`
	RetrievedChunks int            `json:"retrieved_chunks"`
	Error           string         `json:"error,omitempty"`
}

type RAGAnswers struct {
	Questions []string       `json:"questions"`
	Answers   []PolicyAnswer `json:"answers"`
	Error     string         `json:"error,omitempty"`
}

func EmptyRAGAnswers(errMsg string) RAGAnswers {
	return RAGAnswers{
		Questions: []string{},
		Answers:   []PolicyAnswer{},
		Error:     errMsg,
	}
}

func (r *RAGAnswers) normalize() {
	r.Questions = nonNil(r.Questions)
	if r.Answers == nil {
		r.Answers = []PolicyAnswer{}
	}
	for i := range r.Answers {
		if r.Answers[i].Sources == nil {
			r.Answers[i].Sources = []PolicySource{}
		}
	}
}
