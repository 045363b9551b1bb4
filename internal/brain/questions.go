package brain

import "strings"

// MaxPolicyQuestions caps how many knowledge-base questions one plan can raise.
const MaxPolicyQuestions = 3

const (
	ExportLicenceQuestion = "What are the export licence requirements for suppliers, and which goods or destinations need a licence?"
	ComplianceQuestion    = "What compliance and regulatory requirements must a supplier meet before onboarding?"
	DueDiligenceQuestion  = "What supplier due diligence steps are required under our policy and the OECD guidelines?"
)

// questionRoutes maps task keywords to the canonical knowledge-base question.
// Order matters: questions are raised in route order per task.
var questionRoutes = []struct {
	keywords []string
	question string
}{
	{[]string{"export", "licence", "license"}, ExportLicenceQuestion},
	{[]string{"compliance", "regulation", "regulatory"}, ComplianceQuestion},
	{[]string{"due diligence", "oecd"}, DueDiligenceQuestion},
}

// DeriveQuestions routes plan tasks to policy questions by keyword. It is
// pure: the same tasks always yield the same questions in the same order.
func DeriveQuestions(tasks []string) []string {
	questions := []string{}
	seen := map[string]bool{}

	for _, task := range tasks {
		lower := strings.ToLower(task)
		for _, route := range questionRoutes {
			if seen[route.question] || !containsAny(lower, route.keywords) {
				continue
			}
			seen[route.question] = true
			questions = append(questions, route.question)
			if len(questions) == MaxPolicyQuestions {
				return questions
			}
		}
	}
	return questions
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
