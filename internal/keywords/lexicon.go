package keywords

// Lexicon holds the word lists the extractor consults. The contents are
// product tuning, not algorithm: callers may swap in their own lists via
// configuration.
type Lexicon struct {
	Stopwords      map[string]bool
	Synonyms       map[string][]string
	Tools          map[string]bool
	Skills         map[string]bool
	SoftSkills     map[string]bool
	Certifications map[string]bool
}

// DefaultLexicon returns the built-in lists, curated for data, product and
// engineering roles.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Stopwords: set(
			"the", "and", "for", "with", "that", "this", "from", "into",
			"will", "your", "have", "work", "team", "role", "skills",
			"required", "responsibilities", "experience",
		),
		Synonyms: map[string][]string{
			"sql":           {"mysql", "postgres", "redshift"},
			"python":        {"numpy", "pandas"},
			"dashboard":     {"looker", "powerbi", "tableau"},
			"analysis":      {"analytical", "analytics"},
			"manage":        {"lead", "led", "oversaw"},
			"project":       {"initiative", "program"},
			"communication": {"presentation", "stakeholder"},
			"cloud":         {"aws", "azure", "gcp"},
			"automation":    {"orchestration", "workflow"},
			"testing":       {"qa", "quality"},
		},
		Tools: set(
			"tableau", "looker", "powerbi", "excel", "jira", "git", "docker",
			"kubernetes", "terraform", "airflow", "spark", "kafka", "redis",
			"postgres", "mysql", "redshift", "snowflake", "grafana",
		),
		Skills: set(
			"python", "sql", "java", "golang", "javascript", "typescript",
			"analysis", "analytics", "automation", "testing", "cloud", "aws",
			"gcp", "azure", "etl", "machine", "modeling", "statistics",
		),
		SoftSkills: set(
			"communication", "leadership", "collaboration", "mentoring",
			"stakeholder", "ownership", "presentation",
		),
		Certifications: set(
			"pmp", "cissp", "cpa", "cfa", "ckad", "cka",
		),
	}
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
